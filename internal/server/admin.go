package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brazadash/internal/domain"
	"brazadash/internal/usecase"
)

func (s *Server) financialReport(c *gin.Context) {
	var q usecase.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	rep, err := s.svc.Reports.FinancialReport(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) saveRestaurant(c *gin.Context) {
	var r domain.Restaurant
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.svc.Catalog.SaveRestaurant(c.Request.Context(), &r); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) saveMenuItem(c *gin.Context) {
	var m domain.MenuItem
	if err := c.ShouldBindJSON(&m); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.svc.Catalog.SaveMenuItem(c.Request.Context(), &m); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) saveProvider(c *gin.Context) {
	var p domain.ServiceProvider
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.svc.Catalog.SaveProvider(c.Request.Context(), &p); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) saveService(c *gin.Context) {
	var svc domain.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.svc.Catalog.SaveService(c.Request.Context(), &svc); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}
