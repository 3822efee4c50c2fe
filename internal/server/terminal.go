package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brazadash/internal/usecase"
)

func (s *Server) createTerminalIntent(c *gin.Context) {
	var req usecase.TerminalChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	out, err := s.svc.Terminal.CreateIntent(c.Request.Context(), restaurant(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) captureTerminalIntent(c *gin.Context) {
	out, err := s.svc.Terminal.Capture(c.Request.Context(), restaurant(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) terminalIntentStatus(c *gin.Context) {
	pi, err := s.svc.Terminal.Status(c.Request.Context(), restaurant(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pi)
}

func (s *Server) cancelReader(c *gin.Context) {
	if err := s.svc.Terminal.CancelReader(c.Request.Context(), restaurant(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (s *Server) pollReader(c *gin.Context) {
	snap, err := s.svc.Terminal.PollState(restaurant(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
