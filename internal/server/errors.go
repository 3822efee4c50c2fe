package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"brazadash/internal/domain"
)

// status maps the domain error taxonomy onto HTTP.
func status(err error) (int, string) {
	var (
		val  domain.ErrValidation
		pnc  domain.ErrPaymentNotCompleted
		ia   domain.ErrInvalidAmount
		fb   domain.ErrForbidden
		nf   domain.ErrNotFound
		cf   domain.ErrConflict
		capf *domain.ErrCaptureFailed
		up   *domain.ErrUpstream
	)
	switch {
	case errors.As(err, &val):
		return http.StatusBadRequest, "BadRequest"
	case errors.As(err, &pnc):
		return http.StatusBadRequest, "PaymentNotCompleted"
	case errors.As(err, &ia):
		return http.StatusBadRequest, "InvalidAmount"
	case errors.As(err, &fb):
		return http.StatusForbidden, "Forbidden"
	case errors.As(err, &nf):
		return http.StatusNotFound, "NotFound"
	case errors.As(err, &cf):
		return http.StatusConflict, "Conflict"
	case errors.As(err, &capf):
		return http.StatusBadGateway, "CaptureFailed"
	case errors.As(err, &up):
		return http.StatusInternalServerError, "UpstreamError"
	default:
		return http.StatusInternalServerError, "ServerError"
	}
}

// fail logs server-side failures and writes the error envelope.
func (s *Server) fail(c *gin.Context, err error) {
	if code, _ := status(err); code >= 500 {
		s.log.Error("request failed",
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	respondErr(c, err)
}

func respondErr(c *gin.Context, err error) {
	code, name := status(err)
	msg := err.Error()
	if name == "ServerError" {
		msg = "internal error"
	}
	writeErr(c, code, name, msg)
}

func abort(c *gin.Context, code int, name, msg string) {
	writeErr(c, code, name, msg)
	c.Abort()
}

func writeErr(c *gin.Context, code int, name, msg string) {
	c.JSON(code, gin.H{
		"error": gin.H{
			"code":      name,
			"message":   msg,
			"requestId": c.GetString(ctxRequestID),
		},
	})
}

func badRequest(c *gin.Context, msg string) {
	writeErr(c, http.StatusBadRequest, "BadRequest", msg)
}
