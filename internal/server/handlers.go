package server

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"brazadash/internal/domain"
	"brazadash/internal/usecase"
)

// catalog

func (s *Server) listRestaurants(c *gin.Context) {
	out, err := s.svc.Catalog.Restaurants(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getRestaurant(c *gin.Context) {
	out, err := s.svc.Catalog.Restaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getMenu(c *gin.Context) {
	out, err := s.svc.Catalog.Menu(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listProviders(c *gin.Context) {
	out, err := s.svc.Catalog.Providers(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getProvider(c *gin.Context) {
	out, err := s.svc.Catalog.Provider(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listServices(c *gin.Context) {
	out, err := s.svc.Catalog.Services(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// checkout

type confirmPaymentReq struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
}

type completeSessionReq struct {
	SessionID string `json:"sessionId" binding:"required"`
}

func (s *Server) checkoutConfig(c *gin.Context) {
	key, err := s.svc.Checkout.Gateway.PublishableKey(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"publishableKey": key})
}

func (s *Server) createPaymentIntent(c *gin.Context) {
	var req usecase.CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	out, err := s.svc.Checkout.CreatePaymentIntent(c.Request.Context(), userID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) confirmPayment(c *gin.Context) {
	var req confirmPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	o, err := s.svc.Checkout.ConfirmPayment(c.Request.Context(), userID(c), req.PaymentIntentID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (s *Server) createSession(c *gin.Context) {
	var req usecase.CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	out, err := s.svc.Checkout.CreateSession(c.Request.Context(), userID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) completeSession(c *gin.Context) {
	var req completeSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	o, err := s.svc.Checkout.CompleteSession(c.Request.Context(), userID(c), req.SessionID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (s *Server) sessionStatus(c *gin.Context) {
	out, err := s.svc.Checkout.SessionStatus(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createBookingSession(c *gin.Context) {
	var req usecase.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	out, err := s.svc.BookingCheckout.CreateBookingSession(c.Request.Context(), userID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) completeBookingSession(c *gin.Context) {
	var req completeSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	b, err := s.svc.BookingCheckout.CompleteBookingSession(c.Request.Context(), userID(c), req.SessionID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// orders and bookings

type orderStatusReq struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

func (s *Server) listMyOrders(c *gin.Context) {
	out, err := s.svc.Orders.ListForCustomer(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getOrder(c *gin.Context) {
	p, _ := principal(c)
	o, err := s.svc.Orders.Get(c.Request.Context(), p, "", c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) listVendorOrders(c *gin.Context) {
	out, err := s.svc.Orders.ListForRestaurant(c.Request.Context(), restaurant(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getVendorOrder(c *gin.Context) {
	p, _ := principal(c)
	o, err := s.svc.Orders.Get(c.Request.Context(), p, restaurant(c).ID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	var req orderStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	o, err := s.svc.Orders.UpdateStatus(c.Request.Context(), restaurant(c), c.Param("id"), req.Status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) listMyBookings(c *gin.Context) {
	out, err := s.svc.Bookings.ListForCustomer(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listProviderBookings(c *gin.Context) {
	out, err := s.svc.Bookings.ListForProvider(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) updateBookingStatus(c *gin.Context) {
	var req usecase.BookingStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	b, err := s.svc.Bookings.UpdateStatus(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// reviews

func (s *Server) listRestaurantReviews(c *gin.Context) {
	out, err := s.svc.Reviews.ListRestaurantReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listProviderReviews(c *gin.Context) {
	out, err := s.svc.Reviews.ListProviderReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createReview(c *gin.Context) {
	var in usecase.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := s.svc.Reviews.CreateReview(c.Request.Context(), userID(c), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *Server) createServiceReview(c *gin.Context) {
	var in usecase.ServiceReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := s.svc.Reviews.CreateServiceReview(c.Request.Context(), userID(c), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *Server) uploadReviewPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes+1<<20)
	hdr, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "field 'file' required")
		return
	}
	if hdr.Size > s.opts.MaxUploadBytes {
		badRequest(c, "file too large")
		return
	}
	f, err := hdr.Open()
	if err != nil {
		badRequest(c, "cannot read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.opts.MaxUploadBytes))
	if err != nil {
		badRequest(c, "cannot read file")
		return
	}
	url, err := s.svc.Reviews.UploadPhoto(userID(c), filepath.Base(hdr.Filename), data)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// notifications

func (s *Server) listNotifications(c *gin.Context) {
	out, err := s.svc.Notifications.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) markNotificationRead(c *gin.Context) {
	if err := s.svc.Notifications.MarkRead(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
