package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"brazadash/internal/usecase"
)

// Services are the use cases the HTTP layer exposes.
type Services struct {
	Auth            *usecase.AuthService
	Catalog         *usecase.CatalogService
	Checkout        *usecase.CheckoutService
	BookingCheckout *usecase.BookingCheckoutService
	Orders          *usecase.OrderService
	Bookings        *usecase.BookingService
	Reviews         *usecase.ReviewService
	Terminal        *usecase.TerminalService
	Reports         *usecase.ReportService
	Notifications   *usecase.Notifier
}

type Options struct {
	UploadsDir string
	// MaxUploadBytes caps a single review photo.
	MaxUploadBytes int64
}

type Server struct {
	svc    Services
	opts   Options
	log    *zap.Logger
	router *gin.Engine
}

func New(svc Services, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	s := &Server{svc: svc, opts: opts, log: log, router: gin.New()}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := s.router
	r.Use(gin.Recovery(), RequestID(), Logger(s.log), cors())
	if s.opts.UploadsDir != "" {
		r.Static("/uploads", s.opts.UploadsDir)
	}

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "brazadash"})
	})

	// public catalog
	api.GET("/restaurants", s.listRestaurants)
	api.GET("/restaurants/:id", s.getRestaurant)
	api.GET("/restaurants/:id/menu", s.getMenu)
	api.GET("/restaurants/:id/reviews", s.listRestaurantReviews)
	api.GET("/providers", s.listProviders)
	api.GET("/providers/:id", s.getProvider)
	api.GET("/providers/:id/services", s.listServices)
	api.GET("/providers/:id/reviews", s.listProviderReviews)

	authed := api.Group("", Auth(s.svc.Auth))

	checkout := authed.Group("/checkout")
	checkout.GET("/config", s.checkoutConfig)
	checkout.POST("/create-payment-intent", s.createPaymentIntent)
	checkout.POST("/confirm-payment", s.confirmPayment)
	checkout.POST("/create-session", s.createSession)
	checkout.POST("/complete", s.completeSession)
	checkout.GET("/session/:id", s.sessionStatus)

	authed.POST("/bookings/checkout", s.createBookingSession)
	authed.POST("/bookings/checkout/complete", s.completeBookingSession)
	authed.GET("/bookings", s.listMyBookings)
	authed.GET("/orders", s.listMyOrders)
	authed.GET("/orders/:id", s.getOrder)

	authed.POST("/reviews/orders/:id", s.createReview)
	authed.POST("/reviews/bookings/:id", s.createServiceReview)
	authed.POST("/reviews/photos", s.uploadReviewPhoto)

	authed.GET("/notifications", s.listNotifications)
	authed.POST("/notifications/:id/read", s.markNotificationRead)

	authed.GET("/provider/bookings", s.listProviderBookings)
	authed.PATCH("/provider/bookings/:id/status", s.updateBookingStatus)

	vendor := authed.Group("", RequireApprovedVendor(s.svc.Catalog))
	vendor.GET("/vendor/orders", s.listVendorOrders)
	vendor.GET("/vendor/orders/:id", s.getVendorOrder)
	vendor.PATCH("/vendor/orders/:id/status", s.updateOrderStatus)

	term := vendor.Group("/terminal")
	term.POST("/payment-intents", s.createTerminalIntent)
	term.POST("/payment-intents/:id/capture", s.captureTerminalIntent)
	term.GET("/payment-intents/:id/status", s.terminalIntentStatus)
	term.POST("/readers/:id/cancel", s.cancelReader)
	term.GET("/readers/:id/poll", s.pollReader)

	admin := authed.Group("/admin", RequireAdmin())
	admin.GET("/financial-report", s.financialReport)
	admin.POST("/restaurants", s.saveRestaurant)
	admin.POST("/menu-items", s.saveMenuItem)
	admin.POST("/providers", s.saveProvider)
	admin.POST("/services", s.saveService)
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		h.Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
