package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"brazadash/internal/domain"
)

type BookingRequest struct {
	ProviderID    string `json:"providerId" binding:"required"`
	ServiceID     string `json:"serviceId"`
	RequestedDate string `json:"requestedDate" binding:"required"`
	RequestedTime string `json:"requestedTime" binding:"required"`
	Notes         string `json:"notes"`
}

type BookingSessionResult struct {
	SessionID  string  `json:"sessionId"`
	URL        string  `json:"url"`
	Price      float64 `json:"price"`
	BookingFee float64 `json:"bookingFee"`
	Total      float64 `json:"total"`
}

type BookingCheckoutService struct {
	Bookings      BookingRepo
	Catalog       CatalogRepo
	Gateway       PaymentGateway
	Notifier      NotificationSender
	BookingFee    float64
	Currency      string
	PublicBaseURL string
	Log           *zap.Logger
	Now           func() time.Time
}

func (s *BookingCheckoutService) CreateBookingSession(ctx context.Context, userID string, req BookingRequest) (*BookingSessionResult, error) {
	if userID == "" {
		return nil, domain.ErrForbidden("authentication required")
	}
	if _, err := time.Parse("2006-01-02", req.RequestedDate); err != nil {
		return nil, domain.ErrValidation("requestedDate must be YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", req.RequestedTime); err != nil {
		return nil, domain.ErrValidation("requestedTime must be HH:MM")
	}
	if len(req.Notes) > maxTextField {
		return nil, domain.ErrValidation("notes too long")
	}
	p, err := s.Catalog.GetServiceProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if !p.IsApproved {
		return nil, domain.ErrValidation("provider is not accepting bookings")
	}
	if p.UserID == userID {
		return nil, domain.ErrValidation("providers cannot book themselves")
	}
	name := p.Name
	price := p.BasePrice
	if req.ServiceID != "" {
		svc, err := s.Catalog.GetService(ctx, req.ServiceID)
		if err != nil {
			return nil, err
		}
		if svc.ProviderID != p.ID {
			return nil, domain.ErrValidation("service belongs to another provider")
		}
		name = svc.Name
		price = svc.Price
	}
	price = domain.RoundCents(price)
	fee := domain.RoundCents(s.BookingFee)
	if price <= 0 {
		return nil, domain.ErrValidation("provider has no price for this booking")
	}
	total := domain.ToCents(price) + domain.ToCents(fee)
	if total < domain.MinChargeCents {
		return nil, domain.ErrInvalidAmount(total)
	}
	md, err := bookingMeta{
		UserID:        userID,
		ProviderID:    p.ID,
		ServiceID:     req.ServiceID,
		Price:         price,
		BookingFee:    fee,
		RequestedDate: req.RequestedDate,
		RequestedTime: req.RequestedTime,
		Notes:         strings.TrimSpace(req.Notes),
	}.encode()
	if err != nil {
		return nil, err
	}
	lines := []domain.LineItem{{Name: name, UnitAmountCent: domain.ToCents(price), Quantity: 1}}
	if fee > 0 {
		lines = append(lines, domain.LineItem{Name: "Booking fee", UnitAmountCent: domain.ToCents(fee), Quantity: 1})
	}
	base := strings.TrimRight(s.PublicBaseURL, "/")
	sess, err := s.Gateway.CreateCheckoutSession(ctx, domain.CheckoutSessionRequest{
		LineItems:  lines,
		Currency:   s.currency(),
		SuccessURL: base + "/bookings/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/providers/" + p.ID,
		Metadata:   md,
	})
	if err != nil {
		s.Log.Error("create booking session failed", zap.String("user_id", userID), zap.Error(err))
		return nil, upstream("create checkout session", err)
	}
	return &BookingSessionResult{
		SessionID:  sess.ID,
		URL:        sess.URL,
		Price:      price,
		BookingFee: fee,
		Total:      domain.FromCents(total),
	}, nil
}

// CompleteBookingSession reconciles a paid session into exactly one booking.
func (s *BookingCheckoutService) CompleteBookingSession(ctx context.Context, userID, sessionID string) (*domain.Booking, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.ErrValidation("sessionId required")
	}
	sess, err := s.Gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.Log.Error("retrieve booking session failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, upstream("retrieve checkout session", err)
	}
	if sess.Metadata[metaUserID] != userID {
		return nil, domain.ErrForbidden("payment belongs to another user")
	}
	if sess.PaymentStatus != domain.SessionPaid {
		return nil, domain.ErrPaymentNotCompleted(sess.PaymentStatus)
	}
	existing, err := s.Bookings.GetBookingByPaymentReference(ctx, sess.ID)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	meta, err := decodeBookingMeta(sess.Metadata)
	if err != nil {
		return nil, err
	}
	now := nowOr(s.Now)
	b := &domain.Booking{
		ID:               newID(),
		CustomerID:       userID,
		ProviderID:       meta.ProviderID,
		ServiceID:        meta.ServiceID,
		Status:           domain.BookingPending,
		RequestedDate:    meta.RequestedDate,
		RequestedTime:    meta.RequestedTime,
		Notes:            meta.Notes,
		Price:            meta.Price,
		BookingFee:       meta.BookingFee,
		TotalPaid:        domain.FromCents(domain.ToCents(meta.Price) + domain.ToCents(meta.BookingFee)),
		PaymentReference: sess.ID,
		IsPaid:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stored, inserted, err := s.Bookings.InsertBooking(ctx, b)
	if err != nil {
		s.Log.Error("insert booking failed", zap.String("payment_reference", sess.ID), zap.Error(err))
		return nil, err
	}
	if !inserted {
		return stored, nil
	}
	s.Log.Info("booking created from payment",
		zap.String("booking_id", stored.ID),
		zap.String("payment_reference", sess.ID),
		zap.Float64("total_paid", stored.TotalPaid))
	s.notifyBooked(ctx, stored)
	return stored, nil
}

func (s *BookingCheckoutService) notifyBooked(ctx context.Context, b *domain.Booking) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, b.CustomerID, "Booking requested",
		fmt.Sprintf("Your booking for %s at %s is awaiting the provider's response.", b.RequestedDate, b.RequestedTime), domain.NotifyBooking); err != nil {
		s.Log.Error("customer notification failed", zap.String("booking_id", b.ID), zap.Error(err))
	}
	p, err := s.Catalog.GetServiceProvider(ctx, b.ProviderID)
	if err != nil {
		s.Log.Error("provider lookup for notification failed", zap.String("booking_id", b.ID), zap.Error(err))
		return
	}
	if err := s.Notifier.Notify(ctx, p.UserID, "New booking request",
		fmt.Sprintf("New paid booking request for %s at %s.", b.RequestedDate, b.RequestedTime), domain.NotifyBooking); err != nil {
		s.Log.Error("provider notification failed", zap.String("booking_id", b.ID), zap.Error(err))
	}
}

func (s *BookingCheckoutService) currency() string {
	if s.Currency == "" {
		return "usd"
	}
	return s.Currency
}
