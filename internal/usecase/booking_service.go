package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"brazadash/internal/domain"
)

type BookingService struct {
	Bookings BookingRepo
	Catalog  CatalogRepo
	Notifier NotificationSender
	Log      *zap.Logger
	Now      func() time.Time
}

type BookingStatusUpdate struct {
	Status        domain.BookingStatus `json:"status" binding:"required"`
	ConfirmedDate string               `json:"confirmedDate"`
	ConfirmedTime string               `json:"confirmedTime"`
}

func (s *BookingService) ListForCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	return s.Bookings.ListBookingsByCustomer(ctx, customerID)
}

func (s *BookingService) ListForProvider(ctx context.Context, userID string) ([]domain.Booking, error) {
	p, err := s.Catalog.GetProviderByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Bookings.ListBookingsByProvider(ctx, p.ID)
}

// UpdateStatus applies a provider transition. Only the provider owning the
// booking may call it.
func (s *BookingService) UpdateStatus(ctx context.Context, userID, bookingID string, upd BookingStatusUpdate) (*domain.Booking, error) {
	if !upd.Status.Valid() {
		return nil, domain.ErrValidation("invalid status")
	}
	p, err := s.Catalog.GetProviderByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrForbidden("caller is not a service provider")
	}
	b, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID != p.ID {
		return nil, domain.ErrForbidden("booking belongs to another provider")
	}
	if !b.Status.CanTransition(upd.Status) {
		return nil, domain.ErrConflict("cannot move booking from " + string(b.Status) + " to " + string(upd.Status))
	}
	if upd.Status == domain.BookingConfirmed {
		b.ConfirmedDate = orDefault(upd.ConfirmedDate, b.RequestedDate)
		b.ConfirmedTime = orDefault(upd.ConfirmedTime, b.RequestedTime)
	}
	prev := b.Status
	b.Status = upd.Status
	b.UpdatedAt = nowOr(s.Now)
	if err := s.Bookings.UpdateBooking(ctx, b, prev); err != nil {
		return nil, err
	}
	s.Log.Info("booking status changed",
		zap.String("booking_id", b.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(b.Status)))
	if s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, b.CustomerID, "Booking "+humanStatus(string(b.Status)),
			p.Name+" marked your booking as "+humanStatus(string(b.Status))+".", domain.NotifyBooking); err != nil {
			s.Log.Error("booking status notification failed", zap.String("booking_id", b.ID), zap.Error(err))
		}
	}
	return b, nil
}

func orDefault(s, d string) string {
	if s == "" {
		return d
	}
	return s
}
