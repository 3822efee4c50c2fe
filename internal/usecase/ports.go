package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"brazadash/internal/domain"
)

type CatalogRepo interface {
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	GetRestaurantByOwner(ctx context.Context, ownerID string) (*domain.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	PutRestaurant(ctx context.Context, r *domain.Restaurant) error
	GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error)
	ListMenuItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error)
	PutMenuItem(ctx context.Context, m *domain.MenuItem) error
	GetServiceProvider(ctx context.Context, id string) (*domain.ServiceProvider, error)
	GetProviderByUser(ctx context.Context, userID string) (*domain.ServiceProvider, error)
	ListProviders(ctx context.Context) ([]domain.ServiceProvider, error)
	PutServiceProvider(ctx context.Context, p *domain.ServiceProvider) error
	GetService(ctx context.Context, id string) (*domain.Service, error)
	ListServices(ctx context.Context, providerID string) ([]domain.Service, error)
	PutService(ctx context.Context, s *domain.Service) error
	RefreshRestaurantRating(ctx context.Context, restaurantID string) error
	RefreshProviderRating(ctx context.Context, providerID string) error
}

type OrderRepo interface {
	// InsertOrder stores o unless an order with the same payment reference
	// exists, in which case the existing row is returned with inserted=false.
	InsertOrder(ctx context.Context, o *domain.Order) (stored *domain.Order, inserted bool, err error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByPaymentReference(ctx context.Context, ref string) (*domain.Order, error)
	// UpdateOrderStatus moves the order from one status to another. It fails
	// with ErrConflict when the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListOrdersByRestaurant(ctx context.Context, restaurantID string) ([]domain.Order, error)
	ListOrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error)
}

type BookingRepo interface {
	InsertBooking(ctx context.Context, b *domain.Booking) (stored *domain.Booking, inserted bool, err error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	GetBookingByPaymentReference(ctx context.Context, ref string) (*domain.Booking, error)
	// UpdateBooking overwrites b only while its stored status is still prev.
	UpdateBooking(ctx context.Context, b *domain.Booking, prev domain.BookingStatus) error
	ListBookingsByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error)
	ListBookingsByProvider(ctx context.Context, providerID string) ([]domain.Booking, error)
	ListBookingsCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.Booking, error)
}

type ReviewRepo interface {
	InsertReview(ctx context.Context, r *domain.Review) error
	GetReviewByOrder(ctx context.Context, orderID string) (*domain.Review, error)
	ListReviewsByRestaurant(ctx context.Context, restaurantID string) ([]domain.Review, error)
	InsertServiceReview(ctx context.Context, r *domain.ServiceReview) error
	GetServiceReviewByBooking(ctx context.Context, bookingID string) (*domain.ServiceReview, error)
	ListServiceReviewsByProvider(ctx context.Context, providerID string) ([]domain.ServiceReview, error)
}

type NotificationRepo interface {
	InsertNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
}

// PaymentGateway is the contract with the external payments platform.
// Implementations return *domain.ErrUpstream, *domain.ErrCaptureFailed or
// domain.ErrInvalidAmount for the failure modes callers distinguish.
type PaymentGateway interface {
	PublishableKey(ctx context.Context) (string, error)
	CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error)
	RetrieveIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
	CaptureIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
	CreateCheckoutSession(ctx context.Context, req domain.CheckoutSessionRequest) (*domain.CheckoutSession, error)
	RetrieveSession(ctx context.Context, id string) (*domain.CheckoutSession, error)
	ProcessOnReader(ctx context.Context, readerID, intentID string) error
	CancelReaderAction(ctx context.Context, readerID string) error
}

type NotificationSender interface {
	Notify(ctx context.Context, userID, title, message string, typ domain.NotificationType) error
}

// upstream keeps typed domain errors and wraps anything else as ErrUpstream.
func upstream(op string, err error) error {
	var (
		up  *domain.ErrUpstream
		cf  *domain.ErrCaptureFailed
		ia  domain.ErrInvalidAmount
		nf  domain.ErrNotFound
		val domain.ErrValidation
	)
	if errors.As(err, &up) || errors.As(err, &cf) || errors.As(err, &ia) || errors.As(err, &nf) || errors.As(err, &val) {
		return err
	}
	return &domain.ErrUpstream{Op: op, Err: err}
}

func newID() string { return uuid.NewString() }

func nowOr(f func() time.Time) time.Time {
	if f != nil {
		return f().UTC()
	}
	return time.Now().UTC()
}
