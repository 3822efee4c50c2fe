package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"brazadash/internal/domain"
)

type PhotoWriter interface {
	WriteFile(dir, filename string, data []byte) (string, error)
}

type ReviewInput struct {
	Rating         int      `json:"rating" binding:"required"`
	FoodRating     int      `json:"foodRating"`
	DeliveryRating int      `json:"deliveryRating"`
	Comment        string   `json:"comment"`
	PhotoURLs      []string `json:"photoUrls"`
}

type ServiceReviewInput struct {
	Rating              int      `json:"rating" binding:"required"`
	QualityRating       int      `json:"qualityRating"`
	PunctualityRating   int      `json:"punctualityRating"`
	CommunicationRating int      `json:"communicationRating"`
	Comment             string   `json:"comment"`
	PhotoURLs           []string `json:"photoUrls"`
}

const maxComment = 2000

type ReviewService struct {
	Orders   OrderRepo
	Bookings BookingRepo
	Reviews  ReviewRepo
	Catalog  CatalogRepo
	Notifier NotificationSender
	Photos   PhotoWriter
	Log      *zap.Logger
	Now      func() time.Time
}

// CreateReview is allowed once per delivered order, by its customer.
func (s *ReviewService) CreateReview(ctx context.Context, userID, orderID string, in ReviewInput) (*domain.Review, error) {
	if err := validateRatings(in.Rating, in.FoodRating, in.DeliveryRating); err != nil {
		return nil, err
	}
	if err := validateReviewBody(in.Comment, in.PhotoURLs); err != nil {
		return nil, err
	}
	o, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != userID {
		return nil, domain.ErrForbidden("order belongs to another user")
	}
	if o.Status != domain.OrderDelivered {
		return nil, domain.ErrConflict("only delivered orders can be reviewed")
	}
	if _, err := s.Reviews.GetReviewByOrder(ctx, orderID); err == nil {
		return nil, domain.ErrConflict("order already reviewed")
	} else if !isNotFound(err) {
		return nil, err
	}
	r := &domain.Review{
		ID:             newID(),
		OrderID:        o.ID,
		CustomerID:     userID,
		RestaurantID:   o.RestaurantID,
		Rating:         in.Rating,
		FoodRating:     in.FoodRating,
		DeliveryRating: in.DeliveryRating,
		Comment:        strings.TrimSpace(in.Comment),
		PhotoURLs:      nonNil(in.PhotoURLs),
		CreatedAt:      nowOr(s.Now),
	}
	if err := s.Reviews.InsertReview(ctx, r); err != nil {
		return nil, err
	}
	if err := s.Catalog.RefreshRestaurantRating(ctx, o.RestaurantID); err != nil {
		s.Log.Error("refresh restaurant rating failed", zap.String("restaurant_id", o.RestaurantID), zap.Error(err))
	}
	if rest, err := s.Catalog.GetRestaurant(ctx, o.RestaurantID); err == nil && s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, rest.OwnerID, "New review",
			fmt.Sprintf("A customer rated their order %d/5.", r.Rating), domain.NotifyReview); err != nil {
			s.Log.Error("review notification failed", zap.String("review_id", r.ID), zap.Error(err))
		}
	}
	return r, nil
}

// CreateServiceReview is allowed once per completed booking, by its customer.
func (s *ReviewService) CreateServiceReview(ctx context.Context, userID, bookingID string, in ServiceReviewInput) (*domain.ServiceReview, error) {
	if err := validateRatings(in.Rating, in.QualityRating, in.PunctualityRating, in.CommunicationRating); err != nil {
		return nil, err
	}
	if err := validateReviewBody(in.Comment, in.PhotoURLs); err != nil {
		return nil, err
	}
	b, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != userID {
		return nil, domain.ErrForbidden("booking belongs to another user")
	}
	if b.Status != domain.BookingCompleted {
		return nil, domain.ErrConflict("only completed bookings can be reviewed")
	}
	if _, err := s.Reviews.GetServiceReviewByBooking(ctx, bookingID); err == nil {
		return nil, domain.ErrConflict("booking already reviewed")
	} else if !isNotFound(err) {
		return nil, err
	}
	r := &domain.ServiceReview{
		ID:                  newID(),
		BookingID:           b.ID,
		CustomerID:          userID,
		ProviderID:          b.ProviderID,
		Rating:              in.Rating,
		QualityRating:       in.QualityRating,
		PunctualityRating:   in.PunctualityRating,
		CommunicationRating: in.CommunicationRating,
		Comment:             strings.TrimSpace(in.Comment),
		PhotoURLs:           nonNil(in.PhotoURLs),
		CreatedAt:           nowOr(s.Now),
	}
	if err := s.Reviews.InsertServiceReview(ctx, r); err != nil {
		return nil, err
	}
	if err := s.Catalog.RefreshProviderRating(ctx, b.ProviderID); err != nil {
		s.Log.Error("refresh provider rating failed", zap.String("provider_id", b.ProviderID), zap.Error(err))
	}
	if p, err := s.Catalog.GetServiceProvider(ctx, b.ProviderID); err == nil && s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, p.UserID, "New review",
			fmt.Sprintf("A customer rated your service %d/5.", r.Rating), domain.NotifyReview); err != nil {
			s.Log.Error("service review notification failed", zap.String("review_id", r.ID), zap.Error(err))
		}
	}
	return r, nil
}

func (s *ReviewService) ListRestaurantReviews(ctx context.Context, restaurantID string) ([]domain.Review, error) {
	return s.Reviews.ListReviewsByRestaurant(ctx, restaurantID)
}

func (s *ReviewService) ListProviderReviews(ctx context.Context, providerID string) ([]domain.ServiceReview, error) {
	return s.Reviews.ListServiceReviewsByProvider(ctx, providerID)
}

// UploadPhoto stores a review photo and returns its public URL.
func (s *ReviewService) UploadPhoto(userID, filename string, data []byte) (string, error) {
	if s.Photos == nil {
		return "", domain.ErrValidation("photo uploads disabled")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", domain.ErrValidation("only jpg/png/webp allowed")
	}
	if len(data) == 0 {
		return "", domain.ErrValidation("empty file")
	}
	return s.Photos.WriteFile("reviews/"+userID, newID()+ext, data)
}

func validateRatings(rating int, sub ...int) error {
	if rating < 1 || rating > 5 {
		return domain.ErrValidation("rating must be between 1 and 5")
	}
	for _, r := range sub {
		if r != 0 && (r < 1 || r > 5) {
			return domain.ErrValidation("sub-ratings must be between 1 and 5")
		}
	}
	return nil
}

func validateReviewBody(comment string, photos []string) error {
	if len(comment) > maxComment {
		return domain.ErrValidation("comment too long")
	}
	if len(photos) > domain.MaxReviewPhotos {
		return domain.ErrValidation(fmt.Sprintf("at most %d photos", domain.MaxReviewPhotos))
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
