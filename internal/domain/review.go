package domain

import "time"

const MaxReviewPhotos = 5

type Review struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	CustomerID     string    `json:"customerId"`
	RestaurantID   string    `json:"restaurantId"`
	Rating         int       `json:"rating"`
	FoodRating     int       `json:"foodRating,omitempty"`
	DeliveryRating int       `json:"deliveryRating,omitempty"`
	Comment        string    `json:"comment"`
	PhotoURLs      []string  `json:"photoUrls"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ServiceReview struct {
	ID                  string    `json:"id"`
	BookingID           string    `json:"bookingId"`
	CustomerID          string    `json:"customerId"`
	ProviderID          string    `json:"providerId"`
	Rating              int       `json:"rating"`
	QualityRating       int       `json:"qualityRating,omitempty"`
	PunctualityRating   int       `json:"punctualityRating,omitempty"`
	CommunicationRating int       `json:"communicationRating,omitempty"`
	Comment             string    `json:"comment"`
	PhotoURLs           []string  `json:"photoUrls"`
	CreatedAt           time.Time `json:"createdAt"`
}
