package domain

import "time"

type Restaurant struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	IsApproved  bool      `json:"isApproved"`
	DeliveryFee float64   `json:"deliveryFee"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type MenuItem struct {
	ID           string  `json:"id"`
	RestaurantID string  `json:"restaurantId"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	IsAvailable  bool    `json:"isAvailable"`
}

type ServiceProvider struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	IsApproved  bool      `json:"isApproved"`
	BasePrice   float64   `json:"basePrice"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Service struct {
	ID          string  `json:"id"`
	ProviderID  string  `json:"providerId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}
