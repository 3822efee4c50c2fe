package domain

import "time"

type NotificationType string

const (
	NotifyOrder   NotificationType = "order"
	NotifyBooking NotificationType = "booking"
	NotifyReview  NotificationType = "review"
	NotifyPayment NotificationType = "payment"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
