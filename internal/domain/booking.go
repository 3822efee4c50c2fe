package domain

import "time"

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingAccepted   BookingStatus = "accepted"
	BookingDeclined   BookingStatus = "declined"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingAccepted, BookingDeclined},
	BookingAccepted:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed:  {BookingInProgress, BookingCancelled},
	BookingInProgress: {BookingCompleted},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingAccepted, BookingDeclined, BookingConfirmed, BookingInProgress, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, n := range bookingTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID               string        `json:"id"`
	CustomerID       string        `json:"customerId"`
	ProviderID       string        `json:"providerId"`
	ServiceID        string        `json:"serviceId,omitempty"`
	Status           BookingStatus `json:"status"`
	RequestedDate    string        `json:"requestedDate"`
	RequestedTime    string        `json:"requestedTime"`
	ConfirmedDate    string        `json:"confirmedDate,omitempty"`
	ConfirmedTime    string        `json:"confirmedTime,omitempty"`
	Notes            string        `json:"notes"`
	Price            float64       `json:"price"`
	BookingFee       float64       `json:"bookingFee"`
	TotalPaid        float64       `json:"totalPaid"`
	PaymentReference string        `json:"paymentReference"`
	IsPaid           bool          `json:"isPaid"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
