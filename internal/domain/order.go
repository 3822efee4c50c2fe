package domain

import "time"

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:        {OrderConfirmed, OrderCancelled},
	OrderConfirmed:      {OrderPreparing, OrderCancelled},
	OrderPreparing:      {OrderReady},
	OrderReady:          {OrderOutForDelivery, OrderDelivered},
	OrderOutForDelivery: {OrderDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderOutForDelivery, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a vendor may move an order from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

type OrderItem struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

type Order struct {
	ID               string      `json:"id"`
	CustomerID       string      `json:"customerId"`
	RestaurantID     string      `json:"restaurantId"`
	Status           OrderStatus `json:"status"`
	Items            []OrderItem `json:"items"`
	Subtotal         float64     `json:"subtotal"`
	DeliveryFee      float64     `json:"deliveryFee"`
	Tip              float64     `json:"tip"`
	PlatformFee      float64     `json:"platformFee"`
	Total            float64     `json:"total"`
	DeliveryAddress  string      `json:"deliveryAddress"`
	Notes            string      `json:"notes"`
	PaymentReference string      `json:"paymentReference"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}
