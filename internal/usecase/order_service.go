package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"brazadash/internal/domain"
)

type OrderService struct {
	Orders   OrderRepo
	Notifier NotificationSender
	Log      *zap.Logger
	Now      func() time.Time
}

// Get returns an order visible to the caller: its customer, the owning
// restaurant (when restaurantID is set) or an admin.
func (s *OrderService) Get(ctx context.Context, p domain.Principal, restaurantID, id string) (*domain.Order, error) {
	o, err := s.Orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID == p.UserID || p.IsAdmin() || (restaurantID != "" && o.RestaurantID == restaurantID) {
		return o, nil
	}
	return nil, domain.ErrForbidden("order belongs to another user")
}

func (s *OrderService) ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.Orders.ListOrdersByCustomer(ctx, customerID)
}

func (s *OrderService) ListForRestaurant(ctx context.Context, restaurantID string) ([]domain.Order, error) {
	return s.Orders.ListOrdersByRestaurant(ctx, restaurantID)
}

// UpdateStatus applies a vendor transition to an order of restaurant r.
func (s *OrderService) UpdateStatus(ctx context.Context, r *domain.Restaurant, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, domain.ErrValidation("invalid status")
	}
	o, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.RestaurantID != r.ID {
		return nil, domain.ErrForbidden("order belongs to another restaurant")
	}
	if !o.Status.CanTransition(next) {
		return nil, domain.ErrConflict("cannot move order from " + string(o.Status) + " to " + string(next))
	}
	now := nowOr(s.Now)
	if err := s.Orders.UpdateOrderStatus(ctx, o.ID, o.Status, next, now); err != nil {
		return nil, err
	}
	prev := o.Status
	o.Status = next
	o.UpdatedAt = now
	s.Log.Info("order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	if s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, o.CustomerID, "Order "+humanStatus(string(next)),
			"Your order from "+r.Name+" is now "+humanStatus(string(next))+".", domain.NotifyOrder); err != nil {
			s.Log.Error("order status notification failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	return o, nil
}

func humanStatus(s string) string { return strings.ReplaceAll(s, "_", " ") }
