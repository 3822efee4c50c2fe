package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"brazadash/internal/domain"
)

const (
	maxItemQuantity = 99
	maxTip          = 1000.0
	maxTextField    = 500
)

type CartItem struct {
	MenuItemID string `json:"menuItemId" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

type CartRequest struct {
	RestaurantID    string     `json:"restaurantId" binding:"required"`
	Items           []CartItem `json:"items" binding:"required,min=1"`
	DeliveryAddress string     `json:"deliveryAddress"`
	Notes           string     `json:"notes"`
	Tip             float64    `json:"tip"`
}

type PaymentIntentResult struct {
	PaymentIntentID string             `json:"paymentIntentId"`
	ClientSecret    string             `json:"clientSecret"`
	PublishableKey  string             `json:"publishableKey"`
	Totals          domain.OrderTotals `json:"totals"`
}

type SessionResult struct {
	SessionID string             `json:"sessionId"`
	URL       string             `json:"url"`
	Totals    domain.OrderTotals `json:"totals"`
}

type SessionStatus struct {
	SessionID     string `json:"sessionId"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	OrderID       string `json:"orderId,omitempty"`
}

// CheckoutService turns carts into gateway payments and successful payments
// into exactly one order each.
type CheckoutService struct {
	Orders        OrderRepo
	Catalog       CatalogRepo
	Gateway       PaymentGateway
	Notifier      NotificationSender
	Currency      string
	PublicBaseURL string
	Log           *zap.Logger
	Now           func() time.Time
}

func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, userID string, req CartRequest) (*PaymentIntentResult, error) {
	meta, err := s.priceCart(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	md, err := meta.encode()
	if err != nil {
		return nil, err
	}
	cents := meta.Totals.TotalCents()
	if cents < domain.MinChargeCents {
		return nil, domain.ErrInvalidAmount(cents)
	}
	pi, err := s.Gateway.CreatePaymentIntent(ctx, domain.PaymentIntentRequest{
		AmountCents:   cents,
		Currency:      s.currency(),
		Description:   "BrazaDash order",
		CaptureMethod: domain.CaptureAutomatic,
		Metadata:      md,
	})
	if err != nil {
		s.Log.Error("create payment intent failed", zap.String("user_id", userID), zap.Error(err))
		return nil, upstream("create payment intent", err)
	}
	pk, err := s.Gateway.PublishableKey(ctx)
	if err != nil {
		return nil, upstream("publishable key", err)
	}
	return &PaymentIntentResult{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
		PublishableKey:  pk,
		Totals:          meta.Totals,
	}, nil
}

func (s *CheckoutService) CreateSession(ctx context.Context, userID string, req CartRequest) (*SessionResult, error) {
	meta, err := s.priceCart(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	md, err := meta.encode()
	if err != nil {
		return nil, err
	}
	if c := meta.Totals.TotalCents(); c < domain.MinChargeCents {
		return nil, domain.ErrInvalidAmount(c)
	}
	lines := make([]domain.LineItem, 0, len(meta.Items)+3)
	for _, it := range meta.Items {
		lines = append(lines, domain.LineItem{Name: it.Name, UnitAmountCent: domain.ToCents(it.Price), Quantity: int64(it.Quantity)})
	}
	for _, extra := range []struct {
		name   string
		amount float64
	}{
		{"Delivery fee", meta.Totals.DeliveryFee},
		{"Service fee", meta.Totals.PlatformFee},
		{"Tip", meta.Totals.Tip},
	} {
		if c := domain.ToCents(extra.amount); c > 0 {
			lines = append(lines, domain.LineItem{Name: extra.name, UnitAmountCent: c, Quantity: 1})
		}
	}
	base := strings.TrimRight(s.PublicBaseURL, "/")
	sess, err := s.Gateway.CreateCheckoutSession(ctx, domain.CheckoutSessionRequest{
		LineItems:  lines,
		Currency:   s.currency(),
		SuccessURL: base + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/restaurants/" + meta.RestaurantID,
		Metadata:   md,
	})
	if err != nil {
		s.Log.Error("create checkout session failed", zap.String("user_id", userID), zap.Error(err))
		return nil, upstream("create checkout session", err)
	}
	return &SessionResult{SessionID: sess.ID, URL: sess.URL, Totals: meta.Totals}, nil
}

// ConfirmPayment reconciles a succeeded payment intent into an order.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, userID, intentID string) (*domain.Order, error) {
	if strings.TrimSpace(intentID) == "" {
		return nil, domain.ErrValidation("paymentIntentId required")
	}
	pi, err := s.Gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		s.Log.Error("retrieve payment intent failed", zap.String("payment_intent", intentID), zap.Error(err))
		return nil, upstream("retrieve payment intent", err)
	}
	return s.reconcile(ctx, userID, pi.ID, string(pi.Status), pi.Status == domain.IntentSucceeded, pi.Metadata)
}

// CompleteSession reconciles a paid checkout session into an order.
func (s *CheckoutService) CompleteSession(ctx context.Context, userID, sessionID string) (*domain.Order, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.ErrValidation("sessionId required")
	}
	sess, err := s.Gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.Log.Error("retrieve checkout session failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, upstream("retrieve checkout session", err)
	}
	return s.reconcile(ctx, userID, sess.ID, sess.PaymentStatus, sess.PaymentStatus == domain.SessionPaid, sess.Metadata)
}

func (s *CheckoutService) SessionStatus(ctx context.Context, userID, sessionID string) (*SessionStatus, error) {
	sess, err := s.Gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, upstream("retrieve checkout session", err)
	}
	if sess.Metadata[metaUserID] != userID {
		return nil, domain.ErrForbidden("checkout session belongs to another user")
	}
	out := &SessionStatus{SessionID: sess.ID, Status: sess.Status, PaymentStatus: sess.PaymentStatus}
	o, err := s.Orders.GetOrderByPaymentReference(ctx, sess.ID)
	switch {
	case err == nil:
		out.OrderID = o.ID
	case !isNotFound(err):
		return nil, err
	}
	return out, nil
}

func (s *CheckoutService) reconcile(ctx context.Context, userID, ref, status string, success bool, md map[string]string) (*domain.Order, error) {
	if md[metaUserID] != userID {
		s.Log.Warn("payment ownership mismatch",
			zap.String("payment_reference", ref),
			zap.String("user_id", userID))
		return nil, domain.ErrForbidden("payment belongs to another user")
	}
	if !success {
		return nil, domain.ErrPaymentNotCompleted(status)
	}
	existing, err := s.Orders.GetOrderByPaymentReference(ctx, ref)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	meta, err := decodeOrderMeta(md)
	if err != nil {
		return nil, err
	}
	for i := range meta.Items {
		meta.Items[i].Name = s.menuItemName(ctx, meta.Items[i].MenuItemID)
	}
	now := nowOr(s.Now)
	o := &domain.Order{
		ID:               newID(),
		CustomerID:       userID,
		RestaurantID:     meta.RestaurantID,
		Status:           domain.OrderPending,
		Items:            meta.Items,
		Subtotal:         meta.Totals.Subtotal,
		DeliveryFee:      meta.Totals.DeliveryFee,
		Tip:              meta.Totals.Tip,
		PlatformFee:      meta.Totals.PlatformFee,
		Total:            meta.Totals.Total,
		DeliveryAddress:  meta.DeliveryAddress,
		Notes:            meta.Notes,
		PaymentReference: ref,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stored, inserted, err := s.Orders.InsertOrder(ctx, o)
	if err != nil {
		s.Log.Error("insert order failed", zap.String("payment_reference", ref), zap.Error(err))
		return nil, err
	}
	if !inserted {
		return stored, nil
	}
	s.Log.Info("order created from payment",
		zap.String("order_id", stored.ID),
		zap.String("payment_reference", ref),
		zap.Float64("total", stored.Total))
	s.notifyOrderPlaced(ctx, stored)
	return stored, nil
}

func (s *CheckoutService) notifyOrderPlaced(ctx context.Context, o *domain.Order) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, o.CustomerID, "Order placed",
		fmt.Sprintf("Your order of $%.2f was received and is awaiting confirmation.", o.Total), domain.NotifyOrder); err != nil {
		s.Log.Error("customer notification failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	r, err := s.Catalog.GetRestaurant(ctx, o.RestaurantID)
	if err != nil {
		s.Log.Error("vendor lookup for notification failed", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	if err := s.Notifier.Notify(ctx, r.OwnerID, "New order",
		fmt.Sprintf("New order with %d item(s), subtotal $%.2f.", len(o.Items), o.Subtotal), domain.NotifyOrder); err != nil {
		s.Log.Error("vendor notification failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *CheckoutService) menuItemName(ctx context.Context, id string) string {
	m, err := s.Catalog.GetMenuItem(ctx, id)
	if err != nil {
		return "Menu item"
	}
	return m.Name
}

func (s *CheckoutService) priceCart(ctx context.Context, userID string, req CartRequest) (orderMeta, error) {
	var m orderMeta
	if userID == "" {
		return m, domain.ErrForbidden("authentication required")
	}
	if len(req.Items) == 0 {
		return m, domain.ErrValidation("cart is empty")
	}
	if req.Tip < 0 || req.Tip > maxTip {
		return m, domain.ErrValidation("tip out of range")
	}
	if len(req.DeliveryAddress) > maxTextField || len(req.Notes) > maxTextField {
		return m, domain.ErrValidation("delivery address or notes too long")
	}
	r, err := s.Catalog.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return m, err
	}
	if !r.IsApproved {
		return m, domain.ErrValidation("restaurant is not accepting orders")
	}
	var subtotalCents int64
	for _, ci := range req.Items {
		if ci.Quantity < 1 || ci.Quantity > maxItemQuantity {
			return m, domain.ErrValidation("item quantity out of range")
		}
		item, err := s.Catalog.GetMenuItem(ctx, ci.MenuItemID)
		if err != nil {
			return m, err
		}
		if item.RestaurantID != r.ID {
			return m, domain.ErrValidation("menu item " + item.ID + " belongs to another restaurant")
		}
		if !item.IsAvailable {
			return m, domain.ErrValidation(item.Name + " is not available")
		}
		subtotalCents += domain.ToCents(item.Price) * int64(ci.Quantity)
		m.Items = append(m.Items, domain.OrderItem{MenuItemID: item.ID, Name: item.Name, Price: item.Price, Quantity: ci.Quantity})
	}
	m.UserID = userID
	m.RestaurantID = r.ID
	m.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	m.Notes = strings.TrimSpace(req.Notes)
	m.Totals = domain.ComputeOrderTotals(domain.FromCents(subtotalCents), r.DeliveryFee, req.Tip)
	return m, nil
}

func (s *CheckoutService) currency() string {
	if s.Currency == "" {
		return "usd"
	}
	return s.Currency
}

func isNotFound(err error) bool {
	var nf domain.ErrNotFound
	return errors.As(err, &nf)
}
