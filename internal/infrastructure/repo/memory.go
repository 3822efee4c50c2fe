package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"brazadash/internal/domain"
)

// Memory is the in-process store used in dev mode and in tests. Values are
// copied on the way in and out so callers never share rows.
type Memory struct {
	mu sync.RWMutex

	restaurants map[string]domain.Restaurant
	menuItems   map[string]domain.MenuItem
	providers   map[string]domain.ServiceProvider
	services    map[string]domain.Service

	orders        map[string]domain.Order
	ordersByRef   map[string]string
	bookings      map[string]domain.Booking
	bookingsByRef map[string]string

	reviews        map[string]domain.Review
	serviceReviews map[string]domain.ServiceReview
	notifications  map[string]domain.Notification
}

func NewMemory() *Memory {
	return &Memory{
		restaurants:    map[string]domain.Restaurant{},
		menuItems:      map[string]domain.MenuItem{},
		providers:      map[string]domain.ServiceProvider{},
		services:       map[string]domain.Service{},
		orders:         map[string]domain.Order{},
		ordersByRef:    map[string]string{},
		bookings:       map[string]domain.Booking{},
		bookingsByRef:  map[string]string{},
		reviews:        map[string]domain.Review{},
		serviceReviews: map[string]domain.ServiceReview{},
		notifications:  map[string]domain.Notification{},
	}
}

func (m *Memory) GetRestaurant(_ context.Context, id string) (*domain.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.restaurants[id]
	if !ok {
		return nil, domain.ErrNotFound("restaurant")
	}
	return &r, nil
}

func (m *Memory) GetRestaurantByOwner(_ context.Context, ownerID string) (*domain.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.restaurants {
		if r.OwnerID == ownerID {
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound("restaurant")
}

func (m *Memory) ListRestaurants(_ context.Context) ([]domain.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Restaurant, 0, len(m.restaurants))
	for _, r := range m.restaurants {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) PutRestaurant(_ context.Context, r *domain.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restaurants[r.ID] = *r
	return nil
}

func (m *Memory) GetMenuItem(_ context.Context, id string) (*domain.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.menuItems[id]
	if !ok {
		return nil, domain.ErrNotFound("menu item")
	}
	return &it, nil
}

func (m *Memory) ListMenuItems(_ context.Context, restaurantID string) ([]domain.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.MenuItem{}
	for _, it := range m.menuItems {
		if it.RestaurantID == restaurantID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) PutMenuItem(_ context.Context, it *domain.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menuItems[it.ID] = *it
	return nil
}

func (m *Memory) GetServiceProvider(_ context.Context, id string) (*domain.ServiceProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[id]
	if !ok {
		return nil, domain.ErrNotFound("service provider")
	}
	return &p, nil
}

func (m *Memory) GetProviderByUser(_ context.Context, userID string) (*domain.ServiceProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.providers {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound("service provider")
}

func (m *Memory) ListProviders(_ context.Context) ([]domain.ServiceProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ServiceProvider, 0, len(m.providers))
	for _, p := range m.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) PutServiceProvider(_ context.Context, p *domain.ServiceProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[p.ID] = *p
	return nil
}

func (m *Memory) GetService(_ context.Context, id string) (*domain.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.services[id]
	if !ok {
		return nil, domain.ErrNotFound("service")
	}
	return &s, nil
}

func (m *Memory) ListServices(_ context.Context, providerID string) ([]domain.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Service{}
	for _, s := range m.services {
		if s.ProviderID == providerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) PutService(_ context.Context, s *domain.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[s.ID] = *s
	return nil
}

func (m *Memory) RefreshRestaurantRating(_ context.Context, restaurantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restaurants[restaurantID]
	if !ok {
		return domain.ErrNotFound("restaurant")
	}
	sum, n := 0, 0
	for _, rv := range m.reviews {
		if rv.RestaurantID == restaurantID {
			sum += rv.Rating
			n++
		}
	}
	r.Rating, r.ReviewCount = average(sum, n), n
	m.restaurants[restaurantID] = r
	return nil
}

func (m *Memory) RefreshProviderRating(_ context.Context, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[providerID]
	if !ok {
		return domain.ErrNotFound("service provider")
	}
	sum, n := 0, 0
	for _, rv := range m.serviceReviews {
		if rv.ProviderID == providerID {
			sum += rv.Rating
			n++
		}
	}
	p.Rating, p.ReviewCount = average(sum, n), n
	m.providers[providerID] = p
	return nil
}

func (m *Memory) InsertOrder(_ context.Context, o *domain.Order) (*domain.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ordersByRef[o.PaymentReference]; ok && o.PaymentReference != "" {
		existing := copyOrder(m.orders[id])
		return &existing, false, nil
	}
	stored := copyOrder(*o)
	m.orders[o.ID] = stored
	if o.PaymentReference != "" {
		m.ordersByRef[o.PaymentReference] = o.ID
	}
	out := copyOrder(stored)
	return &out, true, nil
}

func (m *Memory) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound("order")
	}
	out := copyOrder(o)
	return &out, nil
}

func (m *Memory) GetOrderByPaymentReference(_ context.Context, ref string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.ordersByRef[ref]
	if !ok {
		return nil, domain.ErrNotFound("order")
	}
	out := copyOrder(m.orders[id])
	return &out, nil
}

func (m *Memory) UpdateOrderStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrNotFound("order")
	}
	if o.Status != from {
		return domain.ErrConflict("order status changed concurrently")
	}
	o.Status = to
	o.UpdatedAt = at
	m.orders[id] = o
	return nil
}

func (m *Memory) ListOrdersByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	return m.filterOrders(func(o domain.Order) bool { return o.CustomerID == customerID }), nil
}

func (m *Memory) ListOrdersByRestaurant(_ context.Context, restaurantID string) ([]domain.Order, error) {
	return m.filterOrders(func(o domain.Order) bool { return o.RestaurantID == restaurantID }), nil
}

func (m *Memory) ListOrdersCreatedBetween(_ context.Context, start, end time.Time) ([]domain.Order, error) {
	return m.filterOrders(func(o domain.Order) bool {
		return !o.CreatedAt.Before(start) && !o.CreatedAt.After(end)
	}), nil
}

func (m *Memory) filterOrders(keep func(domain.Order) bool) []domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Memory) InsertBooking(_ context.Context, b *domain.Booking) (*domain.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.bookingsByRef[b.PaymentReference]; ok && b.PaymentReference != "" {
		existing := m.bookings[id]
		return &existing, false, nil
	}
	m.bookings[b.ID] = *b
	if b.PaymentReference != "" {
		m.bookingsByRef[b.PaymentReference] = b.ID
	}
	out := *b
	return &out, true, nil
}

func (m *Memory) GetBooking(_ context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound("booking")
	}
	return &b, nil
}

func (m *Memory) GetBookingByPaymentReference(_ context.Context, ref string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.bookingsByRef[ref]
	if !ok {
		return nil, domain.ErrNotFound("booking")
	}
	b := m.bookings[id]
	return &b, nil
}

func (m *Memory) UpdateBooking(_ context.Context, b *domain.Booking, prev domain.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bookings[b.ID]
	if !ok {
		return domain.ErrNotFound("booking")
	}
	if cur.Status != prev {
		return domain.ErrConflict("booking status changed concurrently")
	}
	m.bookings[b.ID] = *b
	return nil
}

func (m *Memory) ListBookingsByCustomer(_ context.Context, customerID string) ([]domain.Booking, error) {
	return m.filterBookings(func(b domain.Booking) bool { return b.CustomerID == customerID }), nil
}

func (m *Memory) ListBookingsByProvider(_ context.Context, providerID string) ([]domain.Booking, error) {
	return m.filterBookings(func(b domain.Booking) bool { return b.ProviderID == providerID }), nil
}

func (m *Memory) ListBookingsCreatedBetween(_ context.Context, start, end time.Time) ([]domain.Booking, error) {
	return m.filterBookings(func(b domain.Booking) bool {
		return !b.CreatedAt.Before(start) && !b.CreatedAt.After(end)
	}), nil
}

func (m *Memory) filterBookings(keep func(domain.Booking) bool) []domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Booking{}
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Memory) InsertReview(_ context.Context, r *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.OrderID == r.OrderID {
			return domain.ErrConflict("order already reviewed")
		}
	}
	m.reviews[r.ID] = *r
	return nil
}

func (m *Memory) GetReviewByOrder(_ context.Context, orderID string) (*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reviews {
		if r.OrderID == orderID {
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound("review")
}

func (m *Memory) ListReviewsByRestaurant(_ context.Context, restaurantID string) ([]domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Review{}
	for _, r := range m.reviews {
		if r.RestaurantID == restaurantID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) InsertServiceReview(_ context.Context, r *domain.ServiceReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.serviceReviews {
		if existing.BookingID == r.BookingID {
			return domain.ErrConflict("booking already reviewed")
		}
	}
	m.serviceReviews[r.ID] = *r
	return nil
}

func (m *Memory) GetServiceReviewByBooking(_ context.Context, bookingID string) (*domain.ServiceReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.serviceReviews {
		if r.BookingID == bookingID {
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound("service review")
}

func (m *Memory) ListServiceReviewsByProvider(_ context.Context, providerID string) ([]domain.ServiceReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.ServiceReview{}
	for _, r := range m.serviceReviews {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) InsertNotification(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[n.ID] = *n
	return nil
}

func (m *Memory) ListNotifications(_ context.Context, userID string) ([]domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Notification{}
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotFound("notification")
	}
	n.Read = true
	m.notifications[id] = n
	return nil
}

func (m *Memory) Close() error { return nil }

func copyOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}

func average(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(int(float64(sum)/float64(n)*10+0.5)) / 10
}
