package repo

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"brazadash/internal/domain"
	"brazadash/internal/usecase"
)

var (
	_ usecase.CatalogRepo      = (*Memory)(nil)
	_ usecase.OrderRepo        = (*Memory)(nil)
	_ usecase.BookingRepo      = (*Memory)(nil)
	_ usecase.ReviewRepo       = (*Memory)(nil)
	_ usecase.NotificationRepo = (*Memory)(nil)
	_ usecase.CatalogRepo      = (*SQLStore)(nil)
	_ usecase.OrderRepo        = (*SQLStore)(nil)
	_ usecase.BookingRepo      = (*SQLStore)(nil)
	_ usecase.ReviewRepo       = (*SQLStore)(nil)
	_ usecase.NotificationRepo = (*SQLStore)(nil)
)

type store interface {
	usecase.CatalogRepo
	usecase.OrderRepo
	usecase.BookingRepo
	usecase.ReviewRepo
	usecase.NotificationRepo
}

func newSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open("sqlite3", filepath.Join(t.TempDir(), "brazadash.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func eachStore(t *testing.T, fn func(t *testing.T, s store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLite(t)) })
}

var t0 = time.Date(2024, 3, 4, 18, 30, 0, 0, time.UTC)

func sampleOrder(id, ref string) *domain.Order {
	return &domain.Order{
		ID:               id,
		CustomerID:       "cust",
		RestaurantID:     "r1",
		Status:           domain.OrderPending,
		Items:            []domain.OrderItem{{MenuItemID: "m1", Name: "Feijoada", Price: 50, Quantity: 2}},
		Subtotal:         100,
		DeliveryFee:      3.99,
		Tip:              5,
		PlatformFee:      8,
		Total:            116.99,
		PaymentReference: ref,
		CreatedAt:        t0,
		UpdatedAt:        t0,
	}
}

func TestInsertOrder_UniquePaymentReference(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		first, inserted, err := s.InsertOrder(ctx, sampleOrder("o1", "pi_1"))
		if err != nil || !inserted {
			t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
		}
		second, inserted, err := s.InsertOrder(ctx, sampleOrder("o2", "pi_1"))
		if err != nil {
			t.Fatalf("second insert: %v", err)
		}
		if inserted || second.ID != first.ID {
			t.Fatalf("second insert returned %s inserted=%v, want existing %s", second.ID, inserted, first.ID)
		}
		got, err := s.GetOrderByPaymentReference(ctx, "pi_1")
		if err != nil {
			t.Fatalf("by ref: %v", err)
		}
		if got.Total != 116.99 || len(got.Items) != 1 || got.Items[0].Name != "Feijoada" {
			t.Fatalf("order = %+v", got)
		}
		if _, err := s.GetOrder(ctx, "o2"); !isNotFound(err) {
			t.Fatalf("loser row stored: %v", err)
		}
	})
}

func TestInsertOrder_ConcurrentSameReference(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, inserted, err := s.InsertOrder(ctx, sampleOrder(string(rune('a'+i)), "cs_same"))
				if err != nil {
					t.Errorf("insert: %v", err)
					return
				}
				if inserted {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		if winners != 1 {
			t.Fatalf("winners = %d, want 1", winners)
		}
		list, _ := s.ListOrdersByCustomer(ctx, "cust")
		if len(list) != 1 {
			t.Fatalf("rows = %d, want 1", len(list))
		}
	})
}

func TestOrders_StatusAndRange(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		_, _, _ = s.InsertOrder(ctx, sampleOrder("o1", "pi_1"))
		late := sampleOrder("o2", "pi_2")
		late.CreatedAt = t0.Add(48 * time.Hour)
		_, _, _ = s.InsertOrder(ctx, late)

		if err := s.UpdateOrderStatus(ctx, "o1", domain.OrderPending, domain.OrderConfirmed, t0.Add(time.Minute)); err != nil {
			t.Fatalf("update: %v", err)
		}
		// a second writer still holding the pending snapshot loses
		err := s.UpdateOrderStatus(ctx, "o1", domain.OrderPending, domain.OrderCancelled, t0.Add(2*time.Minute))
		if _, ok := err.(domain.ErrConflict); !ok {
			t.Fatalf("stale update: %v", err)
		}
		o, _ := s.GetOrder(ctx, "o1")
		if o.Status != domain.OrderConfirmed {
			t.Fatalf("status = %s", o.Status)
		}
		if err := s.UpdateOrderStatus(ctx, "missing", domain.OrderPending, domain.OrderConfirmed, t0); !isNotFound(err) {
			t.Fatalf("update missing: %v", err)
		}
		in, err := s.ListOrdersCreatedBetween(ctx, t0.Add(-time.Hour), t0.Add(time.Hour))
		if err != nil {
			t.Fatalf("range: %v", err)
		}
		if len(in) != 1 || in[0].ID != "o1" {
			t.Fatalf("range = %+v", in)
		}
		byRest, _ := s.ListOrdersByRestaurant(ctx, "r1")
		if len(byRest) != 2 {
			t.Fatalf("by restaurant = %d", len(byRest))
		}
	})
}

func TestBookings(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		b := &domain.Booking{
			ID: "b1", CustomerID: "cust", ProviderID: "p1", Status: domain.BookingPending,
			RequestedDate: "2024-03-10", RequestedTime: "10:00",
			Price: 40, BookingFee: 2.99, TotalPaid: 42.99, PaymentReference: "cs_b", IsPaid: true,
			CreatedAt: t0, UpdatedAt: t0,
		}
		if _, inserted, err := s.InsertBooking(ctx, b); err != nil || !inserted {
			t.Fatalf("insert: %v %v", inserted, err)
		}
		dup := *b
		dup.ID = "b2"
		got, inserted, err := s.InsertBooking(ctx, &dup)
		if err != nil || inserted || got.ID != "b1" {
			t.Fatalf("dup insert: %+v %v %v", got, inserted, err)
		}
		b.Status = domain.BookingConfirmed
		b.ConfirmedDate, b.ConfirmedTime = "2024-03-11", "11:00"
		if err := s.UpdateBooking(ctx, b, domain.BookingPending); err != nil {
			t.Fatalf("update: %v", err)
		}
		cancelled := *b
		cancelled.Status = domain.BookingCancelled
		if err := s.UpdateBooking(ctx, &cancelled, domain.BookingPending); err == nil {
			t.Fatal("stale booking update applied")
		} else if _, ok := err.(domain.ErrConflict); !ok {
			t.Fatalf("stale booking update: %v", err)
		}
		missing := *b
		missing.ID = "nope"
		if err := s.UpdateBooking(ctx, &missing, domain.BookingConfirmed); !isNotFound(err) {
			t.Fatalf("update missing booking: %v", err)
		}
		stored, _ := s.GetBooking(ctx, "b1")
		if stored.Status != domain.BookingConfirmed || stored.ConfirmedTime != "11:00" || !stored.IsPaid {
			t.Fatalf("booking = %+v", stored)
		}
		list, _ := s.ListBookingsByProvider(ctx, "p1")
		if len(list) != 1 {
			t.Fatalf("by provider = %d", len(list))
		}
	})
}

func TestReviewsAndRatings(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		_ = s.PutRestaurant(ctx, &domain.Restaurant{ID: "r1", OwnerID: "v1", Name: "Sabor", IsApproved: true, CreatedAt: t0})
		r := &domain.Review{ID: "rv1", OrderID: "o1", CustomerID: "cust", RestaurantID: "r1", Rating: 5, CreatedAt: t0}
		if err := s.InsertReview(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
		again := *r
		again.ID = "rv2"
		var conflict domain.ErrConflict
		if err := s.InsertReview(ctx, &again); !errors.As(err, &conflict) {
			t.Fatalf("duplicate review err = %v", err)
		}
		_ = s.InsertReview(ctx, &domain.Review{ID: "rv3", OrderID: "o2", CustomerID: "cust", RestaurantID: "r1", Rating: 4, CreatedAt: t0})
		if err := s.RefreshRestaurantRating(ctx, "r1"); err != nil {
			t.Fatalf("refresh: %v", err)
		}
		rest, _ := s.GetRestaurant(ctx, "r1")
		if rest.Rating != 4.5 || rest.ReviewCount != 2 {
			t.Fatalf("rating = %v count = %d", rest.Rating, rest.ReviewCount)
		}
		got, err := s.GetReviewByOrder(ctx, "o1")
		if err != nil || got.PhotoURLs == nil {
			t.Fatalf("review = %+v, %v", got, err)
		}
	})
}

func TestNotifications(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		n := &domain.Notification{ID: "n1", UserID: "u1", Title: "t", Message: "m", Type: domain.NotifyOrder, CreatedAt: t0}
		if err := s.InsertNotification(ctx, n); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := s.MarkNotificationRead(ctx, "someone-else", "n1"); !isNotFound(err) {
			t.Fatalf("mark other user's: %v", err)
		}
		if err := s.MarkNotificationRead(ctx, "u1", "n1"); err != nil {
			t.Fatalf("mark: %v", err)
		}
		list, _ := s.ListNotifications(ctx, "u1")
		if len(list) != 1 || !list[0].Read {
			t.Fatalf("list = %+v", list)
		}
	})
}

func TestCatalog(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		_ = s.PutServiceProvider(ctx, &domain.ServiceProvider{ID: "p1", UserID: "u9", Name: "Limpeza", IsApproved: true, BasePrice: 60, CreatedAt: t0})
		_ = s.PutService(ctx, &domain.Service{ID: "s1", ProviderID: "p1", Name: "Deep clean", Price: 120})
		_ = s.PutMenuItem(ctx, &domain.MenuItem{ID: "m1", RestaurantID: "r1", Name: "Pão de queijo", Price: 6.5, IsAvailable: true})
		p, err := s.GetProviderByUser(ctx, "u9")
		if err != nil || p.ID != "p1" {
			t.Fatalf("provider = %+v %v", p, err)
		}
		svcs, _ := s.ListServices(ctx, "p1")
		if len(svcs) != 1 || svcs[0].Price != 120 {
			t.Fatalf("services = %+v", svcs)
		}
		it, err := s.GetMenuItem(ctx, "m1")
		if err != nil || !it.IsAvailable {
			t.Fatalf("menu item = %+v %v", it, err)
		}
		if _, err := s.GetRestaurantByOwner(ctx, "nobody"); !isNotFound(err) {
			t.Fatalf("owner lookup: %v", err)
		}
	})
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Fatal("expected error")
	}
}

func isNotFound(err error) bool {
	var nf domain.ErrNotFound
	return errors.As(err, &nf)
}
