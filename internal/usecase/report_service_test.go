package usecase

import (
	"context"
	"testing"
	"time"

	"brazadash/internal/domain"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

func TestBuildFinancialReport_DailyRounding(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)
	end := endOfDay(start.AddDate(0, 0, 6))
	orders := []domain.Order{
		{ID: "o1", RestaurantID: "r1", Subtotal: 10.005, Status: domain.OrderDelivered, CreatedAt: start.Add(10 * time.Hour)},
		{ID: "o2", RestaurantID: "r1", Subtotal: 10.005, Status: domain.OrderPending, CreatedAt: start.Add(12 * time.Hour)},
	}
	rep := BuildFinancialReport(start, end, loc, orders, nil, []domain.Restaurant{{ID: "r1", Name: "Sabor"}}, nil)

	if rep.NumDays != 7 || len(rep.Restaurants) != 1 {
		t.Fatalf("report shape: days=%d restaurants=%d", rep.NumDays, len(rep.Restaurants))
	}
	r := rep.Restaurants[0]
	if len(r.Days) != 7 {
		t.Fatalf("days = %d, want 7 zero-filled", len(r.Days))
	}
	d := r.Days[0]
	if d.Date != "2024-03-04" || d.Count != 2 {
		t.Fatalf("day = %+v", d)
	}
	if d.ServiceRevenue != 20.01 {
		t.Fatalf("revenue = %v, want 20.01", d.ServiceRevenue)
	}
	if d.PlatformFee != 1.60 || d.NetPayout != 18.41 {
		t.Fatalf("fee/net = %v/%v, want 1.60/18.41", d.PlatformFee, d.NetPayout)
	}
	if r.Totals.Gross != 20.01 || rep.Summary.TotalRestaurantPayouts != 18.41 {
		t.Fatalf("totals = %+v summary = %+v", r.Totals, rep.Summary)
	}
	if r.Days[1].Count != 0 || r.Days[1].Gross != 0 {
		t.Fatalf("empty day = %+v", r.Days[1])
	}
}

func TestBuildFinancialReport_Exclusions(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)
	end := endOfDay(start)
	at := start.Add(time.Hour)
	orders := []domain.Order{
		{ID: "o1", RestaurantID: "r1", Subtotal: 50, Status: domain.OrderCancelled, CreatedAt: at},
		{ID: "o2", RestaurantID: "r1", Subtotal: 50, Status: domain.OrderDelivered, CreatedAt: start.AddDate(0, 0, 1)},
		{ID: "o3", RestaurantID: "gone", Subtotal: 25, Status: domain.OrderDelivered, CreatedAt: at},
	}
	bookings := []domain.Booking{
		{ID: "b1", ProviderID: "p1", Price: 100, BookingFee: 2.99, IsPaid: true, Status: domain.BookingCompleted, CreatedAt: at},
		{ID: "b2", ProviderID: "p1", Price: 100, BookingFee: 2.99, IsPaid: false, Status: domain.BookingPending, CreatedAt: at},
		{ID: "b3", ProviderID: "p1", Price: 100, BookingFee: 2.99, IsPaid: true, Status: domain.BookingCancelled, CreatedAt: at},
	}
	rep := BuildFinancialReport(start, end, loc, orders, bookings,
		[]domain.Restaurant{{ID: "r1", Name: "Sabor"}},
		[]domain.ServiceProvider{{ID: "p1", Name: "Limpeza"}})

	if len(rep.Restaurants) != 2 {
		t.Fatalf("restaurants = %d, want 2", len(rep.Restaurants))
	}
	removed := rep.Restaurants[0]
	if removed.Name != "(removed gone)" || removed.Totals.Gross != 25 {
		t.Fatalf("removed entity = %+v", removed)
	}
	if rep.Restaurants[1].Totals.Count != 0 {
		t.Fatalf("cancelled or out-of-range orders counted: %+v", rep.Restaurants[1].Totals)
	}
	p := rep.Providers[0]
	if p.Totals.Count != 1 {
		t.Fatalf("provider count = %d, want 1", p.Totals.Count)
	}
	if p.Totals.ServiceRevenue != 100 || p.Totals.BookingFees != 2.99 || p.Totals.Gross != 102.99 {
		t.Fatalf("provider totals = %+v", p.Totals)
	}
	if p.Totals.PlatformFee != 8 || p.Totals.NetPayout != 94.99 {
		t.Fatalf("provider fee/net = %v/%v", p.Totals.PlatformFee, p.Totals.NetPayout)
	}
	if rep.Summary.TotalPlatformRevenue != 10 || rep.Summary.TotalGross != 127.99 {
		t.Fatalf("summary = %+v", rep.Summary)
	}
	if rep.Summary.TotalPayouts != rep.Summary.TotalRestaurantPayouts+rep.Summary.TotalProviderPayouts {
		t.Fatalf("payouts do not add up: %+v", rep.Summary)
	}
}

func TestResolveRange_Week(t *testing.T) {
	loc := mustLoc(t, "America/Los_Angeles")
	// Wednesday evening in LA.
	now := time.Date(2024, 3, 7, 3, 0, 0, 0, time.UTC)
	s := &ReportService{Location: loc, Now: func() time.Time { return now }}

	start, end, err := s.ResolveRange(ReportQuery{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if start.Format("2006-01-02 Mon") != "2024-03-04 Mon" || end.Format("2006-01-02 Mon") != "2024-03-10 Sun" {
		t.Fatalf("range = %s .. %s", start, end)
	}
	start, _, err = s.ResolveRange(ReportQuery{WeekOffset: "2"})
	if err != nil || start.Format("2006-01-02") != "2024-02-19" {
		t.Fatalf("offset 2 start = %s, %v", start, err)
	}
	if _, _, err := s.ResolveRange(ReportQuery{WeekOffset: "-1"}); err == nil {
		t.Fatal("negative offset accepted")
	}
}

func TestResolveRange_Explicit(t *testing.T) {
	s := &ReportService{Location: time.UTC}
	start, end, err := s.ResolveRange(ReportQuery{StartDate: "2024-03-01", EndDate: "2024-03-03"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) || end.Format("2006-01-02") != "2024-03-03" {
		t.Fatalf("range = %s .. %s", start, end)
	}
	bad := []ReportQuery{
		{StartDate: "2024-03-01"},
		{StartDate: "2024-03-05", EndDate: "2024-03-01"},
		{StartDate: "2023-01-01", EndDate: "2024-06-01"},
		{StartDate: "03/01/2024", EndDate: "2024-03-02"},
	}
	for _, q := range bad {
		if _, _, err := s.ResolveRange(q); err == nil {
			t.Errorf("ResolveRange(%+v) accepted", q)
		}
	}

	// the longest allowed range and the widest parseable one
	if _, _, err := s.ResolveRange(ReportQuery{StartDate: "2024-01-01", EndDate: "2025-01-01"}); err != nil {
		t.Fatalf("366 day range: %v", err)
	}
	began := time.Now()
	_, _, err = s.ResolveRange(ReportQuery{StartDate: "0001-01-01", EndDate: "9999-12-31"})
	assertErr[domain.ErrValidation](t, err)
	if time.Since(began) > 100*time.Millisecond {
		t.Fatalf("rejecting a huge range took %s", time.Since(began))
	}
}

func TestDaysBetween(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("no tzdata")
	}
	cases := []struct {
		a, b time.Time
		want int64
	}{
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 2},
		{time.Date(2018, 11, 3, 0, 0, 0, 0, sp), time.Date(2018, 11, 5, 0, 0, 0, 0, sp), 2},
		{time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC), 3652058},
	}
	for _, tc := range cases {
		if got := daysBetween(tc.a, tc.b); got != tc.want {
			t.Errorf("daysBetween(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestFinancialReport_FromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	placeOrder(t, f, "cust1")
	svc := &ReportService{Orders: f.store, Bookings: f.store, Catalog: f.store, Location: time.UTC, Now: func() time.Time { return fixedNow }}
	rep, err := svc.FinancialReport(ctx, ReportQuery{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var found bool
	for _, r := range rep.Restaurants {
		if r.ID == "r1" {
			found = true
			if r.Totals.Count != 1 || r.Totals.ServiceRevenue != 100 || r.Totals.PlatformFee != 8 {
				t.Fatalf("r1 totals = %+v", r.Totals)
			}
		}
	}
	if !found {
		t.Fatal("r1 missing from report")
	}
}
