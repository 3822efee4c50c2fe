package usecase

import (
	"context"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"brazadash/internal/domain"
)

const maxReportDays = 366

type ReportQuery struct {
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	WeekOffset string `form:"weekOffset"`
}

type ReportService struct {
	Orders   OrderRepo
	Bookings BookingRepo
	Catalog  CatalogRepo
	Location *time.Location
	Log      *zap.Logger
	Now      func() time.Time
}

func (s *ReportService) FinancialReport(ctx context.Context, q ReportQuery) (*domain.FinancialReport, error) {
	start, end, err := s.ResolveRange(q)
	if err != nil {
		return nil, err
	}
	orders, err := s.Orders.ListOrdersCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	bookings, err := s.Bookings.ListBookingsCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	restaurants, err := s.Catalog.ListRestaurants(ctx)
	if err != nil {
		return nil, err
	}
	providers, err := s.Catalog.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	rep := BuildFinancialReport(start, end, s.loc(), orders, bookings, restaurants, providers)
	if s.Log != nil {
		s.Log.Info("financial report computed",
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Int("orders", len(orders)),
			zap.Int("bookings", len(bookings)),
			zap.Float64("platform_revenue", rep.Summary.TotalPlatformRevenue))
	}
	return rep, nil
}

// ResolveRange turns explicit dates or a week offset into an inclusive
// [start, end] range in the report location. Weeks run Monday to Sunday and
// offset N means N weeks before the current one.
func (s *ReportService) ResolveRange(q ReportQuery) (time.Time, time.Time, error) {
	loc := s.loc()
	if q.StartDate != "" || q.EndDate != "" {
		if q.StartDate == "" || q.EndDate == "" {
			return time.Time{}, time.Time{}, domain.ErrValidation("startDate and endDate must be given together")
		}
		start, err := time.ParseInLocation("2006-01-02", q.StartDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, domain.ErrValidation("startDate must be YYYY-MM-DD")
		}
		last, err := time.ParseInLocation("2006-01-02", q.EndDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, domain.ErrValidation("endDate must be YYYY-MM-DD")
		}
		if last.Before(start) {
			return time.Time{}, time.Time{}, domain.ErrValidation("endDate before startDate")
		}
		if daysBetween(start, last) > maxReportDays {
			return time.Time{}, time.Time{}, domain.ErrValidation("range too long")
		}
		return start, endOfDay(last), nil
	}
	offset := 0
	if q.WeekOffset != "" {
		n, err := strconv.Atoi(q.WeekOffset)
		if err != nil || n < 0 {
			return time.Time{}, time.Time{}, domain.ErrValidation("weekOffset must be a non-negative integer")
		}
		offset = n
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	today := now.In(loc)
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	sinceMonday := (int(midnight.Weekday()) + 6) % 7
	start := midnight.AddDate(0, 0, -sinceMonday-7*offset)
	return start, endOfDay(start.AddDate(0, 0, 6)), nil
}

func (s *ReportService) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

type dayAcc struct {
	count    int
	services float64
	fees     float64
}

type entityAcc struct {
	id, name string
	days     map[string]*dayAcc
}

// BuildFinancialReport aggregates orders and bookings into per-day buckets.
// Every daily figure is rounded to cents once, from the raw sum, before it
// contributes to any total.
func BuildFinancialReport(start, end time.Time, loc *time.Location, orders []domain.Order, bookings []domain.Booking, restaurants []domain.Restaurant, providers []domain.ServiceProvider) *domain.FinancialReport {
	start = start.In(loc)
	end = end.In(loc)
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}

	rest := map[string]*entityAcc{}
	for _, r := range restaurants {
		rest[r.ID] = &entityAcc{id: r.ID, name: r.Name, days: map[string]*dayAcc{}}
	}
	prov := map[string]*entityAcc{}
	for _, p := range providers {
		prov[p.ID] = &entityAcc{id: p.ID, name: p.Name, days: map[string]*dayAcc{}}
	}

	for _, o := range orders {
		if o.Status == domain.OrderCancelled || !inRange(o.CreatedAt, start, end) {
			continue
		}
		d := bucket(rest, o.RestaurantID, o.CreatedAt.In(loc).Format("2006-01-02"))
		d.count++
		d.services += o.Subtotal
	}
	for _, b := range bookings {
		if !b.IsPaid || b.Status == domain.BookingCancelled || !inRange(b.CreatedAt, start, end) {
			continue
		}
		d := bucket(prov, b.ProviderID, b.CreatedAt.In(loc).Format("2006-01-02"))
		d.count++
		d.services += b.Price
		d.fees += b.BookingFee
	}

	rep := &domain.FinancialReport{
		Start:       start,
		End:         end,
		NumDays:     len(dates),
		Restaurants: finish(rest, dates, orderDay),
		Providers:   finish(prov, dates, bookingDay),
	}
	var gross, platform, restPay, provPay int64
	for _, r := range rep.Restaurants {
		gross += domain.ToCents(r.Totals.Gross)
		platform += domain.ToCents(r.Totals.PlatformFee)
		restPay += domain.ToCents(r.Totals.NetPayout)
	}
	for _, p := range rep.Providers {
		gross += domain.ToCents(p.Totals.Gross)
		platform += domain.ToCents(p.Totals.PlatformFee)
		provPay += domain.ToCents(p.Totals.NetPayout)
	}
	rep.Summary = domain.ReportSummary{
		TotalGross:             domain.FromCents(gross),
		TotalPlatformRevenue:   domain.FromCents(platform),
		TotalRestaurantPayouts: domain.FromCents(restPay),
		TotalProviderPayouts:   domain.FromCents(provPay),
		TotalPayouts:           domain.FromCents(restPay + provPay),
	}
	return rep
}

// orderDay: the platform fee comes out of the food subtotal.
func orderDay(date string, a *dayAcc) domain.DailyEntry {
	services := domain.RoundCents(a.services)
	fee := domain.PlatformFee(services)
	return domain.DailyEntry{
		Date:           date,
		Count:          a.count,
		ServiceRevenue: services,
		Gross:          services,
		PlatformFee:    fee,
		NetPayout:      domain.RoundCents(services - fee),
	}
}

// bookingDay: the provider keeps the whole booking fee; only the service
// price is subject to the platform fee.
func bookingDay(date string, a *dayAcc) domain.DailyEntry {
	services := domain.RoundCents(a.services)
	fees := domain.RoundCents(a.fees)
	fee := domain.PlatformFee(services)
	return domain.DailyEntry{
		Date:           date,
		Count:          a.count,
		ServiceRevenue: services,
		BookingFees:    fees,
		Gross:          domain.RoundCents(services + fees),
		PlatformFee:    fee,
		NetPayout:      domain.RoundCents(services + fees - fee),
	}
}

func finish(m map[string]*entityAcc, dates []string, day func(string, *dayAcc) domain.DailyEntry) []domain.EntityReport {
	out := make([]domain.EntityReport, 0, len(m))
	for _, e := range m {
		rep := domain.EntityReport{ID: e.id, Name: e.name, Days: make([]domain.DailyEntry, 0, len(dates))}
		var services, fees, gross, platform, net int64
		for _, date := range dates {
			a := e.days[date]
			if a == nil {
				a = &dayAcc{}
			}
			d := day(date, a)
			rep.Days = append(rep.Days, d)
			rep.Totals.Count += d.Count
			services += domain.ToCents(d.ServiceRevenue)
			fees += domain.ToCents(d.BookingFees)
			gross += domain.ToCents(d.Gross)
			platform += domain.ToCents(d.PlatformFee)
			net += domain.ToCents(d.NetPayout)
		}
		rep.Totals.ServiceRevenue = domain.FromCents(services)
		rep.Totals.BookingFees = domain.FromCents(fees)
		rep.Totals.Gross = domain.FromCents(gross)
		rep.Totals.PlatformFee = domain.FromCents(platform)
		rep.Totals.NetPayout = domain.FromCents(net)
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func bucket(m map[string]*entityAcc, id, date string) *dayAcc {
	e, ok := m[id]
	if !ok {
		e = &entityAcc{id: id, name: "(removed " + id + ")", days: map[string]*dayAcc{}}
		m[id] = e
	}
	d, ok := e.days[date]
	if !ok {
		d = &dayAcc{}
		e.days[date] = d
	}
	return d
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func endOfDay(d time.Time) time.Time {
	return d.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// daysBetween counts calendar days from a to b. DST shifts in the report
// location do not affect the count.
func daysBetween(a, b time.Time) int64 {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return (ub.Unix() - ua.Unix()) / 86400
}
