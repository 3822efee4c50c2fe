package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"brazadash/internal/domain"
)

// SQLStore persists everything in postgres or sqlite. Statements use $N
// placeholders numbered in order of first use, which both drivers accept.
// Times are stored in UTC so range scans compare correctly on sqlite too.
type SQLStore struct {
	db     *sql.DB
	driver string
}

func Open(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	s := &SQLStore{db: db, driver: driver}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS restaurants (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		is_approved BOOLEAN NOT NULL DEFAULT FALSE,
		delivery_fee DOUBLE PRECISION NOT NULL DEFAULT 0,
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		review_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS service_providers (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		is_approved BOOLEAN NOT NULL DEFAULT FALSE,
		base_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		review_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		restaurant_id TEXT NOT NULL,
		status TEXT NOT NULL,
		items TEXT NOT NULL,
		subtotal DOUBLE PRECISION NOT NULL,
		delivery_fee DOUBLE PRECISION NOT NULL,
		tip DOUBLE PRECISION NOT NULL,
		platform_fee DOUBLE PRECISION NOT NULL,
		total DOUBLE PRECISION NOT NULL,
		delivery_address TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		payment_reference TEXT UNIQUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_created_at ON orders (created_at)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		service_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		requested_date TEXT NOT NULL,
		requested_time TEXT NOT NULL,
		confirmed_date TEXT NOT NULL DEFAULT '',
		confirmed_time TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL,
		booking_fee DOUBLE PRECISION NOT NULL,
		total_paid DOUBLE PRECISION NOT NULL,
		payment_reference TEXT UNIQUE,
		is_paid BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_created_at ON bookings (created_at)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL,
		restaurant_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		food_rating INTEGER NOT NULL DEFAULT 0,
		delivery_rating INTEGER NOT NULL DEFAULT 0,
		comment TEXT NOT NULL DEFAULT '',
		photo_urls TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS service_reviews (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		quality_rating INTEGER NOT NULL DEFAULT 0,
		punctuality_rating INTEGER NOT NULL DEFAULT 0,
		communication_rating INTEGER NOT NULL DEFAULT 0,
		comment TEXT NOT NULL DEFAULT '',
		photo_urls TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
}

func (s *SQLStore) init() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func utc(t time.Time) time.Time { return t.UTC() }

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound(what)
	}
	return err
}

// nullable keeps empty payment references out of the unique index.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// catalog

const restaurantCols = `id,owner_id,name,city,is_approved,delivery_fee,rating,review_count,created_at`

func scanRestaurant(row scanner) (*domain.Restaurant, error) {
	var r domain.Restaurant
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.City, &r.IsApproved, &r.DeliveryFee, &r.Rating, &r.ReviewCount, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLStore) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	r, err := scanRestaurant(s.db.QueryRowContext(ctx, `SELECT `+restaurantCols+` FROM restaurants WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "restaurant")
	}
	return r, nil
}

func (s *SQLStore) GetRestaurantByOwner(ctx context.Context, ownerID string) (*domain.Restaurant, error) {
	r, err := scanRestaurant(s.db.QueryRowContext(ctx, `SELECT `+restaurantCols+` FROM restaurants WHERE owner_id=$1 ORDER BY created_at LIMIT 1`, ownerID))
	if err != nil {
		return nil, notFound(err, "restaurant")
	}
	return r, nil
}

func (s *SQLStore) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+restaurantCols+` FROM restaurants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Restaurant{}
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutRestaurant(ctx context.Context, r *domain.Restaurant) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO restaurants (`+restaurantCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET owner_id=$2,name=$3,city=$4,is_approved=$5,delivery_fee=$6,rating=$7,review_count=$8`,
		r.ID, r.OwnerID, r.Name, r.City, r.IsApproved, r.DeliveryFee, r.Rating, r.ReviewCount, utc(r.CreatedAt))
	return err
}

const menuCols = `id,restaurant_id,name,description,price,is_available`

func scanMenuItem(row scanner) (*domain.MenuItem, error) {
	var it domain.MenuItem
	if err := row.Scan(&it.ID, &it.RestaurantID, &it.Name, &it.Description, &it.Price, &it.IsAvailable); err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *SQLStore) GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	it, err := scanMenuItem(s.db.QueryRowContext(ctx, `SELECT `+menuCols+` FROM menu_items WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "menu item")
	}
	return it, nil
}

func (s *SQLStore) ListMenuItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+menuCols+` FROM menu_items WHERE restaurant_id=$1 ORDER BY name`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.MenuItem{}
	for rows.Next() {
		it, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutMenuItem(ctx context.Context, it *domain.MenuItem) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO menu_items (`+menuCols+`)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET restaurant_id=$2,name=$3,description=$4,price=$5,is_available=$6`,
		it.ID, it.RestaurantID, it.Name, it.Description, it.Price, it.IsAvailable)
	return err
}

const providerCols = `id,user_id,name,category,is_approved,base_price,rating,review_count,created_at`

func scanProvider(row scanner) (*domain.ServiceProvider, error) {
	var p domain.ServiceProvider
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Category, &p.IsApproved, &p.BasePrice, &p.Rating, &p.ReviewCount, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLStore) GetServiceProvider(ctx context.Context, id string) (*domain.ServiceProvider, error) {
	p, err := scanProvider(s.db.QueryRowContext(ctx, `SELECT `+providerCols+` FROM service_providers WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "service provider")
	}
	return p, nil
}

func (s *SQLStore) GetProviderByUser(ctx context.Context, userID string) (*domain.ServiceProvider, error) {
	p, err := scanProvider(s.db.QueryRowContext(ctx, `SELECT `+providerCols+` FROM service_providers WHERE user_id=$1 ORDER BY created_at LIMIT 1`, userID))
	if err != nil {
		return nil, notFound(err, "service provider")
	}
	return p, nil
}

func (s *SQLStore) ListProviders(ctx context.Context) ([]domain.ServiceProvider, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+providerCols+` FROM service_providers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.ServiceProvider{}
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutServiceProvider(ctx context.Context, p *domain.ServiceProvider) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO service_providers (`+providerCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET user_id=$2,name=$3,category=$4,is_approved=$5,base_price=$6,rating=$7,review_count=$8`,
		p.ID, p.UserID, p.Name, p.Category, p.IsApproved, p.BasePrice, p.Rating, p.ReviewCount, utc(p.CreatedAt))
	return err
}

const serviceCols = `id,provider_id,name,description,price`

func scanService(row scanner) (*domain.Service, error) {
	var sv domain.Service
	if err := row.Scan(&sv.ID, &sv.ProviderID, &sv.Name, &sv.Description, &sv.Price); err != nil {
		return nil, err
	}
	return &sv, nil
}

func (s *SQLStore) GetService(ctx context.Context, id string) (*domain.Service, error) {
	sv, err := scanService(s.db.QueryRowContext(ctx, `SELECT `+serviceCols+` FROM services WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "service")
	}
	return sv, nil
}

func (s *SQLStore) ListServices(ctx context.Context, providerID string) ([]domain.Service, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+serviceCols+` FROM services WHERE provider_id=$1 ORDER BY name`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Service{}
	for rows.Next() {
		sv, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sv)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutService(ctx context.Context, sv *domain.Service) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO services (`+serviceCols+`)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET provider_id=$2,name=$3,description=$4,price=$5`,
		sv.ID, sv.ProviderID, sv.Name, sv.Description, sv.Price)
	return err
}

func (s *SQLStore) RefreshRestaurantRating(ctx context.Context, restaurantID string) error {
	var n, sum int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(rating),0) FROM reviews WHERE restaurant_id=$1`, restaurantID).Scan(&n, &sum); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE restaurants SET rating=$1, review_count=$2 WHERE id=$3`, average(sum, n), n, restaurantID)
	return affected(res, err, "restaurant")
}

func (s *SQLStore) RefreshProviderRating(ctx context.Context, providerID string) error {
	var n, sum int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(rating),0) FROM service_reviews WHERE provider_id=$1`, providerID).Scan(&n, &sum); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE service_providers SET rating=$1, review_count=$2 WHERE id=$3`, average(sum, n), n, providerID)
	return affected(res, err, "service provider")
}

func affected(res sql.Result, err error, what string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound(what)
	}
	return nil
}

// transitioned checks a status-guarded UPDATE. No affected row means either
// the row is gone or another writer moved it first.
func (s *SQLStore) transitioned(ctx context.Context, res sql.Result, err error, table, id, what string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound(what)
	}
	if err != nil {
		return err
	}
	return domain.ErrConflict(what + " status changed concurrently")
}

// orders

const orderCols = `id,customer_id,restaurant_id,status,items,subtotal,delivery_fee,tip,platform_fee,total,delivery_address,notes,payment_reference,created_at,updated_at`

func scanOrder(row scanner) (*domain.Order, error) {
	var o domain.Order
	var items string
	var ref sql.NullString
	if err := row.Scan(&o.ID, &o.CustomerID, &o.RestaurantID, (*string)(&o.Status), &items,
		&o.Subtotal, &o.DeliveryFee, &o.Tip, &o.PlatformFee, &o.Total,
		&o.DeliveryAddress, &o.Notes, &ref, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.PaymentReference = ref.String
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("order %s items: %w", o.ID, err)
	}
	return &o, nil
}

// InsertOrder relies on the unique payment_reference: a concurrent
// reconciliation of the same payment loses the insert and gets the winner's row.
func (s *SQLStore) InsertOrder(ctx context.Context, o *domain.Order) (*domain.Order, bool, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, false, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO orders (`+orderCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (payment_reference) DO NOTHING`,
		o.ID, o.CustomerID, o.RestaurantID, string(o.Status), string(items),
		o.Subtotal, o.DeliveryFee, o.Tip, o.PlatformFee, o.Total,
		o.DeliveryAddress, o.Notes, nullable(o.PaymentReference), utc(o.CreatedAt), utc(o.UpdatedAt))
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		existing, err := s.GetOrderByPaymentReference(ctx, o.PaymentReference)
		return existing, false, err
	}
	stored := *o
	stored.CreatedAt, stored.UpdatedAt = utc(o.CreatedAt), utc(o.UpdatedAt)
	return &stored, true, nil
}

func (s *SQLStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

func (s *SQLStore) GetOrderByPaymentReference(ctx context.Context, ref string) (*domain.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderCols+` FROM orders WHERE payment_reference=$1`, ref))
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

func (s *SQLStore) UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		string(to), utc(at), id, string(from))
	return s.transitioned(ctx, res, err, "orders", id, "order")
}

func (s *SQLStore) ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
}

func (s *SQLStore) ListOrdersByRestaurant(ctx context.Context, restaurantID string) ([]domain.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE restaurant_id=$1 ORDER BY created_at DESC`, restaurantID)
}

func (s *SQLStore) ListOrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE created_at >= $1 AND created_at <= $2 ORDER BY created_at`, utc(start), utc(end))
}

func (s *SQLStore) queryOrders(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// bookings

const bookingCols = `id,customer_id,provider_id,service_id,status,requested_date,requested_time,confirmed_date,confirmed_time,notes,price,booking_fee,total_paid,payment_reference,is_paid,created_at,updated_at`

func scanBooking(row scanner) (*domain.Booking, error) {
	var b domain.Booking
	var ref sql.NullString
	if err := row.Scan(&b.ID, &b.CustomerID, &b.ProviderID, &b.ServiceID, (*string)(&b.Status),
		&b.RequestedDate, &b.RequestedTime, &b.ConfirmedDate, &b.ConfirmedTime, &b.Notes,
		&b.Price, &b.BookingFee, &b.TotalPaid, &ref, &b.IsPaid, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.PaymentReference = ref.String
	return &b, nil
}

func (s *SQLStore) InsertBooking(ctx context.Context, b *domain.Booking) (*domain.Booking, bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO bookings (`+bookingCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (payment_reference) DO NOTHING`,
		b.ID, b.CustomerID, b.ProviderID, b.ServiceID, string(b.Status),
		b.RequestedDate, b.RequestedTime, b.ConfirmedDate, b.ConfirmedTime, b.Notes,
		b.Price, b.BookingFee, b.TotalPaid, nullable(b.PaymentReference), b.IsPaid, utc(b.CreatedAt), utc(b.UpdatedAt))
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		existing, err := s.GetBookingByPaymentReference(ctx, b.PaymentReference)
		return existing, false, err
	}
	stored := *b
	stored.CreatedAt, stored.UpdatedAt = utc(b.CreatedAt), utc(b.UpdatedAt)
	return &stored, true, nil
}

func (s *SQLStore) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "booking")
	}
	return b, nil
}

func (s *SQLStore) GetBookingByPaymentReference(ctx context.Context, ref string) (*domain.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE payment_reference=$1`, ref))
	if err != nil {
		return nil, notFound(err, "booking")
	}
	return b, nil
}

func (s *SQLStore) UpdateBooking(ctx context.Context, b *domain.Booking, prev domain.BookingStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bookings SET status=$1, confirmed_date=$2, confirmed_time=$3, is_paid=$4, updated_at=$5 WHERE id=$6 AND status=$7`,
		string(b.Status), b.ConfirmedDate, b.ConfirmedTime, b.IsPaid, utc(b.UpdatedAt), b.ID, string(prev))
	return s.transitioned(ctx, res, err, "bookings", b.ID, "booking")
}

func (s *SQLStore) ListBookingsByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	return s.queryBookings(ctx, `SELECT `+bookingCols+` FROM bookings WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
}

func (s *SQLStore) ListBookingsByProvider(ctx context.Context, providerID string) ([]domain.Booking, error) {
	return s.queryBookings(ctx, `SELECT `+bookingCols+` FROM bookings WHERE provider_id=$1 ORDER BY created_at DESC`, providerID)
}

func (s *SQLStore) ListBookingsCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.Booking, error) {
	return s.queryBookings(ctx, `SELECT `+bookingCols+` FROM bookings WHERE created_at >= $1 AND created_at <= $2 ORDER BY created_at`, utc(start), utc(end))
}

func (s *SQLStore) queryBookings(ctx context.Context, q string, args ...any) ([]domain.Booking, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// reviews

const reviewCols = `id,order_id,customer_id,restaurant_id,rating,food_rating,delivery_rating,comment,photo_urls,created_at`

func scanReview(row scanner) (*domain.Review, error) {
	var r domain.Review
	var photos string
	if err := row.Scan(&r.ID, &r.OrderID, &r.CustomerID, &r.RestaurantID, &r.Rating, &r.FoodRating, &r.DeliveryRating, &r.Comment, &photos, &r.CreatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(photos), &r.PhotoURLs)
	if r.PhotoURLs == nil {
		r.PhotoURLs = []string{}
	}
	return &r, nil
}

func (s *SQLStore) InsertReview(ctx context.Context, r *domain.Review) error {
	photos, _ := json.Marshal(nonEmpty(r.PhotoURLs))
	res, err := s.db.ExecContext(ctx, `INSERT INTO reviews (`+reviewCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (order_id) DO NOTHING`,
		r.ID, r.OrderID, r.CustomerID, r.RestaurantID, r.Rating, r.FoodRating, r.DeliveryRating, r.Comment, string(photos), utc(r.CreatedAt))
	return inserted(res, err, "order already reviewed")
}

func (s *SQLStore) GetReviewByOrder(ctx context.Context, orderID string) (*domain.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, `SELECT `+reviewCols+` FROM reviews WHERE order_id=$1`, orderID))
	if err != nil {
		return nil, notFound(err, "review")
	}
	return r, nil
}

func (s *SQLStore) ListReviewsByRestaurant(ctx context.Context, restaurantID string) ([]domain.Review, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reviewCols+` FROM reviews WHERE restaurant_id=$1 ORDER BY created_at DESC`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

const serviceReviewCols = `id,booking_id,customer_id,provider_id,rating,quality_rating,punctuality_rating,communication_rating,comment,photo_urls,created_at`

func scanServiceReview(row scanner) (*domain.ServiceReview, error) {
	var r domain.ServiceReview
	var photos string
	if err := row.Scan(&r.ID, &r.BookingID, &r.CustomerID, &r.ProviderID, &r.Rating,
		&r.QualityRating, &r.PunctualityRating, &r.CommunicationRating, &r.Comment, &photos, &r.CreatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(photos), &r.PhotoURLs)
	if r.PhotoURLs == nil {
		r.PhotoURLs = []string{}
	}
	return &r, nil
}

func (s *SQLStore) InsertServiceReview(ctx context.Context, r *domain.ServiceReview) error {
	photos, _ := json.Marshal(nonEmpty(r.PhotoURLs))
	res, err := s.db.ExecContext(ctx, `INSERT INTO service_reviews (`+serviceReviewCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (booking_id) DO NOTHING`,
		r.ID, r.BookingID, r.CustomerID, r.ProviderID, r.Rating,
		r.QualityRating, r.PunctualityRating, r.CommunicationRating, r.Comment, string(photos), utc(r.CreatedAt))
	return inserted(res, err, "booking already reviewed")
}

func (s *SQLStore) GetServiceReviewByBooking(ctx context.Context, bookingID string) (*domain.ServiceReview, error) {
	r, err := scanServiceReview(s.db.QueryRowContext(ctx, `SELECT `+serviceReviewCols+` FROM service_reviews WHERE booking_id=$1`, bookingID))
	if err != nil {
		return nil, notFound(err, "service review")
	}
	return r, nil
}

func (s *SQLStore) ListServiceReviewsByProvider(ctx context.Context, providerID string) ([]domain.ServiceReview, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+serviceReviewCols+` FROM service_reviews WHERE provider_id=$1 ORDER BY created_at DESC`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.ServiceReview{}
	for rows.Next() {
		r, err := scanServiceReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func inserted(res sql.Result, err error, conflict string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConflict(conflict)
	}
	return nil
}

func nonEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// notifications

const notificationCols = `id,user_id,title,message,type,is_read,created_at`

func (s *SQLStore) InsertNotification(ctx context.Context, n *domain.Notification) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO notifications (`+notificationCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID, n.UserID, n.Title, n.Message, string(n.Type), n.Read, utc(n.CreatedAt))
	return err
}

func (s *SQLStore) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+notificationCols+` FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, (*string)(&n.Type), &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read=$1 WHERE id=$2 AND user_id=$3`, true, id, userID)
	return affected(res, err, "notification")
}
