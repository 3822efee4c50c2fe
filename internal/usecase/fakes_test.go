package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"brazadash/internal/domain"
	"brazadash/internal/infrastructure/repo"
)

type fakeGateway struct {
	mu       sync.Mutex
	seq      int
	intents  map[string]*domain.PaymentIntent
	sessions map[string]*domain.CheckoutSession

	lastIntentReq  domain.PaymentIntentRequest
	lastSessionReq domain.CheckoutSessionRequest
	readerCalls    []string
	cancelCalls    []string
	captureErr     error
	retrieveErr    error
	captures       int

	// captureHold parks CaptureIntent until closed or until its context ends.
	captureHold chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		intents:  map[string]*domain.PaymentIntent{},
		sessions: map[string]*domain.CheckoutSession{},
	}
}

func (g *fakeGateway) PublishableKey(context.Context) (string, error) { return "pk_test", nil }

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.lastIntentReq = req
	pi := &domain.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", g.seq),
		Status:       domain.IntentRequiresPaymentMethod,
		ClientSecret: fmt.Sprintf("pi_%d_secret", g.seq),
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
		Metadata:     copyMeta(req.Metadata),
	}
	g.intents[pi.ID] = pi
	out := *pi
	return &out, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	pi, ok := g.intents[id]
	if !ok {
		return nil, domain.ErrNotFound("payment")
	}
	out := *pi
	out.Metadata = copyMeta(pi.Metadata)
	return &out, nil
}

func (g *fakeGateway) CaptureIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	hold := g.captureHold
	g.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captures++
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	pi, ok := g.intents[id]
	if !ok {
		return nil, domain.ErrNotFound("payment")
	}
	switch pi.Status {
	case domain.IntentSucceeded, domain.IntentCanceled:
		return nil, &domain.ErrCaptureFailed{IntentID: id, Err: errors.New("payment intent is already " + string(pi.Status))}
	}
	pi.Status = domain.IntentSucceeded
	out := *pi
	return &out, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req domain.CheckoutSessionRequest) (*domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.lastSessionReq = req
	var total int64
	for _, li := range req.LineItems {
		total += li.UnitAmountCent * li.Quantity
	}
	s := &domain.CheckoutSession{
		ID:               fmt.Sprintf("cs_%d", g.seq),
		URL:              fmt.Sprintf("https://checkout.test/cs_%d", g.seq),
		Status:           "open",
		PaymentStatus:    "unpaid",
		AmountTotalCents: total,
		Metadata:         copyMeta(req.Metadata),
	}
	g.sessions[s.ID] = s
	out := *s
	return &out, nil
}

func (g *fakeGateway) RetrieveSession(_ context.Context, id string) (*domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	s, ok := g.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound("payment")
	}
	out := *s
	out.Metadata = copyMeta(s.Metadata)
	return &out, nil
}

func (g *fakeGateway) ProcessOnReader(_ context.Context, readerID, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.readerCalls = append(g.readerCalls, readerID+":"+intentID)
	return nil
}

func (g *fakeGateway) CancelReaderAction(_ context.Context, readerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelCalls = append(g.cancelCalls, readerID)
	return nil
}

func (g *fakeGateway) setIntentStatus(id string, st domain.IntentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = st
}

func (g *fakeGateway) captureCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.captures
}

func (g *fakeGateway) paySession(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id].Status = "complete"
	g.sessions[id].PaymentStatus = domain.SessionPaid
}

func copyMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type sentNote struct {
	UserID, Title string
	Type          domain.NotificationType
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNote
}

func (n *recordingNotifier) Notify(_ context.Context, userID, title, _ string, typ domain.NotificationType) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNote{UserID: userID, Title: title, Type: typ})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

var fixedNow = time.Date(2024, 3, 6, 20, 0, 0, 0, time.UTC)

type fixture struct {
	store    *repo.Memory
	gw       *fakeGateway
	notes    *recordingNotifier
	checkout *CheckoutService
	bookings *BookingCheckoutService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repo.NewMemory()
	must := func(err error) {
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	must(store.PutRestaurant(ctx, &domain.Restaurant{ID: "r1", OwnerID: "vendor1", Name: "Sabor Mineiro", IsApproved: true, DeliveryFee: 3.99, CreatedAt: fixedNow}))
	must(store.PutRestaurant(ctx, &domain.Restaurant{ID: "r2", OwnerID: "vendor2", Name: "Pending Grill", IsApproved: false, CreatedAt: fixedNow}))
	must(store.PutMenuItem(ctx, &domain.MenuItem{ID: "m1", RestaurantID: "r1", Name: "Feijoada", Price: 50, IsAvailable: true}))
	must(store.PutMenuItem(ctx, &domain.MenuItem{ID: "m2", RestaurantID: "r1", Name: "Moqueca", Price: 28, IsAvailable: false}))
	must(store.PutMenuItem(ctx, &domain.MenuItem{ID: "m3", RestaurantID: "r2", Name: "Picanha", Price: 30, IsAvailable: true}))
	must(store.PutServiceProvider(ctx, &domain.ServiceProvider{ID: "p1", UserID: "provider1", Name: "Limpeza Rápida", IsApproved: true, BasePrice: 40, CreatedAt: fixedNow}))
	must(store.PutService(ctx, &domain.Service{ID: "s1", ProviderID: "p1", Name: "Deep clean", Price: 120}))

	gw := newFakeGateway()
	notes := &recordingNotifier{}
	now := func() time.Time { return fixedNow }
	return &fixture{
		store: store,
		gw:    gw,
		notes: notes,
		checkout: &CheckoutService{
			Orders: store, Catalog: store, Gateway: gw, Notifier: notes,
			Currency: "usd", PublicBaseURL: "https://brazadash.test", Log: zap.NewNop(), Now: now,
		},
		bookings: &BookingCheckoutService{
			Bookings: store, Catalog: store, Gateway: gw, Notifier: notes,
			BookingFee: 2.99, Currency: "usd", PublicBaseURL: "https://brazadash.test", Log: zap.NewNop(), Now: now,
		},
	}
}

func assertErr[T error](t *testing.T, err error) {
	t.Helper()
	var target T
	if !errors.As(err, &target) {
		t.Fatalf("err = %v (%T), want %T", err, err, target)
	}
}
