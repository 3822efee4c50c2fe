package terminal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"brazadash/internal/domain"
)

type stubGateway struct {
	mu         sync.Mutex
	status     domain.IntentStatus
	amount     int64
	tip        int64
	retrieves  int
	captures   int
	captureErr error
	block      chan struct{}

	// captureHold parks CaptureIntent until closed or until its context ends.
	captureHold   chan struct{}
	captureCtxErr error
}

func (g *stubGateway) RetrieveIntent(_ context.Context, id string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	block := g.block
	g.mu.Unlock()
	if block != nil {
		<-block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retrieves++
	return &domain.PaymentIntent{ID: id, Status: g.status, AmountCents: g.amount}, nil
}

func (g *stubGateway) CaptureIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	hold := g.captureHold
	g.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captures++
	if err := ctx.Err(); err != nil {
		g.captureCtxErr = err
		return nil, err
	}
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	g.status = domain.IntentSucceeded
	return &domain.PaymentIntent{ID: id, Status: g.status, AmountCents: g.amount + g.tip, TipCents: g.tip}, nil
}

func (g *stubGateway) set(fn func(g *stubGateway)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g)
}

func TestPoller_PaymentFailedStopsWithoutCapture(t *testing.T) {
	gw := &stubGateway{status: domain.IntentRequiresPaymentMethod}
	p := NewPoller("pi_1", "tmr_1", gw, Options{})
	if st := p.Tick(context.Background()); st != StatePaymentFailed {
		t.Fatalf("state = %s, want payment_failed", st)
	}
	if gw.captures != 0 {
		t.Fatalf("captures = %d, want 0", gw.captures)
	}
}

func TestPoller_TimesOutAfterMaxAttempts(t *testing.T) {
	gw := &stubGateway{status: domain.IntentProcessing}
	p := NewPoller("pi_1", "tmr_1", gw, Options{MaxAttempts: 150})
	ctx := context.Background()
	var st State
	for i := 0; i < 150; i++ {
		st = p.Tick(ctx)
		if i < 149 && st != StateWaitingForCard {
			t.Fatalf("tick %d state = %s", i, st)
		}
	}
	if st != StateTimedOut {
		t.Fatalf("state = %s, want timed_out", st)
	}
	if p.Tick(ctx) != StateTimedOut || gw.retrieves != 150 {
		t.Fatalf("tick after timeout polled again: retrieves=%d", gw.retrieves)
	}
	if snap := p.Snapshot(); snap.Attempts != 150 || snap.LastStatus != string(domain.IntentProcessing) {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestPoller_CapturesAndRecordsTip(t *testing.T) {
	gw := &stubGateway{status: domain.IntentRequiresCapture, amount: 2000, tip: 300}
	p := NewPoller("pi_1", "tmr_1", gw, Options{})
	if st := p.Tick(context.Background()); st != StateCompleted {
		t.Fatalf("state = %s, want completed", st)
	}
	snap := p.Snapshot()
	if snap.AmountCents != 2300 || snap.TipCents != 300 || gw.captures != 1 {
		t.Fatalf("snapshot = %+v captures=%d", snap, gw.captures)
	}
}

func TestPoller_SucceededUpstreamCompletes(t *testing.T) {
	gw := &stubGateway{status: domain.IntentSucceeded, amount: 1500}
	p := NewPoller("pi_1", "", gw, Options{})
	if st := p.Tick(context.Background()); st != StateCompleted {
		t.Fatalf("state = %s, want completed", st)
	}
	if gw.captures != 0 {
		t.Fatal("already captured intent was captured again")
	}
}

func TestPoller_CaptureFailedThenRetry(t *testing.T) {
	gw := &stubGateway{status: domain.IntentRequiresCapture, amount: 1000, captureErr: errors.New("expired")}
	p := NewPoller("pi_1", "tmr_1", gw, Options{})
	ctx := context.Background()
	if st := p.Tick(ctx); st != StateCaptureFailed {
		t.Fatalf("state = %s, want capture_failed", st)
	}
	if p.Snapshot().Error == "" {
		t.Fatal("capture error not recorded")
	}
	if st := p.Tick(ctx); st != StateCaptureFailed || gw.captures != 1 {
		t.Fatalf("tick after capture_failed retried on its own: captures=%d", gw.captures)
	}

	gw.set(func(g *stubGateway) { g.captureErr = nil })
	st, err := p.RetryCapture(ctx)
	if err != nil || st != StateCompleted {
		t.Fatalf("retry = %s, %v", st, err)
	}
	if _, err := p.RetryCapture(ctx); err == nil {
		t.Fatal("retry after completion accepted")
	}
}

func TestPoller_CancelDiscardsInFlightResult(t *testing.T) {
	gw := &stubGateway{status: domain.IntentRequiresCapture, block: make(chan struct{})}
	p := NewPoller("pi_1", "tmr_1", gw, Options{})
	ctx := context.Background()

	res := make(chan State, 1)
	go func() { res <- p.Tick(ctx) }()
	// Overlapping ticks are skipped while the first waits on the gateway.
	deadline := time.Now().Add(2 * time.Second)
	for !p.inFlight.Load() || p.State() != StateWaitingForCard {
		if time.Now().After(deadline) {
			t.Fatal("tick never started")
		}
		time.Sleep(time.Millisecond)
	}
	if st := p.Tick(ctx); st != StateWaitingForCard {
		t.Fatalf("overlapping tick = %s", st)
	}

	if !p.Cancel() {
		t.Fatal("cancel returned false")
	}
	close(gw.block)
	if st := <-res; st != StateCancelled {
		t.Fatalf("in-flight tick = %s, want cancelled", st)
	}
	if gw.captures != 0 || gw.retrieves != 1 {
		t.Fatalf("captures=%d retrieves=%d, want 0 and 1", gw.captures, gw.retrieves)
	}
	if p.Cancel() {
		t.Fatal("second cancel reported a change")
	}
}

func waitForState(t *testing.T, p *Poller, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %s, never reached %s", p.State(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPoller_CancelDoesNotAbortCapture(t *testing.T) {
	gw := &stubGateway{status: domain.IntentRequiresCapture, amount: 1800, captureHold: make(chan struct{})}
	p := NewPoller("pi_1", "tmr_1", gw, Options{Interval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	waitForState(t, p, StateCapturing)

	if p.Cancel() {
		t.Fatal("cancel accepted while capturing")
	}
	// shutting down the owner must not abort the capture either
	cancel()
	close(gw.captureHold)
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	gw.mu.Lock()
	ctxErr, captures := gw.captureCtxErr, gw.captures
	gw.mu.Unlock()
	if ctxErr != nil {
		t.Fatalf("in-flight capture ended with %v", ctxErr)
	}
	if captures != 1 || p.State() != StateCompleted {
		t.Fatalf("captures=%d state=%s, want 1 and completed", captures, p.State())
	}
}

func TestPoller_RunStopsOnTerminalState(t *testing.T) {
	gw := &stubGateway{status: domain.IntentCanceled}
	p := NewPoller("pi_1", "tmr_1", gw, Options{Interval: time.Millisecond})
	go p.Run(context.Background())
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if p.State() != StateCancelled {
		t.Fatalf("state = %s, want cancelled", p.State())
	}
}

func TestManager_ReplacesReaderPoller(t *testing.T) {
	gw := &stubGateway{status: domain.IntentProcessing}
	m := NewManager(gw, Options{Interval: time.Hour})
	defer m.Close()

	first := m.Start("r1", "tmr_1", "pi_1")
	second := m.Start("r1", "tmr_1", "pi_2")
	if first.State() != StateCancelled {
		t.Fatalf("previous poller state = %s, want cancelled", first.State())
	}
	got, owner, ok := m.Get("tmr_1")
	if !ok || got != second || owner != "r1" {
		t.Fatal("reader does not point at the newest poller")
	}
	if _, _, ok := m.FindByIntent("pi_2"); !ok {
		t.Fatal("FindByIntent missed the live poller")
	}
	if !m.Cancel("tmr_1") || second.State() != StateCancelled {
		t.Fatal("manager cancel did not stop the poller")
	}
	if m.Cancel("tmr_unknown") {
		t.Fatal("cancel of unknown reader reported true")
	}
}
