package terminal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"brazadash/internal/domain"
)

type State string

const (
	StateIdle           State = "idle"
	StateWaitingForCard State = "waiting_for_card"
	StateCapturing      State = "capturing"
	StateCompleted      State = "completed"
	StateCaptureFailed  State = "capture_failed"
	StatePaymentFailed  State = "payment_failed"
	StateCancelled      State = "cancelled"
	StateTimedOut       State = "timed_out"
)

// Done reports whether polling has stopped in s. capture_failed counts: only
// an explicit RetryCapture leaves it.
func (s State) Done() bool {
	switch s {
	case StateCompleted, StateCaptureFailed, StatePaymentFailed, StateCancelled, StateTimedOut:
		return true
	}
	return false
}

type Gateway interface {
	RetrieveIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
	CaptureIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
}

type Options struct {
	Interval    time.Duration
	MaxAttempts int
	// CaptureTimeout bounds a capture call. Cancelling the poller does not
	// shorten it.
	CaptureTimeout time.Duration
	Log            *zap.Logger
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 150
	}
	if o.CaptureTimeout <= 0 {
		o.CaptureTimeout = 30 * time.Second
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Snapshot struct {
	IntentID    string    `json:"intentId"`
	ReaderID    string    `json:"readerId,omitempty"`
	State       State     `json:"state"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"maxAttempts"`
	LastStatus  string    `json:"lastStatus,omitempty"`
	AmountCents int64     `json:"amountCents,omitempty"`
	TipCents    int64     `json:"tipCents,omitempty"`
	Error       string    `json:"error,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Poller follows one payment intent on a card reader until it reaches a
// terminal state. Every result is checked against the current state before
// it is applied, so results arriving after Cancel are dropped.
type Poller struct {
	intentID string
	readerID string
	gw       Gateway
	opts     Options

	inFlight atomic.Bool

	mu     sync.Mutex
	snap   Snapshot
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(intentID, readerID string, gw Gateway, opts Options) *Poller {
	opts = opts.withDefaults()
	return &Poller{
		intentID: intentID,
		readerID: readerID,
		gw:       gw,
		opts:     opts,
		done:     make(chan struct{}),
		snap: Snapshot{
			IntentID:    intentID,
			ReaderID:    readerID,
			State:       StateIdle,
			MaxAttempts: opts.MaxAttempts,
			UpdatedAt:   opts.Now(),
		},
	}
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap.State
}

// Done is closed when Run returns.
func (p *Poller) Done() <-chan struct{} { return p.done }

// Run polls every Interval until the poller stops or ctx ends.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.done)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.mu.Lock()
	p.cancel = cancel
	if p.snap.State == StateIdle {
		p.setLocked(StateWaitingForCard)
	}
	stopped := p.snap.State.Done()
	p.mu.Unlock()
	if stopped {
		return
	}

	t := time.NewTicker(p.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if p.Tick(ctx).Done() {
				return
			}
		}
	}
}

// Tick performs one poll. It is skipped, returning the current state, while
// a previous tick is still waiting on the gateway.
func (p *Poller) Tick(ctx context.Context) State {
	if !p.inFlight.CompareAndSwap(false, true) {
		return p.State()
	}
	defer p.inFlight.Store(false)

	p.mu.Lock()
	if p.snap.State == StateIdle {
		p.setLocked(StateWaitingForCard)
	}
	if p.snap.State != StateWaitingForCard {
		st := p.snap.State
		p.mu.Unlock()
		return st
	}
	p.mu.Unlock()

	pi, err := p.gw.RetrieveIntent(ctx, p.intentID)

	p.mu.Lock()
	if p.snap.State != StateWaitingForCard {
		st := p.snap.State
		p.mu.Unlock()
		return st
	}
	p.snap.Attempts++
	if err != nil {
		p.snap.Error = err.Error()
		p.opts.Log.Warn("terminal poll failed",
			zap.String("payment_intent", p.intentID),
			zap.Int("attempt", p.snap.Attempts),
			zap.Error(err))
		p.timeoutLocked()
		st := p.snap.State
		p.mu.Unlock()
		return st
	}
	p.snap.Error = ""
	p.snap.LastStatus = string(pi.Status)
	if pi.RawStatus != "" {
		p.snap.LastStatus = pi.RawStatus
	}
	p.snap.AmountCents = pi.AmountCents

	switch pi.Status {
	case domain.IntentRequiresCapture:
		p.setLocked(StateCapturing)
		p.mu.Unlock()
		return p.capture(ctx)
	case domain.IntentSucceeded:
		p.completeLocked(pi)
	case domain.IntentCanceled:
		p.setLocked(StateCancelled)
	case domain.IntentRequiresPaymentMethod:
		p.setLocked(StatePaymentFailed)
	case domain.IntentRequiresConfirmation, domain.IntentRequiresAction, domain.IntentProcessing:
		p.timeoutLocked()
	case domain.IntentStatusUnknown:
		p.opts.Log.Warn("unrecognised payment intent status",
			zap.String("payment_intent", p.intentID),
			zap.String("status", pi.RawStatus))
		p.timeoutLocked()
	default:
		p.timeoutLocked()
	}
	st := p.snap.State
	p.mu.Unlock()
	if st.Done() {
		p.stop()
	}
	return st
}

// RetryCapture is the operator's explicit retry after capture_failed.
func (p *Poller) RetryCapture(ctx context.Context) (State, error) {
	p.mu.Lock()
	if p.snap.State != StateCaptureFailed {
		st := p.snap.State
		p.mu.Unlock()
		return st, domain.ErrConflict("capture can only be retried after a failed capture")
	}
	p.setLocked(StateCapturing)
	p.mu.Unlock()
	return p.capture(ctx), nil
}

// Cancel stops polling. It has no effect once the poller is done, and is
// refused while a capture is in flight: that capture's outcome decides the
// final state.
func (p *Poller) Cancel() bool {
	p.mu.Lock()
	if p.snap.State.Done() || p.snap.State == StateCapturing {
		p.mu.Unlock()
		return false
	}
	p.setLocked(StateCancelled)
	p.mu.Unlock()
	p.stop()
	return true
}

func (p *Poller) capture(ctx context.Context) State {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.CaptureTimeout)
	pi, err := p.gw.CaptureIntent(ctx, p.intentID)
	cancel()
	p.mu.Lock()
	if p.snap.State != StateCapturing {
		st := p.snap.State
		p.mu.Unlock()
		return st
	}
	if err != nil {
		p.snap.Error = err.Error()
		p.setLocked(StateCaptureFailed)
		p.opts.Log.Error("terminal capture failed",
			zap.String("payment_intent", p.intentID),
			zap.Error(err))
	} else {
		p.completeLocked(pi)
	}
	st := p.snap.State
	p.mu.Unlock()
	p.stop()
	return st
}

func (p *Poller) completeLocked(pi *domain.PaymentIntent) {
	p.snap.Error = ""
	p.snap.AmountCents = pi.AmountCents
	p.snap.TipCents = pi.TipCents
	p.setLocked(StateCompleted)
	p.opts.Log.Info("terminal payment completed",
		zap.String("payment_intent", p.intentID),
		zap.Int64("amount_cents", pi.AmountCents),
		zap.Int64("tip_cents", pi.TipCents))
}

func (p *Poller) timeoutLocked() {
	if p.snap.Attempts >= p.opts.MaxAttempts {
		p.setLocked(StateTimedOut)
		p.opts.Log.Warn("terminal payment timed out; intent left open upstream",
			zap.String("payment_intent", p.intentID),
			zap.Int("attempts", p.snap.Attempts))
	}
}

func (p *Poller) setLocked(s State) {
	p.snap.State = s
	p.snap.UpdatedAt = p.opts.Now()
}

func (p *Poller) stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
