package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"brazadash/internal/domain"
	"brazadash/internal/terminal"
)

type TerminalChargeRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	ReaderID    string  `json:"readerId"`
	OrderID     string  `json:"orderId"`
	Description string  `json:"description"`
}

type TerminalChargeResult struct {
	PaymentIntentID string             `json:"paymentIntentId"`
	ClientSecret    string             `json:"clientSecret"`
	AmountCents     int64              `json:"amountCents"`
	Polling         *terminal.Snapshot `json:"polling,omitempty"`
}

type CaptureResult struct {
	PaymentIntentID string              `json:"paymentIntentId"`
	Status          domain.IntentStatus `json:"status"`
	AmountCents     int64               `json:"amountCents"`
	TipCents        int64               `json:"tipCents"`
	Tip             float64             `json:"tip"`
}

// TerminalService drives card-present payments for approved vendors.
type TerminalService struct {
	Gateway  PaymentGateway
	Orders   OrderRepo
	Pollers  *terminal.Manager
	Currency string
	Log      *zap.Logger
}

func (s *TerminalService) CreateIntent(ctx context.Context, r *domain.Restaurant, req TerminalChargeRequest) (*TerminalChargeResult, error) {
	cents := domain.ToCents(req.Amount)
	if cents < domain.MinChargeCents {
		return nil, domain.ErrInvalidAmount(cents)
	}
	if req.OrderID != "" {
		o, err := s.Orders.GetOrder(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		if o.RestaurantID != r.ID {
			return nil, domain.ErrForbidden("order belongs to another restaurant")
		}
	}
	if req.ReaderID != "" {
		if p, _, ok := s.Pollers.Get(req.ReaderID); ok && p.State() == terminal.StateCapturing {
			return nil, domain.ErrConflict("the reader is capturing another payment")
		}
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = "In-person payment at " + r.Name
	}
	pi, err := s.Gateway.CreatePaymentIntent(ctx, domain.PaymentIntentRequest{
		AmountCents:   cents,
		Currency:      s.currency(),
		Description:   desc,
		CaptureMethod: domain.CaptureManual,
		CardPresent:   true,
		Metadata: map[string]string{
			metaKind:         kindTerminal,
			metaRestaurantID: r.ID,
			metaVendorUserID: r.OwnerID,
			metaOrderID:      req.OrderID,
		},
	})
	if err != nil {
		s.Log.Error("create terminal intent failed", zap.String("restaurant_id", r.ID), zap.Error(err))
		return nil, upstream("create terminal payment intent", err)
	}
	out := &TerminalChargeResult{PaymentIntentID: pi.ID, ClientSecret: pi.ClientSecret, AmountCents: cents}
	if req.ReaderID == "" {
		return out, nil
	}
	if err := s.Gateway.ProcessOnReader(ctx, req.ReaderID, pi.ID); err != nil {
		s.Log.Error("send intent to reader failed",
			zap.String("reader_id", req.ReaderID),
			zap.String("payment_intent", pi.ID),
			zap.Error(err))
		return nil, upstream("process on reader", err)
	}
	p := s.Pollers.Start(r.ID, req.ReaderID, pi.ID)
	snap := p.Snapshot()
	out.Polling = &snap
	s.Log.Info("terminal charge started",
		zap.String("restaurant_id", r.ID),
		zap.String("reader_id", req.ReaderID),
		zap.String("payment_intent", pi.ID),
		zap.Int64("amount_cents", cents))
	return out, nil
}

// Capture finalizes a held authorization. An intent followed by a live poller
// is only captured by that poller; the gateway is called directly only for
// intents no poller will touch again.
func (s *TerminalService) Capture(ctx context.Context, r *domain.Restaurant, intentID string) (*CaptureResult, error) {
	if _, err := s.ownedIntent(ctx, r, intentID); err != nil {
		return nil, err
	}
	if p, owner, ok := s.Pollers.FindByIntent(intentID); ok && owner == r.ID {
		switch p.State() {
		case terminal.StateCaptureFailed:
			st, err := p.RetryCapture(ctx)
			if err != nil {
				return nil, err
			}
			snap := p.Snapshot()
			if st != terminal.StateCompleted {
				return nil, &domain.ErrCaptureFailed{IntentID: intentID, Err: errString(snap.Error)}
			}
			return snapshotCapture(snap), nil
		case terminal.StateCompleted:
			return snapshotCapture(p.Snapshot()), nil
		case terminal.StateIdle, terminal.StateWaitingForCard, terminal.StateCapturing:
			return nil, domain.ErrConflict("the reader is still processing this payment")
		}
	}
	pi, err := s.Gateway.CaptureIntent(ctx, intentID)
	if err != nil {
		s.Log.Error("capture failed", zap.String("payment_intent", intentID), zap.Error(err))
		return nil, upstream("capture", err)
	}
	return &CaptureResult{
		PaymentIntentID: pi.ID,
		Status:          pi.Status,
		AmountCents:     pi.AmountCents,
		TipCents:        pi.TipCents,
		Tip:             domain.FromCents(pi.TipCents),
	}, nil
}

func snapshotCapture(snap terminal.Snapshot) *CaptureResult {
	return &CaptureResult{
		PaymentIntentID: snap.IntentID,
		Status:          domain.IntentSucceeded,
		AmountCents:     snap.AmountCents,
		TipCents:        snap.TipCents,
		Tip:             domain.FromCents(snap.TipCents),
	}
}

func (s *TerminalService) Status(ctx context.Context, r *domain.Restaurant, intentID string) (*domain.PaymentIntent, error) {
	pi, err := s.ownedIntent(ctx, r, intentID)
	if err != nil {
		return nil, err
	}
	pi.ClientSecret = ""
	return pi, nil
}

func (s *TerminalService) PollState(r *domain.Restaurant, readerID string) (*terminal.Snapshot, error) {
	p, owner, ok := s.Pollers.Get(readerID)
	if !ok {
		return nil, domain.ErrNotFound("reader session")
	}
	if owner != r.ID {
		return nil, domain.ErrForbidden("reader session belongs to another restaurant")
	}
	snap := p.Snapshot()
	return &snap, nil
}

// CancelReader clears the reader display and stops local polling. A capture
// already in flight is not interrupted, so that case is refused.
func (s *TerminalService) CancelReader(ctx context.Context, r *domain.Restaurant, readerID string) error {
	if p, owner, ok := s.Pollers.Get(readerID); ok {
		if owner != r.ID {
			return domain.ErrForbidden("reader session belongs to another restaurant")
		}
		if !p.Cancel() && p.State() == terminal.StateCapturing {
			return domain.ErrConflict("the reader payment is being captured")
		}
	}
	if err := s.Gateway.CancelReaderAction(ctx, readerID); err != nil {
		s.Log.Error("cancel reader action failed", zap.String("reader_id", readerID), zap.Error(err))
		return upstream("cancel reader action", err)
	}
	return nil
}

func (s *TerminalService) ownedIntent(ctx context.Context, r *domain.Restaurant, intentID string) (*domain.PaymentIntent, error) {
	pi, err := s.Gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, upstream("retrieve payment intent", err)
	}
	if pi.Metadata[metaKind] != kindTerminal || pi.Metadata[metaRestaurantID] != r.ID {
		return nil, domain.ErrForbidden("payment intent belongs to another restaurant")
	}
	return pi, nil
}

func (s *TerminalService) currency() string {
	if s.Currency == "" {
		return "usd"
	}
	return s.Currency
}

type errString string

func (e errString) Error() string { return string(e) }
