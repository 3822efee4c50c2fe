package stripepay

import (
	"context"
	"errors"
	"sync"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"brazadash/internal/domain"
)

// Gateway implements the payment gateway port on top of stripe-go. The
// secret key comes from the credential cache on every call, so rotated keys
// are picked up once the cache expires.
type Gateway struct {
	Creds *CredentialCache
	// APIBase overrides the Stripe API host, used against stripe-mock.
	APIBase string
	Log     *zap.Logger

	mu        sync.Mutex
	secret    string
	api       *client.API
	backends  *stripe.Backends
	backendOK bool
}

func NewGateway(creds *CredentialCache, apiBase string, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{Creds: creds, APIBase: apiBase, Log: log}
}

func (g *Gateway) client(ctx context.Context) (*client.API, error) {
	creds, err := g.Creds.Get(ctx)
	if err != nil {
		return nil, &domain.ErrUpstream{Op: "load credentials", Err: err}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.api != nil && g.secret == creds.SecretKey {
		return g.api, nil
	}
	if !g.backendOK {
		if g.APIBase != "" {
			g.backends = &stripe.Backends{
				API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{URL: stripe.String(g.APIBase)}),
			}
		}
		g.backendOK = true
	}
	g.api = client.New(creds.SecretKey, g.backends)
	g.secret = creds.SecretKey
	return g.api, nil
}

func (g *Gateway) PublishableKey(ctx context.Context) (string, error) {
	creds, err := g.Creds.Get(ctx)
	if err != nil {
		return "", &domain.ErrUpstream{Op: "load credentials", Err: err}
	}
	return creds.PublishableKey, nil
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	if req.AmountCents < domain.MinChargeCents {
		return nil, domain.ErrInvalidAmount(req.AmountCents)
	}
	sc, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.CaptureMethod == domain.CaptureManual {
		params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	}
	if req.CardPresent {
		params.PaymentMethodTypes = stripe.StringSlice([]string{"card_present"})
	} else {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{Enabled: stripe.Bool(true)}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	pi, err := sc.PaymentIntents.New(params)
	if err != nil {
		return nil, wrap("create payment intent", err)
	}
	return toIntent(pi), nil
}

func (g *Gateway) RetrieveIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	sc, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := sc.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, wrap("retrieve payment intent", err)
	}
	return toIntent(pi), nil
}

// CaptureIntent reports a rejection by Stripe (any 4xx) as ErrCaptureFailed,
// which is never retried automatically.
func (g *Gateway) CaptureIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	sc, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	pi, err := sc.PaymentIntents.Capture(id, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 {
			g.Log.Warn("stripe rejected capture",
				zap.String("payment_intent", id),
				zap.Int("http_status", se.HTTPStatusCode),
				zap.String("code", string(se.Code)))
			return nil, &domain.ErrCaptureFailed{IntentID: id, Err: err}
		}
		return nil, wrap("capture payment intent", err)
	}
	return toIntent(pi), nil
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutSessionRequest) (*domain.CheckoutSession, error) {
	var total int64
	for _, li := range req.LineItems {
		total += li.UnitAmountCent * li.Quantity
	}
	if total < domain.MinChargeCents {
		return nil, domain.ErrInvalidAmount(total)
	}
	sc, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for _, li := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				UnitAmount:  stripe.Int64(li.UnitAmountCent),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(li.Name)},
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	s, err := sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, wrap("create checkout session", err)
	}
	return toSession(s), nil
}

func (g *Gateway) RetrieveSession(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	sc, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := sc.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, wrap("retrieve checkout session", err)
	}
	return toSession(s), nil
}

func (g *Gateway) ProcessOnReader(ctx context.Context, readerID, intentID string) error {
	sc, err := g.client(ctx)
	if err != nil {
		return err
	}
	params := &stripe.TerminalReaderProcessPaymentIntentParams{PaymentIntent: stripe.String(intentID)}
	params.Context = ctx
	if _, err := sc.TerminalReaders.ProcessPaymentIntent(readerID, params); err != nil {
		return wrap("process payment intent on reader", err)
	}
	return nil
}

func (g *Gateway) CancelReaderAction(ctx context.Context, readerID string) error {
	sc, err := g.client(ctx)
	if err != nil {
		return err
	}
	params := &stripe.TerminalReaderCancelActionParams{}
	params.Context = ctx
	if _, err := sc.TerminalReaders.CancelAction(readerID, params); err != nil {
		return wrap("cancel reader action", err)
	}
	return nil
}

func wrap(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.HTTPStatusCode == 404 {
		return domain.ErrNotFound("payment")
	}
	return &domain.ErrUpstream{Op: op, Err: err}
}

// MapIntentStatus converts Stripe's status string into the closed set the
// rest of the system acts on.
func MapIntentStatus(s stripe.PaymentIntentStatus) domain.IntentStatus {
	switch s {
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		return domain.IntentRequiresPaymentMethod
	case stripe.PaymentIntentStatusRequiresConfirmation:
		return domain.IntentRequiresConfirmation
	case stripe.PaymentIntentStatusRequiresAction:
		return domain.IntentRequiresAction
	case stripe.PaymentIntentStatusProcessing:
		return domain.IntentProcessing
	case stripe.PaymentIntentStatusRequiresCapture:
		return domain.IntentRequiresCapture
	case stripe.PaymentIntentStatusSucceeded:
		return domain.IntentSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return domain.IntentCanceled
	default:
		return domain.IntentStatusUnknown
	}
}

func toIntent(pi *stripe.PaymentIntent) *domain.PaymentIntent {
	out := &domain.PaymentIntent{
		ID:           pi.ID,
		Status:       MapIntentStatus(pi.Status),
		RawStatus:    string(pi.Status),
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	if pi.AmountReceived > 0 {
		out.AmountCents = pi.AmountReceived
	}
	if pi.AmountDetails != nil && pi.AmountDetails.Tip != nil {
		out.TipCents = pi.AmountDetails.Tip.Amount
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

func toSession(s *stripe.CheckoutSession) *domain.CheckoutSession {
	out := &domain.CheckoutSession{
		ID:               s.ID,
		URL:              s.URL,
		Status:           string(s.Status),
		PaymentStatus:    string(s.PaymentStatus),
		AmountTotalCents: s.AmountTotal,
		Metadata:         s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}
