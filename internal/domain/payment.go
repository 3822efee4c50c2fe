package domain

// IntentStatus is the closed set of payment-intent states this system acts on.
// Anything the gateway reports outside this set parses to IntentStatusUnknown.
type IntentStatus string

const (
	IntentStatusUnknown         IntentStatus = "unknown"
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresCapture       IntentStatus = "requires_capture"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
)

func ParseIntentStatus(s string) IntentStatus {
	switch IntentStatus(s) {
	case IntentRequiresPaymentMethod, IntentRequiresConfirmation, IntentRequiresAction,
		IntentProcessing, IntentRequiresCapture, IntentSucceeded, IntentCanceled:
		return IntentStatus(s)
	}
	return IntentStatusUnknown
}

const SessionPaid = "paid"

type CaptureMethod string

const (
	CaptureAutomatic CaptureMethod = "automatic"
	CaptureManual    CaptureMethod = "manual"
)

type PaymentIntent struct {
	ID           string            `json:"id"`
	Status       IntentStatus      `json:"status"`
	RawStatus    string            `json:"rawStatus,omitempty"`
	ClientSecret string            `json:"clientSecret,omitempty"`
	AmountCents  int64             `json:"amountCents"`
	TipCents     int64             `json:"tipCents"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type PaymentIntentRequest struct {
	AmountCents   int64
	Currency      string
	Description   string
	CaptureMethod CaptureMethod
	CardPresent   bool
	Metadata      map[string]string
}

type LineItem struct {
	Name           string
	UnitAmountCent int64
	Quantity       int64
}

type CheckoutSessionRequest struct {
	LineItems  []LineItem
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CheckoutSession struct {
	ID               string            `json:"id"`
	URL              string            `json:"url,omitempty"`
	Status           string            `json:"status"`
	PaymentStatus    string            `json:"paymentStatus"`
	PaymentIntentID  string            `json:"paymentIntentId,omitempty"`
	AmountTotalCents int64             `json:"amountTotalCents"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}
