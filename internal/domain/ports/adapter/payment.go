package adapter

import "context"

// PaymentStatusCredit is the provider's terminal-success sentinel.
const PaymentStatusCredit = "Credit"

// PaymentStatusFailed is the provider's terminal-failure sentinel.
const PaymentStatusFailed = "Failed"

// PaymentLink is a created provider payment request.
type PaymentLink struct {
	RequestID string // provider payment_request id
	URL       string // hosted payment page
}

// Payment is the provider's view of one concrete payment attempt.
type Payment struct {
	ID              string
	RequestID       string // owning payment_request id, when reported
	BuyerEmail      string
	Amount          float64 // major currency units, as the provider reports
	Status          string  // "Credit" on success, "Failed" on terminal failure
	Currency        string
	InstrumentType  string
	CompletedAtUnix int64
}

// PaymentRequestDetail is a payment request with its attached payments.
type PaymentRequestDetail struct {
	RequestID string
	Status    string
	Payments  []Payment
}

// PaymentGateway wraps the external payment provider's HTTP API. Creation is
// idempotent per order on our side (one request per order); status reads are
// safe to repeat. All calls bound their wait via the request context.
type PaymentGateway interface {
	// Configured reports whether credentials are present; when false the
	// payment feature is degraded but the process still serves.
	Configured() bool
	// CreatePaymentRequest asks the provider for a hosted payment link.
	// amount is in major currency units.
	CreatePaymentRequest(ctx context.Context, purpose, buyerEmail string, amount int64, redirectURL, webhookURL string) (*PaymentLink, error)
	// GetPayment fetches the authoritative detail of a single payment.
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
	// GetPaymentRequest fetches a payment request and its payments.
	GetPaymentRequest(ctx context.Context, requestID string) (*PaymentRequestDetail, error)
}
