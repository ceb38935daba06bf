package payment

import (
	"context"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*Noop)(nil)

// Noop stands in when gateway credentials are absent. Payment endpoints
// degrade to an explicit error instead of the process refusing to start.
type Noop struct{}

func (Noop) Configured() bool { return false }

func (Noop) CreatePaymentRequest(context.Context, string, string, int64, string, string) (*adapter.PaymentLink, error) {
	return nil, domain.ErrGatewayUnavailable
}

func (Noop) GetPayment(context.Context, string) (*adapter.Payment, error) {
	return nil, domain.ErrGatewayUnavailable
}

func (Noop) GetPaymentRequest(context.Context, string) (*adapter.PaymentRequestDetail, error) {
	return nil, domain.ErrGatewayUnavailable
}
