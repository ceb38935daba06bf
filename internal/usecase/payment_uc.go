package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/adapter"
	"tlangau-server/internal/domain/ports/repository"
	"tlangau-server/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentIntent is the caller-visible result of creating a payment.
type PaymentIntent struct {
	OrderID    string
	PaymentURL string
	Amount     int64 // major currency units
	Services   []string
	Currency   string
}

type PaymentUseCase interface {
	// CreatePayment validates the request, records a PENDING order with a
	// server-computed amount and asks the gateway for a hosted payment link.
	CreatePayment(ctx context.Context, email string, services []string) (*PaymentIntent, error)
}

type paymentUC struct {
	orders      repository.OrderRepository
	gateway     adapter.PaymentGateway
	frontendURL string
	backendURL  string
	log         zerolog.Logger
}

func NewPaymentUseCase(orders repository.OrderRepository, gateway adapter.PaymentGateway, frontendURL, backendURL string, logger zerolog.Logger) *paymentUC {
	return &paymentUC{
		orders:      orders,
		gateway:     gateway,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		backendURL:  strings.TrimSuffix(backendURL, "/"),
		log:         logger.With().Str("component", "payment-uc").Logger(),
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func (u *paymentUC) CreatePayment(ctx context.Context, email string, services []string) (*PaymentIntent, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidArgument)
	}
	selected := model.DedupeServices(services)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: at least one valid service must be selected", domain.ErrInvalidArgument)
	}
	if !u.gateway.Configured() {
		return nil, domain.ErrGatewayUnavailable
	}

	// Amount is never trusted from the client.
	amount := int64(len(selected)) * model.ServicePrice
	orderID := newOrderID()
	now := time.Now().UTC()

	order := &model.Order{
		OrderID:   orderID,
		Email:     email,
		Amount:    amount * 100,
		Status:    model.OrderStatusPending,
		Services:  selected,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	u.log.Info().Str("order_id", orderID).Str("email", email).
		Int64("amount", amount).Strs("services", selected).Msg("order created")

	link, err := u.gateway.CreatePaymentRequest(ctx,
		purposeFor(selected),
		email,
		amount,
		fmt.Sprintf("%s/success.html?order_id=%s", u.frontendURL, orderID),
		u.backendURL+"/api/payment-webhook",
	)
	if err != nil {
		failed := model.OrderStatusFailed
		if uerr := u.orders.Update(ctx, orderID, repository.OrderPatch{Status: &failed}); uerr != nil {
			u.log.Error().Err(uerr).Str("order_id", orderID).Msg("failed to mark order FAILED")
		}
		metrics.IncPayment("create_failed")
		return nil, fmt.Errorf("create payment link: %w", err)
	}

	if err := u.orders.Update(ctx, orderID, repository.OrderPatch{PaymentRequestID: &link.RequestID}); err != nil {
		return nil, fmt.Errorf("record payment request id: %w", err)
	}
	metrics.IncPayment("created")

	return &PaymentIntent{
		OrderID:    orderID,
		PaymentURL: link.URL,
		Amount:     amount,
		Services:   selected,
		Currency:   "INR",
	}, nil
}

// purposeFor builds the provider-visible purchase description.
func purposeFor(services []string) string {
	if len(services) == len(model.PaidServices) {
		return "Tlangau: All Services"
	}
	names := make([]string, 0, len(services))
	for _, id := range services {
		names = append(names, model.ServiceName(id))
	}
	return "Tlangau: " + strings.Join(names, ", ")
}

// newOrderID mints a time-ordered, globally unique order identifier.
func newOrderID() string {
	return "order_" + ulid.MustNew(ulid.Now(), rand.Reader).String()
}
