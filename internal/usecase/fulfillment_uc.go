package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/adapter"
	"tlangau-server/internal/domain/ports/repository"
	"tlangau-server/internal/infra/cache"
	"tlangau-server/internal/infra/metrics"
)

// Compile-time check
var _ FulfillmentUseCase = (*fulfillmentUC)(nil)

// Fulfillment outcome statuses beyond the provider's own sentinels.
const (
	StatusAmountMismatch    = "AMOUNT_MISMATCH"
	StatusRequestIDMismatch = "REQUEST_ID_MISMATCH"
	StatusSuccess           = "SUCCESS"
)

const (
	fulfillLockTTL  = 30 * time.Second
	resendWindow    = 10 * time.Minute
	amountTolerance = 0.01
)

// FulfillmentResult reports whether a payment verified and the resulting status.
type FulfillmentResult struct {
	Verified bool
	Status   string
}

// VerifyResult is the poll endpoint's view of an order.
type VerifyResult struct {
	PaymentStatus model.OrderStatus
	Services      []string
	Message       string
}

type FulfillmentUseCase interface {
	// Fulfill decides whether the payment satisfies the order and, when it
	// does, flips the order to SUCCESS, mints the access code at most once
	// and triggers the email. Safe to re-enter for the same order.
	Fulfill(ctx context.Context, order *model.Order, payment *adapter.Payment, paymentID string) (*FulfillmentResult, error)
	// ProcessWebhook resolves the order for a provider callback and drives
	// Fulfill with the authoritative payment detail.
	ProcessWebhook(ctx context.Context, paymentRequestID, paymentID string) (*FulfillmentResult, error)
	// VerifyPayment is the client poll: short-circuits terminal orders, then
	// tries to resolve a concrete payment and fulfill.
	VerifyPayment(ctx context.Context, orderID string) (*VerifyResult, error)
}

type fulfillmentUC struct {
	orders  repository.OrderRepository
	codes   repository.AccessCodeRepository
	gateway adapter.PaymentGateway
	mailer  adapter.Mailer
	locker  adapter.Locker
	resent  *cache.TTL[bool]
	now     func() time.Time
	log     zerolog.Logger
}

func NewFulfillmentUseCase(
	orders repository.OrderRepository,
	codes repository.AccessCodeRepository,
	gateway adapter.PaymentGateway,
	mailer adapter.Mailer,
	locker adapter.Locker,
	logger zerolog.Logger,
) *fulfillmentUC {
	return &fulfillmentUC{
		orders:  orders,
		codes:   codes,
		gateway: gateway,
		mailer:  mailer,
		locker:  locker,
		resent:  cache.NewTTL[bool]("email-resend", resendWindow, nil),
		now:     time.Now,
		log:     logger.With().Str("component", "fulfillment-uc").Logger(),
	}
}

func (u *fulfillmentUC) Fulfill(ctx context.Context, order *model.Order, payment *adapter.Payment, paymentID string) (*FulfillmentResult, error) {
	// The advisory lock serializes the webhook and poll triggers racing on
	// one order. It is best-effort: losing it only means both run, and the
	// conditional code mint still guarantees a single code.
	lockKey := "fulfill:" + order.OrderID
	token, err := u.locker.TryLock(ctx, lockKey, fulfillLockTTL)
	if err != nil {
		u.log.Warn().Err(err).Str("order_id", order.OrderID).Msg("proceeding without fulfillment lock")
	} else {
		defer func() {
			if uerr := u.locker.Unlock(ctx, lockKey, token); uerr != nil {
				u.log.Warn().Err(uerr).Str("order_id", order.OrderID).Msg("unlock failed")
			}
		}()
	}
	return u.fulfill(ctx, order, payment, paymentID)
}

func (u *fulfillmentUC) fulfill(ctx context.Context, order *model.Order, payment *adapter.Payment, paymentID string) (*FulfillmentResult, error) {
	expectedAmount := float64(order.Amount) / 100

	if payment.Status != adapter.PaymentStatusCredit {
		if payment.Status == adapter.PaymentStatusFailed {
			failed := model.OrderStatusFailed
			if err := u.orders.Update(ctx, order.OrderID, repository.OrderPatch{Status: &failed, PaymentID: &paymentID}); err != nil {
				u.log.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to mark order FAILED")
			}
			metrics.IncPayment("failed")
		}
		return &FulfillmentResult{Verified: false, Status: payment.Status}, nil
	}

	if math.Abs(payment.Amount-expectedAmount) > amountTolerance {
		u.log.Error().Str("order_id", order.OrderID).
			Float64("expected", expectedAmount).Float64("got", payment.Amount).
			Msg("payment amount mismatch")
		metrics.IncPayment("amount_mismatch")
		return &FulfillmentResult{Verified: false, Status: StatusAmountMismatch}, nil
	}

	if payment.RequestID != "" && order.PaymentRequestID != "" && payment.RequestID != order.PaymentRequestID {
		u.log.Error().Str("order_id", order.OrderID).
			Str("order_request_id", order.PaymentRequestID).
			Str("payment_request_id", payment.RequestID).
			Msg("payment request id mismatch")
		metrics.IncPayment("request_id_mismatch")
		return &FulfillmentResult{Verified: false, Status: StatusRequestIDMismatch}, nil
	}

	success := model.OrderStatusSuccess
	if err := u.orders.Update(ctx, order.OrderID, repository.OrderPatch{Status: &success, PaymentID: &paymentID}); err != nil {
		return nil, fmt.Errorf("mark order SUCCESS: %w", err)
	}
	metrics.IncPayment("verified")

	code, minted, err := u.ensureCode(ctx, order, paymentID)
	if err != nil {
		return nil, err
	}

	if minted {
		u.sendCodeEmail(ctx, order.Email, code)
		u.resent.Set(order.OrderID, true)
	} else if _, recently := u.resent.Get(order.OrderID); !recently {
		// Re-entered fulfillment resends the code, but at most once per
		// window so a webhook/poll flurry does not spam the buyer.
		u.sendCodeEmail(ctx, order.Email, code)
		u.resent.Set(order.OrderID, true)
	}

	return &FulfillmentResult{Verified: true, Status: StatusSuccess}, nil
}

// ensureCode returns the order's access code, minting it when absent. The
// conditional create plus the store's per-order uniqueness make this safe to
// race: the loser re-reads the winner's code.
func (u *fulfillmentUC) ensureCode(ctx context.Context, order *model.Order, paymentID string) (*model.AccessCode, bool, error) {
	existing, err := u.codes.FindByOrderID(ctx, order.OrderID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("look up access code: %w", err)
	}

	codeStr, err := generateAccessCode()
	if err != nil {
		return nil, false, fmt.Errorf("generate access code: %w", err)
	}
	now := u.now().UTC()
	code := &model.AccessCode{
		Code:      codeStr,
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Email:     order.Email,
		Services:  order.EffectiveServices(),
		Used:      false,
		CreatedAt: now,
		ExpiresAt: now.Add(model.CodeValidity),
	}
	if err := u.codes.Create(ctx, code); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			winner, ferr := u.codes.FindByOrderID(ctx, order.OrderID)
			if ferr != nil {
				return nil, false, fmt.Errorf("re-read access code after lost mint race: %w", ferr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("persist access code: %w", err)
	}
	metrics.IncCodeMinted()
	u.log.Info().Str("order_id", order.OrderID).Strs("services", code.Services).Msg("access code minted")
	return code, true, nil
}

func (u *fulfillmentUC) sendCodeEmail(ctx context.Context, email string, code *model.AccessCode) {
	if err := u.mailer.SendAccessCode(ctx, email, code.Code, code.Services); err != nil {
		// Fulfillment is already committed; a lost email needs a human, not
		// a rollback.
		u.log.Error().Err(err).
			Str("email", email).
			Str("order_id", code.OrderID).
			Msg("access code email NOT sent, manual intervention required")
	}
}

func (u *fulfillmentUC) ProcessWebhook(ctx context.Context, paymentRequestID, paymentID string) (*FulfillmentResult, error) {
	order, err := u.orders.FindByPaymentRequestID(ctx, paymentRequestID)
	if errors.Is(err, domain.ErrNotFound) && paymentID != "" {
		// Old orders may predate the recorded request id; fall back to the
		// buyer email the provider reports.
		payment, gerr := u.gateway.GetPayment(ctx, paymentID)
		if gerr == nil && payment.BuyerEmail != "" {
			order, err = u.orders.FindLatestByEmail(ctx, payment.BuyerEmail)
		}
	}
	if err != nil {
		return nil, err
	}

	if paymentID == "" {
		return &FulfillmentResult{Verified: false, Status: string(order.Status)}, nil
	}
	payment, err := u.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}
	return u.Fulfill(ctx, order, payment, paymentID)
}

func (u *fulfillmentUC) VerifyPayment(ctx context.Context, orderID string) (*VerifyResult, error) {
	order, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Terminal orders answer from the store alone.
	if order.Status.IsTerminal() {
		return &VerifyResult{PaymentStatus: order.Status, Services: order.EffectiveServices()}, nil
	}

	if order.PaymentID != "" {
		payment, err := u.gateway.GetPayment(ctx, order.PaymentID)
		if err != nil {
			return nil, fmt.Errorf("fetch payment %s: %w", order.PaymentID, err)
		}
		res, err := u.Fulfill(ctx, order, payment, order.PaymentID)
		if err != nil {
			return nil, err
		}
		return u.verifyResult(ctx, orderID, res)
	}

	if order.PaymentRequestID != "" {
		detail, err := u.gateway.GetPaymentRequest(ctx, order.PaymentRequestID)
		if err != nil {
			return nil, fmt.Errorf("fetch payment request %s: %w", order.PaymentRequestID, err)
		}
		for i := range detail.Payments {
			p := &detail.Payments[i]
			if p.Status == adapter.PaymentStatusCredit {
				res, err := u.Fulfill(ctx, order, p, p.ID)
				if err != nil {
					return nil, err
				}
				return u.verifyResult(ctx, orderID, res)
			}
		}
	}

	return &VerifyResult{PaymentStatus: order.Status, Message: "payment not completed yet"}, nil
}

func (u *fulfillmentUC) verifyResult(ctx context.Context, orderID string, res *FulfillmentResult) (*VerifyResult, error) {
	order, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := &VerifyResult{PaymentStatus: order.Status}
	if res.Verified {
		out.Services = order.EffectiveServices()
	} else {
		out.Message = res.Status
	}
	return out, nil
}
