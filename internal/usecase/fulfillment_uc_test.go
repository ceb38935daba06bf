//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/adapter"
	"tlangau-server/internal/usecase"
)

type fulfillmentDeps struct {
	orders *mockOrderRepo
	codes  *mockCodeRepo
	gw     *mockGateway
	mailer *mockMailer
	uc     usecase.FulfillmentUseCase
}

func newFulfillmentDeps() *fulfillmentDeps {
	d := &fulfillmentDeps{
		orders: newMockOrderRepo(),
		codes:  newMockCodeRepo(),
		gw:     &mockGateway{},
		mailer: &mockMailer{},
	}
	d.uc = usecase.NewFulfillmentUseCase(d.orders, d.codes, d.gw, d.mailer, &mockLocker{}, newTestLogger())
	return d
}

func pendingOrder(id string) *model.Order {
	now := time.Now().UTC()
	return &model.Order{
		OrderID:          id,
		Email:            "buyer@example.com",
		Amount:           2000,
		Status:           model.OrderStatusPending,
		Services:         []string{"ring", "message"},
		PaymentRequestID: "req_1",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func creditPayment() *adapter.Payment {
	return &adapter.Payment{
		ID:        "pay_1",
		RequestID: "req_1",
		Amount:    20.0,
		Status:    adapter.PaymentStatusCredit,
	}
}

func TestFulfill(t *testing.T) {
	ctx := context.Background()

	t.Run("credit payment flips order and mints one code", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		d.orders.Create(ctx, order)

		res, err := d.uc.Fulfill(ctx, order, creditPayment(), "pay_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Verified || res.Status != "SUCCESS" {
			t.Fatalf("result = %+v, want verified SUCCESS", res)
		}

		stored, _ := d.orders.FindByID(ctx, "order_1")
		if stored.Status != model.OrderStatusSuccess || stored.PaymentID != "pay_1" {
			t.Fatalf("order = %+v, want SUCCESS with pay_1", stored)
		}

		code, err := d.codes.FindByOrderID(ctx, "order_1")
		if err != nil {
			t.Fatalf("no code minted: %v", err)
		}
		if len(code.Code) != 12 {
			t.Fatalf("code length = %d, want 12", len(code.Code))
		}
		if code.Used {
			t.Fatal("freshly minted code must not be used")
		}
		if got := time.Until(code.ExpiresAt); got < 29*24*time.Hour || got > 31*24*time.Hour {
			t.Fatalf("expiry window off: %v", got)
		}
		if d.mailer.sentCount() != 1 {
			t.Fatalf("emails sent = %d, want 1", d.mailer.sentCount())
		}
	})

	t.Run("re-entry is idempotent and rate-limits the resend", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		d.orders.Create(ctx, order)

		if _, err := d.uc.Fulfill(ctx, order, creditPayment(), "pay_1"); err != nil {
			t.Fatalf("first fulfill: %v", err)
		}
		first, _ := d.codes.FindByOrderID(ctx, "order_1")

		// Same order re-enters (webhook racing the client poll).
		res, err := d.uc.Fulfill(ctx, order, creditPayment(), "pay_1")
		if err != nil {
			t.Fatalf("second fulfill: %v", err)
		}
		if !res.Verified {
			t.Fatalf("second fulfill not verified: %+v", res)
		}

		second, _ := d.codes.FindByOrderID(ctx, "order_1")
		if first.Code != second.Code {
			t.Fatalf("second fulfill minted a different code: %s vs %s", first.Code, second.Code)
		}
		all, _ := d.codes.ListAll(ctx)
		if len(all) != 1 {
			t.Fatalf("codes = %d, want exactly 1", len(all))
		}
		if d.mailer.sentCount() != 1 {
			t.Fatalf("emails = %d, want 1 (resend suppressed inside the window)", d.mailer.sentCount())
		}
	})

	t.Run("amount mismatch never mutates", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		d.orders.Create(ctx, order)

		p := creditPayment()
		p.Amount = 10.0 // half the expected 20

		res, err := d.uc.Fulfill(ctx, order, p, "pay_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Verified || res.Status != "AMOUNT_MISMATCH" {
			t.Fatalf("result = %+v, want AMOUNT_MISMATCH", res)
		}

		stored, _ := d.orders.FindByID(ctx, "order_1")
		if stored.Status != model.OrderStatusPending {
			t.Fatalf("order mutated to %s", stored.Status)
		}
		if all, _ := d.codes.ListAll(ctx); len(all) != 0 {
			t.Fatal("code minted despite mismatch")
		}
		if d.mailer.sentCount() != 0 {
			t.Fatal("email sent despite mismatch")
		}
	})

	t.Run("tolerates sub-cent amount drift", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		d.orders.Create(ctx, order)

		p := creditPayment()
		p.Amount = 20.005

		res, err := d.uc.Fulfill(ctx, order, p, "pay_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Verified {
			t.Fatalf("result = %+v, want verified", res)
		}
	})

	t.Run("request id mismatch never mutates", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		d.orders.Create(ctx, order)

		p := creditPayment()
		p.RequestID = "req_other"

		res, err := d.uc.Fulfill(ctx, order, p, "pay_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Verified || res.Status != "REQUEST_ID_MISMATCH" {
			t.Fatalf("result = %+v, want REQUEST_ID_MISMATCH", res)
		}
		stored, _ := d.orders.FindByID(ctx, "order_1")
		if stored.Status != model.OrderStatusPending {
			t.Fatalf("order mutated to %s", stored.Status)
		}
	})

	t.Run("failed payment marks order FAILED without a code", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		d.orders.Create(ctx, order)

		p := creditPayment()
		p.Status = adapter.PaymentStatusFailed

		res, err := d.uc.Fulfill(ctx, order, p, "pay_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Verified || res.Status != adapter.PaymentStatusFailed {
			t.Fatalf("result = %+v", res)
		}
		stored, _ := d.orders.FindByID(ctx, "order_1")
		if stored.Status != model.OrderStatusFailed {
			t.Fatalf("order status = %s, want FAILED", stored.Status)
		}
		if all, _ := d.codes.ListAll(ctx); len(all) != 0 {
			t.Fatal("code minted for failed payment")
		}
	})

	t.Run("legacy order without services mints the full catalog", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		order.Services = nil
		order.Amount = 3000
		d.orders.Create(ctx, order)

		p := creditPayment()
		p.Amount = 30.0

		if _, err := d.uc.Fulfill(ctx, order, p, "pay_1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		code, _ := d.codes.FindByOrderID(ctx, "order_1")
		if len(code.Services) != 3 {
			t.Fatalf("services = %v, want full catalog", code.Services)
		}
	})

	t.Run("email failure does not roll back fulfillment", func(t *testing.T) {
		d := newFulfillmentDeps()
		d.mailer.SendFunc = func(ctx context.Context, to, code string, services []string) error {
			return context.DeadlineExceeded
		}
		order := pendingOrder("order_1")
		d.orders.Create(ctx, order)

		res, err := d.uc.Fulfill(ctx, order, creditPayment(), "pay_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Verified {
			t.Fatalf("result = %+v, want verified despite email failure", res)
		}
		stored, _ := d.orders.FindByID(ctx, "order_1")
		if stored.Status != model.OrderStatusSuccess {
			t.Fatalf("order status = %s, want SUCCESS", stored.Status)
		}
		if _, err := d.codes.FindByOrderID(ctx, "order_1"); err != nil {
			t.Fatalf("code missing after email failure: %v", err)
		}
	})
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("terminal order answers without the gateway", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		order.Status = model.OrderStatusExpired
		d.orders.Create(ctx, order)

		res, err := d.uc.VerifyPayment(ctx, "order_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.PaymentStatus != model.OrderStatusExpired {
			t.Fatalf("status = %s, want EXPIRED", res.PaymentStatus)
		}
		if c, gp, gr := d.gw.calls(); c+gp+gr != 0 {
			t.Fatalf("gateway touched: create=%d getPayment=%d getRequest=%d", c, gp, gr)
		}
	})

	t.Run("resolves payment via recorded payment id", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		order.PaymentID = "pay_1"
		d.orders.Create(ctx, order)
		d.gw.GetPaymentFunc = func(ctx context.Context, paymentID string) (*adapter.Payment, error) {
			return creditPayment(), nil
		}

		res, err := d.uc.VerifyPayment(ctx, "order_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.PaymentStatus != model.OrderStatusSuccess {
			t.Fatalf("status = %s, want SUCCESS", res.PaymentStatus)
		}
		if len(res.Services) == 0 {
			t.Fatal("services missing from verified result")
		}
	})

	t.Run("scans the payment request for a credit payment", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		d.orders.Create(ctx, order)
		d.gw.GetPaymentRequestFunc = func(ctx context.Context, requestID string) (*adapter.PaymentRequestDetail, error) {
			return &adapter.PaymentRequestDetail{
				RequestID: "req_1",
				Payments: []adapter.Payment{
					{ID: "pay_0", RequestID: "req_1", Amount: 20, Status: adapter.PaymentStatusFailed},
					{ID: "pay_1", RequestID: "req_1", Amount: 20, Status: adapter.PaymentStatusCredit},
				},
			}, nil
		}

		res, err := d.uc.VerifyPayment(ctx, "order_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.PaymentStatus != model.OrderStatusSuccess {
			t.Fatalf("status = %s, want SUCCESS", res.PaymentStatus)
		}
		stored, _ := d.orders.FindByID(ctx, "order_1")
		if stored.PaymentID != "pay_1" {
			t.Fatalf("payment id = %q, want pay_1", stored.PaymentID)
		}
	})

	t.Run("pending order without payments stays pending", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		d.orders.Create(ctx, order)
		d.gw.GetPaymentRequestFunc = func(ctx context.Context, requestID string) (*adapter.PaymentRequestDetail, error) {
			return &adapter.PaymentRequestDetail{RequestID: "req_1"}, nil
		}

		res, err := d.uc.VerifyPayment(ctx, "order_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.PaymentStatus != model.OrderStatusPending {
			t.Fatalf("status = %s, want PENDING", res.PaymentStatus)
		}
	})
}

func TestProcessWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("fulfills via request id lookup", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		d.orders.Create(ctx, order)
		d.gw.GetPaymentFunc = func(ctx context.Context, paymentID string) (*adapter.Payment, error) {
			return creditPayment(), nil
		}

		res, err := d.uc.ProcessWebhook(ctx, "req_1", "pay_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Verified {
			t.Fatalf("result = %+v, want verified", res)
		}
	})

	t.Run("falls back to buyer email when request id is unknown", func(t *testing.T) {
		d := newFulfillmentDeps()
		order := pendingOrder("order_1")
		order.PaymentRequestID = "" // legacy order predating the recorded id
		d.orders.Create(ctx, order)
		d.gw.GetPaymentFunc = func(ctx context.Context, paymentID string) (*adapter.Payment, error) {
			p := creditPayment()
			p.RequestID = ""
			p.BuyerEmail = "buyer@example.com"
			return p, nil
		}

		res, err := d.uc.ProcessWebhook(ctx, "req_unknown", "pay_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Verified {
			t.Fatalf("result = %+v, want verified", res)
		}
	})
}
