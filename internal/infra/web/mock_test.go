//go:build !integration

package web

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"tlangau-server/internal/config"
	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/usecase"

	"github.com/rs/zerolog"
)

// --- Mock use cases ---

type mockPaymentUC struct {
	usecase.PaymentUseCase // Embed interface for forward compatibility
	CreatePaymentFunc      func(ctx context.Context, email string, services []string) (*usecase.PaymentIntent, error)
}

func (m *mockPaymentUC) CreatePayment(ctx context.Context, email string, services []string) (*usecase.PaymentIntent, error) {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, email, services)
	}
	return &usecase.PaymentIntent{
		OrderID:    "order_1",
		PaymentURL: "https://pay.example/req_1",
		Amount:     int64(len(services)) * model.ServicePrice,
		Services:   services,
		Currency:   "INR",
	}, nil
}

type mockFulfillmentUC struct {
	usecase.FulfillmentUseCase
	mu                 sync.Mutex
	webhookCalls       int
	verifyCalls        int
	ProcessWebhookFunc func(ctx context.Context, paymentRequestID, paymentID string) (*usecase.FulfillmentResult, error)
	VerifyPaymentFunc  func(ctx context.Context, orderID string) (*usecase.VerifyResult, error)
}

func (m *mockFulfillmentUC) ProcessWebhook(ctx context.Context, paymentRequestID, paymentID string) (*usecase.FulfillmentResult, error) {
	m.mu.Lock()
	m.webhookCalls++
	m.mu.Unlock()
	if m.ProcessWebhookFunc != nil {
		return m.ProcessWebhookFunc(ctx, paymentRequestID, paymentID)
	}
	return &usecase.FulfillmentResult{Verified: true, Status: "SUCCESS"}, nil
}

func (m *mockFulfillmentUC) VerifyPayment(ctx context.Context, orderID string) (*usecase.VerifyResult, error) {
	m.mu.Lock()
	m.verifyCalls++
	m.mu.Unlock()
	if m.VerifyPaymentFunc != nil {
		return m.VerifyPaymentFunc(ctx, orderID)
	}
	return &usecase.VerifyResult{PaymentStatus: model.OrderStatusPending, Message: "payment not completed yet"}, nil
}

func (m *mockFulfillmentUC) calls() (webhook, verify int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.webhookCalls, m.verifyCalls
}

type mockEntitlementUC struct {
	usecase.EntitlementUseCase
	RedeemFunc  func(ctx context.Context, code, email, accountID string) (*usecase.RedeemResult, error)
	ResolveFunc func(ctx context.Context, email string) (*model.Entitlement, error)
	InfoFunc    func(ctx context.Context, email string) (*usecase.CodeInfo, error)
}

func (m *mockEntitlementUC) Redeem(ctx context.Context, code, email, accountID string) (*usecase.RedeemResult, error) {
	if m.RedeemFunc != nil {
		return m.RedeemFunc(ctx, code, email, accountID)
	}
	return nil, domain.ErrCodeNotFound
}

func (m *mockEntitlementUC) Resolve(ctx context.Context, email string) (*model.Entitlement, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, email)
	}
	return nil, domain.ErrCodeNotFound
}

func (m *mockEntitlementUC) Info(ctx context.Context, email string) (*usecase.CodeInfo, error) {
	if m.InfoFunc != nil {
		return m.InfoFunc(ctx, email)
	}
	return nil, domain.ErrCodeNotFound
}

type mockNotifyUC struct {
	usecase.NotifyUseCase
	mu              sync.Mutex
	rings           []*usecase.RingRequest
	messages        []*usecase.MessageRequest
	SendRingFunc    func(ctx context.Context, req *usecase.RingRequest) (*usecase.SendOutcome, error)
	SendMessageFunc func(ctx context.Context, req *usecase.MessageRequest) (*usecase.SendOutcome, error)
}

func (m *mockNotifyUC) SendRing(ctx context.Context, req *usecase.RingRequest) (*usecase.SendOutcome, error) {
	m.mu.Lock()
	m.rings = append(m.rings, req)
	m.mu.Unlock()
	if m.SendRingFunc != nil {
		return m.SendRingFunc(ctx, req)
	}
	return &usecase.SendOutcome{Sent: 1, MessageIDs: []string{"msg-1"}}, nil
}

func (m *mockNotifyUC) SendMessage(ctx context.Context, req *usecase.MessageRequest) (*usecase.SendOutcome, error) {
	m.mu.Lock()
	m.messages = append(m.messages, req)
	m.mu.Unlock()
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, req)
	}
	return &usecase.SendOutcome{Sent: len(req.FCMTopicNames), MessageIDs: []string{"msg-1"}}, nil
}

func (m *mockNotifyUC) ringCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rings)
}

type mockAdminUC struct {
	usecase.AdminUseCase
	ListOrdersFunc  func(ctx context.Context) ([]*model.Order, error)
	StatisticsFunc  func(ctx context.Context) (*usecase.Statistics, error)
	ResendEmailFunc func(ctx context.Context, email string) (string, error)
}

func (m *mockAdminUC) ListOrders(ctx context.Context) ([]*model.Order, error) {
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx)
	}
	return []*model.Order{}, nil
}

func (m *mockAdminUC) Statistics(ctx context.Context) (*usecase.Statistics, error) {
	if m.StatisticsFunc != nil {
		return m.StatisticsFunc(ctx)
	}
	return &usecase.Statistics{}, nil
}

func (m *mockAdminUC) ResendEmail(ctx context.Context, email string) (string, error) {
	if m.ResendEmailFunc != nil {
		return m.ResendEmailFunc(ctx, email)
	}
	return "ABC123XYZ789", nil
}

type mockPollUC struct {
	usecase.PollUseCase
	VoteFunc func(ctx context.Context, pollID string, optionID int, voterEmail string) error
}

func (m *mockPollUC) Vote(ctx context.Context, pollID string, optionID int, voterEmail string) error {
	if m.VoteFunc != nil {
		return m.VoteFunc(ctx, pollID, optionID, voterEmail)
	}
	return nil
}

// --- Stub adapters ---

type stubVerifier struct{ ok bool }

func (s *stubVerifier) Verify(fields map[string]string) bool { return s.ok }

type stubIdentity struct {
	email string
	err   error
}

func (s *stubIdentity) VerifyToken(ctx context.Context, token string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.email == "" {
		return "", errors.New("invalid token")
	}
	return s.email, nil
}

type stubMailer struct {
	mu         sync.Mutex
	configured bool
	sent       []string
	err        error
}

func (s *stubMailer) Configured() bool { return s.configured }

func (s *stubMailer) SendAccessCode(ctx context.Context, to, code string, services []string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.sent = append(s.sent, to)
	s.mu.Unlock()
	return nil
}

// --- Test server harness ---

type testDeps struct {
	payments *mockPaymentUC
	fulfill  *mockFulfillmentUC
	entitle  *mockEntitlementUC
	notify   *mockNotifyUC
	admin    *mockAdminUC
	polls    *mockPollUC
	mailer   *stubMailer
	webhooks *stubVerifier
	identity *stubIdentity
}

func newTestServer(d *testDeps) *Server {
	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Admin.Password = "admin-secret"
	cfg.Admin.SessionSecret = "session-secret"
	cfg.Admin.SessionTTL = time.Minute
	cfg.Runtime.Dev = true

	logger := zerolog.New(io.Discard)
	return NewServer(
		cfg,
		d.payments, d.fulfill, d.entitle, d.notify, d.admin, d.polls,
		d.mailer, d.webhooks, d.identity,
		logger,
	)
}

func defaultDeps() *testDeps {
	return &testDeps{
		payments: &mockPaymentUC{},
		fulfill:  &mockFulfillmentUC{},
		entitle:  &mockEntitlementUC{},
		notify:   &mockNotifyUC{},
		admin:    &mockAdminUC{},
		polls:    &mockPollUC{},
		mailer:   &stubMailer{configured: true},
		webhooks: &stubVerifier{ok: true},
		identity: &stubIdentity{email: "buyer@example.com"},
	}
}
