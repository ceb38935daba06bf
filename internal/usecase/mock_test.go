//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/adapter"
	"tlangau-server/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// -----------------------------
// Order repository mock
// -----------------------------

type mockOrderRepo struct {
	mu     sync.RWMutex
	store map[string]*model.Order

	CreateFunc func(ctx context.Context, o *model.Order) error
	UpdateFunc func(ctx context.Context, orderID string, patch repository.OrderPatch) error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{store: make(map[string]*model.Order)}
}

func (m *mockOrderRepo) Create(ctx context.Context, o *model.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[o.OrderID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *o
	m.store[o.OrderID] = &cp
	return nil
}

func (m *mockOrderRepo) Update(ctx context.Context, orderID string, patch repository.OrderPatch) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, orderID, patch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Status != nil {
		if !o.Status.CanTransitionTo(*patch.Status) {
			return domain.ErrInvalidTransition
		}
		o.Status = *patch.Status
	}
	if patch.PaymentRequestID != nil {
		o.PaymentRequestID = *patch.PaymentRequestID
	}
	if patch.PaymentID != nil {
		o.PaymentID = *patch.PaymentID
	}
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockOrderRepo) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.store[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) FindByPaymentRequestID(ctx context.Context, reqID string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.store {
		if o.PaymentRequestID == reqID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockOrderRepo) FindLatestByEmail(ctx context.Context, email string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.Order
	for _, o := range m.store {
		if o.Email != email {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockOrderRepo) ListAll(ctx context.Context) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Order, 0, len(m.store))
	for _, o := range m.store {
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Order
	for _, o := range m.store {
		if o.Status == model.OrderStatusPending && o.CreatedAt.Before(cutoff) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) Delete(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[orderID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, orderID)
	return nil
}

func (m *mockOrderRepo) DeleteByEmail(ctx context.Context, email string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, o := range m.store {
		if o.Email == email {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

// -----------------------------
// Access code repository mock
// -----------------------------

type mockCodeRepo struct {
	mu    sync.RWMutex
	store map[string]*model.AccessCode

	CreateFunc func(ctx context.Context, c *model.AccessCode) error
}

func newMockCodeRepo() *mockCodeRepo {
	return &mockCodeRepo{store: make(map[string]*model.AccessCode)}
}

func (m *mockCodeRepo) Create(ctx context.Context, c *model.AccessCode) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[c.Code]; ok {
		return domain.ErrAlreadyExists
	}
	for _, existing := range m.store {
		if existing.OrderID == c.OrderID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *c
	m.store[c.Code] = &cp
	return nil
}

func (m *mockCodeRepo) FindByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCodeRepo) FindByOrderID(ctx context.Context, orderID string) (*model.AccessCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.store {
		if c.OrderID == orderID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCodeRepo) FindLatestByEmail(ctx context.Context, email string) (*model.AccessCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.AccessCode
	for _, c := range m.store {
		if c.Email != email {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockCodeRepo) MarkUsed(ctx context.Context, code, email, accountID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok {
		return domain.ErrNotFound
	}
	c.Used = true
	c.UsedByEmail = email
	c.UsedByAccount = accountID
	c.UsedAt = &at
	return nil
}

func (m *mockCodeRepo) AccountHasUsedCode(ctx context.Context, accountID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.store {
		if c.Used && c.UsedByAccount == accountID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCodeRepo) ListAll(ctx context.Context) ([]*model.AccessCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.AccessCode, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockCodeRepo) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[code]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, code)
	return nil
}

func (m *mockCodeRepo) DeleteByOrderID(ctx context.Context, orderID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for code, c := range m.store {
		if c.OrderID == orderID {
			delete(m.store, code)
			n++
		}
	}
	return n, nil
}

func (m *mockCodeRepo) DeleteByEmail(ctx context.Context, email string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for code, c := range m.store {
		if c.Email == email {
			delete(m.store, code)
			n++
		}
	}
	return n, nil
}

// -----------------------------
// Bundle repository mock
// -----------------------------

type mockBundleRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Bundle
}

func newMockBundleRepo() *mockBundleRepo {
	return &mockBundleRepo{store: make(map[string]*model.Bundle)}
}

func (m *mockBundleRepo) ListAll(ctx context.Context) ([]*model.Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Bundle, 0, len(m.store))
	for _, b := range m.store {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockBundleRepo) Delete(ctx context.Context, bundleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[bundleID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, bundleID)
	return nil
}

func (m *mockBundleRepo) DeleteTopic(ctx context.Context, bundleID, topicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.store[bundleID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := b.Topics[topicID]; !ok {
		return domain.ErrNotFound
	}
	delete(b.Topics, topicID)
	return nil
}

// -----------------------------
// Poll repository mock
// -----------------------------

type mockPollRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Poll
}

func newMockPollRepo() *mockPollRepo {
	return &mockPollRepo{store: make(map[string]*model.Poll)}
}

func (m *mockPollRepo) Create(ctx context.Context, p *model.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *p
	cp.Voters = make(map[string]int, len(p.Voters))
	for k, v := range p.Voters {
		cp.Voters[k] = v
	}
	m.store[p.ID] = &cp
	return nil
}

func (m *mockPollRepo) FindByID(ctx context.Context, pollID string) (*model.Poll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[pollID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPollRepo) ListAll(ctx context.Context) ([]*model.Poll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Poll, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockPollRepo) Vote(ctx context.Context, pollID string, optionID int, voterEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[pollID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, voted := p.Voters[voterEmail]; voted {
		return domain.ErrAlreadyVoted
	}
	p.Voters[voterEmail] = optionID
	p.Options[optionID].Votes++
	p.TotalVotes++
	return nil
}

func (m *mockPollRepo) VoterChoice(ctx context.Context, pollID, voterEmail string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[pollID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	choice, voted := p.Voters[voterEmail]
	if !voted {
		return 0, domain.ErrNotFound
	}
	return choice, nil
}

func (m *mockPollRepo) Update(ctx context.Context, pollID string, partial repository.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[pollID]
	if !ok {
		return domain.ErrNotFound
	}
	if status, ok := partial["status"].(string); ok {
		p.Status = status
	}
	if publish, ok := partial["publish_results"].(bool); ok {
		p.PublishResults = publish
	}
	return nil
}

func (m *mockPollRepo) Delete(ctx context.Context, pollID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[pollID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, pollID)
	return nil
}

// -----------------------------
// Adapter mocks
// -----------------------------

type mockGateway struct {
	mu sync.Mutex

	CreatePaymentRequestFunc func(ctx context.Context, purpose, buyerEmail string, amount int64, redirectURL, webhookURL string) (*adapter.PaymentLink, error)
	GetPaymentFunc           func(ctx context.Context, paymentID string) (*adapter.Payment, error)
	GetPaymentRequestFunc    func(ctx context.Context, requestID string) (*adapter.PaymentRequestDetail, error)

	createCalls     int
	getPaymentCalls int
	getRequestCalls int
}

func (m *mockGateway) Configured() bool { return true }

func (m *mockGateway) CreatePaymentRequest(ctx context.Context, purpose, buyerEmail string, amount int64, redirectURL, webhookURL string) (*adapter.PaymentLink, error) {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()
	if m.CreatePaymentRequestFunc != nil {
		return m.CreatePaymentRequestFunc(ctx, purpose, buyerEmail, amount, redirectURL, webhookURL)
	}
	return &adapter.PaymentLink{RequestID: "req_test", URL: "https://pay.example/req_test"}, nil
}

func (m *mockGateway) GetPayment(ctx context.Context, paymentID string) (*adapter.Payment, error) {
	m.mu.Lock()
	m.getPaymentCalls++
	m.mu.Unlock()
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, paymentID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockGateway) GetPaymentRequest(ctx context.Context, requestID string) (*adapter.PaymentRequestDetail, error) {
	m.mu.Lock()
	m.getRequestCalls++
	m.mu.Unlock()
	if m.GetPaymentRequestFunc != nil {
		return m.GetPaymentRequestFunc(ctx, requestID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockGateway) calls() (create, getPayment, getRequest int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls, m.getPaymentCalls, m.getRequestCalls
}

type sentMail struct {
	To       string
	Code     string
	Services []string
}

type mockMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	SendFunc func(ctx context.Context, to, code string, services []string) error
}

func (m *mockMailer) Configured() bool { return true }

func (m *mockMailer) SendAccessCode(ctx context.Context, to, code string, services []string) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, to, code, services); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Code: code, Services: services})
	return nil
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type mockLocker struct {
	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key, ttl)
	}
	return "tok", nil
}

func (m *mockLocker) Unlock(ctx context.Context, key, token string) error { return nil }

type mockPush struct {
	mu       sync.Mutex
	sent     []adapter.PushMessage
	SendFunc func(ctx context.Context, msg adapter.PushMessage) (string, error)
}

func (m *mockPush) Configured() bool { return true }

func (m *mockPush) Send(ctx context.Context, msg adapter.PushMessage) (string, error) {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	return "msg-id-1", nil
}

func (m *mockPush) SendEach(ctx context.Context, msgs []adapter.PushMessage) (*adapter.PushResult, error) {
	m.mu.Lock()
	m.sent = append(m.sent, msgs...)
	m.mu.Unlock()
	res := &adapter.PushResult{Sent: len(msgs)}
	for range msgs {
		res.MessageIDs = append(res.MessageIDs, "msg-id")
	}
	return res, nil
}
