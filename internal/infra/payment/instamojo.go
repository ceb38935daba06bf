package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"tlangau-server/internal/config"
	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*Client)(nil)

// Client talks to the Instamojo v1.1 REST API. Credentials ride on every
// request as headers; all calls are bounded by the configured timeout.
type Client struct {
	baseURL   string
	apiKey    string
	authToken string
	http      *http.Client
	log       zerolog.Logger
}

func NewClient(cfg *config.PaymentConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		authToken: cfg.AuthToken,
		http:      &http.Client{Timeout: cfg.Timeout},
		log:       logger.With().Str("component", "payment-gateway").Logger(),
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != "" && c.authToken != ""
}

// apiEnvelope is the provider's common response wrapper.
type apiEnvelope struct {
	Success        bool            `json:"success"`
	Message        json.RawMessage `json:"message,omitempty"`
	PaymentRequest json.RawMessage `json:"payment_request,omitempty"`
	Payment        json.RawMessage `json:"payment,omitempty"`
}

type paymentRequestBody struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	LongURL  string            `json:"longurl"`
	Payments []json.RawMessage `json:"payments,omitempty"`
}

type paymentBody struct {
	PaymentID      string `json:"payment_id"`
	Status         string `json:"status"`
	BuyerEmail     string `json:"buyer_email"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	Instrument     string `json:"instrument_type"`
	PaymentRequest struct {
		ID string `json:"id"`
	} `json:"payment_request"`
	PaymentRequestID string `json:"payment_request_id"`
}

func (c *Client) CreatePaymentRequest(ctx context.Context, purpose, buyerEmail string, amount int64, redirectURL, webhookURL string) (*adapter.PaymentLink, error) {
	if !c.Configured() {
		return nil, domain.ErrGatewayUnavailable
	}
	form := url.Values{}
	form.Set("purpose", purpose)
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", "INR")
	form.Set("buyer_name", buyerName(buyerEmail))
	form.Set("email", buyerEmail)
	form.Set("redirect_url", redirectURL)
	form.Set("webhook", webhookURL)
	form.Set("allow_repeated_payments", "false")

	env, err := c.do(ctx, http.MethodPost, "/payment-requests/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	var pr paymentRequestBody
	if err := json.Unmarshal(env.PaymentRequest, &pr); err != nil {
		return nil, fmt.Errorf("decode payment request: %w", err)
	}
	c.log.Info().Str("payment_request_id", pr.ID).Msg("payment link created")
	return &adapter.PaymentLink{RequestID: pr.ID, URL: pr.LongURL}, nil
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*adapter.Payment, error) {
	if !c.Configured() {
		return nil, domain.ErrGatewayUnavailable
	}
	env, err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID)+"/", nil)
	if err != nil {
		return nil, err
	}
	var pb paymentBody
	if err := json.Unmarshal(env.Payment, &pb); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}
	p := toPayment(&pb)
	if p.ID == "" {
		p.ID = paymentID
	}
	return p, nil
}

func (c *Client) GetPaymentRequest(ctx context.Context, requestID string) (*adapter.PaymentRequestDetail, error) {
	if !c.Configured() {
		return nil, domain.ErrGatewayUnavailable
	}
	env, err := c.do(ctx, http.MethodGet, "/payment-requests/"+url.PathEscape(requestID)+"/", nil)
	if err != nil {
		return nil, err
	}
	var pr paymentRequestBody
	if err := json.Unmarshal(env.PaymentRequest, &pr); err != nil {
		return nil, fmt.Errorf("decode payment request: %w", err)
	}
	detail := &adapter.PaymentRequestDetail{RequestID: pr.ID, Status: pr.Status}
	for _, raw := range pr.Payments {
		var pb paymentBody
		if err := json.Unmarshal(raw, &pb); err != nil {
			continue
		}
		p := toPayment(&pb)
		p.RequestID = pr.ID
		detail.Payments = append(detail.Payments, *p)
	}
	return detail, nil
}

func (c *Client) do(ctx context.Context, method, path string, body *strings.Reader) (*apiEnvelope, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Auth-Token", c.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return nil, fmt.Errorf("provider rejected request (%d): %s", resp.StatusCode, providerMessage(env.Message))
	}
	return &env, nil
}

func toPayment(pb *paymentBody) *adapter.Payment {
	amount, _ := strconv.ParseFloat(pb.Amount, 64)
	reqID := pb.PaymentRequest.ID
	if reqID == "" {
		reqID = pb.PaymentRequestID
	}
	return &adapter.Payment{
		ID:             pb.PaymentID,
		RequestID:      reqID,
		BuyerEmail:     pb.BuyerEmail,
		Amount:         amount,
		Status:         pb.Status,
		Currency:       pb.Currency,
		InstrumentType: pb.Instrument,
	}
}

// providerMessage flattens the provider's error detail, which may be a plain
// string or a field->errors object.
func providerMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "no detail"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var fields map[string][]string
	if err := json.Unmarshal(raw, &fields); err == nil {
		for field, errs := range fields {
			if len(errs) > 0 {
				return field + ": " + errs[0]
			}
		}
	}
	return string(raw)
}

func buyerName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
