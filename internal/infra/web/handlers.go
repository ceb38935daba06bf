package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/infra/logging"
	"tlangau-server/internal/infra/metrics"
)

var serverStart = time.Now()

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"message":   "Tlangau Server API is running",
		"uptime":    int(time.Since(serverStart).Seconds()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	free := make([]map[string]string, 0, len(model.FreeServices))
	for _, id := range model.FreeServices {
		free = append(free, map[string]string{"id": id, "name": "Statistics & Insights"})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"services":        model.PaidServices,
		"freeServices":    free,
		"pricePerService": model.ServicePrice,
		"currency":        "INR",
	})
}

type createPaymentRequest struct {
	Email    string   `json:"email"`
	Services []string `json:"services"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	intent, err := s.payments.CreatePayment(r.Context(), req.Email, req.Services)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidArgument):
		fail(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrGatewayUnavailable):
		fail(w, http.StatusServiceUnavailable, "Payment gateway is not configured")
		return
	default:
		s.log.Error().Err(err).Msg("create payment failed")
		fail(w, http.StatusBadGateway, "Payment gateway error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"orderId":    intent.OrderID,
		"paymentUrl": intent.PaymentURL,
		"amount":     intent.Amount,
		"services":   intent.Services,
		"currency":   intent.Currency,
	})
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	fields, err := webhookFields(r)
	if err != nil {
		metrics.IncWebhookReject("missing_field")
		fail(w, http.StatusBadRequest, "Malformed webhook payload")
		return
	}

	if !s.webhooks.Verify(fields) {
		metrics.IncWebhookReject("bad_mac")
		logging.With(r.Context(), &s.log).Warn().Msg("webhook MAC verification failed")
		fail(w, http.StatusForbidden, "Invalid webhook signature")
		return
	}

	requestID := fields["payment_request_id"]
	paymentID := fields["payment_id"]
	if requestID == "" {
		metrics.IncWebhookReject("missing_field")
		fail(w, http.StatusBadRequest, "Missing payment_request_id")
		return
	}

	res, err := s.fulfillment.ProcessWebhook(r.Context(), requestID, paymentID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		metrics.IncWebhookReject("order_not_found")
		fail(w, http.StatusNotFound, "Order not found")
		return
	default:
		// A transient gateway or store failure answers 500 so the provider
		// redelivers the webhook instead of dropping it.
		s.log.Error().Err(err).Str("payment_request_id", requestID).Msg("webhook processing failed")
		fail(w, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"verified": res.Verified,
		"status":   res.Status,
	})
}

// webhookFields flattens the provider callback into string fields; Instamojo
// posts form-encoded but JSON is accepted too.
func webhookFields(r *http.Request) (map[string]string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") {
		var raw map[string]interface{}
		if err := decodeBody(r, &raw); err != nil {
			return nil, err
		}
		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			switch t := v.(type) {
			case string:
				fields[k] = t
			case float64:
				fields[k] = strconv.FormatFloat(t, 'f', -1, 64)
			case bool:
				if t {
					fields[k] = "true"
				} else {
					fields[k] = "false"
				}
			}
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	return fields, nil
}

type verifyPaymentRequest struct {
	OrderID string `json:"orderId"`
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := decodeBody(r, &req); err != nil || req.OrderID == "" {
		fail(w, http.StatusBadRequest, "orderId is required")
		return
	}

	res, err := s.fulfillment.VerifyPayment(r.Context(), req.OrderID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": "Order not found"})
		return
	default:
		s.log.Error().Err(err).Str("order_id", req.OrderID).Msg("verify payment failed")
		fail(w, http.StatusInternalServerError, "Failed to verify payment. Please try again.")
		return
	}

	body := map[string]interface{}{
		"success":       true,
		"paymentStatus": res.PaymentStatus,
		"message":       res.Message,
	}
	if len(res.Services) > 0 {
		body["services"] = res.Services
	}
	writeJSON(w, http.StatusOK, body)
}

type validateCodeRequest struct {
	Code      string `json:"code"`
	Email     string `json:"email"`
	AccountID string `json:"accountId"`
}

func (s *Server) handleValidateCode(w http.ResponseWriter, r *http.Request) {
	var req validateCodeRequest
	if err := decodeBody(r, &req); err != nil || req.Code == "" || req.Email == "" {
		fail(w, http.StatusBadRequest, "code and email are required")
		return
	}

	res, err := s.entitlements.Redeem(r.Context(), req.Code, req.Email, req.AccountID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrCodeNotFound):
		failInvalid(w, "Invalid access code")
		return
	case errors.Is(err, domain.ErrCodeExpired):
		failInvalid(w, "This access code has expired. Please purchase a new code.")
		return
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		failInvalid(w, "This access code has already been used")
		return
	case errors.Is(err, domain.ErrAccountUsedCode):
		failInvalid(w, "This account has already used an access code. Each account can only use one code.")
		return
	case errors.Is(err, domain.ErrEmailMismatch):
		failInvalid(w, "This access code is not associated with your email. Please use the email address you used to purchase the code.")
		return
	default:
		s.log.Error().Err(err).Msg("code validation failed")
		fail(w, http.StatusInternalServerError, "Failed to validate code. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"valid":     true,
		"message":   "Access code is valid",
		"code":      res.Code,
		"expiresAt": res.ExpiresAt.UTC().Format(time.RFC3339),
		"services":  res.Services,
	})
}

type codeInfoRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCodeInfo(w http.ResponseWriter, r *http.Request) {
	var req codeInfoRequest
	if err := decodeBody(r, &req); err != nil || req.Email == "" {
		fail(w, http.StatusBadRequest, "email is required")
		return
	}

	info, err := s.entitlements.Info(r.Context(), req.Email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrCodeNotFound), errors.Is(err, domain.ErrNotFound):
		failInvalid(w, "No access code found for this email")
		return
	default:
		s.log.Error().Err(err).Msg("code info lookup failed")
		fail(w, http.StatusInternalServerError, "Failed to look up code info")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"code":      info.Code,
		"expiresAt": info.ExpiresAt.UTC().Format(time.RFC3339),
		"used":      info.Used,
		"services":  info.Services,
		"message":   "Access code info retrieved",
	})
}

type testEmailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := decodeBody(r, &req); err != nil || req.Email == "" {
		fail(w, http.StatusBadRequest, "email is required")
		return
	}

	if !s.mailer.Configured() {
		fail(w, http.StatusInternalServerError, "Email service not configured.")
		return
	}

	if err := s.mailer.SendAccessCode(r.Context(), req.Email, "TEST123456", []string{"ring", "message"}); err != nil {
		s.log.Error().Err(err).Msg("test email failed")
		fail(w, http.StatusInternalServerError, "Failed to send test email. Check server logs.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Test email sent! Check your inbox.",
	})
}
