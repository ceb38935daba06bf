package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tlangau-server/internal/config"
	"tlangau-server/internal/domain/ports/adapter"
	"tlangau-server/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// MACVerifier checks a provider webhook's signature fields.
type MACVerifier interface {
	Verify(fields map[string]string) bool
}

// Server is the HTTP surface: payment and redemption endpoints for buyers,
// notification endpoints for entitled clients, and the admin API.
type Server struct {
	payments     usecase.PaymentUseCase
	fulfillment  usecase.FulfillmentUseCase
	entitlements usecase.EntitlementUseCase
	notify       usecase.NotifyUseCase
	admin        usecase.AdminUseCase
	polls        usecase.PollUseCase
	mailer       adapter.Mailer
	webhooks     MACVerifier
	identity     adapter.TokenVerifier
	auth         *AuthManager

	dev  bool
	log  zerolog.Logger
	http *http.Server
}

func NewServer(
	cfg *config.Config,
	payments usecase.PaymentUseCase,
	fulfillment usecase.FulfillmentUseCase,
	entitlements usecase.EntitlementUseCase,
	notify usecase.NotifyUseCase,
	admin usecase.AdminUseCase,
	polls usecase.PollUseCase,
	mailer adapter.Mailer,
	webhooks MACVerifier,
	identity adapter.TokenVerifier,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		payments:     payments,
		fulfillment:  fulfillment,
		entitlements: entitlements,
		notify:       notify,
		admin:        admin,
		polls:        polls,
		mailer:       mailer,
		webhooks:     webhooks,
		identity:     identity,
		auth:         NewAuthManager(cfg.Admin.Password, cfg.Admin.SessionSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL),
		dev:          cfg.Runtime.Dev,
		log:          logger.With().Str("component", "web").Logger(),
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router. Kept separate from Start so tests can drive the
// handler directly.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(TraceID())
	r.Use(Recover(&s.log))
	r.Use(RequestLog(&s.log))
	r.Use(Timeout(30 * time.Second))
	r.Use(httprate.LimitByIP(100, time.Minute))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/services", s.handleServices)

	r.With(httprate.LimitByIP(10, 15*time.Minute)).Post("/api/create-payment", s.handleCreatePayment)
	r.Post("/api/payment-webhook", s.handlePaymentWebhook)
	r.Post("/api/verify-payment", s.handleVerifyPayment)
	r.Post("/api/validate-code", s.handleValidateCode)
	r.Post("/api/get-code-info", s.handleCodeInfo)
	r.Post("/api/test-email", s.handleTestEmail)

	// Notification endpoints: entitled, signed-in clients only.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Use(s.requireIdentity)
		r.With(s.requireService("ring")).Post("/api/send-ring", s.handleSendRing)
		r.Post("/api/send-message", s.handleSendMessage)
	})

	// Polls: reading is open, voting needs a signed-in caller.
	r.Route("/api/polls", func(r chi.Router) {
		r.Get("/", s.handlePollList)
		r.Get("/{pollID}", s.handlePollGet)
		r.Group(func(r chi.Router) {
			r.Use(s.requireIdentity)
			r.Post("/{pollID}/vote", s.handlePollVote)
			r.Get("/{pollID}/my-vote", s.handlePollMyVote)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.With(httprate.LimitByIP(5, 15*time.Minute)).Post("/login", s.handleAdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/logout", s.handleAdminLogout)
			r.Get("/orders", s.handleAdminOrders)
			r.Get("/access-codes", s.handleAdminAccessCodes)
			r.Delete("/access-codes/{code}", s.handleAdminDeleteCode)
			r.Delete("/orders/{orderID}", s.handleAdminDeleteOrder)
			r.Delete("/users/{email}", s.handleAdminDeleteUser)
			r.Get("/statistics", s.handleAdminStatistics)
			r.Get("/users", s.handleAdminUsers)
			r.Post("/resend-email", s.handleAdminResendEmail)
			r.Get("/bundles", s.handleAdminBundles)
			r.Delete("/bundles/{bundleID}", s.handleAdminDeleteBundle)
			r.Delete("/bundles/{bundleID}/topics/{topicID}", s.handleAdminDeleteTopic)
			r.Post("/polls", s.handleAdminPollCreate)
			r.Post("/polls/{pollID}/close", s.handleAdminPollClose)
			r.Delete("/polls/{pollID}", s.handleAdminPollDelete)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
