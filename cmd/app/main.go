package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tlangau-server/internal/config"
	"tlangau-server/internal/domain/ports/adapter"
	pg "tlangau-server/internal/infra/db/postgres"
	"tlangau-server/internal/infra/identity"
	"tlangau-server/internal/infra/logging"
	"tlangau-server/internal/infra/mail"
	"tlangau-server/internal/infra/metrics"
	"tlangau-server/internal/infra/payment"
	"tlangau-server/internal/infra/push"
	red "tlangau-server/internal/infra/redis"
	"tlangau-server/internal/infra/sched"
	"tlangau-server/internal/infra/web"
	"tlangau-server/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (relaxed webhook and cookie policy)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	// ---- Redis ----
	var locker adapter.Locker
	if cfg.Redis.Addr != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
	} else {
		logger.Warn().Msg("redis.addr not set; fulfillment runs without advisory locks")
		locker = red.NoopLocker{}
	}

	// ---- Repositories ----
	store := pg.NewDocStore(pool)
	orderRepo := pg.NewOrderRepo(store)
	codeRepo := pg.NewAccessCodeRepo(store)
	bundleRepo := pg.NewBundleRepo(store)
	pollRepo := pg.NewPollRepo(store)

	// ---- Adapters (degrade to noops when unconfigured) ----
	var gateway adapter.PaymentGateway = payment.Noop{}
	if cfg.Payment.APIKey != "" && cfg.Payment.AuthToken != "" {
		gateway = payment.NewClient(&cfg.Payment, *logger)
	} else {
		logger.Warn().Msg("payment credentials not set; payment endpoints degraded")
	}
	webhooks := payment.NewWebhookVerifier(cfg.Payment.PrivateSalt, cfg.Runtime.Dev, *logger)

	var mailer adapter.Mailer = mail.Noop{}
	if cfg.Mail.User != "" && cfg.Mail.Password != "" {
		mailer = mail.NewSMTPMailer(&cfg.Mail, *logger)
	} else {
		logger.Warn().Msg("mail credentials not set; access-code email degraded")
	}

	var pusher adapter.PushSender = push.Noop{}
	if cfg.Push.CredentialsJSON != "" || cfg.Push.CredentialsPath != "" {
		p, err := push.NewFCMSender(ctx, &cfg.Push, *logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("firebase init failed")
		}
		pusher = p
	} else {
		logger.Warn().Msg("firebase credentials not set; notification endpoints degraded")
	}

	verifier := identity.NewGoogleVerifier(&cfg.Identity, *logger)

	// ---- Use cases ----
	paymentUC := usecase.NewPaymentUseCase(orderRepo, gateway, cfg.Server.FrontendURL, cfg.Server.BackendURL, *logger)
	fulfillmentUC := usecase.NewFulfillmentUseCase(orderRepo, codeRepo, gateway, mailer, locker, *logger)
	entitlementUC := usecase.NewEntitlementUseCase(codeRepo, *logger)
	notifyUC := usecase.NewNotifyUseCase(pusher, *logger)
	adminUC := usecase.NewAdminUseCase(orderRepo, codeRepo, bundleRepo, mailer, *logger)
	pollUC := usecase.NewPollUseCase(pollRepo, *logger)

	// ---- HTTP server ----
	srv := web.NewServer(cfg, paymentUC, fulfillmentUC, entitlementUC, notifyUC, adminUC, pollUC,
		mailer, webhooks, verifier, *logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Background workers ----
	sweeper := sched.NewOrderSweeper(orderRepo, cfg.Sweep.Interval, cfg.Sweep.StaleAfter, *logger)
	go func() { _ = sweeper.Run(ctx) }()
	reconciler := sched.NewPaymentReconciler(fulfillmentUC, orderRepo, 5*time.Minute, 2*time.Minute, *logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
