package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fotomagic-pro/internal/config"
	"fotomagic-pro/internal/domain/ports/adapter"
	"fotomagic-pro/internal/domain/ports/repository"
	notifAdapters "fotomagic-pro/internal/infra/adapters/notifier"
	payAdapters "fotomagic-pro/internal/infra/adapters/payment"
	restAdapters "fotomagic-pro/internal/infra/adapters/restoration"
	pg "fotomagic-pro/internal/infra/db/postgres"
	"fotomagic-pro/internal/infra/logging"
	"fotomagic-pro/internal/infra/metrics"
	red "fotomagic-pro/internal/infra/redis"
	"fotomagic-pro/internal/infra/sched"
	"fotomagic-pro/internal/infra/web"
	"fotomagic-pro/internal/infra/worker"
	"fotomagic-pro/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop payment and email providers)")
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
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis (optional; degraded mode without it) ----
	var (
		rateLimiter *red.RateLimiter
		dedup       usecase.DedupGuard
		sessions    repository.SessionRepository
	)
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		if !cfg.Runtime.Dev {
			log.Fatalf("redis: %v", err)
		}
		logger.Warn().Err(err).Msg("redis unavailable, running without rate limits and session cache")
	} else {
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
		dedup = red.NewDedupGuard(redisClient)
		sessions = red.NewSessionRepo(redisClient, cfg.Redis.TTL)
	}

	// ---- Repositories ----
	codeRepo := pg.NewCreditCodeRepo(pool)
	allowanceRepo := pg.NewAllowanceRepo(pool)
	processedRepo := pg.NewProcessedPaymentRepo(pool)
	intentRepo := pg.NewPaymentIntentRepo(pool)
	outboxRepo := pg.NewOutboxRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Payment.MercadoPago.AccessToken != "" {
		gateway = payAdapters.NewMercadoPagoGateway(
			cfg.Payment.MercadoPago.AccessToken,
			cfg.Payment.MercadoPago.BaseURL,
			cfg.Server.SiteURL,
			cfg.Payment.MercadoPago.WebhookPath,
		)
		logger.Info().Msg("payment gateway: mercadopago")
	} else if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopGateway()
		logger.Warn().Msg("payment gateway: noop (dev)")
	} else {
		log.Fatalf("no payment provider configured: set payment.mercadopago.access_token in %s", *cfgPath)
	}

	// ---- Notifier ----
	var notifier adapter.Notifier
	if cfg.Email.ResendKey != "" {
		notifier = notifAdapters.NewResendNotifier(cfg.Email.ResendKey, cfg.Email.From, cfg.Server.SiteURL)
		logger.Info().Str("from", cfg.Email.From).Msg("notifier: resend")
	} else if cfg.Runtime.Dev {
		notifier = notifAdapters.NewNoopNotifier(logger)
		logger.Warn().Msg("notifier: noop (dev)")
	} else {
		log.Fatalf("no email provider configured: set email.resend_key in %s", *cfgPath)
	}

	// ---- Restoration backend (Gemini -> OpenAI -> noop in dev) ----
	var backends []adapter.RestorationAdapter
	if cfg.Restoration.GeminiKey != "" {
		gem, err := restAdapters.NewGeminiAdapter(ctx, cfg.Restoration.GeminiKey, cfg.Restoration.GeminiURL, cfg.Restoration.GeminiModel)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
		backends = append(backends, gem)
		logger.Info().Str("model", cfg.Restoration.GeminiModel).Msg("restoration backend: gemini")
	}
	if cfg.Restoration.OpenAIKey != "" {
		oa, err := restAdapters.NewOpenAIAdapter(cfg.Restoration.OpenAIKey, cfg.Restoration.OpenAIModel)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
		backends = append(backends, oa)
		logger.Info().Str("model", cfg.Restoration.OpenAIModel).Msg("restoration backend: openai")
	}
	if len(backends) == 0 {
		if !cfg.Runtime.Dev {
			log.Fatalf("no restoration provider configured: set restoration.gemini_key or restoration.openai_key in %s", *cfgPath)
		}
		backends = append(backends, restAdapters.NewNoopAdapter())
		logger.Warn().Msg("restoration backend: noop (dev)")
	}
	backend := restAdapters.NewFailoverAdapter(logger, backends...)

	// ---- Use cases ----
	ledgerUC := usecase.NewLedgerUseCase(codeRepo, txManager, logger)
	allowanceUC := usecase.NewAllowanceUseCase(allowanceRepo, logger)
	checkoutUC := usecase.NewCheckoutUseCase(intentRepo, gateway, logger)
	reconcilerUC := usecase.NewReconcilerUseCase(codeRepo, processedRepo, intentRepo, outboxRepo, gateway, notifier, dedup, ledgerUC, txManager, logger)

	var resolver usecase.SessionResolver
	if sessions != nil {
		resolver = sessions
	}
	restorationUC := usecase.NewRestorationUseCase(ledgerUC, allowanceUC, resolver, backend, cfg.Server.RestoreTimeout, logger)

	// ---- Background workers ----
	wpool := worker.NewPool(cfg.Server.Workers, logger)
	wpool.Start(ctx)
	defer wpool.Stop()

	sweeper := sched.NewIntentSweeper(reconcilerUC, cfg.Sweeper.Interval, cfg.Sweeper.StaleAfter, logger)
	go sweeper.Start(ctx)

	outboxWorker := sched.NewOutboxWorker(outboxRepo, notifier, time.Minute, cfg.Email.MaxAttempts, logger)
	go outboxWorker.Start(ctx)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	srv := web.NewServer(ledgerUC, allowanceUC, restorationUC, checkoutUC, reconcilerUC, sessions, auth, rateLimiter, wpool, cfg, logger)
	httpServer := srv.NewHTTPServer(fmt.Sprintf(":%d", cfg.Server.Port))

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
