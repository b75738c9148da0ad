package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fotomagic-pro/internal/config"
	"fotomagic-pro/internal/domain/ports/repository"
	"fotomagic-pro/internal/infra/redis"
	"fotomagic-pro/internal/infra/worker"
	"fotomagic-pro/internal/usecase"
)

// Server owns the HTTP surface: public redemption and restoration routes,
// the payment webhook, and the JWT-guarded admin API.
type Server struct {
	ledgerUC      usecase.LedgerUseCase
	allowanceUC   usecase.AllowanceUseCase
	restorationUC usecase.RestorationUseCase
	checkoutUC    usecase.CheckoutUseCase
	reconcilerUC  usecase.ReconcilerUseCase
	sessions      repository.SessionRepository // may be nil
	auth          *AuthManager
	limiter       *redis.RateLimiter
	pool          *worker.Pool
	cfg           *config.Config
	log           *zerolog.Logger
}

func NewServer(
	ledgerUC usecase.LedgerUseCase,
	allowanceUC usecase.AllowanceUseCase,
	restorationUC usecase.RestorationUseCase,
	checkoutUC usecase.CheckoutUseCase,
	reconcilerUC usecase.ReconcilerUseCase,
	sessions repository.SessionRepository,
	auth *AuthManager,
	limiter *redis.RateLimiter,
	pool *worker.Pool,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	compLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		ledgerUC:      ledgerUC,
		allowanceUC:   allowanceUC,
		restorationUC: restorationUC,
		checkoutUC:    checkoutUC,
		reconcilerUC:  reconcilerUC,
		sessions:      sessions,
		auth:          auth,
		limiter:       limiter,
		pool:          pool,
		cfg:           cfg,
		log:           &compLog,
	}
}

// Routes assembles the router with the shared middleware chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// The webhook must ack fast and never sit behind the request timeout
	// budget of the public API.
	r.Post(s.cfg.Payment.MercadoPago.WebhookPath, s.handleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		// Restoration runs against its own budget; the shared request
		// timeout would cut the upstream model call short after the
		// credit is already spent.
		r.With(
			asChi(Timeout(s.cfg.Server.RestoreTimeout)),
			asChi(RateLimit(s.limiter, "restore", s.cfg.RateLimit.RestorePerMinute, s.cfg.Server.TrustProxy)),
		).Post("/restorations", s.handleRestore)

		r.Group(func(r chi.Router) {
			r.Use(asChi(Timeout(s.cfg.Server.RequestTimeout)))

			r.Get("/packages", s.handleListPackages)

			r.Post("/payments", s.handleCreatePayment)
			r.Get("/payments/{paymentID}/verify", s.handleVerifyPayment)

			r.With(asChi(RateLimit(s.limiter, "validate", s.cfg.RateLimit.ValidatePerMinute, s.cfg.Server.TrustProxy))).
				Post("/codes/validate", s.handleValidateCode)
			r.With(asChi(RateLimit(s.limiter, "redeem", s.cfg.RateLimit.RedeemPerMinute, s.cfg.Server.TrustProxy))).
				Post("/codes/redeem", s.handleRedeemCode)

			r.Post("/sessions/{sessionID}/code", s.handleActivateCode)
			r.Delete("/sessions/{sessionID}/code", s.handleDeactivateCode)

			r.Get("/allowance/{accountID}", s.handleGetAllowance)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/login", s.handleAdminLogin)
				r.Group(func(r chi.Router) {
					r.Use(s.requireAdmin)
					r.Post("/codes", s.handleAdminCreateCode)
					r.Delete("/codes/{code}", s.handleAdminDeactivateCode)
					r.Get("/codes", s.handleAdminListCodes)
					r.Get("/stats", s.handleAdminStats)
				})
			})
		})
	})

	return Chain(r,
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
	)
}

func asChi(m Middleware) func(http.Handler) http.Handler { return m }

// requireAdmin guards the admin API with the session JWT.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewHTTPServer builds the net/http server around the routed handler. The
// write timeout must outlast the restoration budget.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.cfg.Server.RestoreTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
