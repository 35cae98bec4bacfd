package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/support-role-api/internal/application/guard"
	"github.com/support-role-api/internal/application/recovery"
	"github.com/support-role-api/internal/application/user"
	"github.com/support-role-api/internal/application/verification"
	"github.com/support-role-api/internal/config"
	"github.com/support-role-api/internal/domain"
	"github.com/support-role-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/support-role-api/internal/infrastructure/jwt"
	"github.com/support-role-api/internal/infrastructure/smtp"
	"github.com/support-role-api/internal/infrastructure/sns"
	"github.com/support-role-api/internal/metrics"
	"github.com/support-role-api/internal/pkg/checkhash"
	"github.com/support-role-api/internal/pkg/eligibility"
	"github.com/support-role-api/internal/transport/http/handler"
	appmiddleware "github.com/support-role-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	VerificationRepo *dynamo.VerificationRepo
	RecoveryRepo     *dynamo.RecoveryRepo
	TransitionRepo   *dynamo.TransitionRepo
	Mailer           smtp.Mailer
	Alerts           sns.AlertPublisher
	JWTProvider      *jwtinfra.Provider
	Metrics          *metrics.Collector
	Gatherer         prometheus.Gatherer
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, applied to sensitive public endpoints.
	// The verification link itself is deliberately not rate limited here; it
	// already answers every failure with the same body.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	classifier := eligibility.New(cfg.SupportDomains)
	composer := checkhash.New(cfg.VerifyHashSecret)

	verifySvc := verification.NewService(verification.ServiceDeps{
		RecordRepo: deps.VerificationRepo,
		UserRepo:   deps.UserRepo,
		Mailer:     deps.Mailer,
		Composer:   composer,
		Domains:    classifier,
		Metrics:    deps.Metrics,
		BaseURL:    cfg.AppBaseURL,
		AppName:    cfg.AppName,
	})
	guardSvc := guard.NewService(guard.ServiceDeps{
		UserRepo:       deps.UserRepo,
		Verifier:       verifySvc,
		TransitionRepo: deps.TransitionRepo,
		Domains:        classifier,
		Alerts:         deps.Alerts,
		Metrics:        deps.Metrics,
		AppName:        cfg.AppName,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo: deps.UserRepo,
		Guard:    guardSvc,
	})
	recoverySvc := recovery.NewService(recovery.ServiceDeps{
		UserRepo: deps.UserRepo,
		OTPRepo:  deps.RecoveryRepo,
		Mailer:   deps.Mailer,
		Guard:    guardSvc,
		AppName:  cfg.AppName,
	})

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(userSvc)
	verifyH := handler.NewVerifyEmailHandler(guardSvc, verifySvc)
	pwH := handler.NewPasswordRecoveryHandler(recoverySvc)
	transitionH := handler.NewTransitionHandler(deps.TransitionRepo)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		r.Post("/test", healthH.Test)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/verify-email", verifyH.Verify)
			r.Post("/verify-email/resend", verifyH.Resend)

			// Any authenticated user
			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)
				r.Get("/users/{id}/role-transitions", transitionH.ListByUser)
			})
		})
	})

	return r
}
