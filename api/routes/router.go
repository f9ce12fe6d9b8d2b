package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/souqline/souqline-backend/api/controllers"
	"github.com/souqline/souqline-backend/api/middleware"
	"github.com/souqline/souqline-backend/internal/businessapps"
	"github.com/souqline/souqline-backend/internal/managerapps"
	"github.com/souqline/souqline-backend/internal/roster"
	"github.com/souqline/souqline-backend/pkg/config"
	"github.com/souqline/souqline-backend/pkg/enums"
	"github.com/souqline/souqline-backend/pkg/logger"
	"github.com/souqline/souqline-backend/pkg/redis"
)

// RouterParams bundles the services the HTTP surface exposes.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	Redis       *redis.Client
	ReadyChecks map[string]controllers.Pinger

	BusinessApplications businessapps.Service
	ManagerApplications  managerapps.Service
	Roster               roster.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	submitPolicy := middleware.NewAuthRateLimitPolicy(
		"submit",
		cfg.RateLimit.SubmitWindow,
		cfg.RateLimit.SubmitIPLimit,
		cfg.RateLimit.SubmitEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.ReadyChecks))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/onboarding", func(r chi.Router) {
		// Submission is public so prospects without accounts can apply.
		r.With(middleware.AuthRateLimit(submitPolicy, p.Redis, logg)).
			Post("/businesses", controllers.BusinessApplicationSubmit(p.BusinessApplications, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/ping", controllers.PrivatePing())
			r.Get("/businesses", controllers.BusinessApplicationList(p.BusinessApplications, logg))
			r.Post("/managers", controllers.ManagerApplicationPropose(p.ManagerApplications, logg))
			r.Get("/managers", controllers.ManagerApplicationList(p.ManagerApplications, logg))
			r.Get("/roster", controllers.ManagerRoster(p.Roster, logg))
		})
	})

	r.Route("/api/admin/v1/onboarding", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/businesses", func(r chi.Router) {
			r.Get("/{id}", controllers.BusinessApplicationDetail(p.BusinessApplications, logg))
			r.Post("/{id}/approve", controllers.BusinessApplicationApprove(p.BusinessApplications, logg))
			r.Post("/{id}/reject", controllers.BusinessApplicationReject(p.BusinessApplications, logg))
			r.Post("/{id}/reopen", controllers.BusinessApplicationReopen(p.BusinessApplications, logg))
		})

		r.Route("/managers", func(r chi.Router) {
			r.Post("/{id}/approve", controllers.ManagerApplicationApprove(p.ManagerApplications, logg))
			r.Post("/{id}/reject", controllers.ManagerApplicationReject(p.ManagerApplications, logg))
		})
	})

	return r
}
