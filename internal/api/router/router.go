package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/imovlocal/backend/internal/api/handlers"
	"github.com/imovlocal/backend/internal/api/middleware"
	"github.com/imovlocal/backend/internal/config"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/metrics"
)

// ReceiptsPath is where the local receipt store is served
const ReceiptsPath = "/uploads/receipts"

type Handlers struct {
	Health       *handlers.HealthHandler
	Demand       *handlers.DemandHandler
	Notification *handlers.NotificationHandler
	Plan         *handlers.PlanHandler
	Payment      *handlers.PaymentHandler
	Scheduler    *handlers.SchedulerHandler
	// Receipts serves stored receipt files; nil when they live in a bucket
	Receipts http.Handler
}

func New(cfg *config.Config, log *logger.Logger, users middleware.UserLoader, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.DefaultCORS(cfg.Server.AllowedOrigins))

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit.Enabled {
		limit = middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	// Probes and tooling
	r.Get("/health", h.Health.Healthz)
	r.Get("/ready", h.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	if h.Receipts != nil {
		r.Method(http.MethodGet, ReceiptsPath+"/*", http.StripPrefix(ReceiptsPath+"/", noDirListing(h.Receipts)))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(limit)

			r.Get("/health", h.Health.Healthz)
			r.Get("/ready", h.Health.Readyz)
			r.Get("/plans", h.Plan.List)
			r.Get("/plans/{planID}", h.Plan.Get)
		})

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, users))
			r.Use(limit)

			// Opportunity board
			r.Route("/demands", func(r chi.Router) {
				r.Post("/", h.Demand.Create)
				r.Get("/", h.Demand.List)
				r.Get("/mine", h.Demand.Mine)
				r.Get("/stats", h.Demand.Stats)
				r.Get("/{id}", h.Demand.Get)
				r.Put("/{id}", h.Demand.Update)
				r.Delete("/{id}", h.Demand.Delete)
				r.Post("/{id}/proposals", h.Demand.CreateProposal)
				r.Get("/{id}/proposals", h.Demand.ListProposals)
			})
			r.Put("/proposals/{id}/accept", h.Demand.AcceptProposal)
			r.Put("/proposals/{id}/reject", h.Demand.RejectProposal)

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Put("/read-all", h.Notification.MarkAllRead)
				r.Put("/{id}/read", h.Notification.MarkRead)
				r.Delete("/{id}", h.Notification.Delete)
			})

			// Payments
			r.Route("/payments", func(r chi.Router) {
				r.Get("/plans/limits", h.Plan.Limits)
				r.Get("/pix-info", h.Payment.PixInfo)
				r.Post("/", h.Payment.Create)
				r.Get("/mine", h.Payment.ListMine)
				r.Get("/current-plan", h.Payment.CurrentPlan)
				r.Post("/{id}/receipt", h.Payment.UploadReceipt)
				r.Post("/{id}/cancel", h.Payment.Cancel)
			})

			// Admin
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/payments", h.Payment.AdminList)
				r.Get("/payments/pending-count", h.Payment.PendingCount)
				r.Get("/payments/stats", h.Payment.Stats)
				r.Get("/payments/{id}", h.Payment.AdminGet)
				r.Post("/payments/{id}/review", h.Payment.Review)

				r.Post("/notifications/broadcast", h.Notification.Broadcast)
				r.Get("/notifications/stats", h.Notification.Stats)

				r.Get("/opportunities", h.Demand.BoardReport)
				r.Post("/scheduler/run", h.Scheduler.Run)
			})
		})
	})

	return r
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
