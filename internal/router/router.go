package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-soft-delete/internal/config"
	"go-soft-delete/internal/handler"
	"go-soft-delete/internal/middleware"
)

type Handlers struct {
	Auth       *handler.AuthHandler
	SoftDelete *handler.SoftDeleteHandler
	Records    *handler.RecordHandler
	Audit      *handler.AuditHandler
	Health     *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	r.Get("/metrics", h.Health.Metrics)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authMiddleware.Authenticate)

		// websocket upgrades cannot pass through the buffering timeout handler
		api.Get("/soft-delete/events", h.SoftDelete.Events)

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Route("/auth", func(auth chi.Router) {
				auth.Post("/login", h.Auth.Login)
				auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
			})

			api.Route("/soft-delete", func(sd chi.Router) {
				sd.Get("/collections", h.SoftDelete.Collections)
				sd.Get("/deleted", h.SoftDelete.ListDeleted)
				sd.Post("/restore/{collection}/{id}", h.SoftDelete.Restore)
				sd.Post("/restore-bulk", h.SoftDelete.RestoreBulk)
				sd.Delete("/purge/{collection}/{id}", h.SoftDelete.Purge)
				sd.Delete("/purge-bulk", h.SoftDelete.PurgeBulk)
				sd.Get("/audit", h.Audit.List)
			})

			api.Route("/collections/{collection}/records", func(rec chi.Router) {
				rec.Get("/", h.Records.List)
				rec.Post("/", h.Records.Create)
				rec.Post("/delete-many", h.Records.DeleteMany)
				rec.Get("/{id}", h.Records.Get)
				rec.Put("/{id}", h.Records.Update)
				rec.Delete("/{id}", h.Records.Delete)
			})
		})
	})

	return r
}
