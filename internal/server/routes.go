package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/kleverson/cartas/internal/handlers"
	"github.com/kleverson/cartas/internal/logger"
	appMiddleware "github.com/kleverson/cartas/internal/middleware"
)

func (s *Server) setupRoutes(h *handlers.Handlers) {
	s.router.Get("/health", h.Health)
	s.router.Get("/sitemap.xml", h.Sitemap)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.ContextTimeout(appMiddleware.DefaultRequestTimeout))

			r.Get("/posts", h.ListPosts)
			r.Get("/posts/{slug}", h.GetPost)
			r.Get("/posts/{slug}/related", h.RelatedPosts)
			r.Get("/categories", h.ListCategories)
			r.Post("/leads", h.CreateLead)
		})

		if s.config.AdminToken == "" {
			logger.Warn("CARTAS_ADMIN_TOKEN not set, admin routes disabled")
			return
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(appMiddleware.AdminToken(s.config.AdminToken))

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.ContextTimeout(appMiddleware.DefaultRequestTimeout))

				r.Get("/posts", h.AdminListPosts)
				r.Post("/posts", h.CreatePost)
				r.Put("/posts/{id}", h.UpdatePost)
				r.Delete("/posts/{id}", h.DeletePost)

				r.Get("/leads", h.AdminListLeads)

				r.Get("/backups", h.ListBackups)
				r.Delete("/backups", h.ClearBackups)
			})

			r.With(appMiddleware.ContextTimeout(appMiddleware.BackupRequestTimeout)).
				Post("/backups", h.CreateBackup)
		})
	})

	// Admin live feed
	if s.config.AdminToken != "" {
		s.router.With(appMiddleware.AdminToken(s.config.AdminToken)).Get("/ws", h.HandleWebSocket)
	}
}
