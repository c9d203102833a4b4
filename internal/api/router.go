package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Handle("/metrics", metricsHandler)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.Post("/auth/signup", apiHandler.SignupHandler)
		r.Post("/auth/login", apiHandler.LoginHandler)
		r.Post("/auth/reset", apiHandler.ResetPasswordHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.AuthMiddleware)

			r.Get("/auth/me", apiHandler.MeHandler)
			r.Put("/auth/profile", apiHandler.UpdateProfileHandler)

			r.Get("/sessions", apiHandler.ListSessionsHandler)
			r.Delete("/sessions", apiHandler.DeleteAllSessionsHandler)
			r.Get("/sessions/{sessionID}", apiHandler.GetSessionHandler)
			r.Delete("/sessions/{sessionID}", apiHandler.DeleteSessionHandler)

			r.Post("/chat", apiHandler.ChatHandler)
			r.Post("/irrigation/plan", apiHandler.PlanHandler)

			r.Get("/products", apiHandler.ProductsHandler)
			r.Get("/products/categories", apiHandler.ProductCategoriesHandler)
			r.Post("/images", apiHandler.GenerateImageHandler)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(apiHandler.AdminOnly)

				r.Get("/admin/stats", apiHandler.AdminStatsHandler)
				r.Get("/admin/users", apiHandler.ListUsersHandler)
				r.Delete("/admin/users/{username}", apiHandler.DeleteUserHandler)
				r.Post("/admin/playground", apiHandler.PlaygroundHandler)

				r.Get("/admin/files", apiHandler.ListFilesHandler)
				r.Get("/admin/files/*", apiHandler.ReadFileHandler)
				r.Put("/admin/files/*", apiHandler.WriteFileHandler)
				r.Post("/admin/ai-edit", apiHandler.AIEditHandler)
			})
		})
	})

	return r
}
