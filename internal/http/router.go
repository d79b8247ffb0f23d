package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/abdolrhman-mo/focusmetricapi/internal/auth"
	"github.com/abdolrhman-mo/focusmetricapi/internal/config"
	"github.com/abdolrhman-mo/focusmetricapi/internal/entry"
	"github.com/abdolrhman-mo/focusmetricapi/internal/feedback"
	"github.com/abdolrhman-mo/focusmetricapi/internal/goal"
	"github.com/abdolrhman-mo/focusmetricapi/internal/httputil"
	"github.com/abdolrhman-mo/focusmetricapi/internal/logging"
	"github.com/abdolrhman-mo/focusmetricapi/internal/reason"
	"github.com/abdolrhman-mo/focusmetricapi/internal/stats"
)

// Handlers bundles the feature handlers the router wires up.
type Handlers struct {
	Auth     *auth.Handler
	Reason   *reason.Handler
	Entry    *entry.Handler
	Goal     *goal.Handler
	Stats    *stats.Handler
	Feedback *feedback.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(middleware.StripSlashes)       // Clients send trailing slashes
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		log.Println("Swagger UI disabled (production mode)")
	}

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		r.Post("/auth/google", h.Auth.GoogleLogin)
		r.Post("/auth/logout", h.Auth.Logout)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Get("/auth/profile", h.Auth.Profile)
			r.Put("/auth/profile/update", h.Auth.UpdateProfile)
			r.Patch("/auth/profile/update", h.Auth.UpdateProfile)
			r.Delete("/auth/profile/delete", h.Auth.DeleteAccount)
			r.Get("/auth/stats", h.Stats.Get)

			r.Route("/reasons", func(r chi.Router) {
				r.Get("/", h.Reason.List)
				r.Post("/", h.Reason.Create)
				r.Get("/{id}", h.Reason.Get)
				r.Put("/{id}", h.Reason.Update)
				r.Patch("/{id}", h.Reason.Update)
				r.Delete("/{id}", h.Reason.Delete)
			})

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", h.Entry.List)
				r.Post("/", h.Entry.Create)
				r.Post("/bulk-update", h.Entry.BulkUpdate)
				r.Post("/bulk-delete", h.Entry.BulkDelete)
				r.Get("/{id}", h.Entry.Get)
				r.Put("/{id}", h.Entry.Update)
				r.Patch("/{id}", h.Entry.Update)
				r.Delete("/{id}", h.Entry.Delete)
			})

			r.Route("/goals", func(r chi.Router) {
				r.Get("/", h.Goal.Get)
				r.Post("/activate", h.Goal.Activate)
				r.Post("/deactivate", h.Goal.Deactivate)
			})

			r.Route("/feedback", func(r chi.Router) {
				r.Get("/", h.Feedback.List)
				r.Post("/", h.Feedback.Create)
			})
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
