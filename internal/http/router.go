package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"stocktrack/internal/account"
	"stocktrack/internal/auth"
	"stocktrack/internal/config"
	"stocktrack/internal/httputil"
	"stocktrack/internal/inventory"
	"stocktrack/internal/logging"
	"stocktrack/internal/report"
)

// Handlers bundles the feature handlers the router mounts
type Handlers struct {
	Auth      *auth.Handler
	Account   *account.Handler
	Inventory *inventory.Handler
	Report    *report.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Use-Cookies"},
			ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/logout", h.Auth.Logout)
		r.Post("/forgot-password", h.Auth.ForgotPassword)
		r.Post("/verify-reset-code", h.Auth.VerifyResetCode)
		r.Post("/reset-password", h.Auth.ResetPassword)
	})

	// Protected routes (any approved account)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Get("/me", h.Account.Me)
		r.Put("/me", h.Account.UpdateMe)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.Inventory.List)
			r.Post("/", h.Inventory.Create)
			r.Get("/{id}", h.Inventory.Get)
			r.Put("/{id}", h.Inventory.Update)
			r.Delete("/{id}", h.Inventory.Delete)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.Report.Summary)
			r.Get("/summary.txt", h.Report.SummaryText)
			r.Get("/categories", h.Report.Categories)
			r.Get("/low-stock", h.Report.LowStock)
			r.Get("/top-value", h.Report.TopValue)
			r.Get("/export", h.Report.ExportCSV)
		})
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Use(authMiddleware.RequireAdmin)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", h.Account.ListUsers)
			r.Post("/users", h.Account.CreateAdmin)
			r.Get("/users/pending", h.Account.ListPending)
			r.Post("/users/{id}/approve", h.Account.Approve)
			r.Post("/users/{id}/reject", h.Account.Reject)
			r.Delete("/users/{id}", h.Account.DeleteUser)
			r.Get("/stats", h.Account.Stats)
			r.Post("/password-resets/sweep", h.Account.SweepResetCodes)
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
