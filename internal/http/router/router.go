package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/superdoll/tracker-api/internal/auth"
	"github.com/superdoll/tracker-api/internal/config"
	"github.com/superdoll/tracker-api/internal/database"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/http/handler"
	"github.com/superdoll/tracker-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/superdoll/tracker-api/docs" // Import generated swagger docs
)

const healthTimeout = 3 * time.Second

// Pinger is a dependency that can report its own health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups every HTTP handler mounted under /api/v1
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Customer     *handler.CustomerHandler
	Order        *handler.OrderHandler
	Inventory    *handler.InventoryHandler
	Registration *handler.RegistrationHandler
	Dashboard    *handler.DashboardHandler
	Inquiry      *handler.InquiryHandler
	Export       *handler.ExportHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	dependencies   map[string]Pinger
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

// NewRouter wires the HTTP surface. dependencies are the optional backends
// checked by /health/ready besides the database, keyed by name.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	dependencies map[string]Pinger,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		dependencies:   dependencies,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// healthDB reports pool statistics alongside the ping result
func (rt *Router) healthDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	stats, err := database.HealthCheckWithStats(ctx, rt.db)
	if err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
			"stats":   stats,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats":   stats,
	})
}

// healthReady checks every dependency the API needs to serve traffic
func (rt *Router) healthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	checks := make(map[string]interface{})
	healthy := true

	check := func(name string, err error) {
		if err != nil {
			rt.logger.Error("readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = map[string]string{"status": "unhealthy", "error": err.Error()}
			healthy = false
			return
		}
		checks[name] = map[string]string{"status": "healthy"}
	}

	check("database", database.HealthCheck(ctx, rt.db))
	for name, dep := range rt.dependencies {
		check(name, dep.Ping(ctx))
	}

	status, label := http.StatusOK, "healthy"
	if !healthy {
		status, label = http.StatusServiceUnavailable, "unhealthy"
	}
	writeJSON(w, status, map[string]interface{}{"status": label, "checks": checks})
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	r.Get("/health", rt.health)
	r.Get("/health/db", rt.healthDB)
	r.Get("/health/ready", rt.healthReady)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	managers := rt.authMiddleware.RequireRole(domain.RoleManager, domain.RoleAdmin)
	admins := rt.authMiddleware.RequireRole(domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimw.Timeout(timeout))
		}

		// Public routes
		r.Post("/auth/login", h.Auth.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.LimitByUser)

			r.Get("/auth/me", h.Auth.Me)

			r.Route("/users", func(r chi.Router) {
				r.Use(admins)
				r.Get("/", h.User.List)
				r.Post("/", h.User.Create)
				r.Put("/{id}", h.User.Update)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", h.Customer.List)
				r.Post("/", h.Customer.Create)
				r.Get("/search", h.Customer.Search)
				r.With(admins).Get("/organizations", h.Customer.Organizations)
				r.Get("/{id}", h.Customer.GetByID)
				r.Put("/{id}", h.Customer.Update)
				r.With(managers).Delete("/{id}", h.Customer.Delete)
				r.Get("/{id}/vehicles", h.Customer.ListVehicles)
				r.Post("/{id}/vehicles", h.Customer.AddVehicle)
				r.Post("/{id}/orders", h.Customer.CreateOrder)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Order.List)
				r.Get("/recent", h.Order.Recent)
				r.Get("/{id}", h.Order.GetByID)
				r.Put("/{id}/status", h.Order.UpdateStatus)
				r.Put("/{id}/assign", h.Order.Assign)
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", h.Inventory.List)
				r.Get("/items", h.Inventory.Items)
				r.Get("/brands", h.Inventory.Brands)
				r.Get("/stock", h.Inventory.Stock)
				r.Get("/{id}", h.Inventory.GetByID)

				r.Group(func(r chi.Router) {
					r.Use(managers)
					r.Post("/", h.Inventory.Create)
					r.Post("/adjust", h.Inventory.Adjust)
					r.Put("/{id}", h.Inventory.Update)
					r.Delete("/{id}", h.Inventory.Delete)
				})
			})

			r.Route("/registration", func(r chi.Router) {
				r.Get("/", h.Registration.GetState)
				r.Delete("/", h.Registration.Discard)
				r.Post("/customer", h.Registration.SubmitCustomer)
				r.Post("/intent", h.Registration.SubmitIntent)
				r.Post("/selection", h.Registration.SubmitSelection)
				r.Post("/complete", h.Registration.Complete)
			})

			r.Route("/inquiries", func(r chi.Router) {
				r.Get("/", h.Inquiry.List)
				r.Get("/stats", h.Inquiry.Stats)
				r.Get("/{id}", h.Inquiry.GetByID)
				r.Post("/{id}/respond", h.Inquiry.Respond)
				r.Put("/{id}/status", h.Inquiry.UpdateStatus)
			})

			r.Get("/dashboard/metrics", h.Dashboard.GetMetrics)

			r.Group(func(r chi.Router) {
				r.Use(managers)
				r.Get("/dashboard/analytics", h.Dashboard.GetAnalytics)
				r.Get("/reports", h.Dashboard.GetReport)
				r.Get("/reports/advanced", h.Dashboard.GetAdvancedReport)
				r.Get("/exports/orders", h.Export.Orders)
				r.Get("/exports/customers", h.Export.Customers)
				r.Get("/exports/report", h.Export.Report)
			})
		})
	})

	return r
}
