package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/database"
	"github.com/motorserv/srf-api/internal/datawarehouse"
	"github.com/motorserv/srf-api/internal/http/handler"
	"github.com/motorserv/srf-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/motorserv/srf-api/docs" // Import generated swagger docs
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Warranty      *handler.SRFHandler
	OutOfWarranty *handler.SRFHandler
	Vendor        *handler.VendorHandler
	Registry      *handler.RegistryHandler
	Catalog       *handler.CatalogHandler
	Export        *handler.ExportHandler
	Audit         *handler.AuditHandler
	Auth          *handler.AuthHandler
}

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	warehouse       *datawarehouse.Client
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	auditMiddleware *middleware.AuditMiddleware
	handlers        Handlers
}

// NewRouter wires the handlers. warehouse may be nil when the ERP connection is disabled.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	warehouse *datawarehouse.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		warehouse:       warehouse,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		auditMiddleware: auditMiddleware,
		handlers:        handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	admin := rt.authMiddleware.RequireAdmin

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(rt.cfg.Server.RequestTimeoutDuration()))
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.Limit)
		r.Use(rt.auditMiddleware.Audit) // Audit all modifications

		r.Get("/auth/me", h.Auth.Me)
		r.With(admin).Get("/users", h.Auth.ListUsers)
		r.With(admin).Get("/audit", h.Audit.List)

		r.Route("/warranty", srfRoutes(h.Warranty, admin))
		r.Route("/out-of-warranty", srfRoutes(h.OutOfWarranty, admin))

		r.Route("/vendor", func(r chi.Router) {
			r.Get("/next-challan-code", h.Vendor.NextChallanCode)
			r.Get("/last-challan-code", h.Vendor.LastChallanCode)
			r.Get("/challan-candidates", h.Vendor.ChallanCandidates)
			r.Get("/challan/{code}", h.Vendor.Challan)
			r.Put("/dispatch", h.Vendor.Dispatch)
			r.Put("/return", h.Vendor.Return)
			r.Get("/not-settled", h.Vendor.NotSettled)
			r.Put("/settlement", h.Vendor.ProposeSettlement)
			r.With(admin).Get("/final-settlement", h.Vendor.FinalSettlementPending)
			r.With(admin).Put("/final-settlement", h.Vendor.FinalizeSettlement)
			r.Get("/received-by", h.Vendor.ReceivedBy)
			r.Put("/complaint-number", h.Vendor.UpdateComplaintNumber)
		})

		r.Route("/complaint-numbers", func(r chi.Router) {
			r.Get("/", h.Registry.ListComplaintNumbers)
			r.Post("/upload", h.Registry.UploadComplaintNumbers)
		})
		r.Route("/cg-srf-numbers", func(r chi.Router) {
			r.Get("/", h.Registry.ListCGSRFNumbers)
			r.Post("/upload", h.Registry.UploadCGSRFNumbers)
		})

		r.Route("/models", func(r chi.Router) {
			r.Post("/", h.Catalog.CreateModel)
			r.Get("/", h.Catalog.ListModels)
			r.Get("/{model}/cost-details", h.Catalog.CostDetails)
		})
		r.Route("/rewinding-rates", func(r chi.Router) {
			r.Post("/", h.Catalog.CreateRewindingRate)
			r.Get("/", h.Catalog.ListRewindingRates)
		})
		r.Route("/service-centers", func(r chi.Router) {
			r.Post("/", h.Catalog.CreateServiceCenter)
			r.Get("/", h.Catalog.ListServiceCenters)
		})
		r.Route("/masters", func(r chi.Router) {
			r.Post("/", h.Catalog.CreateMaster)
			r.Get("/", h.Catalog.SearchMasters)
			r.Get("/{code}", h.Catalog.GetMaster)
		})

		r.Route("/exports/ledger", func(r chi.Router) {
			r.With(admin).Post("/", h.Export.Create)
			r.Get("/", h.Export.List)
			r.Get("/{id}/download", h.Export.Download)
		})
	})

	return r
}

// srfRoutes mounts the routes shared by both SRF variants. Static segments
// take precedence over {srf} in chi, so the listings stay reachable.
func srfRoutes(h *handler.SRFHandler, admin func(http.Handler) http.Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/next-srf-number", h.NextSRFNumber)
		r.Get("/last-srf-number", h.LastSRFNumber)
		r.Get("/pending", h.Pending)
		r.Get("/not-settled", h.NotSettled)
		r.Get("/enquiry", h.Enquiry)
		r.Get("/delivered-by", h.DeliveredBy)
		r.Put("/settlement", h.ProposeSettlement)
		r.With(admin).Get("/final-settlement", h.FinalSettlementPending)
		r.With(admin).Put("/final-settlement", h.FinalizeSettlement)
		r.Get("/family/{base}", h.Family)

		r.Get("/{srf}", h.Get)
		r.Put("/{srf}", h.Update)
		r.Get("/{base}/{sub}", h.Get)
		r.Put("/{base}/{sub}", h.Update)
	}
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		respondHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	respondHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

// readiness checks every dependency. The data warehouse only degrades
// readiness when it is enabled.
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	dw := rt.warehouse.HealthCheck(r.Context())
	checks["dataWarehouse"] = dw
	if dw.Status == "unhealthy" {
		allHealthy = false
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	respondHealth(w, code, map[string]interface{}{"status": status, "checks": checks})
}

func respondHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
