package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/multistock/multistock/internal/audit"
	"github.com/multistock/multistock/internal/auth"
	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/customers"
	"github.com/multistock/multistock/internal/dashboard"
	"github.com/multistock/multistock/internal/observability"
	"github.com/multistock/multistock/internal/permissions"
	"github.com/multistock/multistock/internal/pos"
	"github.com/multistock/multistock/internal/products"
	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/view"
	"github.com/multistock/multistock/internal/warehouses"
	"github.com/multistock/multistock/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Templates          *view.Engine
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	PrincipalLoader    authz.PrincipalLoader
	AuthHandler        *auth.Handler
	ProductsHandler    *products.Handler
	WarehousesHandler  *warehouses.Handler
	CustomersHandler   *customers.Handler
	POSHandler         *pos.Handler
	DashboardHandler   *dashboard.Handler
	PermissionsHandler *permissions.Handler
	AuditHandler       *audit.Handler
	AuditSink          *audit.Sink
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with MultiStock defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:          params.Logger,
		Config:          params.Config,
		SessionManager:  params.SessionManager,
		CSRFManager:     params.CSRFManager,
		PrincipalLoader: params.PrincipalLoader,
		Metrics:         params.Metrics,
		AuditSink:       params.AuditSink,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	home := func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess != nil && sess.User() != "" && sess.Verified() {
			http.Redirect(w, r, authz.DashboardPath, http.StatusSeeOther)
			return
		}
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:     "MultiStock",
			CSRFToken: csrfToken,
			Flash:     flash,
		}
		if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
			params.Logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
	r.Get("/", home)
	r.Get("/home/", home)
	r.Get("/guest/", home)

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/products", params.ProductsHandler.MountRoutes)
	r.Route("/warehouses", params.WarehousesHandler.MountRoutes)
	r.Route("/customers", params.CustomersHandler.MountRoutes)
	r.Route("/pos", params.POSHandler.MountRoutes)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	r.Route("/audit", params.AuditHandler.MountRoutes)

	// The metrics API lives on a top-level path so the admin-only
	// prefix list can reason about it.
	r.Get("/api/dashboard-metrics/", params.DashboardHandler.MetricsHandler())

	// Public catalog API: reachable without a session, guest scope
	// applies through the tenant filter.
	r.Get("/api/goods/", params.ProductsHandler.PublicList)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
