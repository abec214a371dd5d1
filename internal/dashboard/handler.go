package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/view"
)

// Handler serves the dashboard page. The metrics API mounts separately
// because its /api/dashboard-metrics/ path sits on the admin-only prefix
// list enforced by the access middleware.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine) *Handler {
	return &Handler{logger: logger, service: service, templates: templates}
}

// MountRoutes registers the dashboard page.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.page)
}

// MetricsHandler serves the JSON metrics endpoint.
func (h *Handler) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := authz.PrincipalFromContext(r.Context())
		if p == nil || !p.Authenticated {
			httpx.Error(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		m, err := h.service.Load(r.Context(), p)
		if err != nil {
			h.logger.Error("dashboard metrics", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, m)
	}
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	if p == nil || !p.Authenticated {
		http.Redirect(w, r, authz.LoginSelectionPath, http.StatusSeeOther)
		return
	}
	m, err := h.service.Load(r.Context(), p)
	if err != nil {
		h.logger.Error("dashboard load", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{
		Title:       "Dashboard",
		CurrentPath: r.URL.Path,
		Data: map[string]any{
			"Metrics": m,
			"Role":    authz.Resolve(p).String(),
			"Name":    p.Username,
		},
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.Render(w, "pages/dashboard.html", data); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
	}
}
