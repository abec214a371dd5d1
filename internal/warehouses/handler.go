package warehouses

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/tenant"
	"github.com/multistock/multistock/internal/view"
)

// Handler wires warehouse HTTP endpoints. The whole URL region sits on
// the customer denylist, so guards here only differentiate actions.
type Handler struct {
	logger    *slog.Logger
	repo      Repository
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, repo: repo, templates: templates, csrf: csrf}
}

// MountRoutes registers warehouse routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(authz.RequirePermission(authz.ModuleWarehouses, authz.ActionView)).Get("/", h.listPage)

	r.Route("/api", func(r chi.Router) {
		r.Use(authz.RequireModule(authz.ModuleWarehouses))
		r.Get("/", h.apiList)
		r.Post("/", h.apiCreate)
		r.Get("/{id}/", h.apiGet)
		r.Put("/{id}/", h.apiUpdate)
		r.Patch("/{id}/", h.apiUpdate)
		r.Delete("/{id}/", h.apiDelete)
	})
}

func (h *Handler) listPage(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	items, err := h.repo.List(r.Context(), tenant.ScopeFor(p))
	if err != nil {
		h.logger.Error("list warehouses", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	if h.csrf != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{Title: "Warehouses", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: map[string]any{"Warehouses": items}}
	if err := h.templates.Render(w, "pages/warehouses_list.html", data); err != nil {
		h.logger.Error("render warehouses", slog.Any("error", err))
	}
}

func (h *Handler) apiList(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	items, err := h.repo.List(r.Context(), tenant.ScopeFor(p))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Warehouse{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) apiGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	wh, err := h.repo.GetByID(r.Context(), tenant.ScopeFor(p), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wh)
}

func (h *Handler) apiCreate(w http.ResponseWriter, r *http.Request) {
	var payload Warehouse
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if payload.Code == "" || payload.Name == "" {
		httpx.Error(w, http.StatusBadRequest, "code and name are required")
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	created, err := h.repo.Create(r.Context(), tenant.ScopeFor(p), &payload)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) apiUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var payload Warehouse
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	payload.ID = id
	p := authz.PrincipalFromContext(r.Context())
	updated, err := h.repo.Update(r.Context(), tenant.ScopeFor(p), &payload)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) apiDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if err := h.repo.Delete(r.Context(), tenant.ScopeFor(p), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
