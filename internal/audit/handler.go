package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/view"
)

// Handler exposes the audit log screen and its JSON listing.
type Handler struct {
	logger    *slog.Logger
	repo      *Repository
	templates *view.Engine
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo *Repository, templates *view.Engine) *Handler {
	return &Handler{logger: logger, repo: repo, templates: templates}
}

// MountRoutes registers the audit screen.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(authz.RequirePermission(authz.ModuleAudit, authz.ActionView))
	r.Get("/", h.listPage)
	r.Get("/api/", h.apiList)
}

func (h *Handler) listPage(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	paging := shared.NewPagination(page, 50, 0)
	entries, err := h.repo.List(r.Context(), paging.PerPage, paging.Offset())
	if err != nil {
		h.logger.Error("list audit entries", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{Title: "Audit Log", CurrentPath: r.URL.Path, Data: map[string]any{"Entries": entries, "Paging": paging}}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.Render(w, "pages/audit_list.html", data); err != nil {
		h.logger.Error("render audit", slog.Any("error", err))
	}
}

func (h *Handler) apiList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	paging := shared.NewPagination(page, 50, 0)
	entries, err := h.repo.List(r.Context(), paging.PerPage, paging.Offset())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}
