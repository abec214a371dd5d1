// Package permissions exposes the role administration screen: the
// read-only matrix view and the role binding endpoints.
package permissions

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/users"
	"github.com/multistock/multistock/internal/view"
)

// Handler wires the permissions admin endpoints.
type Handler struct {
	logger    *slog.Logger
	users     *users.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, userSvc *users.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, users: userSvc, templates: templates, csrf: csrf}
}

// MountRoutes registers the permissions routes. The matrix page is
// visible to management roles; bindings change only through the
// (permissions, edit) grant, which the matrix reserves for superadmin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(authz.RequireRole(authz.RoleSuperAdmin, authz.RoleAdmin, authz.RoleSupervisor)).
		Get("/", h.matrixPage)

	r.Group(func(r chi.Router) {
		r.Use(authz.RequirePermission(authz.ModulePermissions, authz.ActionEdit))
		r.Post("/assign/", h.handleAssign)
		r.Post("/revoke/", h.handleRevoke)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authz.RequireModule(authz.ModulePermissions))
		r.Get("/matrix/", h.apiMatrix)
		r.Post("/assign/", h.apiAssign)
	})
}

func (h *Handler) matrixPage(w http.ResponseWriter, r *http.Request) {
	rows := make(map[string]map[string]map[string]bool, len(authz.Roles()))
	for _, role := range authz.Roles() {
		rows[role.String()] = authz.RolePermissions(role)
	}
	accounts, err := h.users.List(r.Context(), 200, 0)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	if h.csrf != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
	}
	data := view.TemplateData{
		Title:       "Permissions",
		CSRFToken:   csrfToken,
		CurrentPath: r.URL.Path,
		Data: map[string]any{
			"Matrix":  rows,
			"Modules": authz.Modules(),
			"Actions": authz.Actions(),
			"Users":   accounts,
			"Roles":   authz.Roles(),
		},
	}
	if sess != nil {
		data.Flash = sess.PopFlash()
	}
	if err := h.templates.Render(w, "pages/permissions.html", data); err != nil {
		h.logger.Error("render permissions", slog.Any("error", err))
	}
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseInt(r.PostFormValue("user_id"), 10, 64)
	if err != nil {
		h.flashAndRedirect(w, r, "error", "Invalid user")
		return
	}
	if err := h.users.AssignRole(r.Context(), userID, r.PostFormValue("role")); err != nil {
		h.flashAndRedirect(w, r, "error", "Could not assign role: "+err.Error())
		return
	}
	h.flashAndRedirect(w, r, "success", "Role assigned")
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseInt(r.PostFormValue("user_id"), 10, 64)
	if err != nil {
		h.flashAndRedirect(w, r, "error", "Invalid user")
		return
	}
	if err := h.users.RevokeRole(r.Context(), userID); err != nil {
		h.flashAndRedirect(w, r, "error", "Could not revoke role")
		return
	}
	h.flashAndRedirect(w, r, "success", "Role binding removed")
}

func (h *Handler) apiMatrix(w http.ResponseWriter, r *http.Request) {
	rows := make(map[string]map[string]map[string]bool, len(authz.Roles()))
	for _, role := range authz.Roles() {
		rows[role.String()] = authz.RolePermissions(role)
	}
	httpx.JSON(w, http.StatusOK, rows)
}

type assignPayload struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

func (h *Handler) apiAssign(w http.ResponseWriter, r *http.Request) {
	var payload assignPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.users.AssignRole(r.Context(), payload.UserID, payload.Role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (h *Handler) flashAndRedirect(w http.ResponseWriter, r *http.Request, kind, msg string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: msg})
	}
	http.Redirect(w, r, "/permissions/", http.StatusSeeOther)
}
