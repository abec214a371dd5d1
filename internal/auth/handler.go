package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/users"
	"github.com/multistock/multistock/internal/view"
)

// Handler wires HTTP endpoints for the authentication flows: a login
// selection page, separate team and customer login forms, and logout.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showSelection)
	r.Get("/team-login", h.showTeamLogin)
	r.Post("/team-login", h.handleTeamLogin)
	r.Get("/customer-login", h.showCustomerLogin)
	r.Post("/customer-login", h.handleCustomerLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Username string `validate:"required,max=150"`
	Password string `validate:"required,min=6"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showSelection(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, "pages/login_selection.html", "Sign In", loginPageData{}, http.StatusOK)
}

func (h *Handler) showTeamLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, "pages/team_login.html", "Team Sign In", loginPageData{}, http.StatusOK)
}

func (h *Handler) showCustomerLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, "pages/customer_login.html", "Customer Sign In", loginPageData{}, http.StatusOK)
}

func (h *Handler) handleTeamLogin(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r, "pages/team_login.html", "Team Sign In", h.service.AuthenticateTeam)
}

func (h *Handler) handleCustomerLogin(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r, "pages/customer_login.html", "Customer Sign In", h.service.AuthenticateCustomer)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request, template, title string, authenticate func(context.Context, string, string) (*users.User, error)) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	errors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errors[fieldErr.Field()] = fieldErr.Error()
		}
	}

	if len(errors) == 0 {
		user, err := authenticate(r.Context(), form.Username, form.Password)
		if err != nil {
			errors["general"] = "Invalid username or password"
		} else {
			if sess != nil {
				sess.SetUser(strconv.FormatInt(user.ID, 10))
				sess.MarkVerified()
				sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})
				expiresAt := time.Now().Add(h.sessionManager.TTL())
				if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
					h.logger.Warn("register session", slog.Any("error", err))
				}
			} else {
				h.logger.Error("session missing during login")
			}
			http.Redirect(w, r, "/dashboard/", http.StatusSeeOther)
			return
		}
	}

	h.renderLogin(w, r, template, title, loginPageData{Form: loginForm{Username: form.Username}, Errors: errors}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, template, title string, data loginPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	if h.csrfManager != nil {
		csrfToken, _ = h.csrfManager.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render login", slog.String("template", template), slog.Any("error", err))
	}
}
