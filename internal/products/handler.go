package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/view"
)

// Handler wires product HTTP endpoints: HTML management pages plus the
// REST resource under /api.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		validator: validator.New(),
	}
}

// MountRoutes registers product routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(authz.RequirePermission(authz.ModuleProducts, authz.ActionView)).Get("/", h.listPage)

	r.Group(func(r chi.Router) {
		r.Use(authz.CustomerRestricted)
		r.Use(authz.RequirePermission(authz.ModuleProducts, authz.ActionCreate))
		r.Get("/create/", h.createPage)
		r.Post("/create/", h.handleCreate)
	})

	r.Group(func(r chi.Router) {
		r.Use(authz.RequirePermission(authz.ModuleProducts, authz.ActionEdit))
		r.Get("/edit/{id}/", h.editPage)
		r.Post("/edit/{id}/", h.handleEdit)
	})

	r.With(authz.RequirePermission(authz.ModuleProducts, authz.ActionDelete)).
		Post("/delete/{id}/", h.handleDelete)

	r.Route("/api", h.MountAPIRoutes)
}

// MountAPIRoutes registers the REST resource. The verb adapter maps each
// method to its matrix action before any handler runs.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Use(authz.RequireModule(authz.ModuleProducts))
	r.Get("/", h.apiList)
	r.Post("/", h.apiCreate)
	r.Get("/{id}/", h.apiGet)
	r.Put("/{id}/", h.apiUpdate)
	r.Patch("/{id}/", h.apiUpdate)
	r.Delete("/{id}/", h.apiDelete)
}

type productForm struct {
	Code        string  `validate:"required,max=64"`
	Name        string  `validate:"required,max=255"`
	Description string  `validate:"max=2000"`
	Price       float64 `validate:"gte=0"`
	Barcode     string  `validate:"max=64"`
}

// HTML pages

func (h *Handler) listPage(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	items, err := h.service.List(r.Context(), p, Filter{Query: r.URL.Query().Get("q")})
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/products_list.html", "Products", map[string]any{
		"Products": items,
		"Query":    r.URL.Query().Get("q"),
	}, http.StatusOK)
}

func (h *Handler) createPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/products_form.html", "New Product", map[string]any{"Form": productForm{}}, http.StatusOK)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	form, errs := h.parseForm(r)
	if len(errs) > 0 {
		h.render(w, r, "pages/products_form.html", "New Product", map[string]any{"Form": form, "Errors": errs}, http.StatusBadRequest)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if _, err := h.service.Create(r.Context(), p, formToProduct(form)); err != nil {
		h.render(w, r, "pages/products_form.html", "New Product", map[string]any{"Form": form, "Errors": map[string]string{"general": err.Error()}}, http.StatusBadRequest)
		return
	}
	h.flashAndRedirect(w, r, "Product created", "/products/")
}

func (h *Handler) editPage(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	product, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	form := productForm{Code: product.Code, Name: product.Name, Description: product.Description, Price: product.Price, Barcode: product.Barcode}
	h.render(w, r, "pages/products_form.html", "Edit Product", map[string]any{"Form": form, "ID": product.ID}, http.StatusOK)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	form, errs := h.parseForm(r)
	if len(errs) > 0 {
		h.render(w, r, "pages/products_form.html", "Edit Product", map[string]any{"Form": form, "ID": id, "Errors": errs}, http.StatusBadRequest)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	product := formToProduct(form)
	product.ID = id
	if _, err := h.service.Update(r.Context(), p, product); err != nil {
		h.render(w, r, "pages/products_form.html", "Edit Product", map[string]any{"Form": form, "ID": id, "Errors": map[string]string{"general": err.Error()}}, http.StatusBadRequest)
		return
	}
	h.flashAndRedirect(w, r, "Product updated", "/products/")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		h.flashAndRedirect(w, r, "Product not found", "/products/")
		return
	}
	h.flashAndRedirect(w, r, "Product deleted", "/products/")
}

// PublicList is the unauthenticated catalog endpoint. The store query
// parameter names the tenant whose catalog to browse.
func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	store := r.URL.Query().Get("store")
	if store == "" {
		httpx.Error(w, http.StatusBadRequest, "store parameter is required")
		return
	}
	items, err := h.service.PublicList(r.Context(), store, Filter{Query: r.URL.Query().Get("q")})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Product{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

// REST endpoints

func (h *Handler) apiList(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	items, err := h.service.List(r.Context(), p, Filter{Query: r.URL.Query().Get("q")})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Product{}
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
	product, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) apiCreate(w http.ResponseWriter, r *http.Request) {
	var payload Product
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	created, err := h.service.Create(r.Context(), p, &payload)
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
	var payload Product
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	payload.ID = id
	p := authz.PrincipalFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), p, &payload)
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
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// helpers

func (h *Handler) parseForm(r *http.Request) (productForm, map[string]string) {
	errs := make(map[string]string)
	if err := r.ParseForm(); err != nil {
		errs["general"] = "invalid form submission"
		return productForm{}, errs
	}
	price, err := strconv.ParseFloat(r.PostFormValue("price"), 64)
	if err != nil && r.PostFormValue("price") != "" {
		errs["Price"] = "price must be a number"
	}
	form := productForm{
		Code:        r.PostFormValue("code"),
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Price:       price,
		Barcode:     r.PostFormValue("barcode"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return form, errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	if h.csrf != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: title, CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

func (h *Handler) flashAndRedirect(w http.ResponseWriter, r *http.Request, msg, target string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: msg})
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func formToProduct(f productForm) *Product {
	return &Product{Code: f.Code, Name: f.Name, Description: f.Description, Price: f.Price, Barcode: f.Barcode}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
