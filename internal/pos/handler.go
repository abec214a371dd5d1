package pos

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/platform/httpx"
)

// Handler exposes the POS sale endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the sale endpoint. Sales consume the orders
// module; the verb adapter maps the POST to orders.create.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(authz.RequireModule(authz.ModuleOrders))
		r.Post("/sale/", h.handleSale)
	})
}

func (h *Handler) handleSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	p := authz.PrincipalFromContext(r.Context())
	inv, err := h.service.Sell(r.Context(), p, req)
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			httpx.Error(w, http.StatusConflict, err.Error())
			return
		}
		if !errorsIsClient(err) {
			h.logger.Error("pos sale", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func errorsIsClient(err error) bool {
	return errors.Is(err, httpx.ErrValidation) ||
		errors.Is(err, httpx.ErrNotFound) ||
		errors.Is(err, httpx.ErrConflict)
}
