package pos_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/multistock/multistock/internal/authz"
	"github.com/multistock/multistock/internal/pos"
)

func newSaleRouter(t *testing.T, repo *memTx, idem pos.IdempotencyChecker, p *authz.Principal) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := pos.NewHandler(logger, pos.NewService(repo, idem))

	r := chi.NewRouter()
	if p != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(authz.ContextWithPrincipal(req.Context(), p)))
			})
		})
	}
	r.Route("/pos", handler.MountRoutes)
	return r
}

func postSale(router http.Handler, body, idempotencyKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/pos/api/sale/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

const saleBody = `{"customer_id":42,"warehouse_id":1,"lines":[{"product_id":10,"qty":3,"unit_price":12.5}]}`

func TestSaleEndpointCreatesInvoice(t *testing.T) {
	repo := newMemTx(map[stockKey]int64{{1, 10}: 100})
	router := newSaleRouter(t, repo, nil, seller())

	res := postSale(router, saleBody, "")

	require.Equal(t, http.StatusCreated, res.Code)
	require.Contains(t, res.Body.String(), "INV-")
	require.Equal(t, int64(97), repo.committed[stockKey{1, 10}])
}

func TestSaleEndpointOversellIs409(t *testing.T) {
	repo := newMemTx(map[stockKey]int64{{1, 10}: 2})
	router := newSaleRouter(t, repo, nil, seller())

	res := postSale(router, saleBody, "")

	require.Equal(t, http.StatusConflict, res.Code)
	require.Contains(t, res.Body.String(), "insufficient stock")
	require.Equal(t, int64(2), repo.committed[stockKey{1, 10}])
}

func TestSaleEndpointReplayIs409(t *testing.T) {
	repo := newMemTx(map[stockKey]int64{{1, 10}: 100})
	router := newSaleRouter(t, repo, &stubIdempotency{}, seller())

	first := postSale(router, saleBody, "sale-abc")
	require.Equal(t, http.StatusCreated, first.Code)

	replay := postSale(router, saleBody, "sale-abc")
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Equal(t, int64(97), repo.committed[stockKey{1, 10}])
}

func TestSaleEndpointRequiresAuthentication(t *testing.T) {
	router := newSaleRouter(t, newMemTx(nil), nil, nil)

	res := postSale(router, saleBody, "")

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.JSONEq(t, `{"error":"Authentication required"}`, res.Body.String())
}

func TestSaleEndpointRejectsBadJSON(t *testing.T) {
	router := newSaleRouter(t, newMemTx(nil), nil, seller())

	res := postSale(router, "{not json", "")

	require.Equal(t, http.StatusBadRequest, res.Code)
	require.JSONEq(t, `{"error":"Invalid JSON payload"}`, res.Body.String())
}

func TestSaleEndpointValidationIs400(t *testing.T) {
	router := newSaleRouter(t, newMemTx(nil), nil, seller())

	res := postSale(router, `{"warehouse_id":1,"lines":[]}`, "")

	require.Equal(t, http.StatusBadRequest, res.Code)
}
