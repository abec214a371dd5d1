package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/multistock/multistock/internal/shared"
)

// DefaultPublicPrefixes lists URL regions reachable without a verified
// session: auth flows, static assets, health, help, guest mode, forums
// and the public catalog API.
func DefaultPublicPrefixes() []string {
	return []string{
		"/auth/",
		"/static/",
		"/media/",
		"/health",
		"/about/",
		"/help/",
		"/guest/",
		"/forums/",
		"/api/goods/",
	}
}

// DefaultAdminOnlyPrefixes lists URL regions the customer role may never
// enter, regardless of permissions.
func DefaultAdminOnlyPrefixes() []string {
	return []string{
		"/products/create/",
		"/products/edit/",
		"/products/delete/",
		"/inventory/",
		"/stock/",
		"/customers/",
		"/suppliers/",
		"/team/",
		"/warehouses/",
		"/categories/create/",
		"/categories/edit/",
		"/barcode/",
		"/analytics/",
		"/reports/",
		"/expenses/",
		"/permissions/",
		"/audit/",
		"/admin-panel/",
		"/system-settings/",
		"/api/dashboard-metrics/",
		"/api/dashboard-charts/",
	}
}

// AccessConfig parameterizes the session/access middleware.
type AccessConfig struct {
	Logger            *slog.Logger
	SessionManager    *shared.SessionManager
	PublicPrefixes    []string
	AdminOnlyPrefixes []string
}

// AccessMiddleware is the per-request gate. Precedence is fixed: public
// allowlist first, customer denylist second, session verification last.
// It runs exactly once per request and never calls the handler on denial.
func AccessMiddleware(cfg AccessConfig) func(http.Handler) http.Handler {
	public := cfg.PublicPrefixes
	if public == nil {
		public = DefaultPublicPrefixes()
	}
	adminOnly := cfg.AdminOnlyPrefixes
	if adminOnly == nil {
		adminOnly = DefaultAdminOnlyPrefixes()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			isPublic := path == "/" || path == "/home/" || hasAnyPrefix(path, public)

			p := PrincipalFromContext(r.Context())

			// Customer URL denial wins over session verification.
			if Resolve(p) == RoleCustomer && hasAnyPrefix(path, adminOnly) {
				if cfg.Logger != nil {
					cfg.Logger.Warn("customer blocked from admin url",
						slog.String("path", path), slog.String("user", p.Username))
				}
				writeAccessDenied(w)
				return
			}

			if !isPublic {
				sess := shared.SessionFromContext(r.Context())
				if sess == nil || !sess.Verified() {
					// Strip auth state and force the login selector.
					if sess != nil {
						sess.ClearVerified()
						sess.SetUser("")
						if cfg.SessionManager != nil {
							cfg.SessionManager.Destroy(sess)
						}
					}
					http.Redirect(w, r, LoginSelectionPath, http.StatusSeeOther)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// PrincipalLoader resolves a session user ID to a full principal.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID int64) (*Principal, error)
}

// WithPrincipal loads the principal referenced by the session and stores
// it in the request context. Lookup failures are absorbed: the request
// proceeds as guest, matching the resolver's fall-through contract.
func WithPrincipal(loader PrincipalLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" || loader == nil {
				next.ServeHTTP(w, r)
				return
			}
			id, err := parseUserID(sess.User())
			if err != nil {
				if logger != nil {
					logger.Warn("principal: bad session user id", slog.String("value", sess.User()))
				}
				next.ServeHTTP(w, r)
				return
			}
			p, err := loader.LoadPrincipal(r.Context(), id)
			if err != nil {
				if logger != nil {
					logger.Warn("principal: load failed", slog.Int64("user_id", id), slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

func parseUserID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}
