package authz

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/multistock/multistock/internal/platform/httpx"
	"github.com/multistock/multistock/internal/shared"
)

// Redirect targets for HTML denials.
const (
	LoginSelectionPath = "/auth/login"
	DashboardPath      = "/dashboard/"
)

// WantsJSON classifies the request style once per request: AJAX callers
// and the REST surface get structured errors, everything else gets
// redirects.
func WantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	path := r.URL.Path
	return strings.HasPrefix(path, "/api/") || strings.Contains(path, "/api/")
}

// RequireRole allows the request through when the resolved role is in the
// given set. Guards compose outside-in; a denied handler never executes.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil || !p.Authenticated {
				denyUnauthenticated(w, r)
				return
			}
			resolved := Resolve(p)
			for _, role := range roles {
				if resolved == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			names := make([]string, len(roles))
			for i, role := range roles {
				names[i] = role.String()
			}
			csv := strings.Join(names, ", ")
			denyForbidden(w, r,
				fmt.Sprintf("Role required: %s", csv),
				fmt.Sprintf("Access denied. Required role: %s", csv))
		})
	}
}

// RequirePermission allows the request through when the permission matrix
// grants (module, action) to the resolved role.
func RequirePermission(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil || !p.Authenticated {
				denyUnauthenticated(w, r)
				return
			}
			if !Check(p, module, action) {
				msg := fmt.Sprintf("Permission denied: %s access to %s required", action, module)
				denyForbidden(w, r, msg, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CustomerRestricted blocks the customer role from admin-only pages.
func CustomerRestricted(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if p == nil || !p.Authenticated {
			http.Redirect(w, r, LoginSelectionPath, http.StatusSeeOther)
			return
		}
		if Resolve(p) == RoleCustomer {
			if WantsJSON(r) {
				httpx.Error(w, http.StatusForbidden, "Customers cannot access this page")
				return
			}
			writeAccessDenied(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		httpx.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	http.Redirect(w, r, LoginSelectionPath, http.StatusSeeOther)
}

func denyForbidden(w http.ResponseWriter, r *http.Request, apiMsg, flashMsg string) {
	if WantsJSON(r) {
		httpx.Error(w, http.StatusForbidden, apiMsg)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: flashMsg})
	}
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

// writeAccessDenied emits the static denial page shared with the access
// middleware.
func writeAccessDenied(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(
		"<h1>Access Denied</h1>" +
			"<p>Customers do not have permission to access this page.</p>" +
			`<p><a href="/dashboard/">Return to Dashboard</a></p>`))
}
