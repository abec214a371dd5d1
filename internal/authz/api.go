package authz

import (
	"fmt"
	"net/http"

	"github.com/multistock/multistock/internal/platform/httpx"
)

// ActionForMethod maps a REST verb to the matrix action it requires.
// Unknown verbs report ok=false and must be denied.
func ActionForMethod(method string) (action string, ok bool) {
	switch method {
	case http.MethodGet:
		return ActionView, true
	case http.MethodPost:
		return ActionCreate, true
	case http.MethodPut, http.MethodPatch:
		return ActionEdit, true
	case http.MethodDelete:
		return ActionDelete, true
	}
	return "", false
}

// RequireModule guards a REST resource declaring the given module name.
// The verb decides the action; the permission check runs before the
// handler and denials carry the JSON error contract.
func RequireModule(module string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil || !p.Authenticated {
				httpx.Error(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			action, ok := ActionForMethod(r.Method)
			if !ok {
				httpx.Error(w, http.StatusMethodNotAllowed,
					fmt.Sprintf("Method %s not allowed on %s", r.Method, module))
				return
			}
			if !Check(p, module, action) {
				httpx.Error(w, http.StatusForbidden,
					fmt.Sprintf("Permission denied: %s access to %s required", action, module))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
