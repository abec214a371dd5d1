package audit

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/multistock/multistock/internal/authz"
)

var verbActions = map[string]string{
	http.MethodPost:   "create",
	http.MethodPut:    "update",
	http.MethodPatch:  "patch",
	http.MethodDelete: "delete",
}

// Middleware records state-changing requests after the handler runs.
// Only 2xx responses by authenticated principals produce an entry;
// denials and anonymous requests are skipped.
func Middleware(sink *Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action, ok := verbActions[r.Method]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			p := authz.PrincipalFromContext(r.Context())
			if p == nil || !p.Authenticated {
				return
			}
			if ww.Status() < 200 || ww.Status() >= 300 {
				return
			}
			actorID := p.ID
			sink.Offer(Entry{
				ActorID:   &actorID,
				Action:    action,
				Path:      r.URL.Path,
				IP:        clientIP(r),
				UserAgent: r.UserAgent(),
			})
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
