package http

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods  = "GET, POST, DELETE, OPTIONS"
	corsAllowHeaders  = "Content-Type, " + requestIDHeader
	corsExposeHeaders = requestIDHeader + ", Retry-After"
)

// corsPolicy is the parsed origin allow-list. "*" allows any origin.
type corsPolicy struct {
	any     bool
	origins map[string]struct{}
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		switch origin = strings.TrimSpace(origin); origin {
		case "":
		case "*":
			p.any = true
		default:
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

// CORS adds CORS headers for a configured allow-list. A preflight from an
// unlisted origin is refused with 403; simple requests from it pass through
// without CORS headers.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !policy.allows(origin) {
			if isPreflight(r) {
				writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		if policy.any {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Expose-Headers", corsExposeHeaders)

		if isPreflight(r) {
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
