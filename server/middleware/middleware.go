package middleware

import (
	"net/http"
	"strings"

	"github.com/permitagent/permitagent/config"
	"github.com/permitagent/permitagent/errors"
)

// safelistedHeaders may always be requested in a preflight.
var safelistedHeaders = []string{"Accept", "Accept-Language", "Content-Language", "Content-Type"}

// defaultCORSMethods is advertised when allowed methods is a wildcard and the
// preflight does not name a method.
const defaultCORSMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"

// CORS handles Cross-Origin Resource Sharing according to cfg. A disabled
// config returns next unchanged. Preflights asking for a disallowed origin,
// method or header are answered with 400.
//
// With credentials allowed, browsers reject a literal "*" origin, so a
// wildcard is answered by echoing the request's Origin.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	anyOrigin := contains(cfg.AllowedOrigins, "*")
	anyMethod := len(cfg.AllowedMethods) == 0 || contains(cfg.AllowedMethods, "*")
	anyHeader := contains(cfg.AllowedHeaders, "*")
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	allowedHeaders := map[string]bool{}
	for _, hdr := range append(safelistedHeaders, cfg.AllowedHeaders...) {
		allowedHeaders[strings.ToLower(hdr)] = true
	}

	allowOrigin := func(origin string) string {
		switch {
		case anyOrigin && !cfg.AllowCredentials:
			return "*"
		case anyOrigin, contains(cfg.AllowedOrigins, origin):
			return origin
		default:
			return ""
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")

			allowed := allowOrigin(origin)
			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			reqMethod := r.Header.Get("Access-Control-Request-Method")
			if r.Method != http.MethodOptions || reqMethod == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Preflight
			reqHeaders := r.Header.Get("Access-Control-Request-Headers")
			var failures []string
			if allowed == "" {
				failures = append(failures, "origin")
			}
			if !anyMethod && !contains(cfg.AllowedMethods, reqMethod) {
				failures = append(failures, "method")
			}
			if !anyHeader && !headersAllowed(reqHeaders, allowedHeaders) {
				failures = append(failures, "headers")
			}
			if len(failures) > 0 {
				errors.ErrorWithType(w, "Disallowed CORS "+strings.Join(failures, ", "),
					errors.CORSError, http.StatusBadRequest)
				return
			}

			if anyMethod {
				h.Set("Access-Control-Allow-Methods", defaultCORSMethods)
			} else {
				h.Set("Access-Control-Allow-Methods", methods)
			}

			if reqHeaders != "" {
				if anyHeader {
					h.Set("Access-Control-Allow-Headers", reqHeaders)
				} else if headers != "" {
					h.Set("Access-Control-Allow-Headers", headers)
				}
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// headersAllowed checks a comma-separated Access-Control-Request-Headers
// value against the lowercased allow set.
func headersAllowed(requested string, allowed map[string]bool) bool {
	for _, hdr := range strings.Split(requested, ",") {
		hdr = strings.ToLower(strings.TrimSpace(hdr))
		if hdr != "" && !allowed[hdr] {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
