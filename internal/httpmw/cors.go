package httpmw

import "net/http"

// OriginChecker reports whether origin is allowed to make cross-origin
// requests, e.g. against a configured allow-list (spec §9 "CORS").
type OriginChecker func(r *http.Request) bool

// CORS wraps next with CORS headers, grounded on server/routing.go's
// corsMiddleware: echo the request's Origin when allowed, widen allowed
// methods/headers in dev mode, and short-circuit OPTIONS preflight.
func CORS(devMode bool, allowed OriginChecker, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed == nil || allowed(r)) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if devMode {
			w.Header().Set("Access-Control-Allow-Methods", "*")
			w.Header().Set("Access-Control-Allow-Headers", "*")
		} else {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Hub-Signature-256")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}
