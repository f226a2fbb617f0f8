package middleware

import "net/http"

// SecurityHeaders sets the standard browser-hardening headers on every
// response. The API serves JSON plus a static directory, so the policy
// can be strict: nothing here needs framing, sniffing, or cross-origin
// embedding.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// CORS returns middleware that allows cross-origin requests from the
// configured origin. Credentials are always allowed because the session
// travels in a cookie, and the CORS spec forbids combining credentials
// with a literal "*" — so a "*" configuration echoes the caller's Origin
// instead. An empty origin disables CORS entirely.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if origin == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allow := origin
			if origin == "*" {
				allow = r.Header.Get("Origin")
				if allow == "" {
					// Same-origin request, nothing to do.
					next.ServeHTTP(w, r)
					return
				}
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allow)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				h.Set("Access-Control-Max-Age", "300")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
