package web

import (
	"crypto/sha256"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
)

// csrfKey derives the token signing key from the session secret.
func csrfKey(secret string) []byte {
	k := sha256.Sum256([]byte("dbconsole-csrf:" + secret))
	return k[:]
}

// csrfProtect rejects form posts that do not carry the token rendered into
// the dashboard's own pages, and posts whose Origin is another site.
// Requests with a bearer token come from scripts, not browsers, and skip the
// check.
func (s *Server) csrfProtect(next http.Handler) http.Handler {
	secure := s.listenCfg.TLSEnabled() || s.secureCookies
	protect := csrf.Protect(s.csrfKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.CookieName(s.cookieName+"_csrf"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "invalid CSRF token"
			if err := csrf.FailureReason(r); err != nil {
				reason = err.Error()
			}
			slog.Warn("rejected cross-site request", "method", r.Method, "path", r.URL.Path, "reason", reason)
			writeError(w, http.StatusForbidden, "forbidden: "+reason)
		})),
	)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !secure {
			r = csrf.PlaintextHTTPRequest(r)
		}
		if strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			r = csrf.UnsafeSkipCheck(r)
		}
		protect.ServeHTTP(w, r)
	})
}

// limitBody bounds every request body before anything parses it.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}
