// Package web serves the administration dashboard. Pages render server-side
// and hand every action to the backend through the client package.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dbconsole/dbconsole/internal/client"
	"github.com/dbconsole/dbconsole/internal/config"
	"github.com/dbconsole/dbconsole/internal/health"
	"github.com/dbconsole/dbconsole/internal/metrics"
	"github.com/dbconsole/dbconsole/internal/model"
	"github.com/dbconsole/dbconsole/internal/store"
)

const maxRequestBodySize = 1 << 20 // 1 MB

//go:embed static
var staticFS embed.FS

// Server is the dashboard HTTP server.
type Server struct {
	client        *client.Client
	healthCheck   *health.Checker
	metrics       *metrics.Collector
	sessions      *sessions.FilesystemStore
	csrfKey       []byte
	cookieName    string
	secureCookies bool
	pages         *pageSet
	httpServer    *http.Server
	startTime     time.Time
	listenCfg     config.ListenConfig
}

// NewServer creates the dashboard server. hc and m may be nil.
func NewServer(c *client.Client, hc *health.Checker, m *metrics.Collector, cfg *config.Config) (*Server, error) {
	pages, err := loadPages()
	if err != nil {
		return nil, err
	}
	secret := sessionSecret(cfg.Session)
	sessionStore, err := newSessionStore(cfg.Session, secret, cfg.Listen.TLSEnabled())
	if err != nil {
		return nil, err
	}
	return &Server{
		client:        c,
		healthCheck:   hc,
		metrics:       m,
		sessions:      sessionStore,
		csrfKey:       csrfKey(secret),
		cookieName:    cfg.Session.CookieName,
		secureCookies: cfg.Session.Secure,
		pages:         pages,
		startTime:     time.Now(),
		listenCfg:     cfg.Listen,
	}, nil
}

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	// Connections
	r.HandleFunc("/", s.connectionsPage).Methods("GET")
	r.HandleFunc("/dashboard", s.connectionsPage).Methods("GET")
	r.HandleFunc("/connections", s.createConnection).Methods("POST")
	r.HandleFunc("/connections/active/clear", s.clearActiveConnection).Methods("POST")
	r.HandleFunc("/connections/{name}/activate", s.activateConnection).Methods("POST")
	r.HandleFunc("/connections/{name}/test", s.testConnection).Methods("POST")
	r.HandleFunc("/connections/{id}/delete", s.deleteConnection).Methods("POST")

	// Users
	r.HandleFunc("/users", s.usersPage).Methods("GET")
	r.HandleFunc("/users", s.createUser).Methods("POST")
	r.HandleFunc("/users/{name}/delete", s.deleteUser).Methods("POST")

	// Roles
	r.HandleFunc("/roles", s.rolesPage).Methods("GET")
	r.HandleFunc("/roles", s.createRole).Methods("POST")
	r.HandleFunc("/roles/{name}/delete", s.deleteRole).Methods("POST")
	r.HandleFunc("/roles/{name}/grant", s.grantPrivilege).Methods("POST")
	r.HandleFunc("/roles/{name}/revoke", s.revokePrivilege).Methods("POST")

	// Tablespaces
	r.HandleFunc("/tablespaces", s.tablespacesPage).Methods("GET")
	r.HandleFunc("/tablespaces", s.createTablespace).Methods("POST")
	r.HandleFunc("/tablespaces/{name}", s.tablespaceDetail).Methods("GET")
	r.HandleFunc("/tablespaces/{name}/delete", s.deleteTablespace).Methods("POST")

	// Security
	r.HandleFunc("/security", s.securityPage).Methods("GET")
	r.HandleFunc("/security/tde", s.configureTDE).Methods("POST")

	// Optimization & monitoring
	r.HandleFunc("/optimization", s.optimizationPage).Methods("GET")
	r.HandleFunc("/optimization/tune", s.tuneQueries).Methods("POST")
	r.HandleFunc("/monitoring", s.monitoringPage).Methods("GET")
	r.HandleFunc("/monitoring/reports/{type}", s.downloadReport).Methods("GET")

	// Backup
	r.HandleFunc("/backup", s.backupPage).Methods("GET")
	r.HandleFunc("/backup/run", s.runBackup).Methods("POST")
	r.HandleFunc("/backup/restore", s.restoreBackup).Methods("POST")
	r.HandleFunc("/backup/schedule", s.scheduleBackup).Methods("POST")

	// Health & readiness
	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/ready", s.readyHandler).Methods("GET")

	// Prometheus metrics
	if s.metrics != nil && s.metrics.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	static, _ := fs.Sub(staticFS, "static")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.NotFoundHandler = http.HandlerFunc(s.notFound)

	return s.securityHeaders(s.authMiddleware(limitBody(s.csrfProtect(r))))
}

// Start starts the dashboard server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.listenCfg.Bind, s.listenCfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Report downloads stream for as long as the backend takes.
		WriteTimeout: 5 * time.Minute,
	}

	if s.listenCfg.APIKey == "" {
		slog.Warn("api_key not configured, dashboard is unauthenticated")
	}
	slog.Info("dashboard listening", "addr", addr, "tls", s.listenCfg.TLSEnabled())

	go func() {
		var err error
		if s.listenCfg.TLSEnabled() {
			err = s.httpServer.ListenAndServeTLS(s.listenCfg.TLSCert, s.listenCfg.TLSKey)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			slog.Error("dashboard server error", "err", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the dashboard server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// authMiddleware checks the configured API key. Browsers send it as the
// basic auth password; scripts may use a bearer token. Probes and static
// assets are always open.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/ready" || path == "/metrics" || strings.HasPrefix(path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := s.listenCfg.APIKey
		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		var presented string
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			presented = strings.TrimPrefix(auth, "Bearer ")
		} else if _, pass, ok := r.BasicAuth(); ok {
			presented = pass
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="dbconsole"`)
			writeError(w, http.StatusUnauthorized, "unauthorized: invalid or missing API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// securityHeaders adds security-related HTTP headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; script-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// visit is the per-request view of the browser's persisted state.
type visit struct {
	w     http.ResponseWriter
	r     *http.Request
	sess  *sessions.Session
	store *store.Store

	inline []Toast
}

func (s *Server) open(w http.ResponseWriter, r *http.Request) *visit {
	sess, err := s.sessions.Get(r, s.cookieName)
	if err != nil {
		// Get still returns a fresh session when the cookie does not decode,
		// e.g. after the session secret changed.
		slog.Debug("discarding unreadable session cookie", "err", err)
	}
	v := &visit{w: w, r: r, sess: sess}

	st, err := store.New(&sessionStorage{sess: sess})
	if err != nil {
		slog.Warn("session state unusable, starting over", "err", err)
		for k := range sess.Values {
			delete(sess.Values, k)
		}
		st, _ = store.New(&sessionStorage{sess: sess})
	}
	v.store = st
	return v
}

// save persists the session. On failure the response has already been
// written and the caller must not write another.
func (v *visit) save() bool {
	if err := v.sess.Save(v.r, v.w); err != nil {
		slog.Error("saving session", "err", err)
		writeError(v.w, http.StatusInternalServerError, "could not store session state: "+err.Error())
		return false
	}
	return true
}

// redirect completes a form post by sending the browser back to a page.
func (v *visit) redirect(path string) {
	if !v.save() {
		return
	}
	http.Redirect(v.w, v.r, path, http.StatusSeeOther)
}

func (v *visit) clientID() string {
	id, err := v.store.ClientID()
	if err != nil {
		slog.Error("minting client id", "err", err)
	}
	return id
}

// target returns the active connection, or nil after queueing a prompt to
// pick one.
func (v *visit) target() *model.Connection {
	c := v.store.ActiveConnection()
	if c == nil {
		v.flash(toastError, "No active connection", "Select a connection on the dashboard first.")
	}
	return c
}

// parseForm reads a bounded form body. On failure it has already redirected.
func (v *visit) parseForm(back string) bool {
	v.r.Body = http.MaxBytesReader(v.w, v.r.Body, maxRequestBodySize)
	if err := v.r.ParseForm(); err != nil {
		v.flash(toastError, "Invalid request", err.Error())
		v.redirect(back)
		return false
	}
	return true
}

func (v *visit) form(key string) string {
	return strings.TrimSpace(v.r.PostFormValue(key))
}

func (v *visit) checked(key string) bool {
	switch strings.ToLower(v.r.PostFormValue(key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// finish records the outcome of an action, queues a toast and redirects to
// back so the page re-fetches its data.
func (s *Server) finish(v *visit, page, action, back, title, msg string, err error) {
	if s.metrics != nil {
		s.metrics.PageAction(page, action, err)
	}
	if err != nil {
		slog.Info("dashboard action failed", "page", page, "action", action, "err", err)
		v.flash(toastError, "Error", client.Message(err))
	} else {
		if msg == "" {
			msg = title
		}
		v.flash(toastSuccess, title, msg)
	}
	v.redirect(back)
}

// reject reports a validation failure without calling the backend.
func (s *Server) reject(v *visit, page, action, back string, err error) {
	if s.metrics != nil {
		s.metrics.PageAction(page, "validate_"+action, err)
	}
	v.flash(toastError, "Invalid input", err.Error())
	v.redirect(back)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || strings.HasPrefix(r.Header.Get("Accept"), "application/json") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	v := s.open(w, r)
	s.render(v, http.StatusNotFound, "notfound", "Not found", nil)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
