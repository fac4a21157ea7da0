package web

import (
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbconsole/dbconsole/internal/client"
	"github.com/dbconsole/dbconsole/internal/config"
	"github.com/dbconsole/dbconsole/internal/health"
	"github.com/dbconsole/dbconsole/internal/metrics"
	"github.com/dbconsole/dbconsole/internal/model"
)

// fakeBackend is an in-memory administration backend.
type fakeBackend struct {
	mu     sync.Mutex
	conns  map[string]model.Connection
	nextID int
	calls  []string
	roles  []model.Role
	last   url.Values
	srv    *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	fb := &fakeBackend{
		conns: map[string]model.Connection{},
		roles: []model.Role{{
			Name:             "APP_READ",
			SystemPrivileges: []string{"CREATE SESSION"},
			ObjectPrivileges: []string{"SELECT"},
			TableNames:       []string{"HR.EMPLOYEES"},
		}},
	}

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			fb.mu.Lock()
			fb.calls = append(fb.calls, req.Method+" "+req.URL.Path)
			fb.last = req.URL.Query()
			fb.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})

	r.HandleFunc("/api/connections/save", fb.saveConnection).Methods("POST")
	r.HandleFunc("/api/connections/test", func(w http.ResponseWriter, req *http.Request) {
		var c model.Connection
		json.NewDecoder(req.Body).Decode(&c)
		if c.IP == "unreachable" {
			io.WriteString(w, "failed")
			return
		}
		io.WriteString(w, "success")
	}).Methods("POST")
	r.HandleFunc("/api/connections/user/{clientId}", fb.clientConnections).Methods("GET")
	r.HandleFunc("/api/connections/{name}", fb.getConnection).Methods("GET")
	r.HandleFunc("/api/connections/{id}", fb.deleteConnection).Methods("DELETE")

	r.HandleFunc("/api/roles/all", func(w http.ResponseWriter, req *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		json.NewEncoder(w).Encode(fb.roles)
	}).Methods("GET")
	r.HandleFunc("/api/roles/create", func(w http.ResponseWriter, req *http.Request) {
		name := req.URL.Query().Get("roleName")
		if name == "DUP" {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":"ORA-01921: role name DUP conflicts with another user or role name"}`)
			return
		}
		fb.mu.Lock()
		fb.roles = append(fb.roles, model.Role{Name: name})
		fb.mu.Unlock()
		io.WriteString(w, "Role created successfully")
	}).Methods("POST")
	r.HandleFunc("/api/roles/grant/object", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, "granted")
	}).Methods("POST")

	r.HandleFunc("/api/performance/slow-queries", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, `[
			{"sqlId":"a1","executionTime":12.5,"queryText":"SELECT * FROM orders","numberOfExecutions":1200,"lastExecutionTime":"2026-01-01"},
			{"sqlId":"b2","executionTime":3.1,"queryText":"UPDATE stock SET qty = qty - 1","numberOfExecutions":40,"lastExecutionTime":"2026-01-02"}
		]`)
	}).Methods("GET")
	r.HandleFunc("/api/performance/tune-query", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, `{"recommendations":["create index on orders(customer_id)"],"executionPlanImprovements":["index range scan"]}`)
	}).Methods("GET")
	r.HandleFunc("/performance/ashReport", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "ASH REPORT")
	}).Methods("GET")

	r.HandleFunc("/backup/history", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, "FULL 2026-01-01 OK")
	}).Methods("GET")
	r.HandleFunc("/restore", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, "Database restored")
	}).Methods("POST")

	fb.srv = httptest.NewServer(r)
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) saveConnection(w http.ResponseWriter, r *http.Request) {
	var c model.Connection
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	fb.mu.Lock()
	fb.nextID++
	c.ID = strconv.Itoa(fb.nextID)
	fb.conns[c.ID] = c
	fb.mu.Unlock()
	json.NewEncoder(w).Encode(c)
}

func (fb *fakeBackend) clientConnections(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["clientId"]
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := []model.Connection{}
	for _, c := range fb.conns {
		if c.ClientID == id {
			out = append(out, c)
		}
	}
	json.NewEncoder(w).Encode(out)
}

func (fb *fakeBackend) getConnection(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, c := range fb.conns {
		if c.ConnectionName == name {
			json.NewEncoder(w).Encode(c)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
	io.WriteString(w, `{"error":"connection not found"}`)
}

func (fb *fakeBackend) deleteConnection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, ok := fb.conns[id]; !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	delete(fb.conns, id)
	io.WriteString(w, "Connection deleted")
}

func (fb *fakeBackend) callCount(prefix string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	n := 0
	for _, c := range fb.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type harness struct {
	t       *testing.T
	backend *fakeBackend
	server  *Server
	metrics *metrics.Collector
	web     *httptest.Server
	browser *http.Client
	token   string
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	fb := newFakeBackend(t)

	cfg := config.Default()
	cfg.Backend.BaseURL = fb.srv.URL
	cfg.Session.Secret = "test-secret"
	cfg.Session.Dir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}

	m := metrics.New()
	cl := client.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, m)
	hc := health.NewChecker(cfg.Backend, cfg.HealthCheck, m)
	s, err := NewServer(cl, hc, m, cfg)
	require.NoError(t, err)

	web := httptest.NewServer(s.Handler())
	t.Cleanup(web.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		t:       t,
		backend: fb,
		server:  s,
		metrics: m,
		web:     web,
		browser: &http.Client{Jar: jar},
	}
}

func (h *harness) get(path string) (int, string) {
	h.t.Helper()
	resp, err := h.browser.Get(h.web.URL + path)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`)

// csrfToken loads a page once, like a browser would before submitting a
// form, and returns the token rendered into it.
func (h *harness) csrfToken() string {
	h.t.Helper()
	if h.token == "" {
		_, body := h.get("/nowhere")
		m := csrfMeta.FindStringSubmatch(body)
		require.Len(h.t, m, 2, "page should carry a csrf token")
		h.token = html.UnescapeString(m[1])
	}
	return h.token
}

// post submits a form and follows the redirect like a browser would.
func (h *harness) post(path string, form url.Values) (int, string) {
	h.t.Helper()
	withToken := url.Values{}
	for k, v := range form {
		withToken[k] = v
	}
	withToken.Set("gorilla.csrf.Token", h.csrfToken())
	return h.postRaw(path, withToken)
}

// postRaw submits a form as is.
func (h *harness) postRaw(path string, form url.Values) (int, string) {
	h.t.Helper()
	resp, err := h.browser.PostForm(h.web.URL+path, form)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

// active decodes the browser's session cookie and returns its active
// connection.
func (h *harness) active() *model.Connection {
	h.t.Helper()
	req := httptest.NewRequest("GET", h.web.URL+"/", nil)
	u, _ := url.Parse(h.web.URL)
	for _, c := range h.browser.Jar.Cookies(u) {
		req.AddCookie(c)
	}
	return h.server.open(httptest.NewRecorder(), req).store.ActiveConnection()
}

func connectionForm(name string) url.Values {
	return url.Values{
		"connectionName": {name},
		"ip":             {"10.0.0.5"},
		"port":           {"1521"},
		"serviceName":    {"ORCL"},
		"username":       {"system"},
		"password":       {"s3cret"},
	}
}

func TestDeleteActiveConnectionClearsIt(t *testing.T) {
	h := newHarness(t, nil)

	code, body := h.post("/connections", connectionForm("prod"))
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Connection created")
	assert.Contains(t, body, "prod")

	_, body = h.post("/connections/prod/activate", nil)
	assert.Contains(t, body, "Active connection set")
	active := h.active()
	require.NotNil(t, active)
	assert.Equal(t, "prod", active.ConnectionName)
	assert.Equal(t, "s3cret", active.Password)

	_, body = h.post("/connections/"+active.ID+"/delete", url.Values{"connectionName": {"prod"}})
	assert.Contains(t, body, "Connection deleted")
	assert.Nil(t, h.active())
	assert.Contains(t, body, "No active connection")
}

func TestDeleteOtherConnectionKeepsActive(t *testing.T) {
	h := newHarness(t, nil)
	h.post("/connections", connectionForm("prod"))
	h.post("/connections", connectionForm("staging"))
	h.post("/connections/prod/activate", nil)

	var stagingID string
	h.backend.mu.Lock()
	for id, c := range h.backend.conns {
		if c.ConnectionName == "staging" {
			stagingID = id
		}
	}
	h.backend.mu.Unlock()

	h.post("/connections/"+stagingID+"/delete", url.Values{"connectionName": {"staging"}})
	require.NotNil(t, h.active())
	assert.Equal(t, "prod", h.active().ConnectionName)
}

func TestCreateConnectionStampsClientAndDefaultName(t *testing.T) {
	h := newHarness(t, nil)
	form := connectionForm("")
	form.Set("activate", "on")

	h.post("/connections", form)

	h.backend.mu.Lock()
	require.Len(t, h.backend.conns, 1)
	var saved model.Connection
	for _, c := range h.backend.conns {
		saved = c
	}
	h.backend.mu.Unlock()

	assert.True(t, strings.HasPrefix(saved.ConnectionName, "conn-"), saved.ConnectionName)
	assert.NotEmpty(t, saved.ClientID)

	active := h.active()
	require.NotNil(t, active)
	assert.Equal(t, saved.ConnectionName, active.ConnectionName)
	assert.Equal(t, saved.ClientID, active.ClientID)
}

func TestConnectionValidationSkipsBackend(t *testing.T) {
	h := newHarness(t, nil)
	form := connectionForm("prod")
	form.Del("ip")
	form.Set("port", "abc")

	_, body := h.post("/connections", form)
	assert.Contains(t, body, "Invalid input")
	assert.Zero(t, h.backend.callCount("POST /api/connections/save"))
}

func TestConnectionsAreScopedByClient(t *testing.T) {
	h := newHarness(t, nil)
	h.post("/connections", connectionForm("mine"))

	// A second browser against the same dashboard sees nothing.
	jar, _ := cookiejar.New(nil)
	stranger := &http.Client{Jar: jar}
	resp, err := stranger.Get(h.web.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.NotContains(t, string(body), "mine")

	_, body2 := h.get("/")
	assert.Contains(t, body2, "mine")
}

func TestActivateForeignConnectionRefused(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.mu.Lock()
	h.backend.conns["99"] = model.Connection{ID: "99", ConnectionName: "theirs", ClientID: "someone-else", IP: "1.2.3.4"}
	h.backend.mu.Unlock()

	_, body := h.post("/connections/theirs/activate", nil)
	assert.Contains(t, body, "not found")
	assert.Nil(t, h.active())
}

func TestTestConnectionRecordsStatus(t *testing.T) {
	h := newHarness(t, nil)
	h.post("/connections", connectionForm("prod"))
	bad := connectionForm("broken")
	bad.Set("ip", "unreachable")
	h.post("/connections", bad)

	_, body := h.post("/connections/prod/test", nil)
	assert.Contains(t, body, "Connection OK")

	_, body = h.post("/connections/broken/test", nil)
	assert.Contains(t, body, "Connection test failed")

	statuses := func() map[string]string {
		req := httptest.NewRequest("GET", h.web.URL+"/", nil)
		u, _ := url.Parse(h.web.URL)
		for _, c := range h.browser.Jar.Cookies(u) {
			req.AddCookie(c)
		}
		return h.server.open(httptest.NewRecorder(), req).connectionStatuses()
	}()
	assert.Equal(t, map[string]string{"prod": "success", "broken": "failed"}, statuses)
}

func TestPagesPromptWithoutActiveConnection(t *testing.T) {
	h := newHarness(t, nil)

	for _, path := range []string{"/users", "/roles", "/tablespaces", "/tablespaces/USERS", "/security", "/optimization"} {
		code, body := h.get(path)
		assert.Equal(t, http.StatusOK, code, path)
		assert.Contains(t, body, "Please select a connection", path)
	}
	assert.Zero(t, h.backend.callCount("GET /api/"))
}

func TestActionsWithoutActiveConnectionRedirectHome(t *testing.T) {
	h := newHarness(t, nil)

	_, body := h.post("/roles", url.Values{"roleName": {"X"}})
	assert.Contains(t, body, "No active connection")
	assert.Zero(t, h.backend.callCount("POST /api/roles"))
}

func withActive(t *testing.T) *harness {
	h := newHarness(t, nil)
	h.post("/connections", connectionForm("prod"))
	h.post("/connections/prod/activate", nil)
	require.NotNil(t, h.active())
	return h
}

func TestRolesPageListsPrivileges(t *testing.T) {
	h := withActive(t)

	code, body := h.get("/roles")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "APP_READ")
	assert.Contains(t, body, "CREATE SESSION")
	assert.Contains(t, body, "HR.EMPLOYEES")

	h.backend.mu.Lock()
	assert.Equal(t, "10.0.0.5", h.backend.last.Get("ip"))
	assert.Equal(t, "ORCL", h.backend.last.Get("serviceName"))
	h.backend.mu.Unlock()
}

func TestCreateRoleShowsBackendError(t *testing.T) {
	h := withActive(t)

	_, body := h.post("/roles", url.Values{"roleName": {"DUP"}})
	assert.Contains(t, body, "ORA-01921")

	_, body = h.post("/roles", url.Values{"roleName": {"APP_WRITE"}})
	assert.Contains(t, body, "Role created")
	assert.Contains(t, body, "APP_WRITE")
}

func TestGrantObjectPrivilegeNeedsTable(t *testing.T) {
	h := withActive(t)

	_, body := h.post("/roles/APP_READ/grant", url.Values{"type": {"object"}, "privilege": {"SELECT"}})
	assert.Contains(t, body, "table name is required")
	assert.Zero(t, h.backend.callCount("POST /api/roles/grant"))

	_, body = h.post("/roles/APP_READ/grant", url.Values{"type": {"object"}, "privilege": {"SELECT"}, "tableName": {"HR.JOBS"}})
	assert.Contains(t, body, "Privilege granted")
	h.backend.mu.Lock()
	assert.Equal(t, "HR.JOBS", h.backend.last.Get("tableName"))
	h.backend.mu.Unlock()
}

func TestOptimizationFilterAndTune(t *testing.T) {
	h := withActive(t)

	_, body := h.get("/optimization?q=orders")
	assert.Contains(t, body, "SELECT * FROM orders")
	assert.NotContains(t, body, "UPDATE stock")

	_, body = h.post("/optimization/tune", url.Values{"sqlId": {"a1", "a1", ""}})
	assert.Contains(t, body, "create index on orders(customer_id)")
	assert.Equal(t, 1, h.backend.callCount("GET /api/performance/tune-query"))

	_, body = h.post("/optimization/tune", url.Values{})
	assert.Contains(t, body, "select at least one statement")
}

func TestReportDownload(t *testing.T) {
	h := newHarness(t, nil)

	resp, err := h.browser.Get(h.web.URL + "/monitoring/reports/ash")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ASH REPORT", string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ASH_Report.txt")
}

func TestReportDownloadFailureShowsToast(t *testing.T) {
	h := newHarness(t, nil)

	_, body := h.get("/monitoring/reports/awr")
	assert.Contains(t, body, "Performance Monitoring")
	assert.Contains(t, body, "toast error")
}

func TestBackupPageAndRestore(t *testing.T) {
	h := newHarness(t, nil)

	_, body := h.get("/backup")
	assert.Contains(t, body, "FULL 2026-01-01 OK")

	_, body = h.post("/backup/restore", url.Values{"restoreDate": {"yesterday"}})
	assert.Contains(t, body, "Invalid input")
	assert.Zero(t, h.backend.callCount("POST /restore"))

	_, body = h.post("/backup/restore", url.Values{"restoreDate": {"2026-01-01T10:00"}})
	assert.Contains(t, body, "Database restored")
	assert.Equal(t, 1, h.backend.callCount("POST /restore"))
}

func TestLargeConnectionSurvivesInSession(t *testing.T) {
	h := newHarness(t, nil)

	form := connectionForm("wide")
	form.Set("serviceName", strings.Repeat("s", 2500))
	code, body := h.post("/connections", form)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Connection created")

	_, body = h.post("/connections/wide/activate", nil)
	assert.Contains(t, body, "Active connection set")
	active := h.active()
	require.NotNil(t, active)
	assert.Len(t, active.ServiceName, 2500)
}

func TestOversizedSessionIsAnError(t *testing.T) {
	h := newHarness(t, nil)

	form := connectionForm("huge")
	form.Set("serviceName", strings.Repeat("s", 70000))
	code, _ := h.post("/connections", form)
	require.Equal(t, http.StatusOK, code)

	code, body := h.post("/connections/huge/activate", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, body, "could not store session state")
	assert.Nil(t, h.active())
}

func TestCrossSitePostIsRejected(t *testing.T) {
	h := newHarness(t, nil)

	req, err := http.NewRequest("POST", h.web.URL+"/backup/restore",
		strings.NewReader(url.Values{"restoreDate": {"2026-01-01T10:00"}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Same browser, but the form did not come from one of our pages.
	code, body := h.postRaw("/backup/restore", url.Values{"restoreDate": {"2026-01-01T10:00"}})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, body, "forbidden")

	assert.Zero(t, h.backend.callCount("POST /restore"))
}

func TestPagesCarryCSRFField(t *testing.T) {
	h := withActive(t)

	_, body := h.get("/roles")
	assert.Contains(t, body, `name="gorilla.csrf.Token"`)
	assert.Regexp(t, csrfMeta, body)
}

func TestBearerRequestsSkipCSRF(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Listen.APIKey = "letmein" })

	req, err := http.NewRequest("POST", h.web.URL+"/backup/restore",
		strings.NewReader(url.Values{"restoreDate": {"2026-01-01T10:00"}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer letmein")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, h.backend.callCount("POST /restore"))
}

func TestToastIsShownOnce(t *testing.T) {
	h := withActive(t)

	_, body := h.post("/roles", url.Values{"roleName": {"APP_WRITE"}})
	assert.Contains(t, body, "Role created")

	_, body = h.get("/roles")
	assert.NotContains(t, body, "Role created")
}

func TestAuthMiddleware(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Listen.APIKey = "letmein" })

	code, _ := h.get("/")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = h.get("/health")
	assert.Equal(t, http.StatusOK, code)

	req, _ := http.NewRequest("GET", h.web.URL+"/", nil)
	req.SetBasicAuth("admin", "letmein")
	resp, err := h.browser.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ = http.NewRequest("GET", h.web.URL+"/", nil)
	req.Header.Set("Authorization", "Bearer letmein")
	resp, err = h.browser.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSecurityHeaders(t *testing.T) {
	h := newHarness(t, nil)
	resp, err := h.browser.Get(h.web.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t, nil)

	code, body := h.get("/health")
	assert.Equal(t, http.StatusOK, code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, h.backend.srv.URL, payload["backend_url"])
	assert.Contains(t, payload, "backend")

	code, _ = h.get("/ready")
	assert.Equal(t, http.StatusOK, code)

	code, body = h.get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "dbconsole_backend_health")
}

func TestRotatedSessionSecretStartsFresh(t *testing.T) {
	h := withActive(t)

	cfg := config.Default()
	cfg.Backend.BaseURL = h.backend.srv.URL
	cfg.Session.Secret = "another-secret"
	cfg.Session.Dir = t.TempDir()
	s2, err := NewServer(client.New(cfg.Backend.BaseURL, 0, nil), nil, nil, cfg)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/", nil)
	u, _ := url.Parse(h.web.URL)
	for _, c := range h.browser.Jar.Cookies(u) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s2.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No active connection")
}

func TestStaticAndNotFound(t *testing.T) {
	h := newHarness(t, nil)

	code, body := h.get("/static/app.js")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "data-confirm")

	code, body = h.get("/nowhere")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "nothing at this address")
}

func TestRoleRowsPairsTables(t *testing.T) {
	rows := roleRows([]model.Role{{
		Name:             "R",
		ObjectPrivileges: []string{"SELECT", "INSERT"},
		TableNames:       []string{"T1"},
	}})
	require.Len(t, rows, 1)
	assert.Equal(t, []objectGrant{{"SELECT", "T1"}, {"INSERT", ""}}, rows[0].Objects)
}

func TestNormalizeDateTime(t *testing.T) {
	assert.Equal(t, "2026-01-01T10:00:00", normalizeDateTime("2026-01-01T10:00"))
	assert.Equal(t, "2026-01-01T10:00:30", normalizeDateTime("2026-01-01T10:00:30"))
	assert.Equal(t, "garbage", normalizeDateTime("garbage"))
}
