package web

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/sessions"

	"github.com/dbconsole/dbconsole/internal/config"
)

// Toast is a one-shot notification shown on the next rendered page.
type Toast struct {
	Kind    string
	Title   string
	Message string
}

const (
	toastSuccess = "success"
	toastError   = "error"
	toastInfo    = "info"
)

// keyConnectionStatus holds the outcome of the latest test per connection
// name. The backend does not persist it.
const keyConnectionStatus = "connectionStatus"

func init() {
	gob.Register(Toast{})
}

// maxSessionSize bounds the encoded session file. Saves beyond it fail and
// the request is answered with an error instead of dropping the state.
const maxSessionSize = 64 << 10

// sessionSecret returns the configured secret, or a random one when none is
// set, which means sessions do not survive a restart.
func sessionSecret(cfg config.SessionConfig) string {
	if cfg.Secret != "" {
		return cfg.Secret
	}
	buf := make([]byte, 32)
	rand.Read(buf)
	slog.Warn("session.secret not configured, using an ephemeral key; active connections reset on restart")
	return hex.EncodeToString(buf)
}

// newSessionStore builds the encrypted session store that stands in for
// browser local storage. The cookie only names the session; its values live
// in files under cfg.Dir. Both keys are derived from secret so any passphrase
// works.
func newSessionStore(cfg config.SessionConfig, secret string, tls bool) (*sessions.FilesystemStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}

	hashKey := sha256.Sum256([]byte("dbconsole-auth:" + secret))
	blockKey := sha256.Sum256([]byte("dbconsole-enc:" + secret))

	fs := sessions.NewFilesystemStore(cfg.Dir, hashKey[:], blockKey[:])
	fs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure || tls,
		SameSite: http.SameSiteLaxMode,
	}
	fs.MaxAge(fs.Options.MaxAge)
	fs.MaxLength(maxSessionSize)
	return fs, nil
}

// sessionStorage adapts a session to store.Storage. Values live in the
// session until the handler saves it, which happens once per response.
type sessionStorage struct {
	sess *sessions.Session
}

func (s *sessionStorage) Get(key string) (string, bool, error) {
	v, ok := s.sess.Values[key]
	if !ok {
		return "", false, nil
	}
	str, ok := v.(string)
	if !ok {
		// Written by something else; treat as absent so it gets replaced.
		return "", false, nil
	}
	return str, true, nil
}

func (s *sessionStorage) Set(key, value string) error {
	s.sess.Values[key] = value
	return nil
}

func (s *sessionStorage) Remove(key string) error {
	delete(s.sess.Values, key)
	return nil
}

func (v *visit) connectionStatuses() map[string]string {
	out := map[string]string{}
	raw, _ := v.sess.Values[keyConnectionStatus].(string)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			delete(v.sess.Values, keyConnectionStatus)
			return map[string]string{}
		}
	}
	return out
}

func (v *visit) setConnectionStatus(name, status string) {
	statuses := v.connectionStatuses()
	if status == "" {
		delete(statuses, name)
	} else {
		statuses[name] = status
	}
	if len(statuses) == 0 {
		delete(v.sess.Values, keyConnectionStatus)
		return
	}
	data, _ := json.Marshal(statuses)
	v.sess.Values[keyConnectionStatus] = string(data)
}

func (v *visit) flash(kind, title, msg string) {
	v.sess.AddFlash(Toast{Kind: kind, Title: title, Message: msg})
}

func (v *visit) toasts() []Toast {
	var out []Toast
	for _, f := range v.sess.Flashes() {
		if t, ok := f.(Toast); ok {
			out = append(out, t)
		}
	}
	return out
}
