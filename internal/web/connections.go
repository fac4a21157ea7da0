package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/dbconsole/dbconsole/internal/client"
	"github.com/dbconsole/dbconsole/internal/model"
)

type connectionRow struct {
	model.Connection
	Status  string
	Active  bool
	Created time.Time
}

type connectionsData struct {
	ClientID string
	Rows     []connectionRow
	Total    int
	Passing  int
	Failing  int
}

func (s *Server) connectionsPage(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	clientID := v.clientID()

	data := connectionsData{ClientID: clientID}
	conns, err := s.client.ListClientConnections(r.Context(), clientID)
	if err != nil {
		v.warn("Could not load connections", err)
	}

	statuses := v.connectionStatuses()
	for _, c := range conns {
		row := connectionRow{
			Connection: c.Redacted(),
			Status:     c.Status,
			Active:     v.store.IsActive(c),
			Created:    c.Created(),
		}
		if st, ok := statuses[c.ConnectionName]; ok {
			row.Status = st
		}
		switch row.Status {
		case model.StatusSuccess:
			data.Passing++
		case model.StatusFailed:
			data.Failing++
		}
		data.Rows = append(data.Rows, row)
	}
	data.Total = len(data.Rows)

	s.render(v, http.StatusOK, "connections", "Dashboard", data)
}

func (s *Server) createConnection(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/") {
		return
	}

	conn := model.Connection{
		ConnectionName: v.form("connectionName"),
		IP:             v.form("ip"),
		Port:           v.form("port"),
		ServiceName:    v.form("serviceName"),
		Username:       v.form("username"),
		Password:       v.r.PostFormValue("password"),
		ClientID:       v.clientID(),
	}
	if conn.ConnectionName == "" {
		conn.ConnectionName = model.DefaultConnectionName(time.Now())
	}
	if err := conn.Validate(); err != nil {
		s.reject(v, "connections", "create", "/", err)
		return
	}

	created, err := s.client.CreateConnection(r.Context(), conn)
	msg := ""
	if err == nil {
		name := conn.ConnectionName
		if created != nil && created.ConnectionName != "" {
			name = created.ConnectionName
		}
		msg = "Connection " + name + " saved."
		if v.checked("activate") {
			if created == nil || created.IP == "" {
				created = &conn
			}
			if err := v.store.SetActiveConnection(*created); err != nil {
				slog.Error("setting active connection", "err", err)
			}
		}
	}
	s.finish(v, "connections", "create", "/", "Connection created", msg, err)
}

// ownedConnection fetches a connection and checks it belongs to this browser.
func (s *Server) ownedConnection(v *visit, name string) (*model.Connection, error) {
	conn, err := s.client.GetConnection(v.r.Context(), name)
	if err != nil {
		return nil, err
	}
	if conn.ClientID != "" && conn.ClientID != v.clientID() {
		return nil, &client.Error{Op: "connections.get", Status: http.StatusNotFound, Message: "connection " + name + " not found"}
	}
	return conn, nil
}

func (s *Server) activateConnection(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	name := mux.Vars(r)["name"]

	conn, err := s.ownedConnection(v, name)
	if err == nil {
		err = v.store.SetActiveConnection(*conn)
	}
	s.finish(v, "connections", "activate", "/", "Active connection set", name+" is now the active connection.", err)
}

func (s *Server) testConnection(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	name := mux.Vars(r)["name"]

	conn, err := s.ownedConnection(v, name)
	if err != nil {
		s.finish(v, "connections", "test", "/", "", "", err)
		return
	}

	result, err := s.client.TestConnection(r.Context(), *conn)
	status := model.StatusFailed
	if err == nil && strings.EqualFold(strings.TrimSpace(result), model.StatusSuccess) {
		status = model.StatusSuccess
	}
	v.setConnectionStatus(name, status)

	if s.metrics != nil {
		s.metrics.PageAction("connections", "test", err)
	}
	switch {
	case err != nil:
		v.flash(toastError, "Connection test failed", client.Message(err))
	case status == model.StatusSuccess:
		v.flash(toastSuccess, "Connection OK", name+" answered.")
	default:
		v.flash(toastError, "Connection test failed", name+": "+result)
	}
	v.redirect("/")
}

func (s *Server) deleteConnection(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/") {
		return
	}
	id := mux.Vars(r)["id"]
	name := v.form("connectionName")

	msg, err := s.client.DeleteConnection(r.Context(), id)
	if err == nil {
		if v.store.IsActive(model.Connection{ID: id, ConnectionName: name}) {
			if cerr := v.store.ClearActiveConnection(); cerr != nil {
				slog.Error("clearing active connection", "err", cerr)
			}
		}
		if name != "" {
			v.setConnectionStatus(name, "")
		}
	}
	s.finish(v, "connections", "delete", "/", "Connection deleted", msg, err)
}

func (s *Server) clearActiveConnection(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	err := v.store.ClearActiveConnection()
	s.finish(v, "connections", "clear_active", "/", "Active connection cleared", "", err)
}
