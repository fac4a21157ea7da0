package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dbconsole/dbconsole/internal/client"
	"github.com/dbconsole/dbconsole/internal/model"
)

// objectGrant pairs an object privilege with the table it applies to. The
// backend returns the two as parallel lists.
type objectGrant struct {
	Privilege string
	Table     string
}

type roleRow struct {
	Name    string
	System  []string
	Objects []objectGrant
}

type rolesData struct {
	Roles []roleRow
}

func roleRows(roles []model.Role) []roleRow {
	rows := make([]roleRow, 0, len(roles))
	for _, r := range roles {
		row := roleRow{Name: r.Name, System: r.SystemPrivileges}
		for i, p := range r.ObjectPrivileges {
			g := objectGrant{Privilege: p}
			if i < len(r.TableNames) {
				g.Table = r.TableNames[i]
			}
			row.Objects = append(row.Objects, g)
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Server) rolesPage(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	target := v.store.ActiveConnection()
	if target == nil {
		s.render(v, http.StatusOK, "roles", "Role Management", nil)
		return
	}

	roles, err := s.client.ListRoles(r.Context(), *target)
	if err != nil {
		v.warn("Could not load roles", err)
	}
	s.render(v, http.StatusOK, "roles", "Role Management", rolesData{Roles: roleRows(roles)})
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/roles") {
		return
	}
	target := v.target()
	if target == nil {
		v.redirect("/")
		return
	}

	name := v.form("roleName")
	if name == "" {
		s.reject(v, "roles", "create", "/roles", errors.New("role name is required"))
		return
	}
	msg, err := s.client.CreateRole(r.Context(), *target, name)
	s.finish(v, "roles", "create", "/roles", "Role created", msg, err)
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	target := v.target()
	if target == nil {
		v.redirect("/")
		return
	}

	msg, err := s.client.DeleteRole(r.Context(), *target, mux.Vars(r)["name"])
	s.finish(v, "roles", "delete", "/roles", "Role deleted", msg, err)
}

// privilegeForm reads the grant/revoke fields shared by both actions.
func (v *visit) privilegeForm() (kind client.PrivilegeKind, privilege, table string, err error) {
	kind = client.PrivilegeKind(v.form("type"))
	privilege = v.form("privilege")
	table = v.form("tableName")

	switch {
	case kind != client.SystemPrivilege && kind != client.ObjectPrivilege:
		err = errors.New("privilege type must be system or object")
	case privilege == "":
		err = errors.New("privilege is required")
	case kind == client.ObjectPrivilege && table == "":
		err = errors.New("table name is required for an object privilege")
	}
	return kind, privilege, table, err
}

func (s *Server) grantPrivilege(w http.ResponseWriter, r *http.Request) {
	s.privilegeAction(w, r, "grant", "Privilege granted", s.client.Grant)
}

func (s *Server) revokePrivilege(w http.ResponseWriter, r *http.Request) {
	s.privilegeAction(w, r, "revoke", "Privilege revoked", s.client.Revoke)
}

type privilegeFunc func(ctx context.Context, target model.Connection, kind client.PrivilegeKind, role, privilege, table string) (string, error)

func (s *Server) privilegeAction(w http.ResponseWriter, r *http.Request, action, title string, call privilegeFunc) {
	v := s.open(w, r)
	if !v.parseForm("/roles") {
		return
	}
	target := v.target()
	if target == nil {
		v.redirect("/")
		return
	}

	kind, privilege, table, err := v.privilegeForm()
	if err != nil {
		s.reject(v, "roles", action, "/roles", err)
		return
	}
	msg, err := call(r.Context(), *target, kind, mux.Vars(r)["name"], privilege, table)
	s.finish(v, "roles", action, "/roles", title, msg, err)
}
