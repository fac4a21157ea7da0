package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dbconsole/dbconsole/internal/model"
)

type usersData struct {
	Users []model.User
}

func (s *Server) usersPage(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	target := v.store.ActiveConnection()
	if target == nil {
		s.render(v, http.StatusOK, "users", "User Management", nil)
		return
	}

	users, err := s.client.ListUsers(r.Context(), *target)
	if err != nil {
		v.warn("Could not load users", err)
	}
	s.render(v, http.StatusOK, "users", "User Management", usersData{Users: users})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/users") {
		return
	}
	target := v.target()
	if target == nil {
		v.redirect("/")
		return
	}

	u := model.User{
		Username:            v.form("username"),
		Password:            v.r.PostFormValue("password"),
		Role:                v.form("role"),
		Quota:               v.form("quota"),
		DefaultTablespace:   v.form("defaultTablespace"),
		TemporaryTablespace: v.form("temporaryTablespace"),
	}
	if err := u.Validate(); err != nil {
		s.reject(v, "users", "create", "/users", err)
		return
	}

	msg, err := s.client.CreateUser(r.Context(), *target, u)
	s.finish(v, "users", "create", "/users", "User created", msg, err)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	target := v.target()
	if target == nil {
		v.redirect("/")
		return
	}

	name := mux.Vars(r)["name"]
	msg, err := s.client.DeleteUser(r.Context(), *target, name)
	s.finish(v, "users", "delete", "/users", "User deleted", msg, err)
}
