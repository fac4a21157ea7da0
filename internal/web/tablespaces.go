package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dbconsole/dbconsole/internal/model"
)

type tablespacesData struct {
	Tablespaces []model.TablespaceInfo
}

type tablespaceData struct {
	Name    string
	Files   []model.TablespaceFileUsage
	TotalMB float64
	MaxMB   float64
}

func (s *Server) tablespacesPage(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	target := v.store.ActiveConnection()
	if target == nil {
		s.render(v, http.StatusOK, "tablespaces", "Tablespace Management", nil)
		return
	}

	list, err := s.client.ListTablespaces(r.Context(), *target)
	if err != nil {
		v.warn("Could not load tablespaces", err)
	}
	s.render(v, http.StatusOK, "tablespaces", "Tablespace Management", tablespacesData{Tablespaces: list})
}

func (s *Server) tablespaceDetail(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	name := mux.Vars(r)["name"]
	target := v.store.ActiveConnection()
	if target == nil {
		s.render(v, http.StatusOK, "tablespace", name, nil)
		return
	}

	files, err := s.client.TablespaceFileUsage(r.Context(), *target, name)
	if err != nil {
		v.warn("Could not load file usage", err)
	}
	data := tablespaceData{Name: name, Files: files}
	for _, f := range files {
		data.TotalMB += f.SizeMB
		data.MaxMB += f.MaxSizeMB
	}
	s.render(v, http.StatusOK, "tablespace", "Tablespace "+name, data)
}

func (s *Server) createTablespace(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/tablespaces") {
		return
	}
	target := v.target()
	if target == nil {
		v.redirect("/")
		return
	}

	ts := model.Tablespace{
		Name:          v.form("name"),
		DataFilePath:  v.form("dataFilePath"),
		Size:          v.form("size"),
		MaxSize:       v.form("maxSize"),
		AutoExtend:    v.checked("autoExtend"),
		IncrementSize: v.form("incrementSize"),
	}
	if err := ts.Validate(); err != nil {
		s.reject(v, "tablespaces", "create", "/tablespaces", err)
		return
	}

	msg, err := s.client.CreateTablespace(r.Context(), *target, ts)
	s.finish(v, "tablespaces", "create", "/tablespaces", "Tablespace created", msg, err)
}

func (s *Server) deleteTablespace(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/tablespaces") {
		return
	}
	target := v.target()
	if target == nil {
		v.redirect("/")
		return
	}

	name := mux.Vars(r)["name"]
	msg, err := s.client.DeleteTablespace(r.Context(), *target, name, v.checked("includingContents"))
	s.finish(v, "tablespaces", "delete", "/tablespaces", "Tablespace deleted", msg, err)
}
