package web

import (
	"errors"
	"net/http"

	"github.com/dbconsole/dbconsole/internal/model"
)

type securityData struct {
	Algorithms []string
}

func (s *Server) securityPage(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if v.store.ActiveConnection() == nil {
		s.render(v, http.StatusOK, "security", "Security Management", nil)
		return
	}
	s.render(v, http.StatusOK, "security", "Security Management", securityData{Algorithms: model.EncryptionAlgorithms})
}

func (s *Server) configureTDE(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/security") {
		return
	}
	target := v.target()
	if target == nil {
		v.redirect("/")
		return
	}

	tablespace := v.form("tablespaceName")
	algorithm := v.form("encryptionAlgorithm")
	var errs []error
	if tablespace == "" {
		errs = append(errs, errors.New("tablespace name is required"))
	}
	if err := model.ValidateEncryptionAlgorithm(algorithm); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		s.reject(v, "security", "tde", "/security", err)
		return
	}

	msg, err := s.client.ConfigureTDE(r.Context(), *target, tablespace, algorithm)
	s.finish(v, "security", "tde", "/security", "Encryption configured", msg, err)
}
