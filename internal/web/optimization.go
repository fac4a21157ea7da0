package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dbconsole/dbconsole/internal/client"
	"github.com/dbconsole/dbconsole/internal/model"
)

// maxTuneBatch bounds how many statements one tuning request may analyse.
const maxTuneBatch = 10

type tuneOutcome struct {
	SQLID  string
	Result *model.TuningResult
	Error  string
}

type optimizationData struct {
	Filter  string
	Queries []model.SlowQuery
	Total   int
	Tuned   []tuneOutcome
}

func (s *Server) loadSlowQueries(v *visit, target model.Connection, filter string) optimizationData {
	data := optimizationData{Filter: filter}
	queries, err := s.client.SlowQueries(v.r.Context(), target)
	if err != nil {
		v.warn("Could not load slow queries", err)
	}
	data.Total = len(queries)
	data.Queries = model.FilterSlowQueries(queries, filter)
	return data
}

func (s *Server) optimizationPage(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	target := v.store.ActiveConnection()
	if target == nil {
		s.render(v, http.StatusOK, "optimization", "Optimization", nil)
		return
	}
	s.render(v, http.StatusOK, "optimization", "Optimization", s.loadSlowQueries(v, *target, r.URL.Query().Get("q")))
}

// tuneQueries runs the tuning advisor and renders its output directly. There
// is nothing to re-fetch afterwards, so this action does not redirect.
func (s *Server) tuneQueries(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/optimization") {
		return
	}
	target := v.target()
	if target == nil {
		v.redirect("/")
		return
	}

	ids := uniqueNonEmpty(v.r.PostForm["sqlId"])
	switch {
	case len(ids) == 0:
		s.reject(v, "optimization", "tune", "/optimization", errors.New("select at least one statement to tune"))
		return
	case len(ids) > maxTuneBatch:
		s.reject(v, "optimization", "tune", "/optimization", errors.New("too many statements selected"))
		return
	}

	var failed error
	tuned := make([]tuneOutcome, 0, len(ids))
	for _, id := range ids {
		res, err := s.client.TuneQuery(r.Context(), *target, id)
		out := tuneOutcome{SQLID: id, Result: res}
		if err != nil {
			out.Error = client.Message(err)
			failed = err
		}
		tuned = append(tuned, out)
	}
	if s.metrics != nil {
		s.metrics.PageAction("optimization", "tune", failed)
	}

	data := s.loadSlowQueries(v, *target, v.form("q"))
	data.Tuned = tuned
	s.render(v, http.StatusOK, "optimization", "Optimization", data)
}

func uniqueNonEmpty(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
