package web

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dbconsole/dbconsole/internal/model"
)

type reportLink struct {
	Kind        model.ReportKind
	Title       string
	Description string
}

type monitoringData struct {
	Reports    []reportLink
	BackendURL string
}

var reports = []reportLink{
	{model.ReportAWR, "AWR Report", "Automatic Workload Repository snapshot comparison."},
	{model.ReportASH, "ASH Report", "Active Session History for recent activity."},
}

func (s *Server) monitoringPage(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	s.render(v, http.StatusOK, "monitoring", "Performance Monitoring", monitoringData{
		Reports:    reports,
		BackendURL: s.client.BaseURL(),
	})
}

// downloadReport streams a report from the backend to the browser.
func (s *Server) downloadReport(w http.ResponseWriter, r *http.Request) {
	kind := model.ReportKind(mux.Vars(r)["type"])

	action := "report_" + string(kind)

	rep, err := s.client.Report(r.Context(), kind)
	if err != nil {
		s.finish(s.open(w, r), "monitoring", action, "/monitoring", "", "", err)
		return
	}
	defer rep.Body.Close()
	if s.metrics != nil {
		s.metrics.PageAction("monitoring", action, nil)
	}

	w.Header().Set("Content-Type", rep.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Filename))
	if _, err := io.Copy(w, rep.Body); err != nil {
		slog.Warn("report download interrupted", "kind", kind, "err", err)
	}
}
