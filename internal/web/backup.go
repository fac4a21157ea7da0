package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/dbconsole/dbconsole/internal/model"
)

type backupData struct {
	History string
}

func (s *Server) backupPage(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	history, err := s.client.BackupHistory(r.Context())
	if err != nil {
		v.warn("Could not load backup history", err)
	}
	s.render(v, http.StatusOK, "backup", "Backup and Restore", backupData{History: history})
}

func (s *Server) runBackup(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/backup") {
		return
	}
	msg, err := s.client.RunBackup(r.Context(), v.checked("incremental"))
	s.finish(v, "backup", "run", "/backup", "Backup completed", msg, err)
}

// normalizeDateTime accepts the minute precision a datetime-local input
// produces and pads it to seconds.
func normalizeDateTime(s string) string {
	if _, err := time.Parse("2006-01-02T15:04", s); err == nil {
		return s + ":00"
	}
	return s
}

func (s *Server) restoreBackup(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/backup") {
		return
	}

	date := v.form("restoreDate")
	if date == "" {
		s.reject(v, "backup", "restore", "/backup", errors.New("please enter a valid restore date"))
		return
	}
	date = normalizeDateTime(date)
	if err := model.ValidateRestoreDate(date); err != nil {
		s.reject(v, "backup", "restore", "/backup", err)
		return
	}

	msg, err := s.client.Restore(r.Context(), date)
	s.finish(v, "backup", "restore", "/backup", "Database restored", msg, err)
}

func (s *Server) scheduleBackup(w http.ResponseWriter, r *http.Request) {
	v := s.open(w, r)
	if !v.parseForm("/backup") {
		return
	}

	when := v.form("dateTime")
	if when == "" {
		s.reject(v, "backup", "schedule", "/backup", errors.New("please select a date and time"))
		return
	}
	msg, err := s.client.ScheduleBackup(r.Context(), normalizeDateTime(when), v.checked("incremental"))
	s.finish(v, "backup", "schedule", "/backup", "Backup scheduled", msg, err)
}
