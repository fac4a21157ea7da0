package client

import (
	"context"
	"net/http"

	"github.com/dbconsole/dbconsole/internal/model"
)

// RunBackup starts a full or incremental backup.
func (c *Client) RunBackup(ctx context.Context, incremental bool) (string, error) {
	body, err := c.do(ctx, request{
		op:       "backup.run",
		method:   http.MethodPost,
		path:     "/backup/run",
		body:     map[string]bool{"incremental": incremental},
		fallback: "backup failed",
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}

// BackupHistory returns the backend's backup log as text.
func (c *Client) BackupHistory(ctx context.Context) (string, error) {
	body, err := c.do(ctx, request{
		op:       "backup.history",
		method:   http.MethodGet,
		path:     "/backup/history",
		fallback: "failed to fetch backup history",
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}

// Restore performs a point-in-time restore. restoreDate must be
// YYYY-MM-DDTHH:MM:SS.
func (c *Client) Restore(ctx context.Context, restoreDate string) (string, error) {
	const op = "backup.restore"
	if err := model.ValidateRestoreDate(restoreDate); err != nil {
		return "", &Error{Op: op, Message: err.Error(), Err: err}
	}
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodPost,
		path:     "/restore",
		body:     map[string]string{"restoreDate": restoreDate},
		fallback: "database restore failed",
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}

// ScheduleBackup schedules a backup at dateTime.
func (c *Client) ScheduleBackup(ctx context.Context, dateTime string, incremental bool) (string, error) {
	body, err := c.do(ctx, request{
		op:     "backup.schedule",
		method: http.MethodPost,
		path:   "/api/schedule/configure",
		body: struct {
			DateTime      string `json:"dateTime"`
			IsIncremental bool   `json:"isIncremental"`
		}{dateTime, incremental},
		fallback: "failed to schedule backup",
	})
	if err != nil {
		return "", err
	}
	return decodeMessage(body), nil
}
