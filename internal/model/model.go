// Package model holds the records exchanged with the administration backend.
package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Connection identifies one target database instance.
type Connection struct {
	ID             string `json:"id,omitempty"`
	ConnectionName string `json:"connectionName"`
	ClientID       string `json:"clientId"`
	IP             string `json:"ip"`
	Port           string `json:"port"`
	ServiceName    string `json:"serviceName"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Status         string `json:"status,omitempty"`
	Role           string `json:"role,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// Connection test outcomes stored in Connection.Status.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Values encodes the connection as query parameters, skipping empty fields.
// The backend uses them to route the call to the right database.
func (c Connection) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("id", c.ID)
	set("connectionName", c.ConnectionName)
	set("clientId", c.ClientID)
	set("ip", c.IP)
	set("port", c.Port)
	set("serviceName", c.ServiceName)
	set("username", c.Username)
	set("password", c.Password)
	set("status", c.Status)
	set("role", c.Role)
	set("createdAt", c.CreatedAt)
	return v
}

// Redacted returns a copy of the Connection with the password masked.
func (c Connection) Redacted() Connection {
	r := c
	if r.Password != "" {
		r.Password = "***REDACTED***"
	}
	return r
}

// Address returns host:port/service for display.
func (c Connection) Address() string {
	return fmt.Sprintf("%s:%s/%s", c.IP, c.Port, c.ServiceName)
}

// Created parses CreatedAt. The zero time is returned when it is missing or
// in a format the backend does not usually emit.
func (c Connection) Created() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, c.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DefaultConnectionName is used when a connection is created without a name.
func DefaultConnectionName(now time.Time) string {
	return "conn-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Role is a database role with its granted privileges.
type Role struct {
	Name             string   `json:"name"`
	SystemPrivileges []string `json:"system_privilege,omitempty"`
	ObjectPrivileges []string `json:"object_privilege,omitempty"`
	TableNames       []string `json:"table_names,omitempty"`
}

// User is a database account.
type User struct {
	Username            string `json:"username"`
	Password            string `json:"password,omitempty"`
	Role                string `json:"role,omitempty"`
	Quota               string `json:"quota,omitempty"`
	DefaultTablespace   string `json:"defaultTablespace,omitempty"`
	TemporaryTablespace string `json:"temporaryTablespace,omitempty"`
}

// Values encodes the user as query parameters for the create call.
func (u User) Values() url.Values {
	v := url.Values{}
	v.Set("username", u.Username)
	if u.Password != "" {
		v.Set("password", u.Password)
	}
	if u.Role != "" {
		v.Set("role", u.Role)
	}
	if u.Quota != "" {
		v.Set("quota", u.Quota)
	}
	if u.DefaultTablespace != "" {
		v.Set("defaultTablespace", u.DefaultTablespace)
	}
	if u.TemporaryTablespace != "" {
		v.Set("temporaryTablespace", u.TemporaryTablespace)
	}
	return v
}

// Tablespace is the create request for a tablespace.
type Tablespace struct {
	Name          string `json:"name"`
	DataFilePath  string `json:"dataFilePath"`
	Size          string `json:"size"`
	MaxSize       string `json:"maxSize,omitempty"`
	AutoExtend    bool   `json:"autoExtend"`
	IncrementSize string `json:"incrementSize,omitempty"`
}

// TablespaceInfo is one row of the tablespace listing.
type TablespaceInfo struct {
	Name                   string `json:"name"`
	Contents               string `json:"contents,omitempty"`
	Status                 string `json:"status,omitempty"`
	BlockSize              int64  `json:"block_size,omitempty"`
	InitialExtent          int64  `json:"initial_extent,omitempty"`
	NextExtent             int64  `json:"next_extent,omitempty"`
	ExtentManagement       string `json:"extent_management,omitempty"`
	AllocationType         string `json:"allocation_type,omitempty"`
	SegmentSpaceManagement string `json:"segment_space_management,omitempty"`
}

// TablespaceFileUsage describes one data file of a tablespace.
type TablespaceFileUsage struct {
	FileName       string  `json:"file_name"`
	SizeMB         float64 `json:"size_mb"`
	MaxSizeMB      float64 `json:"max_size_mb"`
	AutoExtensible string  `json:"autoextensible"`
}

// SlowQuery is one entry of the slow query report.
type SlowQuery struct {
	SQLID              string  `json:"sqlId"`
	ExecutionTime      float64 `json:"executionTime"`
	QueryText          string  `json:"queryText"`
	NumberOfExecutions int64   `json:"numberOfExecutions"`
	LastExecutionTime  string  `json:"lastExecutionTime"`
}

// FilterSlowQueries keeps queries whose sql id or text contains filter,
// ignoring case.
func FilterSlowQueries(queries []SlowQuery, filter string) []SlowQuery {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return queries
	}
	var out []SlowQuery
	for _, q := range queries {
		if strings.Contains(strings.ToLower(q.SQLID), filter) ||
			strings.Contains(strings.ToLower(q.QueryText), filter) {
			out = append(out, q)
		}
	}
	return out
}

// TuningResult is the tuning advisor output for one statement.
type TuningResult struct {
	SQLID                     string   `json:"sqlId"`
	Recommendations           []string `json:"recommendations"`
	ExecutionPlanImprovements []string `json:"executionPlanImprovements"`
}

// ReportKind selects a performance report.
type ReportKind string

const (
	ReportAWR ReportKind = "awr"
	ReportASH ReportKind = "ash"
)

// Filename is the suggested download name for the report.
func (k ReportKind) Filename() string {
	switch k {
	case ReportAWR:
		return "AWR_Report.txt"
	case ReportASH:
		return "ASH_Report.txt"
	}
	return string(k) + "_Report.txt"
}

// EncryptionAlgorithms lists the TDE algorithms offered by the security page.
var EncryptionAlgorithms = []string{"AES128", "AES192", "AES256"}
