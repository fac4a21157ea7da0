package model

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError reports a field rejected before submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

var (
	usernamePattern    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_$#]*$`)
	quotaPattern       = regexp.MustCompile(`^[0-9]+(MB|GB)$`)
	restoreDatePattern = regexp.MustCompile(`^(?:19|20)\d{2}-(?:0[1-9]|1[0-2])-(?:0[1-9]|[12][0-9]|3[01])T(?:[01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9]$`)
	portPattern        = regexp.MustCompile(`^[0-9]{1,5}$`)
)

// Validate checks the fields required to create a connection.
func (c Connection) Validate() error {
	var errs []error
	if strings.TrimSpace(c.IP) == "" {
		errs = append(errs, invalid("ip", "is required"))
	}
	if c.Port == "" {
		errs = append(errs, invalid("port", "is required"))
	} else if !portPattern.MatchString(c.Port) {
		errs = append(errs, invalid("port", "must be numeric"))
	}
	if strings.TrimSpace(c.ServiceName) == "" {
		errs = append(errs, invalid("serviceName", "is required"))
	}
	if strings.TrimSpace(c.Username) == "" {
		errs = append(errs, invalid("username", "is required"))
	}
	if c.Password == "" {
		errs = append(errs, invalid("password", "is required"))
	}
	return errors.Join(errs...)
}

// Validate checks a new user against the naming and quota rules.
func (u User) Validate() error {
	var errs []error
	if !usernamePattern.MatchString(u.Username) {
		errs = append(errs, invalid("username", "must start with a letter and contain only letters, numbers, _, $, or #"))
	}
	if u.Password == "" {
		errs = append(errs, invalid("password", "is required"))
	}
	if strings.TrimSpace(u.Role) == "" {
		errs = append(errs, invalid("role", "is required"))
	}
	if !quotaPattern.MatchString(u.Quota) {
		errs = append(errs, invalid("quota", "must look like 100MB or 1GB"))
	}
	if strings.TrimSpace(u.DefaultTablespace) == "" {
		errs = append(errs, invalid("defaultTablespace", "is required"))
	}
	if strings.TrimSpace(u.TemporaryTablespace) == "" {
		errs = append(errs, invalid("temporaryTablespace", "is required"))
	}
	return errors.Join(errs...)
}

// Validate checks the fields required to create a tablespace.
func (t Tablespace) Validate() error {
	var errs []error
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, invalid("name", "is required"))
	}
	if strings.TrimSpace(t.DataFilePath) == "" {
		errs = append(errs, invalid("dataFilePath", "is required"))
	}
	if strings.TrimSpace(t.Size) == "" {
		errs = append(errs, invalid("size", "is required"))
	}
	if t.AutoExtend && strings.TrimSpace(t.IncrementSize) == "" {
		errs = append(errs, invalid("incrementSize", "is required when autoextend is on"))
	}
	return errors.Join(errs...)
}

// ValidateRestoreDate checks the point-in-time restore format YYYY-MM-DDTHH:MM:SS.
func ValidateRestoreDate(s string) error {
	if s == "" {
		return invalid("restoreDate", "is required")
	}
	if !restoreDatePattern.MatchString(s) {
		return invalid("restoreDate", "must be in the format YYYY-MM-DDTHH:MM:SS")
	}
	return nil
}

// ValidateEncryptionAlgorithm checks the TDE algorithm against the supported list.
func ValidateEncryptionAlgorithm(alg string) error {
	if !slices.Contains(EncryptionAlgorithms, alg) {
		return invalid("encryptionAlgorithm", "must be one of "+strings.Join(EncryptionAlgorithms, ", "))
	}
	return nil
}

// ValidateReportKind checks that k names a known report.
func ValidateReportKind(k ReportKind) error {
	if k != ReportAWR && k != ReportASH {
		return invalid("report", fmt.Sprintf("unknown report type %q", k))
	}
	return nil
}
