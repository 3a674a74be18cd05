package config

import (
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
)

// Validation errors for configuration fields.
var (
	// ErrUnsupportedVersion indicates a version this build does not understand.
	ErrUnsupportedVersion = errors.New("unsupported config version")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidValue indicates a value outside its allowed range.
	ErrInvalidValue = errors.New("invalid value")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of field errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, &FieldError{Field: "version", Value: strconv.Itoa(cfg.Version), Err: ErrUnsupportedVersion})
	}

	for _, name := range cfg.Backends {
		if _, err := snapshot.ParseBackend(name); err != nil {
			errs = append(errs, &FieldError{Field: "backends", Value: name, Err: errors.ErrInvalidBackend})
		}
	}

	if cfg.Retention < 1 {
		errs = append(errs, &FieldError{Field: "retention", Value: strconv.Itoa(cfg.Retention), Err: ErrInvalidValue})
	}

	if strings.TrimSpace(cfg.Host) == "" {
		errs = append(errs, &FieldError{Field: "host", Value: cfg.Host, Err: ErrInvalidValue})
	}

	for field, p := range map[string]string{"archive_dir": cfg.ArchiveDir, "profile": cfg.Profile} {
		if err := validatePath(p); err != nil {
			errs = append(errs, &FieldError{Field: field, Value: p, Err: err})
		}
	}

	if cfg.Browser.RemoteURL != "" {
		if err := validateRemoteURL(cfg.Browser.RemoteURL); err != nil {
			errs = append(errs, &FieldError{Field: "browser.remote_url", Value: cfg.Browser.RemoteURL, Err: err})
		}
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists. Empty means "use default".
func validatePath(path string) error {
	if path == "" {
		return nil
	}
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}
	if cleaned := filepath.Clean(path); cleaned == "." {
		return ErrInvalidPath
	}
	return nil
}

func validateRemoteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidValue
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
		return nil
	default:
		return ErrInvalidValue
	}
}

// FieldError represents an error for a specific configuration field.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error() + ": " + strconv.Quote(e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
