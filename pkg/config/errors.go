package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound indicates the configuration file was not found.
	// Not fatal: the loader falls back to built-in defaults.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidYAML indicates YAML parsing failed.
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// ErrValidationFailed indicates configuration validation failed.
	ErrValidationFailed = errors.New("configuration validation failed")

	// ErrSourceNotFound indicates an OSINT source name was referenced but
	// never registered.
	ErrSourceNotFound = errors.New("OSINT source not found")
)

// ValidationError wraps a single configuration validation failure with
// enough context (component + field) to report a precise error without
// the caller needing to parse the message.
type ValidationError struct {
	Component string // e.g. "tier", "osint_source", "site_type_weights"
	ID        string // the offending entry's identifying name
	Field     string // optional field name
	Err       error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %q: field %q: %v", e.Component, e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Component, e.ID, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
