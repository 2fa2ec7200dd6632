package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the closed set of archival failure classes. Callers switch on
// Kind instead of inspecting error types.
type ErrorKind string

const (
	// ValidationFailed: a pre-flight safety check failed. No side effects.
	ValidationFailed ErrorKind = "validation_failed"
	// CopyFailed: I/O failure while duplicating files. Rolled back.
	CopyFailed ErrorKind = "copy_failed"
	// ConfigurationError: archive root not creatable or not writable.
	ConfigurationError ErrorKind = "configuration_error"
	// IntegrityFailed: post-copy verification mismatch. Rolled back.
	IntegrityFailed ErrorKind = "integrity_failed"
	// CleanupFailed: original removal failed after a valid, indexed archive
	// already exists. Partial success; the archive is NOT rolled back.
	CleanupFailed ErrorKind = "cleanup_failed"
)

// ArchiveError is the single error family for archival operations. Every
// variant carries the machine-readable Kind and the offending spec path.
type ArchiveError struct {
	Kind     ErrorKind `json:"kind"`
	SpecPath string    `json:"spec_path"`
	Issues   []string  `json:"issues,omitempty"`
	Err      error     `json:"-"`
}

func (e *ArchiveError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.SpecPath)
	if len(e.Issues) > 0 {
		msg += ": " + strings.Join(e.Issues, "; ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// NewArchiveError builds an ArchiveError wrapping cause.
func NewArchiveError(kind ErrorKind, specPath string, cause error, issues ...string) *ArchiveError {
	return &ArchiveError{Kind: kind, SpecPath: specPath, Issues: issues, Err: cause}
}

// AsArchiveError extracts an ArchiveError from an error chain.
func AsArchiveError(err error) (*ArchiveError, bool) {
	var ae *ArchiveError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsKind reports whether err is an ArchiveError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	ae, ok := AsArchiveError(err)
	return ok && ae.Kind == kind
}
