package domain

import (
	"errors"
	"fmt"
)

// Domain error types
type (
	// NotFoundError indicates a note was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input to a top-level entry point
	ValidationError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

// Is allows errors.Is() to match against the sentinels
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("already exists")
	ErrValidation  = errors.New("validation failed")
	ErrUnsupported = errors.New("unsupported content type")
)

// ConflictError represents a note whose id is already taken by a note with
// different content
type ConflictError struct {
	Message    string
	ResourceID string // ID of the existing note
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// UnsupportedTypeError reports content that no codec can read.
// Name is the file name, when there is one.
type UnsupportedTypeError struct {
	Name     string
	MimeType string
}

func (e *UnsupportedTypeError) Error() string {
	switch {
	case e.Name != "" && e.MimeType != "":
		return fmt.Sprintf("%s: unsupported type %q", e.Name, e.MimeType)
	case e.Name != "":
		return fmt.Sprintf("%s: unsupported type", e.Name)
	}
	return fmt.Sprintf("unsupported type %q", e.MimeType)
}

// Is allows errors.Is() to match against ErrUnsupported
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupported
}
