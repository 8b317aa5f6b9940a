package infer

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedImage = errors.New("malformed image")
	ErrMissingField   = errors.New("missing field")
	// ErrInvalidIdentifier also matches ErrMissingField: an unparseable id is
	// treated as an absent one.
	ErrInvalidIdentifier = fmt.Errorf("%w: invalid identifier", ErrMissingField)
	ErrMissingReadyField = errors.New("state has no boolean 'ready' field")
	ErrNotReady          = errors.New("skill not ready")
	ErrPrepareFailed     = errors.New("skill prepare failed")
)

// FieldError reports a record field that could not be decoded.
type FieldError struct {
	Field string
	Kind  error
	Cause error
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %q", e.Kind.Error(), e.Field)
	}
	return fmt.Sprintf("%s: %q: %v", e.Kind.Error(), e.Field, e.Cause)
}

func (e *FieldError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func missing(field string) error {
	return &FieldError{Field: field, Kind: ErrMissingField}
}

func invalid(field string, kind, cause error) error {
	return &FieldError{Field: field, Kind: kind, Cause: cause}
}
