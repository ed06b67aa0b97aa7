package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure for mapping to user-facing error codes.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindEmbedding       Kind = "embedding"
	KindVectorIndex     Kind = "vector_index"
	KindDocumentStore   Kind = "document_store"
	KindExternalService Kind = "external_service"
	KindClip            Kind = "clip"
	KindInternal        Kind = "internal"
)

// Sentinel errors for validation failures.
var (
	ErrEmptyQuery   = errors.New("empty query")
	ErrInvalidLimit = errors.New("limit must be at least 1")
	ErrInvalidScore = errors.New("min score must be in [0,1]")
	ErrBadTimestamp = errors.New("malformed timestamp")
)

// Error is the typed pipeline error. The Kind is what callers map to a
// user-facing code; the wrapped cause stays available for logging.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err as a typed Error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
