// Package apperr is the error taxonomy shared by the sync engines and the
// surfaces that call them.
package apperr

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
)

// Kind categorizes an engine failure.
type Kind string

const (
	// KindNotFound: a referenced document does not exist. Not retried.
	KindNotFound Kind = "not_found"
	// KindConflict: the store's transaction retry budget ran out. The caller
	// may retry the whole operation.
	KindConflict Kind = "concurrency_conflict"
	// KindValidation: caller-supplied input was rejected before any store I/O.
	KindValidation Kind = "validation"
	// KindUnavailable: transport, auth or other store failure.
	KindUnavailable Kind = "store_unavailable"
)

// Error is the structured error returned across engine boundaries.
type Error struct {
	Kind     Kind
	Op       string // e.g. "cardmove.MoveCard"
	Resource string // collection or field the error is about
	ID       string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	switch {
	case e.Resource != "" && e.ID != "":
		msg = fmt.Sprintf("%s (%s %s)", msg, e.Resource, e.ID)
	case e.Resource != "":
		msg = fmt.Sprintf("%s (%s)", msg, e.Resource)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a KindNotFound error for a missing document.
func NotFound(op, resource, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Resource: resource, ID: id, Message: "not found"}
}

// Validation builds a KindValidation error about one input field.
func Validation(op, field, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Resource: field, Message: message}
}

// FromStore classifies an error returned by a docstore.Store. Errors that are
// already *Error pass through unchanged; nil stays nil.
func FromStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return &Error{Kind: KindNotFound, Op: op, Message: "not found", Err: err}
	case errors.Is(err, docstore.ErrConflict):
		return &Error{Kind: KindConflict, Op: op, Message: "concurrent writers exhausted the retry budget", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindUnavailable, Op: op, Message: "store call abandoned", Err: err}
	default:
		return &Error{Kind: KindUnavailable, Op: op, Message: "store unavailable", Err: err}
	}
}

// KindOf returns the Kind of err, or "" when err is nil or unclassified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsUnavailable(err error) bool {
	return KindOf(err) == KindUnavailable
}
