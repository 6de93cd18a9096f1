// Package apperr holds the error categories shared by handlers and domain
// packages. Errors are marked with a category sentinel and may carry a hint,
// which is the only text ever shown to end users.
package apperr

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("permission denied")
	ErrConflict     = errors.New("conflict")
	ErrProvider     = errors.New("upstream provider error")
	ErrInternal     = errors.New("internal error")

	statusCodeMap = []struct {
		ref    error
		status int
	}{
		{ErrValidation, http.StatusUnprocessableEntity},
		{ErrNotFound, http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrConflict, http.StatusBadRequest},
		{ErrProvider, http.StatusPaymentRequired},
		{ErrInternal, http.StatusInternalServerError},
	}
)

// Builder chains context onto an error. Mark ends the chain.
type Builder struct {
	err error
}

func New(msg string) *Builder {
	return &Builder{err: errors.New(msg)}
}

func Newf(format string, args ...any) *Builder {
	return &Builder{err: errors.Newf(format, args...)}
}

// Wrap starts a chain from an existing error.
func Wrap(err error, msg string) *Builder {
	return &Builder{err: errors.Wrap(err, msg)}
}

// WithHint sets the text shown to users.
func (b *Builder) WithHint(hint string) *Builder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *Builder) WithHintf(format string, args ...any) *Builder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// Mark tags the error with one or more sentinels. References must be leaf
// errors: a marked reference matches anything carrying its outer mark.
func (b *Builder) Mark(references ...error) error {
	for _, ref := range references {
		b.err = errors.Mark(b.err, ref)
	}
	return b.err
}

func (b *Builder) Err() error {
	return b.err
}

// Is reports whether err matches target, following marks.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// HTTPStatus maps an error to its response code. Unmarked errors are 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for _, m := range statusCodeMap {
		if errors.Is(err, m.ref) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// UserMessage returns the outermost hint of err, or fallback when none is set.
// Internal errors always yield fallback.
func UserMessage(err error, fallback string) string {
	if err == nil || errors.Is(err, ErrInternal) {
		return fallback
	}
	hints := errors.GetAllHints(err)
	if len(hints) == 0 {
		return fallback
	}
	return hints[len(hints)-1]
}

// Classify attaches a category and user hint to a domain sentinel. The
// sentinel stays in the chain unmarked, so sentinels sharing a category still
// match only themselves.
func Classify(sentinel, category error, hint string) error {
	return errors.Mark(errors.WithHint(errors.WithStack(sentinel), hint), category)
}

// Internal wraps an unexpected failure so it never reaches users verbatim.
func Internal(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, msg), ErrInternal)
}
