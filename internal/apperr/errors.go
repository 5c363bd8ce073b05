// Package apperr defines the error taxonomy shared by every component.
//
// NotFound, AmbiguousPrefix, and AlreadyExists are expected user-facing
// outcomes: callers branch on them, they are never logged as bugs.
// Integrity and OrphanedEdge are recoverable locally via an explicit
// repair pass. StoreUnavailable and AllocatorExhausted are fatal for the
// current operation and must leave on-disk state unchanged.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes errors across the engine.
type Code string

const (
	// CodeNotFound: an id or prefix resolved to nothing.
	CodeNotFound Code = "NOT_FOUND"

	// CodeAmbiguousPrefix: a prefix resolved to two or more ids. The
	// caller must disambiguate; the engine never auto-picks.
	CodeAmbiguousPrefix Code = "AMBIGUOUS_PREFIX"

	// CodeAlreadyExists: duplicate id on insert, or re-deprecating an
	// already-deprecated artifact, or re-resolving a resolved tension.
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// CodeIntegrity: corrupt or inconsistent graph state detected.
	CodeIntegrity Code = "INTEGRITY"

	// CodeOrphanedEdge: an edge referenced a missing endpoint. Non-fatal;
	// the edge is queued and surfaced by the repair pass.
	CodeOrphanedEdge Code = "ORPHANED_EDGE"

	// CodeStoreUnavailable: the storage medium is unreachable.
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"

	// CodeAllocatorExhausted: id collision retries exceeded.
	CodeAllocatorExhausted Code = "ALLOCATOR_EXHAUSTED"
)

// Error is a structured error carrying enough context for a caller to
// retry correctly without re-querying: the subject id or prefix, and the
// candidate set for ambiguity.
type Error struct {
	Code       Code
	Message    string
	Subject    string   // the id or prefix involved
	Candidates []string // populated for CodeAmbiguousPrefix
	Err        error    // wrapped cause, optional
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Subject != "" {
		fmt.Fprintf(&b, " (%s)", e.Subject)
	}
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Candidates, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on code-only template errors.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// New creates an error with a code, subject, and formatted message.
func New(code Code, subject, format string, args ...any) *Error {
	return &Error{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, subject string, err error, format string, args ...any) *Error {
	return &Error{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound builds the standard not-found error for an id or prefix.
func NotFound(subject string) *Error {
	return New(CodeNotFound, subject, "no artifact matches")
}

// Ambiguous builds the standard ambiguous-prefix error.
func Ambiguous(prefix string, candidates []string) *Error {
	return &Error{
		Code:       CodeAmbiguousPrefix,
		Subject:    prefix,
		Message:    fmt.Sprintf("prefix matches %d ids", len(candidates)),
		Candidates: candidates,
	}
}

// CodeOf extracts the code from an error, or "" if it is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsNotFound reports whether err is a not-found outcome.
func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }

// IsAmbiguous reports whether err is an ambiguous-prefix outcome.
func IsAmbiguous(err error) bool { return IsCode(err, CodeAmbiguousPrefix) }

// IsAlreadyExists reports whether err is a duplicate outcome.
func IsAlreadyExists(err error) bool { return IsCode(err, CodeAlreadyExists) }
