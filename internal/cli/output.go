package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/loamdev/loam/internal/apperr"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // successful execution
	ExitFailure      = 1 // domain failure (not found, ambiguous, conflict, integrity)
	ExitCommandError = 2 // command error (bad flags, unreachable store)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// GetExitCode extracts the exit code from an error. Structured domain
// errors map by code; anything unclassified is a command error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound, apperr.CodeAmbiguousPrefix, apperr.CodeAlreadyExists,
		apperr.CodeIntegrity, apperr.CodeOrphanedEdge:
		return ExitFailure
	case apperr.CodeStoreUnavailable, apperr.CodeAllocatorExhausted:
		return ExitCommandError
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response envelope.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for JSON responses.
type CLIError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Subject    string   `json:"subject,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

// JSON outputs a structured success payload in JSON mode, or falls back
// to the provided text renderer.
func (f *OutputFormatter) JSON(data any, text func(io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Success outputs a plain success line.
func (f *OutputFormatter) Success(data any) error {
	return f.JSON(data, func(w io.Writer) {
		fmt.Fprintln(w, data)
	})
}

// Error renders a failure. Structured errors keep their code, subject,
// and candidate list so scripted callers can disambiguate without
// re-querying.
func (f *OutputFormatter) Error(err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = &apperr.Error{Code: "ERROR", Message: err.Error()}
	}

	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:       string(ae.Code),
				Message:    ae.Message,
				Subject:    ae.Subject,
				Candidates: ae.Candidates,
			},
		})
	}

	fmt.Fprintf(f.GetErrWriter(), "error [%s]: %s\n", ae.Code, ae.Message)
	if ae.Subject != "" {
		fmt.Fprintf(f.GetErrWriter(), "  subject: %s\n", ae.Subject)
	}
	for _, c := range ae.Candidates {
		fmt.Fprintf(f.GetErrWriter(), "  candidate: %s\n", c)
	}
	return nil
}

// VerboseLog outputs a diagnostic line only in verbose mode. Diagnostics
// go to ErrWriter so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the diagnostic writer, falling back to Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
