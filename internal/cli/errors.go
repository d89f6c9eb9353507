// Package cli provides shared configuration and utilities for the vantage CLI.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitGeneral      = 1
	ExitConfig       = 2
	ExitModelParse   = 3
	ExitDBConnect    = 4
	ExitChecksFailed = 5
)

// ExitError wraps an error with an exit code.
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

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Code returns the process exit code for err: ExitSuccess for nil, the
// code of the first ExitError in the chain, ExitGeneral otherwise.
func Code(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneral
}

// ExitWithError prints the error and exits with the appropriate code.
func ExitWithError(err error) {
	os.Exit(report(os.Stderr, err))
}

func report(w io.Writer, err error) int {
	_, _ = fmt.Fprintln(w, "Error:", err)
	return Code(err)
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// ModelParseError creates an ExitError with ExitModelParse code.
func ModelParseError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitModelParse, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// ChecksFailedError reports failed doctor checks.
func ChecksFailedError(failed int) *ExitError {
	return &ExitError{Code: ExitChecksFailed, Message: fmt.Sprintf("%d health checks failed", failed)}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}
