package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // engine reported an error
	ExitCommandError = 2 // bad flags, store unreachable
)

// ExitError carries the process exit code for a failed command.
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

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the document every command prints.
type Response struct {
	Status string    `json:"status" yaml:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty" yaml:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty" yaml:"error,omitempty"`
}

// CLIError describes a failed command.
type CLIError struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

func write(w io.Writer, format string, resp Response) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// report prints data and the outcome of err, and returns the error the
// command should exit with. Partial results are printed alongside the error.
func report(w io.Writer, format string, data any, err error) error {
	resp := Response{Status: "ok", Data: data}
	if err != nil {
		resp.Status = "error"
		kind := string(apperr.KindOf(err))
		if kind == "" {
			kind = "error"
		}
		resp.Error = &CLIError{Kind: kind, Message: err.Error()}
	}
	if werr := write(w, format, resp); werr != nil {
		return werr
	}
	if err != nil {
		return WrapExitError(ExitFailure, "command failed", err)
	}
	return nil
}
