package cli

import (
	"errors"
	"fmt"
	"io/fs"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError reports invalid flags or arguments.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// Operations reported by IOError.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// Reasons reported by IOError.
const (
	ReasonNotFound   = "not_found"
	ReasonPermission = "permission"
	ReasonOther      = "other"
)

// IOError reports a failure reading input or writing output.
type IOError struct {
	Op     string
	Path   string
	Reason string
	Err    error
}

func (e *IOError) Error() string {
	switch {
	case e.Op == OpRead && e.Reason == ReasonNotFound:
		return fmt.Sprintf("File '%s' not found", e.Path)
	case e.Op == OpRead && e.Reason == ReasonPermission:
		return fmt.Sprintf("Permission denied reading '%s'", e.Path)
	case e.Op == OpWrite && e.Reason == ReasonNotFound:
		return fmt.Sprintf("Directory for '%s' not found", e.Path)
	case e.Op == OpWrite && e.Reason == ReasonPermission:
		return fmt.Sprintf("Permission denied writing to '%s'", e.Path)
	case e.Op == OpWrite:
		return fmt.Sprintf("Failed writing to '%s': %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("Failed reading '%s': %v", e.Path, e.Err)
	}
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// NewUsageError creates a UsageError.
func NewUsageError(format string, args ...any) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// NewIOError classifies err for op on path.
func NewIOError(op, path string, err error) *IOError {
	reason := ReasonOther
	switch {
	case errors.Is(err, fs.ErrNotExist):
		reason = ReasonNotFound
	case errors.Is(err, fs.ErrPermission):
		reason = ReasonPermission
	}
	return &IOError{Op: op, Path: path, Reason: reason, Err: err}
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsage
	}
	return ExitFailure
}
