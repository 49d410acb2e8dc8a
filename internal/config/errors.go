package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrUnknownCommand indicates an rc line starts with an unknown command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidArgs indicates a command got the wrong arguments.
	ErrInvalidArgs = errors.New("invalid arguments")

	// ErrSourceDepth indicates too many nested source commands.
	ErrSourceDepth = errors.New("source depth exceeded")

	// ErrInvalidSetting indicates a setting value is out of range.
	ErrInvalidSetting = errors.New("invalid setting")
)

// ParseError represents an error while parsing a settings file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// SourceError is a failed rc file command.
type SourceError struct {
	// Path is the sourced file, "<input>" for lines run directly.
	Path string
	// Line is the first line of the command.
	Line int
	// Command is the command text after continuation lines were joined.
	Command string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", e.Path, e.Line, e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}
