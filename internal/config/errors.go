package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigNotFound is returned when no configuration source resolves.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrParse is matched by every *FileError.
	ErrParse = errors.New("malformed config")

	// ErrInvalidArgument is matched by every *ArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
)

// FileError reports a YAML document whose shape does not match the schema.
type FileError struct {
	Path string
	Line int
	Msg  string
	Err  error
}

func (e *FileError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", loc, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", loc, e.Msg)
}

func (e *FileError) Is(target error) bool { return target == ErrParse }

func (e *FileError) Unwrap() error { return e.Err }

// ArgumentError reports a rejected parameter. Allowed, when set, lists the
// values that would have been accepted.
type ArgumentError struct {
	Key     string
	Value   string
	Reason  string
	Allowed []string
	// Origin names where the value came from, e.g. "PQS_LEVEL" or "pqs.yml:12".
	Origin string
}

func (e *ArgumentError) Error() string {
	var b strings.Builder
	b.WriteString("invalid argument --")
	b.WriteString(e.Key)
	if e.Value != "" {
		fmt.Fprintf(&b, " %q", e.Value)
	}
	if e.Origin != "" {
		fmt.Fprintf(&b, " (from %s)", e.Origin)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&b, " (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	return b.String()
}

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
