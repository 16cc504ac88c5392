package errors

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Category groups error codes by the layer that raised them.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryManifest Category = "manifest"
	CategoryRouting  Category = "routing"
	CategoryCLI      Category = "cli"
	CategoryServer   Category = "server"
)

// Location is a position in a source document.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as file:line[:column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// GravityError is a coded error with optional location and fix hints.
type GravityError struct {
	// Code is the registry identifier, e.g. "G203".
	Code string

	Category Category
	Message  string
	Detail   string

	// Location points into the document that caused the error.
	Location *Location

	// Context holds the source lines around Location, starting at line
	// ContextStart.
	Context      []string
	ContextStart int

	Suggestion string
	DocURL     string

	// Wrapped is the underlying cause.
	Wrapped error
}

// Error implements the error interface. The wrapped cause is appended so
// log lines stay useful without Format.
func (e *GravityError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped cause.
func (e *GravityError) Unwrap() error {
	return e.Wrapped
}

// Is matches another GravityError with the same code.
func (e *GravityError) Is(target error) bool {
	t, ok := target.(*GravityError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithLocation points the error at a line of a file on disk.
func (e *GravityError) WithLocation(file string, line, column int) *GravityError {
	e.Location = &Location{File: file, Line: line, Column: column}
	if src, err := os.ReadFile(file); err == nil {
		e.ContextStart, e.Context = contextLines(src, line, 5)
	}
	return e
}

// WithOffset points the error at a byte offset in src, as reported by
// encoding/json syntax and type errors.
func (e *GravityError) WithOffset(file string, src []byte, offset int64) *GravityError {
	if offset < 0 || offset > int64(len(src)) {
		return e
	}
	line, col := lineColumn(src, int(offset))
	e.Location = &Location{File: file, Line: line, Column: col}
	e.ContextStart, e.Context = contextLines(src, line, 5)
	return e
}

// WithSuggestion adds a fix hint.
func (e *GravityError) WithSuggestion(s string) *GravityError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registry's detail text.
func (e *GravityError) WithDetail(d string) *GravityError {
	e.Detail = d
	return e
}

// Wrap records the underlying cause.
func (e *GravityError) Wrap(err error) *GravityError {
	e.Wrapped = err
	return e
}

// lineColumn converts a byte offset into a 1-based line and column.
func lineColumn(src []byte, offset int) (int, int) {
	before := src[:offset]
	line := bytes.Count(before, []byte{'\n'}) + 1
	col := offset - bytes.LastIndexByte(before, '\n')
	return line, col
}

// contextLines returns up to size lines centered on target and the number
// of the first one.
func contextLines(src []byte, target, size int) (int, []string) {
	lines := strings.Split(string(src), "\n")
	start := target - size/2
	end := target + size/2
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return 0, nil
	}
	return start, lines[start-1 : end]
}

// New creates an error from a registered code.
func New(code string) *GravityError {
	tmpl, ok := registry[code]
	if !ok {
		return &GravityError{Code: code, Message: "Unknown error"}
	}
	return &GravityError{
		Code:     code,
		Category: tmpl.Category,
		Message:  tmpl.Message,
		Detail:   tmpl.Detail,
		DocURL:   docURL(code),
	}
}

// Newf creates an uncoded error with a formatted message.
func Newf(category Category, format string, args ...any) *GravityError {
	return &GravityError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err under code unless it already is a GravityError.
func FromError(err error, code string) *GravityError {
	if err == nil {
		return nil
	}
	if ge, ok := err.(*GravityError); ok {
		return ge
	}
	return New(code).Wrap(err)
}
