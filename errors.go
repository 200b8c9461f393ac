// FILE: lixenwraith/blockconf/errors.go
package blockconf

import (
	"errors"
	"fmt"
)

// Parse error kinds. A *ParseError unwraps to exactly one of these.
var (
	// ErrDanglingClose is returned for a closing marker whose tag is not open.
	ErrDanglingClose = errors.New("closing tag which is not open")
	// ErrEmptyBlockName is returned for an opening marker without a name.
	ErrEmptyBlockName = errors.New("empty block name")
	// ErrDuplicateBlock is returned when a (tag, name) pair occurs twice in one scope.
	ErrDuplicateBlock = errors.New("duplicate block")
	// ErrUnclosedTags is returned when input ends with blocks still open.
	ErrUnclosedTags = errors.New("unclosed tags at end of input")
	// ErrCommentNotClosed is returned when input ends inside a block comment.
	ErrCommentNotClosed = errors.New("comment not closed at end of input")
	// ErrMalformedLine is returned for a key/value line without '=' or with an empty side.
	ErrMalformedLine = errors.New("malformed line")
	// ErrMalformedClose is returned for a closing marker carrying more than a tag.
	ErrMalformedClose = errors.New("malformed closing tag")
)

// Loader errors.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
	// ErrFileTooLarge is returned when a file exceeds SecurityOptions.MaxFileSize.
	ErrFileTooLarge = errors.New("configuration file exceeds maximum size")
	// ErrPathTraversal is returned when a relative path escapes the working directory.
	ErrPathTraversal = errors.New("potential path traversal in configuration path")
	// ErrUnknownFormat is returned for an unsupported export format.
	ErrUnknownFormat = errors.New("unknown output format")
)

// ParseError is a fatal syntax error with the line it was detected on.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

// Error renders the diagnostic as "Error on line <N>: <Reason>.".
func (e *ParseError) Error() string {
	return fmt.Sprintf("Error on line %d: %s.", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(line int, kind error, format string, args ...any) *ParseError {
	return &ParseError{
		Line:   line,
		Reason: fmt.Sprintf(format, args...),
		Err:    kind,
	}
}
