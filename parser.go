// FILE: lixenwraith/blockconf/parser.go
package blockconf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// frame is a block that has been opened but not yet closed.
type frame struct {
	tag   string // normalized
	name  string // verbatim
	scope *Scope
	line  int
}

// parser holds the state of a single Parse call.
type parser struct {
	root      *Scope
	stack     []frame
	line      int
	inComment bool
}

// Parse reads the whole document from r into root.
// r is rewound to its start first, so the caller's read position is irrelevant.
// On failure the returned error is a *ParseError and root is left partially
// populated; callers must discard it.
func Parse(r io.ReadSeeker, root *Scope) error {
	return ParseContext(context.Background(), r, root)
}

// ParseContext is Parse with cancellation checked between lines.
func ParseContext(ctx context.Context, r io.ReadSeeker, root *Scope) error {
	if root == nil {
		return errors.New("parse target scope is nil")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind source: %w", err)
	}

	p := &parser{root: root}
	reader := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := reader.ReadString('\n')
		if len(text) > 0 {
			p.line++
			if perr := p.scanLine(strings.TrimSuffix(text, "\n")); perr != nil {
				return perr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read line %d: %w", p.line+1, err)
		}
	}

	return p.finish()
}

// ParseString parses a document held in memory into a new scope.
func ParseString(text string) (*Scope, error) {
	root := NewScope()
	if err := Parse(strings.NewReader(text), root); err != nil {
		return nil, err
	}
	return root, nil
}

// ParseBytes is ParseString for a byte slice.
func ParseBytes(data []byte) (*Scope, error) {
	root := NewScope()
	if err := Parse(bytes.NewReader(data), root); err != nil {
		return nil, err
	}
	return root, nil
}

// scanLine consumes one physical line, classifying each fresh scan position.
func (p *parser) scanLine(rest string) error {
	for {
		if p.inComment {
			end := strings.Index(rest, "*/")
			if end < 0 {
				return nil
			}
			rest = rest[end+2:]
			p.inComment = false
		}

		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)

		switch {
		case rest == "":
			return nil
		case strings.HasPrefix(rest, "//"):
			return nil
		case strings.HasPrefix(rest, "/*"):
			rest = rest[2:]
			p.inComment = true
			continue
		case strings.HasPrefix(rest, "</"):
			if end := strings.IndexByte(rest, '>'); end >= 0 {
				if err := p.closeBlock(rest[2:end]); err != nil {
					return err
				}
				rest = rest[end+1:]
				continue
			}
		case strings.HasPrefix(rest, "<"):
			if end := strings.IndexByte(rest, '>'); end >= 0 {
				if err := p.openBlock(rest[1:end]); err != nil {
					return err
				}
				rest = rest[end+1:]
				continue
			}
		}

		// Key/value lines consume the remainder, comment markers included.
		return p.entry(rest)
	}
}

func (p *parser) openBlock(marker string) error {
	marker = strings.TrimSpace(marker)
	tag, name := marker, ""
	if i := strings.IndexFunc(marker, unicode.IsSpace); i >= 0 {
		tag, name = marker[:i], strings.TrimSpace(marker[i:])
	}
	if name == "" {
		return newParseError(p.line, ErrEmptyBlockName, "Empty block name at begin of block")
	}

	p.stack = append(p.stack, frame{
		tag:   normalize(tag),
		name:  name,
		scope: NewScope(),
		line:  p.line,
	})
	return nil
}

// closeBlock pops the innermost frame and attaches its scope to the parent.
// Attaching on close means duplicates are reported at the closing marker.
func (p *parser) closeBlock(marker string) error {
	fields := strings.Fields(marker)
	tag := ""
	if len(fields) > 0 {
		tag = fields[0]
	}
	if len(fields) > 1 {
		return newParseError(p.line, ErrMalformedClose, "Malformed closing tag. Expected \"</%s>\"", tag)
	}
	if len(p.stack) == 0 {
		return newParseError(p.line, ErrDanglingClose, "Closing tag \"%s\" which is not open", tag)
	}

	top := p.stack[len(p.stack)-1]
	if normalize(tag) != top.tag {
		return newParseError(p.line, ErrDanglingClose, "Closing tag \"%s\" which is not open", tag)
	}
	p.stack = p.stack[:len(p.stack)-1]

	if err := p.current().attach(top.tag, top.name, top.scope); err != nil {
		return newParseError(p.line, ErrDuplicateBlock, "Duplicate entry for tag \"%s\" name \"%s\"", tag, top.name)
	}
	return nil
}

func (p *parser) entry(text string) error {
	eq := strings.IndexByte(text, '=')
	if eq < 0 {
		return newParseError(p.line, ErrMalformedLine, "Malformed line")
	}

	key := strings.TrimSpace(text[:eq])
	value := strings.TrimSpace(text[eq+1:])
	if key == "" || value == "" {
		return newParseError(p.line, ErrMalformedLine, "Malformed line")
	}

	p.current().InsertEntry(key, value)
	return nil
}

// current returns the scope new content belongs to.
func (p *parser) current() *Scope {
	if len(p.stack) == 0 {
		return p.root
	}
	return p.stack[len(p.stack)-1].scope
}

func (p *parser) finish() error {
	if p.inComment {
		return newParseError(p.line, ErrCommentNotClosed, "Comment not closed at end of file")
	}
	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		return newParseError(p.line, ErrUnclosedTags,
			"Not all tags are closed at the end of the file. Inner-most open tag is \"%s\"", top.tag)
	}
	return nil
}
