// FILE: lixenwraith/blockconf/scope.go
package blockconf

import (
	"slices"
	"strings"
)

// Child is one named block under a tag.
type Child struct {
	Name  string
	Scope *Scope
}

// BlockRef identifies a block by its normalized tag and verbatim name.
type BlockRef struct {
	Tag  string
	Name string
}

// Scope is one nesting level of a document: the root or a tagged block.
// Entries map a normalized key to its values in source order. Children are
// grouped by normalized tag, each group in source order.
type Scope struct {
	keys     []string            // first-seen order of entry keys
	entries  map[string][]string // normalized key -> values
	tags     []string            // first-seen order of child tags
	children map[string][]Child  // normalized tag -> named blocks
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{
		entries:  make(map[string][]string),
		children: make(map[string][]Child),
	}
}

// InsertEntry appends value to the sequence stored under key.
func (s *Scope) InsertEntry(key, value string) {
	s.init()
	key = normalize(key)
	if _, exists := s.entries[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.entries[key] = append(s.entries[key], value)
}

// InsertChild creates an empty block (tag, name) under s and returns it.
// It returns ErrDuplicateBlock if the pair already exists.
func (s *Scope) InsertChild(tag, name string) (*Scope, error) {
	child := NewScope()
	if err := s.attach(tag, name, child); err != nil {
		return nil, err
	}
	return child, nil
}

// attach adds an existing scope as the block (tag, name).
func (s *Scope) attach(tag, name string, child *Scope) error {
	s.init()
	tag = normalize(tag)
	group, exists := s.children[tag]
	for _, c := range group {
		if c.Name == name {
			return ErrDuplicateBlock
		}
	}
	if !exists {
		s.tags = append(s.tags, tag)
	}
	s.children[tag] = append(group, Child{Name: name, Scope: child})
	return nil
}

// Entries returns a copy of the values stored under key, or nil.
func (s *Scope) Entries(key string) []string {
	return slices.Clone(s.entries[normalize(key)])
}

// Value returns the first value stored under key.
func (s *Scope) Value(key string) (string, bool) {
	values := s.entries[normalize(key)]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// HasEntry reports whether key carries at least one value.
func (s *Scope) HasEntry(key string) bool {
	return len(s.entries[normalize(key)]) > 0
}

// Children returns a copy of the blocks stored under tag, or nil.
func (s *Scope) Children(tag string) []Child {
	return slices.Clone(s.children[normalize(tag)])
}

// Child looks up a single block by tag and verbatim name.
func (s *Scope) Child(tag, name string) (*Scope, bool) {
	for _, c := range s.children[normalize(tag)] {
		if c.Name == name {
			return c.Scope, true
		}
	}
	return nil, false
}

// Keys returns the normalized entry keys in first-seen order.
func (s *Scope) Keys() []string {
	return slices.Clone(s.keys)
}

// Tags returns the normalized child tags in first-seen order.
func (s *Scope) Tags() []string {
	return slices.Clone(s.tags)
}

// Len returns the number of distinct keys plus the number of child blocks.
func (s *Scope) Len() int {
	n := len(s.keys)
	for _, group := range s.children {
		n += len(group)
	}
	return n
}

// IsEmpty reports whether the scope has no entries and no children.
func (s *Scope) IsEmpty() bool {
	return s.Len() == 0
}

// Walk visits s and every descendant depth-first in document order.
// path holds the blocks leading to the visited scope.
// Returning false from fn stops descent below that scope.
func (s *Scope) Walk(fn func(path []BlockRef, scope *Scope) bool) {
	s.walk(nil, fn)
}

func (s *Scope) walk(path []BlockRef, fn func([]BlockRef, *Scope) bool) {
	if !fn(path, s) {
		return
	}
	for _, tag := range s.tags {
		for _, c := range s.children[tag] {
			c.Scope.walk(append(path[:len(path):len(path)], BlockRef{Tag: tag, Name: c.Name}), fn)
		}
	}
}

// Clone returns a deep copy of the scope tree.
func (s *Scope) Clone() *Scope {
	clone := NewScope()
	clone.keys = slices.Clone(s.keys)
	for key, values := range s.entries {
		clone.entries[key] = slices.Clone(values)
	}
	clone.tags = slices.Clone(s.tags)
	for tag, group := range s.children {
		copied := make([]Child, len(group))
		for i, c := range group {
			copied[i] = Child{Name: c.Name, Scope: c.Scope.Clone()}
		}
		clone.children[tag] = copied
	}
	return clone
}

// Equal reports whether two trees hold the same entries and blocks in the same order.
func (s *Scope) Equal(other *Scope) bool {
	if s == nil || other == nil {
		return s == other
	}
	if !slices.Equal(s.keys, other.keys) || !slices.Equal(s.tags, other.tags) {
		return false
	}
	for _, key := range s.keys {
		if !slices.Equal(s.entries[key], other.entries[key]) {
			return false
		}
	}
	for _, tag := range s.tags {
		a, b := s.children[tag], other.children[tag]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i].Name != b[i].Name || !a[i].Scope.Equal(b[i].Scope) {
				return false
			}
		}
	}
	return true
}

// init allows a zero Scope to be used.
func (s *Scope) init() {
	if s.entries == nil {
		s.entries = make(map[string][]string)
	}
	if s.children == nil {
		s.children = make(map[string][]Child)
	}
}

// normalize trims surrounding whitespace and folds ASCII letters to lower case.
func normalize(s string) string {
	return asciiLower(strings.TrimSpace(s))
}

func asciiLower(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if b[j] >= 'A' && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
