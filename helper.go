// File: lixenwraith/blockconf/helper.go
package blockconf

import (
	"fmt"
	"slices"
	"strings"
)

// ToMap converts the scope into nested maps. A key with one value maps to a
// string, a key with several values to a []string. A tag maps to a
// map of block name to the block's own map. A tag that collides with an
// entry key replaces that entry.
func (s *Scope) ToMap() map[string]any {
	result := make(map[string]any, s.Len())
	for _, key := range s.keys {
		values := s.entries[key]
		if len(values) == 1 {
			result[key] = values[0]
		} else {
			result[key] = slices.Clone(values)
		}
	}
	for _, tag := range s.tags {
		group := make(map[string]any)
		for _, c := range s.children[tag] {
			group[c.Name] = c.Scope.ToMap()
		}
		result[tag] = group
	}
	return result
}

// Flatten returns every entry of the tree keyed by its slash-separated path,
// e.g. "listener/web/port". Block names are used verbatim.
func (s *Scope) Flatten() map[string][]string {
	flat := make(map[string][]string)
	s.Walk(func(path []BlockRef, scope *Scope) bool {
		prefix := joinPath(path)
		for _, key := range scope.keys {
			flat[prefix+key] = slices.Clone(scope.entries[key])
		}
		return true
	})
	return flat
}

// Lookup resolves a slash-separated path of the form "tag/name/.../key".
func (s *Scope) Lookup(path string) ([]string, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments)%2 == 0 {
		return nil, false
	}

	current := s
	for i := 0; i+1 < len(segments); i += 2 {
		child, ok := current.Child(segments[i], segments[i+1])
		if !ok {
			return nil, false
		}
		current = child
	}

	values := current.Entries(segments[len(segments)-1])
	return values, len(values) > 0
}

// Block resolves a slash-separated path of tag/name pairs to a descendant.
// An empty path resolves to s itself.
func (s *Scope) Block(path string) (*Scope, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return s, nil
	}

	segments := strings.Split(path, "/")
	if len(segments)%2 != 0 {
		return nil, fmt.Errorf("block path %q must consist of tag/name pairs", path)
	}

	current := s
	for i := 0; i < len(segments); i += 2 {
		child, ok := current.Child(segments[i], segments[i+1])
		if !ok {
			return nil, fmt.Errorf("block %s %q not found in path %q", segments[i], segments[i+1], path)
		}
		current = child
	}
	return current, nil
}

// joinPath renders block references as a path prefix ending in '/'.
func joinPath(path []BlockRef) string {
	if len(path) == 0 {
		return ""
	}
	var b strings.Builder
	for _, ref := range path {
		b.WriteString(ref.Tag)
		b.WriteByte('/')
		b.WriteString(ref.Name)
		b.WriteByte('/')
	}
	return b.String()
}
