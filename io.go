// File: lixenwraith/blockconf/io.go
package blockconf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format names an output representation of a scope tree.
type Format string

const (
	// FormatNative is the block configuration syntax read by Parse
	FormatNative Format = "native"
	// FormatTree is the flat projection used by golden tests
	FormatTree Format = "tree"
	// FormatTOML encodes the map projection with BurntSushi/toml
	FormatTOML Format = "toml"
	// FormatYAML encodes the tree as an order-preserving YAML mapping
	FormatYAML Format = "yaml"
	// FormatJSON encodes the map projection as indented JSON
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatNative, FormatTree, FormatTOML, FormatYAML, FormatJSON:
		return f, nil
	case "conf", "":
		return FormatNative, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// WriteTo writes the scope in the native syntax, one tab of indentation per
// nesting level. Entries come first, then blocks, each block preceded by a
// blank line. Any tree produced by Parse reads back as an equal tree.
func (s *Scope) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	s.writeNative(&buf, 0)
	return buf.WriteTo(w)
}

func (s *Scope) writeNative(buf *bytes.Buffer, depth int) {
	indent := strings.Repeat("\t", depth)
	for _, key := range s.keys {
		for _, value := range s.entries[key] {
			fmt.Fprintf(buf, "%s%s = %s\n", indent, key, value)
		}
	}
	for _, tag := range s.tags {
		for _, c := range s.children[tag] {
			buf.WriteString("\n")
			fmt.Fprintf(buf, "%s<%s %s>\n", indent, tag, c.Name)
			c.Scope.writeNative(buf, depth+1)
			fmt.Fprintf(buf, "%s</%s>\n", indent, tag)
		}
	}
}

// Projection renders the tree as "key=value" lines per value, and
// "->tag/name", the child projection, "<-" per block.
func (s *Scope) Projection() string {
	var b strings.Builder
	s.project(&b)
	return b.String()
}

func (s *Scope) project(b *strings.Builder) {
	for _, key := range s.keys {
		for _, value := range s.entries[key] {
			b.WriteString(key + "=" + value + "\n")
		}
	}
	for _, tag := range s.tags {
		for _, c := range s.children[tag] {
			b.WriteString("->" + tag + "/" + c.Name + "\n")
			c.Scope.project(b)
			b.WriteString("<-\n")
		}
	}
}

// Export writes the scope to w in the given format.
func (s *Scope) Export(w io.Writer, format Format) error {
	switch format {
	case FormatNative:
		_, err := s.WriteTo(w)
		return err
	case FormatTree:
		_, err := io.WriteString(w, s.Projection())
		return err
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(s.ToMap()); err != nil {
			return fmt.Errorf("failed to marshal scope to TOML: %w", err)
		}
		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(s.yamlNode()); err != nil {
			return fmt.Errorf("failed to marshal scope to YAML: %w", err)
		}
		return encoder.Close()
	case FormatJSON:
		data, err := json.MarshalIndent(s.ToMap(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal scope to JSON: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// yamlNode builds a mapping node that keeps document order.
func (s *Scope) yamlNode() *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range s.keys {
		values := s.entries[key]
		if len(values) == 1 {
			node.Content = append(node.Content, yamlString(key), yamlString(values[0]))
			continue
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, v := range values {
			seq.Content = append(seq.Content, yamlString(v))
		}
		node.Content = append(node.Content, yamlString(key), seq)
	}
	for _, tag := range s.tags {
		group := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range s.children[tag] {
			group.Content = append(group.Content, yamlString(c.Name), c.Scope.yamlNode())
		}
		node.Content = append(node.Content, yamlString(tag), group)
	}
	return node
}

func yamlString(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// saveScope encodes root and writes it to path atomically.
func saveScope(path string, root *Scope, format Format) error {
	var buf bytes.Buffer
	if err := root.Export(&buf, format); err != nil {
		return err
	}
	return atomicWriteFile(path, buf.Bytes())
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
