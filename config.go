// File: lixenwraith/blockconf/config.go
package blockconf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Config holds the current parsed document of a configuration file.
// The root scope is replaced as a whole on every successful load and never
// mutated afterward, so scopes returned by Root can be read without locking.
type Config struct {
	root           *Scope
	options        LoadOptions
	configFilePath string
	logger         *slog.Logger
	watcher        *watcher
	mutex          sync.RWMutex // Protects concurrent access
}

// New creates and initializes a new Config instance with an empty document.
func New() *Config {
	return NewWithOptions(DefaultLoadOptions())
}

// NewWithOptions creates a Config with custom load options.
func NewWithOptions(opts LoadOptions) *Config {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Config{
		root:    NewScope(),
		options: opts,
		logger:  logger,
	}
}

// Root returns the current document. The returned scope must not be modified.
func (c *Config) Root() *Scope {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.root
}

// FilePath returns the path of the last successfully loaded file.
func (c *Config) FilePath() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.configFilePath
}

// Entries returns the values at a slash-separated path such as "listener/web/port".
func (c *Config) Entries(path string) ([]string, bool) {
	return c.Root().Lookup(path)
}

// Value returns the first value at a slash-separated path.
func (c *Config) Value(path string) (string, bool) {
	values, ok := c.Root().Lookup(path)
	if !ok {
		return "", false
	}
	return values[0], true
}

// LoadReader parses r and, on success, replaces the current document.
func (c *Config) LoadReader(r io.ReadSeeker) error {
	return c.LoadReaderContext(context.Background(), r)
}

// LoadReaderContext is LoadReader with cancellation.
func (c *Config) LoadReaderContext(ctx context.Context, r io.ReadSeeker) error {
	root := NewScope()
	if err := ParseContext(ctx, r, root); err != nil {
		return err
	}
	c.swap(root, "")
	return nil
}

// Scan decodes the scope at basePath (slash-separated block pairs, empty for
// the root) into target.
func (c *Config) Scan(basePath string, target any) error {
	scope, err := c.Root().Block(basePath)
	if err != nil {
		return err
	}
	if err := scope.Decode(target); err != nil {
		return fmt.Errorf("failed to scan %q: %w", basePath, err)
	}
	return nil
}

// Save writes the current document to path in the native syntax.
func (c *Config) Save(path string) error {
	return c.SaveAs(path, FormatNative)
}

// SaveAs writes the current document to path in the given format.
func (c *Config) SaveAs(path string, format Format) error {
	if err := saveScope(path, c.Root(), format); err != nil {
		return fmt.Errorf("failed to save config to '%s': %w", path, err)
	}
	return nil
}

// swap installs a freshly parsed root. path is recorded when non-empty.
func (c *Config) swap(root *Scope, path string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.root = root
	if path != "" {
		c.configFilePath = path
	}
}
