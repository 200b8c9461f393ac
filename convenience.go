// File: lixenwraith/blockconf/convenience.go
package blockconf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Quick loads a configuration file with default options in a single call.
// A missing file is reported as ErrConfigNotFound with a usable, empty Config.
func Quick(configFile string) (*Config, error) {
	cfg := New()
	err := cfg.LoadFile(configFile)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return nil, err
	}
	return cfg, err
}

// MustQuick is like Quick but panics on any error other than a missing file
func MustQuick(configFile string) *Config {
	cfg, err := Quick(configFile)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return cfg
}

// QuickScan loads configFile and decodes it into target
func QuickScan(configFile string, target any) error {
	cfg, err := Quick(configFile)
	if err != nil {
		return err
	}
	return cfg.Scan("", target)
}

// Debug returns a formatted listing of every entry path and its values
func (c *Config) Debug() string {
	root := c.Root()

	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	fmt.Fprintf(&b, "File: %s\n", c.FilePath())
	b.WriteString("Entries:\n")

	root.Walk(func(path []BlockRef, scope *Scope) bool {
		prefix := joinPath(path)
		for _, key := range scope.keys {
			fmt.Fprintf(&b, "  %s%s:\n", prefix, key)
			for _, value := range scope.entries[key] {
				fmt.Fprintf(&b, "    %s\n", value)
			}
		}
		return true
	})

	return b.String()
}

// Dump writes the current document to stdout in the native syntax
func (c *Config) Dump() error {
	return c.DumpTo(os.Stdout, FormatNative)
}

// DumpTo writes the current document to w in the given format
func (c *Config) DumpTo(w io.Writer, format Format) error {
	return c.Root().Export(w, format)
}

// Clone creates an independent Config holding a deep copy of the document.
// The clone does not watch any file.
func (c *Config) Clone() *Config {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return &Config{
		root:           c.root.Clone(),
		options:        c.options,
		configFilePath: c.configFilePath,
		logger:         c.logger,
	}
}
