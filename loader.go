// FILE: lixenwraith/blockconf/loader.go
package blockconf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
)

// DefaultMaxFileSize bounds how much of a file is read before parsing.
const DefaultMaxFileSize int64 = 10 << 20

// SecurityOptions restricts which files LoadFile accepts
type SecurityOptions struct {
	// PreventPathTraversal rejects relative paths that escape the working directory
	PreventPathTraversal bool

	// MaxFileSize rejects files larger than this many bytes (0 = unlimited)
	MaxFileSize int64

	// EnforceFileOwnership requires the file to be owned by the current user (Unix only)
	EnforceFileOwnership bool
}

// LoadOptions configures how configuration files are loaded
type LoadOptions struct {
	// Security applies file checks before reading; nil disables all checks
	Security *SecurityOptions

	// Logger receives load and reload events; nil discards them
	Logger *slog.Logger
}

// DefaultLoadOptions returns the standard load options
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Security: &SecurityOptions{
			PreventPathTraversal: false,
			MaxFileSize:          DefaultMaxFileSize,
		},
	}
}

// LoadFile parses the file at path and, on success, replaces the current document.
// A missing file yields ErrConfigNotFound and leaves the document unchanged.
func (c *Config) LoadFile(path string) error {
	return c.LoadContext(context.Background(), path)
}

// LoadContext is LoadFile with cancellation checked between lines.
func (c *Config) LoadContext(ctx context.Context, path string) error {
	root, err := c.loadFile(ctx, path)
	if err != nil {
		c.logger.Debug("config load failed", "path", path, "error", err)
		return err
	}
	c.swap(root, path)
	c.logger.Debug("config loaded", "path", path, "blocks", root.Len())
	return nil
}

// loadFile reads and parses a configuration file into a new scope
func (c *Config) loadFile(ctx context.Context, path string) (*Scope, error) {
	c.mutex.RLock()
	sec := c.options.Security
	c.mutex.RUnlock()

	if sec != nil && sec.PreventPathTraversal {
		if err := checkTraversal(path); err != nil {
			return nil, err
		}
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("config path '%s' is a directory", path)
	}

	if sec != nil && sec.MaxFileSize > 0 && fileInfo.Size() > sec.MaxFileSize {
		return nil, fmt.Errorf("%w: '%s' is larger than %d bytes", ErrFileTooLarge, path, sec.MaxFileSize)
	}

	// Security: File ownership check (Unix only)
	if sec != nil && sec.EnforceFileOwnership && runtime.GOOS != "windows" {
		if stat, ok := fileInfo.Sys().(*syscall.Stat_t); ok {
			if stat.Uid != uint32(os.Geteuid()) {
				return nil, fmt.Errorf("config file '%s' is not owned by current user (file UID: %d, process UID: %d)",
					path, stat.Uid, os.Geteuid())
			}
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file '%s': %w", path, err)
	}
	defer file.Close()

	// The file may grow between stat and read; LimitReader keeps the bound.
	var reader io.Reader = file
	if sec != nil && sec.MaxFileSize > 0 {
		reader = io.LimitReader(file, sec.MaxFileSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if sec != nil && sec.MaxFileSize > 0 && int64(len(data)) > sec.MaxFileSize {
		return nil, fmt.Errorf("%w: '%s' is larger than %d bytes", ErrFileTooLarge, path, sec.MaxFileSize)
	}

	root := NewScope()
	if err := ParseContext(ctx, bytes.NewReader(data), root); err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
		}
		return nil, err
	}
	return root, nil
}

// checkTraversal rejects relative paths that leave the working directory.
func checkTraversal(path string) error {
	cleanPath := filepath.Clean(path)
	if filepath.IsAbs(path) {
		return nil
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}
	return nil
}
