// File: lixenwraith/blockconf/builder.go
package blockconf

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ValidatorFunc defines the signature for a function that can validate a Config instance.
// It receives the fully loaded *Config object and should return an error if validation fails.
type ValidatorFunc func(c *Config) error

// Builder provides a fluent interface for building configurations
type Builder struct {
	opts       LoadOptions
	file       string
	args       []string
	required   bool
	validators []ValidatorFunc
}

// NewBuilder creates a new configuration builder
func NewBuilder() *Builder {
	return &Builder{
		opts:       DefaultLoadOptions(),
		args:       os.Args[1:],
		validators: make([]ValidatorFunc, 0),
	}
}

// WithFile sets the configuration file path
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithArgs sets the command-line arguments inspected by file discovery
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithRequired makes a missing configuration file a fatal error
func (b *Builder) WithRequired(required bool) *Builder {
	b.required = required
	return b
}

// WithSecurity sets the file checks applied before reading
func (b *Builder) WithSecurity(opts SecurityOptions) *Builder {
	b.opts.Security = &opts
	return b
}

// WithMaxFileSize overrides only the file size limit
func (b *Builder) WithMaxFileSize(size int64) *Builder {
	if b.opts.Security == nil {
		b.opts.Security = &SecurityOptions{}
	}
	b.opts.Security.MaxFileSize = size
	return b
}

// WithLogger sets the logger for load and reload events
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.opts.Logger = logger
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build creates the Config instance with all specified options.
// Without a file, or with a missing optional file, the document is empty and
// ErrConfigNotFound is returned alongside a usable Config.
func (b *Builder) Build() (*Config, error) {
	cfg := NewWithOptions(b.opts)

	var loadErr error
	if b.file == "" {
		loadErr = ErrConfigNotFound
	} else {
		loadErr = cfg.LoadFile(b.file)
	}
	if loadErr != nil && (b.required || !errors.Is(loadErr, ErrConfigNotFound)) {
		return nil, loadErr
	}

	var validationErrs []error
	for _, validator := range b.validators {
		if err := validator(cfg); err != nil {
			validationErrs = append(validationErrs, err)
		}
	}
	if err := errors.Join(validationErrs...); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// ErrConfigNotFound or nil
	return cfg, loadErr
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Config {
	cfg, err := b.Build()
	if err != nil {
		// Ignore ErrConfigNotFound as it is not a fatal error for MustBuild.
		if !errors.Is(err, ErrConfigNotFound) {
			panic(fmt.Sprintf("config build failed: %v", err))
		}
	}
	return cfg
}

// BuildAndScan builds and decodes the whole document into target
func (b *Builder) BuildAndScan(target any) error {
	cfg, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return err
	}

	if err := cfg.Scan("", target); err != nil {
		return fmt.Errorf("failed to scan final config into target: %w", err)
	}

	// ErrConfigNotFound or nil
	return err
}

// RequireEntries returns a validator that fails for every missing path
func RequireEntries(paths ...string) ValidatorFunc {
	return func(c *Config) error {
		var missing []error
		for _, path := range paths {
			if _, ok := c.Entries(path); !ok {
				missing = append(missing, fmt.Errorf("missing required entry: %s", path))
			}
		}
		return errors.Join(missing...)
	}
}
