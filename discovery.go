// FILE: lixenwraith/blockconf/discovery.go
package blockconf

import (
	"os"
	"path/filepath"
	"strings"
)

// FileDiscoveryOptions configures automatic config file discovery
type FileDiscoveryOptions struct {
	// Name is the file base name without extension
	Name string

	// Extensions are tried in order for every search directory
	Extensions []string

	// Paths are searched before the working and XDG directories
	Paths []string

	// EnvVar names an environment variable holding an explicit path
	EnvVar string

	// CLIFlag names a flag holding an explicit path, as "--config x" or "--config=x"
	CLIFlag string

	// UseXDG adds XDG_CONFIG_HOME and XDG_CONFIG_DIRS (or their defaults)
	UseXDG bool

	// UseCurrentDir adds the working directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns options for app: app.conf, app.cfg or a
// bare app file, overridable by --config or APP_CONFIG.
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".conf", ".cfg", ""},
		EnvVar:        strings.ToUpper(appName) + "_CONFIG",
		CLIFlag:       "--config",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// WithFileDiscovery sets the file to the first one DiscoverFile finds.
// The file set by WithFile is kept when nothing is found.
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	if path := DiscoverFile(opts, b.args); path != "" {
		b.file = path
	}
	return b
}

// DiscoverFile returns the configuration file for opts, or "" if none exists.
// An explicit flag or environment variable is returned even if the file is missing.
func DiscoverFile(opts FileDiscoveryOptions, args []string) string {
	if path := flagValue(args, opts.CLIFlag); path != "" {
		return path
	}
	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			return path
		}
	}

	for _, dir := range searchDirs(opts) {
		for _, ext := range opts.Extensions {
			candidate := filepath.Join(dir, opts.Name+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// flagValue extracts the value of flag from args.
func flagValue(args []string, flag string) string {
	if flag == "" {
		return ""
	}
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
		if value, ok := strings.CutPrefix(arg, flag+"="); ok {
			return value
		}
	}
	return ""
}

// searchDirs lists directories in lookup order.
func searchDirs(opts FileDiscoveryOptions) []string {
	dirs := append([]string(nil), opts.Paths...)
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
	}
	if opts.UseXDG {
		dirs = append(dirs, xdgConfigDirs(opts.Name)...)
	}
	return dirs
}

// xdgConfigDirs returns the per-app XDG config directories, user first.
func xdgConfigDirs(appName string) []string {
	var dirs []string

	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", appName))
	}

	if system := os.Getenv("XDG_CONFIG_DIRS"); system != "" {
		for _, dir := range filepath.SplitList(system) {
			dirs = append(dirs, filepath.Join(dir, appName))
		}
	} else {
		dirs = append(dirs, filepath.Join("/etc/xdg", appName), filepath.Join("/etc", appName))
	}
	return dirs
}
