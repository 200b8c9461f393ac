// FILE: lixenwraith/blockconf/cmd/blockconf/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/lixenwraith/blockconf"
)

// load reads a required configuration file with the CLI's logger
func load(ctx *Context, path string) (*blockconf.Config, error) {
	cfg, err := blockconf.NewBuilder().
		WithArgs(nil).
		WithFile(path).
		WithRequired(true).
		WithLogger(ctx.Logger).
		Build()
	if err != nil {
		return nil, fail(path, err)
	}
	return cfg, nil
}

// CheckCmd represents the check command
type CheckCmd struct {
	File string `arg:"" help:"Configuration file" type:"path"`
}

// Run executes the check command
func (cmd *CheckCmd) Run(ctx *Context) error {
	cfg, err := load(ctx, cmd.File)
	if err != nil {
		return err
	}

	root := cfg.Root()
	blocks := 0
	root.Walk(func(path []blockconf.BlockRef, _ *blockconf.Scope) bool {
		if len(path) > 0 {
			blocks++
		}
		return true
	})
	green := color.New(color.FgGreen)
	green.Fprintf(ctx.Stdout, "✓ %s: %d keys, %d blocks\n", cmd.File, len(root.Flatten()), blocks)
	return nil
}

// DumpCmd represents the dump command
type DumpCmd struct {
	File   string `arg:"" help:"Configuration file" type:"path"`
	Format string `help:"Output format (native, tree, toml, yaml, json)" short:"f" default:"native"`
	Block  string `help:"Dump only the block at this tag/name path" short:"b"`
}

// Run executes the dump command
func (cmd *DumpCmd) Run(ctx *Context) error {
	format, err := blockconf.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}

	cfg, err := load(ctx, cmd.File)
	if err != nil {
		return err
	}

	scope, err := cfg.Root().Block(cmd.Block)
	if err != nil {
		return fail(cmd.File, err)
	}
	return scope.Export(ctx.Stdout, format)
}

// GetCmd represents the get command
type GetCmd struct {
	File  string   `arg:"" help:"Configuration file" type:"path"`
	Key   string   `arg:"" help:"Key, optionally prefixed by tag/name pairs (user/alice/nick)"`
	Block []string `help:"Enclosing block as tag=name, repeatable, outermost first" short:"b"`
	First bool     `help:"Print only the first value"`
}

// Run executes the get command
func (cmd *GetCmd) Run(ctx *Context) error {
	cfg, err := load(ctx, cmd.File)
	if err != nil {
		return err
	}

	path, err := cmd.path()
	if err != nil {
		return err
	}

	values, ok := cfg.Entries(path)
	if !ok {
		return fail(cmd.File, fmt.Errorf("no entry %q", path))
	}
	if cmd.First {
		values = values[:1]
	}
	for _, v := range values {
		fmt.Fprintln(ctx.Stdout, v)
	}
	return nil
}

// path joins --block selectors and the key into a lookup path
func (cmd *GetCmd) path() (string, error) {
	segments := make([]string, 0, 2*len(cmd.Block)+1)
	for _, block := range cmd.Block {
		tag, name, ok := strings.Cut(block, "=")
		if !ok || tag == "" || name == "" {
			return "", fmt.Errorf("invalid block selector %q, expected tag=name", block)
		}
		segments = append(segments, tag, name)
	}
	return strings.Join(append(segments, cmd.Key), "/"), nil
}

// WatchCmd represents the watch command
type WatchCmd struct {
	File string `arg:"" help:"Configuration file" type:"path"`
}

// Run executes the watch command until interrupted
func (cmd *WatchCmd) Run(ctx *Context) error {
	cfg, err := load(ctx, cmd.File)
	if err != nil {
		return err
	}

	changes := cfg.Watch()
	defer cfg.StopAutoUpdate()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.New(color.FgBlue).Fprintf(ctx.Stdout, "Watching %s for changes. Press Ctrl+C to exit.\n", cmd.File)
	for {
		select {
		case <-sigCtx.Done():
			return nil
		case path, ok := <-changes:
			if !ok {
				return errors.New("watcher stopped")
			}
			cmd.report(ctx, cfg, path)
		}
	}
}

func (cmd *WatchCmd) report(ctx *Context, cfg *blockconf.Config, path string) {
	yellow := color.New(color.FgYellow)
	switch {
	case path == blockconf.EventFileDeleted:
		yellow.Fprintln(ctx.Stdout, "Config file was deleted")
	case path == blockconf.EventPermissionsChanged:
		yellow.Fprintln(ctx.Stdout, "Config file permissions changed, not reloaded")
	case path == blockconf.EventReloadTimeout:
		yellow.Fprintln(ctx.Stdout, "Config reload timed out")
	case strings.HasPrefix(path, blockconf.EventReloadError+":"):
		color.New(color.FgRed).Fprintln(ctx.Stdout, strings.TrimPrefix(path, blockconf.EventReloadError+":"))
	default:
		if values, ok := cfg.Entries(path); ok {
			fmt.Fprintf(ctx.Stdout, "%s = %s\n", path, strings.Join(values, ", "))
		} else {
			fmt.Fprintf(ctx.Stdout, "%s removed\n", path)
		}
	}
}
