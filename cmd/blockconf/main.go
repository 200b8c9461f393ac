// FILE: lixenwraith/blockconf/cmd/blockconf/main.go
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
)

// Context carries global flags to every command
type Context struct {
	Verbose bool
	Logger  *slog.Logger
	Stdout  io.Writer
}

// CLI represents the command-line interface
var CLI struct {
	Verbose bool     `help:"Enable verbose output" short:"v"`
	Check   CheckCmd `cmd:"" help:"Parse a configuration file and report the first error"`
	Dump    DumpCmd  `cmd:"" help:"Print a configuration file in another format"`
	Get     GetCmd   `cmd:"" help:"Print the values of a key"`
	Watch   WatchCmd `cmd:"" help:"Print entry changes while the file is edited"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("blockconf"),
		kong.Description("Inspect block configuration files."),
		kong.UsageOnError(),
	)

	level := slog.LevelWarn
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	appCtx := &Context{
		Verbose: CLI.Verbose,
		Logger:  slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		Stdout:  color.Output,
	}

	if err := ctx.Run(appCtx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// fail wraps an error with the file it came from
func fail(path string, err error) error {
	return fmt.Errorf("%s: %w", path, err)
}
