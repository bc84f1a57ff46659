// Package main is the entry point for the keymelody gesture matcher.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keymelody/internal/app"
	"github.com/dshills/keymelody/internal/input/key"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath  string
	tracePath   string
	interactive bool
	layer       int
	dump        bool
	logLevel    string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	appOpts := app.Options{
		ConfigPath: opts.configPath,
		LogLevel:   opts.logLevel,
	}
	if opts.layer >= 0 {
		l := key.Layer(opts.layer)
		appOpts.Layer = &l
	}
	if opts.tracePath != "" {
		appOpts.Clock = key.NewManualClock(0)
	}
	if opts.interactive {
		// The screen owns the terminal.
		appOpts.LogOutput = io.Discard
	}

	application, err := app.New(appOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	if opts.dump {
		if err := application.Dump(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	switch {
	case opts.tracePath != "":
		return runTrace(application, opts.tracePath)
	case opts.interactive:
		return runInteractive(application)
	}
	return 0
}

func runTrace(application *app.Application, path string) int {
	steps, err := app.LoadTrace(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	report, err := application.RunTrace(steps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := report.WriteTo(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runInteractive(application *app.Application) int {
	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.NewTerminal(application, screen).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	application.WriteMetrics(os.Stdout)
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to gesture file (.toml, .yaml)")
	flag.StringVar(&opts.configPath, "c", "", "Path to gesture file (shorthand)")
	flag.StringVar(&opts.tracePath, "trace", "", "Replay a YAML event trace and print a report")
	flag.StringVar(&opts.tracePath, "t", "", "Replay a YAML event trace (shorthand)")
	flag.BoolVar(&opts.interactive, "interactive", false, "Drive the matcher from the terminal")
	flag.BoolVar(&opts.interactive, "i", false, "Drive the matcher from the terminal (shorthand)")
	flag.IntVar(&opts.layer, "layer", -1, "Initial active layer (default from the gesture file)")
	flag.BoolVar(&opts.dump, "dump", false, "Print the phrase tree")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "keymelody - keyboard gesture matcher\n\n")
		fmt.Fprintf(os.Stderr, "Usage: keymelody [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  keymelody -c gestures.toml -dump            Show the phrase tree\n")
		fmt.Fprintf(os.Stderr, "  keymelody -c gestures.toml -t trace.yaml    Replay a trace\n")
		fmt.Fprintf(os.Stderr, "  keymelody -c gestures.toml -i               Type gestures live\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("keymelody %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch opts.logLevel {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	if opts.layer > 255 {
		fmt.Fprintf(os.Stderr, "Error: layer %d out of range 0..255\n", opts.layer)
		os.Exit(1)
	}

	if opts.tracePath != "" && opts.interactive {
		fmt.Fprintf(os.Stderr, "Error: -trace and -interactive are exclusive\n")
		os.Exit(1)
	}

	return opts
}
