// Package main provides the memsync command, which merges a remote memory
// document into a local memory file and records the attempt.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/memsync/pkg/config"
	"github.com/entrhq/memsync/pkg/logging"
	"github.com/entrhq/memsync/pkg/syncer"
)

const version = "0.1.0"

const (
	exitOK      = 0
	exitFailure = 1
)

var errUsage = errors.New("usage error")

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Verbosity   string
	NoFetch     bool
	Timeout     time.Duration
	ShowVersion bool

	LocalPath string
	RemoteURL string
	SourceID  string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// parseFlags parses command line flags and positional arguments
func parseFlags(args []string, stderr io.Writer) (*CLIConfig, error) {
	cli := &CLIConfig{}
	fs := flag.NewFlagSet("memsync", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	fs.StringVar(&cli.Verbosity, "verbosity", "", "Console output: quiet, normal, verbose or debug")
	fs.BoolVar(&cli.NoFetch, "no-fetch", false, "Skip the remote fetch and record a local-only sync")
	fs.DurationVar(&cli.Timeout, "timeout", 0, "Remote fetch timeout (overrides config)")
	fs.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "memsync - merge remote memory entries into a local memory file\n\n")
		fmt.Fprintf(stderr, "Usage: memsync [options] <local_path> <remote_url> [source_id]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExample:\n")
		fmt.Fprintf(stderr, "  memsync ~/.humanity/memory.json https://united-humanity.us/api/memory/public heron-02\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if cli.ShowVersion {
		return cli, nil
	}

	rest := fs.Args()
	if len(rest) < 2 || len(rest) > 3 {
		fs.Usage()
		return nil, errUsage
	}
	cli.LocalPath = rest[0]
	cli.RemoteURL = rest[1]
	if len(rest) == 3 {
		cli.SourceID = rest[2]
	}
	return cli, nil
}

// loadConfig reads the config file and applies CLI overrides
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg, err := config.LoadFile(cli.ConfigFile)
	if err != nil {
		return nil, err
	}
	if cli.Verbosity != "" {
		cfg.Logging.Verbosity = cli.Verbosity
	}
	if cli.NoFetch {
		cfg.Remote.Enabled = false
	}
	if cli.Timeout > 0 {
		cfg.Remote.Timeout = cli.Timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cli, err := parseFlags(args, stderr)
	if err != nil {
		return exitFailure
	}
	if cli.ShowVersion {
		fmt.Fprintf(stdout, "memsync v%s\n", version)
		return exitOK
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintf(stderr, "memsync: %v\n", err)
		return exitFailure
	}

	verbosity, _ := logging.ParseVerbosity(cfg.Logging.Verbosity)
	console := logging.NewConsole(stdout, verbosity)

	logger := logging.NewWriterLogger("memsync", io.Discard)
	if cfg.Logging.File {
		fileLogger, logErr := logging.NewLogger("memsync")
		if logErr != nil {
			console.Warningf("file logging unavailable: %v", logErr)
		} else {
			logger = fileLogger
			logger.SetLevel(fileLogLevel(verbosity))
			console.Debugf("log file: %s", logger.LogPath())
		}
		defer logger.Close()
	}

	s, err := syncer.New(cfg,
		syncer.WithLogger(logger.With("syncer")),
		syncer.WithConsole(console),
	)
	if err != nil {
		console.Errorf("%v", err)
		return exitFailure
	}

	res, err := s.Run(ctx, cli.LocalPath, cli.RemoteURL, cli.SourceID)
	if err != nil {
		console.Errorf("%v", err)
		return exitFailure
	}

	console.Field("entries", res.Entries)
	console.Field("status", res.Status)
	console.Successf("Memory saved to %s", res.Path)
	return exitOK
}

// fileLogLevel keeps per-entry DEBUG lines out of the session log unless the
// run asked for debug output.
func fileLogLevel(v logging.Verbosity) logging.Level {
	if v >= logging.VerbosityDebug {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}
