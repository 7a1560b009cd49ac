// Package main is the entry point for the textcore command.
//
// textcore loads a text, optionally runs a Lua edit script against it and
// prints a report of its lines and of the anchors and segments the script
// created.
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

	"golang.org/x/term"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/logging"
	"github.com/dshills/textcore/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errHelp ends the run successfully after printing usage or version.
var errHelp = errors.New("help requested")

type options struct {
	ConfigPath string
	ScriptPath string
	LogLevel   string
	Lines      bool
	NFC        bool
	Watch      bool
	File       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stdout, stderr)
	if errors.Is(err, errHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger, closeLog, err := cfg.NewLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()
	log := logger.WithComponent("cli")

	in := stdin
	if opts.File == "" && isTerminal(stdin) {
		fmt.Fprintln(stderr, "Error: no file given and stdin is a terminal")
		return 2
	}
	if opts.File != "" {
		f, err := os.Open(opts.File)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
	}
	if opts.NFC {
		in = transform.NewReader(in, norm.NFC)
	}
	eng, err := engine.NewFromReader(in, cfg.EngineOptions(logger)...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: reading input: %v\n", err)
		return 1
	}
	log.Debug("loaded %d chars in %d lines", eng.Len(), eng.LineCount())

	var rt *script.Runtime
	if cfg.Script.Path != "" {
		timeout, _ := cfg.ScriptTimeout()
		rt = script.New(eng,
			script.WithCallStackSize(cfg.Script.CallStackSize),
			script.WithTimeout(timeout),
			script.WithLogger(logger),
			script.WithOutput(stdout),
		)
		defer rt.Close()
		if err := rt.Run(ctx, cfg.Script.Path); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if err := writeReport(stdout, eng, rt, opts.Lines); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if !opts.Watch {
		return 0
	}
	if err := watch(ctx, opts, eng, rt, logger, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stdout, stderr io.Writer) (options, error) {
	var opts options
	var showVersion, showHelp bool

	fs := flag.NewFlagSet("textcore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.ScriptPath, "script", "", "Lua script to run against the text")
	fs.StringVar(&opts.ScriptPath, "s", "", "Lua script to run against the text (shorthand)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.Lines, "lines", false, "Print every line in the report")
	fs.BoolVar(&opts.NFC, "nfc", false, "Normalize the input to Unicode NFC before loading")
	fs.BoolVar(&opts.Watch, "watch", false, "Reload the file and report again when it changes")
	fs.BoolVar(&opts.Watch, "w", false, "Reload the file and report again when it changes (shorthand)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	fs.BoolVar(&showHelp, "help", false, "Show help message")
	fs.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "textcore - text document engine\n\n")
		fmt.Fprintf(stderr, "Usage: textcore [options] [file]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  textcore -lines notes.txt          Report the lines of a file\n")
		fmt.Fprintf(stderr, "  textcore -s fix.lua notes.txt      Run a script and report\n")
		fmt.Fprintf(stderr, "  cat notes.txt | textcore           Read from stdin\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, errHelp
		}
		return opts, err
	}
	if showHelp {
		fs.Usage()
		return opts, errHelp
	}
	if showVersion {
		fmt.Fprintf(stdout, "textcore %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return opts, errHelp
	}

	if opts.LogLevel != "" {
		if _, ok := logging.ParseLevel(opts.LogLevel); !ok {
			return opts, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.LogLevel)
		}
	}
	switch fs.NArg() {
	case 0:
	case 1:
		opts.File = fs.Arg(0)
	default:
		return opts, fmt.Errorf("expected at most one file, got %d", fs.NArg())
	}
	if opts.Watch && opts.File == "" {
		return opts, errors.New("-watch needs a file argument")
	}
	return opts, nil
}

// loadConfig layers the config file, the environment and the flags.
func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.ScriptPath != "" {
		cfg.Script.Path = opts.ScriptPath
	}
	return cfg, cfg.Validate()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
