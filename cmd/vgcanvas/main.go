// Package main provides the vgcanvas player. It renders a drawing script
// offscreen to PNG files, checks the result against a golden image, or
// presents it in a window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/opd-ai/go-vgcanvas/internal/config"
	"github.com/opd-ai/go-vgcanvas/internal/profiling"
	"github.com/opd-ai/go-vgcanvas/pkg/vgcanvas"
)

// Version is the current version of vgcanvas.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitMismatch = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type cliFlags struct {
	configPath   string
	backend      string
	script       string
	output       string
	frames       int
	golden       string
	updateGolden bool
	diffPath     string
	threshold    uint
	window       bool
	watch        bool
	version      bool
	debug        bool
	dumpConfig   string
	cpuProfile   string
	memProfile   string
	traceFile    string
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("vgcanvas", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "c", "", "Path to configuration file (.lua, .toml or .yaml)")
	fs.StringVar(&f.backend, "backend", "", "Render backend (overrides backend.name)")
	fs.StringVar(&f.script, "script", "", "Drawing script (overrides script.path)")
	fs.StringVar(&f.output, "o", "", "PNG output path (overrides output.path)")
	fs.IntVar(&f.frames, "frames", 0, "Number of frames to render (overrides output.frames)")
	fs.StringVar(&f.golden, "golden", "", "Golden image to compare the last frame with")
	fs.BoolVar(&f.updateGolden, "update-golden", false, "Write the last frame to the golden path instead of comparing")
	fs.StringVar(&f.diffPath, "diff", "", "Write a diff image here when the golden comparison fails")
	fs.UintVar(&f.threshold, "threshold", 0, "Per-channel difference (0-255) ignored by the golden comparison")
	fs.BoolVar(&f.window, "window", false, "Present frames in a window (ebiten backend)")
	fs.BoolVar(&f.watch, "watch", false, "Reload the script when it changes")
	fs.BoolVar(&f.version, "v", false, "Print version and exit")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.dumpConfig, "dump-config", "", "Print the effective configuration as lua, toml or yaml and exit")
	fs.StringVar(&f.cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	fs.StringVar(&f.memProfile, "memprofile", "", "Write memory profile to file")
	fs.StringVar(&f.traceFile, "trace", "", "Write execution trace to file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.threshold > 255 {
		return nil, fmt.Errorf("-threshold must be at most 255, got %d", f.threshold)
	}
	return f, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if flags.version {
		fmt.Fprintf(stdout, "vgcanvas version %s\n", Version)
		return exitOK
	}

	if flags.configPath == "" {
		fmt.Fprintln(stderr, "No configuration file specified. Use -c to specify a config file.")
		fmt.Fprintln(stderr, "Usage: vgcanvas -c <config-file> [flags]")
		return exitUsage
	}

	if flags.dumpConfig != "" {
		return runDumpConfig(flags.configPath, flags.dumpConfig, stdout, stderr)
	}

	logger := newLogger(stderr, flags.debug)

	profiler := profiling.New(profiling.Config{
		CPUProfile: flags.cpuProfile,
		MemProfile: flags.memProfile,
		Trace:      flags.traceFile,
	}, logger)
	if err := profiler.Start(); err != nil {
		fmt.Fprintf(stderr, "Failed to start profiling: %v\n", err)
		return exitError
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to stop profiling: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return play(ctx, flags, logger, stderr)
}

func play(ctx context.Context, flags *cliFlags, logger *slog.Logger, stderr io.Writer) int {
	opts := vgcanvas.DefaultOptions()
	opts.Logger = vgcanvas.NewSlogAdapter(logger)
	opts.Metrics = vgcanvas.NewMetrics()
	opts.Backend = flags.backend
	opts.Script = flags.script
	opts.OutputPath = flags.output
	opts.Frames = flags.frames
	opts.Golden = flags.golden
	opts.UpdateGolden = flags.updateGolden
	opts.DiffPath = flags.diffPath
	opts.CompareThreshold = uint8(flags.threshold)
	opts.WatchScript = flags.watch
	if flags.window && opts.Backend == "" {
		opts.Backend = "ebiten"
	}

	p, err := vgcanvas.New(flags.configPath, &opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	p.SetErrorHandler(func(err error) {
		logger.Warn("runtime error", "error", err)
	})

	if err := p.Load(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer func() {
		if err := p.Close(); err != nil {
			fmt.Fprintf(stderr, "Warning: close: %v\n", err)
		}
	}()

	// SIGHUP reloads the script.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				if err := p.Reload(); err != nil {
					logger.Warn("reload failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if flags.window {
		err = p.Run(ctx)
	} else {
		err = p.RenderFrames(ctx)
	}

	snap := p.Metrics().Snapshot()
	logger.Info("done",
		"frames", snap.FramesRendered,
		"frame_errors", snap.FrameErrors,
		"frames_written", snap.FramesWritten,
		"avg_frame", snap.FrameLatencyAvg)

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, vgcanvas.ErrGoldenMismatch):
		fmt.Fprintf(stderr, "Golden mismatch: %v\n", err)
		return exitMismatch
	case errors.Is(err, context.Canceled):
		return exitOK
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}

// runDumpConfig prints the configuration at path, with environment
// variables expanded and every default filled in, in the named format.
func runDumpConfig(path, formatName string, stdout, stderr io.Writer) int {
	format, err := config.ParseFormat(formatName)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	parser, err := config.NewParser()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer parser.Close()

	cfg, err := parser.ParseFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	config.ExpandEnvConfig(cfg)

	out, err := config.NewEncoder(config.WithDefaults(true)).Encode(cfg, format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if _, err := stdout.Write(out); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

// newLogger writes text to terminals and JSON everywhere else.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: debug}

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
