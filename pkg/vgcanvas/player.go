package vgcanvas

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/opd-ai/go-vgcanvas/internal/config"
	"github.com/opd-ai/go-vgcanvas/internal/font"
)

// Configuration format names for use with NewFromReader.
const (
	FormatLua  = string(config.FormatLua)
	FormatTOML = string(config.FormatTOML)
	FormatYAML = string(config.FormatYAML)
)

// Player runs a drawing script against a canvas. It is safe for concurrent
// use; frames, reloads and Close are serialized.
type Player interface {
	// Load creates the backend and canvas, loads the script and runs its
	// setup hook. The configuration is validated first.
	Load() error

	// RenderFrame renders the next frame by calling the script's draw hook
	// inside a canvas frame.
	RenderFrame() error

	// RenderFrames renders output.frames frames, writes each to output.path
	// when set, and compares the last frame with output.golden when set.
	RenderFrames(ctx context.Context) error

	// Run presents frames in a window until it is closed or ctx is done.
	// It needs the ebiten backend and must be called from the main goroutine.
	Run(ctx context.Context) error

	// Reload re-reads the script. If the new script fails to load, the
	// previous one stays active.
	Reload() error

	// Image returns the last completed frame.
	Image() (image.Image, error)

	// Compare compares the last completed frame with the image at path.
	Compare(path string) (*CompareResult, error)

	// Close runs the teardown hook and releases the script runtime and the
	// graphics resources. Safe to call multiple times.
	Close() error

	// Status returns detailed status information.
	Status() Status

	// SetErrorHandler registers a callback for runtime errors.
	SetErrorHandler(handler ErrorHandler)

	// SetEventHandler registers a callback for lifecycle events.
	SetEventHandler(handler EventHandler)

	// Metrics returns the metrics collector for this player.
	Metrics() *Metrics
}

// CompareResult describes how a frame differs from a reference image.
type CompareResult struct {
	Width     int
	Height    int
	Differing int
	Ratio     float64
	MaxDelta  uint8
}

// New creates a Player from a configuration file on disk. The format
// follows the file extension. The player is created but not loaded; call
// Load before rendering.
//
// Example:
//
//	p, err := vgcanvas.New("/home/user/clock.toml", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
func New(configPath string, opts *Options) (Player, error) {
	parser, err := config.NewParser()
	if err != nil {
		return nil, fmt.Errorf("parser init: %w", err)
	}
	defer parser.Close()

	cfg, err := parser.ParseFile(configPath)
	if err != nil {
		return nil, NewCategorizedError(fmt.Errorf("parse config: %w", err), ErrorCategoryConfig, SeverityCritical)
	}
	config.ExpandEnvConfig(cfg)

	dir := filepath.Dir(configPath)
	cfg.Script.Path = resolvePath(dir, cfg.Script.Path)
	cfg.Font.Path = resolvePath(dir, cfg.Font.Path)

	return newPlayer(cfg, opts, configPath, nil), nil
}

// NewFromFS creates a Player using configuration, script and font files
// from fsys. This enables bundling them with the embed package.
//
// Example:
//
//	//go:embed scenes/*
//	var scenes embed.FS
//
//	p, err := vgcanvas.NewFromFS(scenes, "scenes/clock.yaml", nil)
func NewFromFS(fsys fs.FS, configPath string, opts *Options) (Player, error) {
	parser, err := config.NewParser()
	if err != nil {
		return nil, fmt.Errorf("parser init: %w", err)
	}
	defer parser.Close()

	cfg, err := parser.ParseFromFS(fsys, configPath)
	if err != nil {
		return nil, NewCategorizedError(fmt.Errorf("parse config from FS: %w", err), ErrorCategoryConfig, SeverityCritical)
	}
	config.ExpandEnvConfigWithOptions(cfg, config.WithExpandOutput(true))

	dir := path.Dir(configPath)
	if cfg.Script.Path != "" {
		cfg.Script.Path = path.Join(dir, cfg.Script.Path)
	}
	if cfg.Font.Path != "" {
		cfg.Font.Path = path.Join(dir, cfg.Font.Path)
	}

	p := newPlayer(cfg, opts, "embedded:"+configPath, fsys)
	return p, nil
}

// NewFromReader creates a Player from configuration content. The format
// must be FormatLua, FormatTOML or FormatYAML. Relative paths in the
// configuration are relative to the working directory.
//
// Example:
//
//	cfg := strings.NewReader("script:\n  path: clock.lua\n")
//	p, err := vgcanvas.NewFromReader(cfg, vgcanvas.FormatYAML, nil)
func NewFromReader(r io.Reader, format string, opts *Options) (Player, error) {
	if _, err := config.ParseFormat(format); err != nil {
		return nil, NewCategorizedError(err, ErrorCategoryConfig, SeverityCritical)
	}

	// Read content once (can't re-read a Reader)
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, NewCategorizedError(fmt.Errorf("read config: %w", err), ErrorCategoryIO, SeverityCritical)
	}

	parser, err := config.NewParser()
	if err != nil {
		return nil, fmt.Errorf("parser init: %w", err)
	}
	defer parser.Close()

	cfg, err := parser.ParseReader(bytes.NewReader(content), format)
	if err != nil {
		return nil, NewCategorizedError(fmt.Errorf("parse config: %w", err), ErrorCategoryConfig, SeverityCritical)
	}
	config.ExpandEnvConfig(cfg)

	return newPlayer(cfg, opts, "reader:"+format, nil), nil
}

func newPlayer(cfg *config.Config, opts *Options, source string, fsys fs.FS) *playerImpl {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}
	applyOptions(cfg, opts)

	p := &playerImpl{
		cfg:          cfg,
		opts:         *opts,
		configSource: source,
		log:          toSlog(opts.Logger),
		metrics:      opts.Metrics,
		breaker:      NewCircuitBreaker(opts.CircuitBreaker),
	}
	if p.metrics == nil {
		p.metrics = DefaultMetrics()
	}

	if fsys == nil {
		p.readScript = func() ([]byte, error) { return os.ReadFile(cfg.Script.Path) }
		if opts.WatchScript && cfg.Script.Path != "" {
			p.watchPaths = []string{cfg.Script.Path}
		}
		return p
	}

	scriptFS := fsys
	if opts.Script != "" {
		// An explicit script comes from disk.
		scriptFS = nil
	}
	p.readScript = func() ([]byte, error) {
		if scriptFS == nil {
			return os.ReadFile(cfg.Script.Path)
		}
		return fs.ReadFile(scriptFS, cfg.Script.Path)
	}
	p.fontLoader = func(name, fontPath string) (*font.Resource, error) {
		return font.LoadFS(fsys, name, fontPath)
	}
	return p
}

// applyOptions copies the non-zero overrides in opts into cfg.
func applyOptions(cfg *config.Config, opts *Options) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Backend.Name, opts.Backend)
	override(&cfg.Script.Path, opts.Script)
	override(&cfg.Output.Path, opts.OutputPath)
	override(&cfg.Output.Golden, opts.Golden)
	override(&cfg.Window.Title, opts.WindowTitle)

	if opts.Width > 0 {
		cfg.Canvas.Width = opts.Width
	}
	if opts.Height > 0 {
		cfg.Canvas.Height = opts.Height
	}
	if opts.Frames > 0 {
		cfg.Output.Frames = opts.Frames
	}
	if opts.LuaCPULimit > 0 {
		cfg.Script.CPULimit = opts.LuaCPULimit
	}
	if opts.LuaMemoryLimit > 0 {
		cfg.Script.MemoryLimit = opts.LuaMemoryLimit
	}
}

// resolvePath makes a relative p relative to dir.
func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
