package vgcanvas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"

	"github.com/opd-ai/go-vgcanvas/internal/backend"
	_ "github.com/opd-ai/go-vgcanvas/internal/backend/ggraster"
	_ "github.com/opd-ai/go-vgcanvas/internal/backend/recorder"
	"github.com/opd-ai/go-vgcanvas/internal/canvas"
	"github.com/opd-ai/go-vgcanvas/internal/config"
	"github.com/opd-ai/go-vgcanvas/internal/framecmp"
	"github.com/opd-ai/go-vgcanvas/internal/lua"
)

// playerImpl is the private implementation of the Player interface.
type playerImpl struct {
	// Configuration
	cfg          *config.Config
	opts         Options
	configSource string
	readScript   func() ([]byte, error)
	fontLoader   canvas.FontLoader // nil for disk configs
	watchPaths   []string

	// Ambient
	log     *slog.Logger
	metrics *Metrics
	breaker *CircuitBreaker

	// Components, guarded by mu
	canvas   *canvas.VectorCanvas
	runtime  *lua.Runtime
	bindings *lua.CanvasBindings
	hooks    *lua.HookManager
	watcher  *fileWatcher
	frame    int

	// State
	loaded  atomic.Bool
	frames  atomic.Uint64
	reloads atomic.Uint64

	// stateMu guards the fields read by Status and the handlers, so they
	// never wait for a frame.
	stateMu      sync.RWMutex
	loadTime     time.Time
	lastError    error
	errorHandler ErrorHandler
	eventHandler EventHandler

	mu sync.Mutex
}

// Verify interface implementation at compile time.
var _ Player = (*playerImpl)(nil)

// Load creates the backend and canvas and loads the script.
func (p *playerImpl) Load() error {
	start := time.Now()

	p.mu.Lock()
	if p.loaded.Load() {
		p.mu.Unlock()
		return ErrAlreadyLoaded
	}
	if err := p.loadLocked(); err != nil {
		p.mu.Unlock()
		p.metrics.IncrementErrors()
		p.setError(err)
		return err
	}
	p.loaded.Store(true)
	p.frames.Store(0)
	p.frame = 0
	p.mu.Unlock()

	p.stateMu.Lock()
	p.loadTime = time.Now()
	p.stateMu.Unlock()

	p.metrics.IncrementLoads()
	p.metrics.SetLoaded(true)
	p.metrics.RecordLoadLatency(time.Since(start))

	p.log.Info("player loaded",
		"config", p.configSource,
		"backend", p.cfg.Backend.Name,
		"script", p.cfg.Script.Path,
		"width", p.cfg.Canvas.Width,
		"height", p.cfg.Canvas.Height)
	p.emitEvent(EventLoaded, "Player loaded from "+p.configSource)
	return nil
}

func (p *playerImpl) loadLocked() error {
	result := config.NewValidator().
		WithBackends(backend.Names()...).
		WithFileChecks(p.fontLoader == nil).
		Validate(p.cfg)
	for _, w := range result.Warnings {
		p.log.Warn("config warning", "field", w.Field, "message", w.Message)
	}
	if err := result.Error(); err != nil {
		return NewCategorizedError(err, ErrorCategoryConfig, SeverityCritical)
	}

	b, err := backend.New(p.cfg.Backend.Name, backend.Options{
		AntiAlias: p.cfg.Backend.AntiAlias,
		Logger:    p.log.With("backend", p.cfg.Backend.Name),
	})
	if err != nil {
		return NewCategorizedError(err, ErrorCategoryBackend, SeverityCritical)
	}

	c, err := canvas.New(b,
		canvas.WithStrict(p.cfg.Canvas.Strict),
		canvas.WithLogger(p.log),
		canvas.WithFont(p.cfg.Font.Name, p.cfg.Font.Path),
		canvas.WithFontLoader(p.fontLoader),
	)
	if err != nil {
		return NewCategorizedError(err, ErrorCategoryBackend, SeverityCritical)
	}
	c.SetSize(p.cfg.Canvas.Width, p.cfg.Canvas.Height)
	if err := c.InitializeGraphicsResources(); err != nil {
		return NewCategorizedError(err, ErrorCategoryBackend, SeverityCritical)
	}
	p.canvas = c

	if err := p.loadScriptLocked(); err != nil {
		if derr := c.DestroyGraphicsResources(); derr != nil {
			p.log.Warn("failed to release graphics resources", "error", derr)
		}
		p.canvas = nil
		return err
	}

	if len(p.watchPaths) > 0 {
		w, err := newFileWatcher(p.watchPaths, p.opts.WatchDebounce, p.Reload, p.notifyError)
		if err != nil {
			// Rendering works without reloads.
			p.log.Warn("script watch disabled", "error", err)
		} else {
			p.watcher = w
			w.Start()
		}
	}
	return nil
}

// loadScriptLocked reads and runs the script in a fresh runtime. The
// previous script, if any, is torn down only after the new one is ready;
// on failure it stays active.
func (p *playerImpl) loadScriptLocked() error {
	code, err := p.readScript()
	if err != nil {
		return NewCategorizedError(fmt.Errorf("read script: %w", err), ErrorCategoryIO, SeverityError)
	}

	runtime, err := lua.New(lua.RuntimeConfig{
		CPULimit:    p.cfg.Script.CPULimit,
		MemoryLimit: p.cfg.Script.MemoryLimit,
		Stdout:      p.opts.ScriptOutput,
	})
	if err != nil {
		return NewCategorizedError(err, ErrorCategoryScript, SeverityCritical)
	}

	bindings, hooks, err := p.prepareScript(runtime, code)
	if err != nil {
		runtime.Close()
		return NewCategorizedError(err, ErrorCategoryScript, SeverityError).
			WithContext("script", p.cfg.Script.Path)
	}

	if p.runtime != nil {
		if err := p.unloadScriptLocked(); err != nil {
			p.log.Warn("previous script teardown failed", "error", err)
		}
	}
	p.runtime = runtime
	p.bindings = bindings
	p.hooks = hooks
	return nil
}

func (p *playerImpl) prepareScript(runtime *lua.Runtime, code []byte) (*lua.CanvasBindings, *lua.HookManager, error) {
	bindings, err := lua.NewCanvasBindings(runtime, p.canvas)
	if err != nil {
		return nil, nil, err
	}
	hooks, err := lua.NewHookManager(runtime)
	if err != nil {
		return nil, nil, err
	}
	if err := hooks.Bind(lua.HookDraw, p.cfg.Script.Entry); err != nil {
		return nil, nil, err
	}

	closure, err := runtime.LoadBytes(p.cfg.Script.Path, code)
	if err != nil {
		return nil, nil, err
	}
	if _, err := runtime.Execute(closure); err != nil {
		return nil, nil, err
	}
	if !hooks.Defined(lua.HookDraw) {
		return nil, nil, fmt.Errorf("%s: entry %s: %w", p.cfg.Script.Path, p.cfg.Script.Entry, lua.ErrFunctionNotFound)
	}
	if _, err := hooks.CallIfDefined(lua.HookSetup); err != nil {
		return nil, nil, err
	}
	return bindings, hooks, nil
}

// unloadScriptLocked runs the teardown hook and closes the runtime.
func (p *playerImpl) unloadScriptLocked() error {
	if p.runtime == nil {
		return nil
	}
	_, err := p.hooks.CallIfDefined(lua.HookTeardown)
	if cerr := p.runtime.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	p.runtime = nil
	p.bindings = nil
	p.hooks = nil
	return err
}

// RenderFrame renders the next frame.
func (p *playerImpl) RenderFrame() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded.Load() {
		return ErrNotLoaded
	}
	return p.renderFrameLocked()
}

func (p *playerImpl) renderFrameLocked() error {
	start := time.Now()
	var err error
	trace.WithRegion(context.Background(), "vgcanvas.frame", func() {
		err = p.bindings.DrawFrame(p.hooks.FunctionName(lua.HookDraw), p.frame)
	})
	p.metrics.RecordFrame(time.Since(start), err)
	if err != nil {
		cerr := NewCategorizedError(fmt.Errorf("frame %d: %w", p.frame, err), classifyFrameError(err), SeverityError).
			WithContext("frame", strconv.Itoa(p.frame))
		p.notifyError(cerr)
		return cerr
	}
	p.frame++
	p.frames.Add(1)
	return nil
}

// RenderFrames renders the configured frames, writes them out and checks
// the golden image.
func (p *playerImpl) RenderFrames(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded.Load() {
		return ErrNotLoaded
	}

	out := p.cfg.Output
	n := max(out.Frames, 1)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.renderFrameLocked(); err != nil {
			return err
		}
		if out.Path == "" {
			continue
		}
		if err := p.writeFrameLocked(out.FramePath(i, n)); err != nil {
			return err
		}
	}

	if out.Golden == "" {
		return nil
	}
	return p.checkGoldenLocked()
}

// writeFrameLocked saves the last frame as an image file.
func (p *playerImpl) writeFrameLocked(path string) error {
	if err := ensureDir(path); err != nil {
		return NewCategorizedError(err, ErrorCategoryIO, SeverityError)
	}

	var err error
	if saver, ok := p.canvas.Context().(interface{ SavePNG(string) error }); ok {
		err = saver.SavePNG(path)
	} else {
		var img image.Image
		if img, err = p.snapshotLocked(); err == nil {
			err = imaging.Save(img, path)
		}
	}
	if err != nil {
		return NewCategorizedError(fmt.Errorf("write frame %s: %w", path, err), ErrorCategoryIO, SeverityError)
	}
	p.metrics.IncrementFramesWritten()
	p.log.Debug("frame written", "path", path)
	return nil
}

// checkGoldenLocked compares the last frame with the golden image, or
// replaces the golden image when UpdateGolden is set.
func (p *playerImpl) checkGoldenLocked() error {
	golden := p.cfg.Output.Golden
	img, err := p.snapshotLocked()
	if err != nil {
		return NewCategorizedError(err, ErrorCategoryBackend, SeverityError)
	}

	if p.opts.UpdateGolden {
		if err := ensureDir(golden); err != nil {
			return NewCategorizedError(err, ErrorCategoryIO, SeverityError)
		}
		if err := framecmp.WriteGolden(img, golden); err != nil {
			return NewCategorizedError(err, ErrorCategoryIO, SeverityError)
		}
		p.log.Info("golden image updated", "path", golden)
		return nil
	}

	res, err := framecmp.CompareFile(img, golden, framecmp.Options{Threshold: p.opts.CompareThreshold})
	if errors.Is(err, framecmp.ErrSizeMismatch) {
		p.metrics.RecordGoldenCompare(false)
		p.emitEvent(EventGoldenMismatch, err.Error())
		return NewCategorizedError(fmt.Errorf("%s: %w: %w", golden, ErrGoldenMismatch, err), ErrorCategoryRender, SeverityError)
	}
	if err != nil {
		return NewCategorizedError(err, ErrorCategoryIO, SeverityError)
	}

	matched := res.Within(p.cfg.Output.Tolerance)
	p.metrics.RecordGoldenCompare(matched)
	if matched {
		p.log.Debug("golden image matched", "path", golden, "result", res.String())
		return nil
	}

	if p.opts.DiffPath != "" {
		if err := res.SaveDiff(p.opts.DiffPath); err != nil {
			p.log.Warn("failed to save diff image", "error", err)
		}
	}
	mismatch := fmt.Errorf("%s: %s: %w", golden, res, ErrGoldenMismatch)
	p.emitEvent(EventGoldenMismatch, mismatch.Error())
	return NewCategorizedError(mismatch, ErrorCategoryRender, SeverityError).
		WithContext("golden", golden)
}

// snapshotLocked reads the last frame back from the render context.
func (p *playerImpl) snapshotLocked() (image.Image, error) {
	reader, ok := p.canvas.Context().(interface{ Image() (*image.RGBA, error) })
	if !ok {
		return nil, fmt.Errorf("%s: %w", p.cfg.Backend.Name, ErrNoSnapshot)
	}
	img, err := reader.Image()
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Image returns the last completed frame.
func (p *playerImpl) Image() (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded.Load() {
		return nil, ErrNotLoaded
	}
	return p.snapshotLocked()
}

// Compare compares the last completed frame with the image at path.
func (p *playerImpl) Compare(path string) (*CompareResult, error) {
	img, err := p.Image()
	if err != nil {
		return nil, err
	}
	res, err := framecmp.CompareFile(img, path, framecmp.Options{Threshold: p.opts.CompareThreshold})
	if err != nil {
		return nil, err
	}
	p.metrics.RecordGoldenCompare(res.Within(p.cfg.Output.Tolerance))
	return &CompareResult{
		Width:     res.Width,
		Height:    res.Height,
		Differing: res.Differing,
		Ratio:     res.Ratio(),
		MaxDelta:  res.MaxDelta,
	}, nil
}

// windowFrame renders one window tick. Failing frames trip the circuit
// breaker so a broken script is retried at the breaker's pace instead of
// every tick.
func (p *playerImpl) windowFrame() error {
	err := p.breaker.Execute(p.RenderFrame)
	if errors.Is(err, ErrCircuitOpen) {
		p.metrics.IncrementFramesSkipped()
		return nil
	}
	return err
}

// Reload re-reads the script.
func (p *playerImpl) Reload() error {
	p.mu.Lock()
	if !p.loaded.Load() {
		p.mu.Unlock()
		return ErrNotLoaded
	}
	if err := p.loadScriptLocked(); err != nil {
		p.mu.Unlock()
		p.log.Warn("script reload failed, keeping previous script", "error", err)
		return err
	}
	p.mu.Unlock()

	p.breaker.Reset()
	p.reloads.Add(1)
	p.metrics.IncrementScriptReloads()
	p.log.Info("script reloaded", "script", p.cfg.Script.Path)
	p.emitEvent(EventScriptReloaded, "Script reloaded from "+p.cfg.Script.Path)
	return nil
}

// Close tears down the script and releases graphics resources.
func (p *playerImpl) Close() error {
	// The watcher may be waiting on mu inside Reload, so stop it unlocked.
	p.mu.Lock()
	w := p.watcher
	p.watcher = nil
	p.mu.Unlock()
	if w != nil {
		w.Stop()
	}

	p.mu.Lock()
	if !p.loaded.Load() {
		p.mu.Unlock()
		return nil
	}
	var errs []error
	if err := p.unloadScriptLocked(); err != nil {
		errs = append(errs, fmt.Errorf("teardown: %w", err))
	}
	if err := p.canvas.DestroyGraphicsResources(); err != nil {
		errs = append(errs, fmt.Errorf("release graphics resources: %w", err))
	}
	p.canvas = nil
	p.loaded.Store(false)
	p.mu.Unlock()

	p.metrics.IncrementCloses()
	p.metrics.SetLoaded(false)
	p.log.Info("player closed", "frames", p.frames.Load())
	p.emitEvent(EventClosed, "Player closed")
	return errors.Join(errs...)
}

// Status returns detailed status information.
func (p *playerImpl) Status() Status {
	p.stateMu.RLock()
	loadTime := p.loadTime
	lastError := p.lastError
	p.stateMu.RUnlock()

	return Status{
		Loaded:       p.loaded.Load(),
		LoadTime:     loadTime,
		Frames:       p.frames.Load(),
		Reloads:      p.reloads.Load(),
		LastError:    lastError,
		ConfigSource: p.configSource,
		Script:       p.cfg.Script.Path,
		Backend:      p.cfg.Backend.Name,
	}
}

// SetErrorHandler registers a callback for runtime errors.
func (p *playerImpl) SetErrorHandler(handler ErrorHandler) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.errorHandler = handler
}

// SetEventHandler registers a callback for lifecycle events.
func (p *playerImpl) SetEventHandler(handler EventHandler) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.eventHandler = handler
}

// Metrics returns the metrics collector for this player.
func (p *playerImpl) Metrics() *Metrics {
	return p.metrics
}

func (p *playerImpl) setError(err error) {
	p.stateMu.Lock()
	p.lastError = err
	p.stateMu.Unlock()
}

// notifyError records err and passes it to the error handler.
func (p *playerImpl) notifyError(err error) {
	p.setError(err)
	p.metrics.IncrementErrors()

	p.stateMu.RLock()
	handler := p.errorHandler
	p.stateMu.RUnlock()

	if handler != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error("error handler panicked", "panic", r, "original_error", err)
				}
			}()
			handler(err)
		}()
	}

	p.emitEvent(EventError, err.Error())
}

// emitEvent sends an event to the event handler.
func (p *playerImpl) emitEvent(eventType EventType, message string) {
	p.metrics.IncrementEventsEmitted()

	p.stateMu.RLock()
	handler := p.eventHandler
	p.stateMu.RUnlock()

	if handler == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("event handler panicked", "panic", r, "event", eventType.String())
			}
		}()
		handler(Event{
			Type:      eventType,
			Timestamp: time.Now(),
			Message:   message,
		})
	}()
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
