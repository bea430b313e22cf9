package ebitenvg

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// ErrWindowClosed is returned from Update once the window loop is told to stop,
// either through context cancellation or by a FrameFunc.
var ErrWindowClosed = errors.New("window closed")

// FrameFunc renders one canvas frame. It runs on the ebiten update goroutine
// once per tick.
type FrameFunc func() error

// ErrorHandler receives frame errors. Frame errors do not stop the loop.
type ErrorHandler func(err error)

// DefaultErrorHandler writes errors to stderr.
func DefaultErrorHandler(err error) {
	fmt.Fprintf(os.Stderr, "frame error: %v\n", err)
}

// WindowConfig configures a Window.
type WindowConfig struct {
	Title      string
	Width      int
	Height     int
	TPS        int
	Background color.Color
	Resizable  bool
}

// Window implements ebiten.Game. Each Update renders a frame through the
// FrameFunc; each Draw presents the current context's image.
type Window struct {
	config       WindowConfig
	backend      *Backend
	frame        FrameFunc
	errorHandler ErrorHandler
	ctx          context.Context
	running      bool
	mu           sync.RWMutex
}

// NewWindow creates a window presenting the frames of b.
func NewWindow(config WindowConfig, b *Backend, frame FrameFunc) *Window {
	if config.Background == nil {
		config.Background = color.Transparent
	}
	return &Window{
		config:       config,
		backend:      b,
		frame:        frame,
		errorHandler: DefaultErrorHandler,
	}
}

// SetErrorHandler replaces the error handler. A nil handler drops errors.
func (w *Window) SetErrorHandler(handler ErrorHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errorHandler = handler
}

// SetContext makes the loop stop once ctx is done.
func (w *Window) SetContext(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctx = ctx
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	w.mu.RLock()
	ctx, frame, handler := w.ctx, w.frame, w.errorHandler
	w.mu.RUnlock()

	if ctx != nil {
		select {
		case <-ctx.Done():
			return ErrWindowClosed
		default:
		}
	}
	if frame == nil {
		return nil
	}
	if err := frame(); err != nil {
		if errors.Is(err, ErrWindowClosed) {
			return err
		}
		if handler != nil {
			handler(err)
		}
	}
	return nil
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.RLock()
	bg := w.config.Background
	w.mu.RUnlock()

	screen.Fill(bg)
	if w.backend == nil {
		return
	}
	ctx := w.backend.Current()
	if ctx == nil {
		return
	}
	if img := ctx.Image(); img != nil {
		screen.DrawImage(img, nil)
	}
}

// Layout implements ebiten.Game. The logical screen matches the canvas size.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config.Width, w.config.Height
}

// Run opens the window and blocks until it is closed. A stop requested
// through the context returns nil.
func (w *Window) Run() error {
	w.mu.Lock()
	cfg := w.config
	w.running = true
	w.mu.Unlock()

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}

	err := ebiten.RunGame(w)

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	if errors.Is(err, ErrWindowClosed) {
		return nil
	}
	return err
}

// IsRunning reports whether Run is active.
func (w *Window) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
