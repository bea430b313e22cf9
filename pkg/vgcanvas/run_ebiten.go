//go:build !noebiten

package vgcanvas

import (
	"context"
	"fmt"

	"github.com/opd-ai/go-vgcanvas/internal/backend/ebitenvg"
)

// Run presents frames in a window until it closes or ctx is done.
func (p *playerImpl) Run(ctx context.Context) error {
	p.mu.Lock()
	if !p.loaded.Load() {
		p.mu.Unlock()
		return ErrNotLoaded
	}
	b, ok := p.canvas.Backend().(*ebitenvg.Backend)
	if !ok {
		p.mu.Unlock()
		return NewCategorizedError(fmt.Errorf("%s: %w", p.cfg.Backend.Name, ErrNoWindow), ErrorCategoryBackend, SeverityError)
	}
	w, h := p.canvas.Size()
	win := ebitenvg.NewWindow(ebitenvg.WindowConfig{
		Title:      p.cfg.Window.Title,
		Width:      w,
		Height:     h,
		TPS:        p.cfg.Window.TPS,
		Background: p.cfg.Canvas.Background,
		Resizable:  p.cfg.Window.Resizable,
	}, b, p.windowFrame)
	p.mu.Unlock()

	win.SetContext(ctx)
	// Frame errors already went through notifyError.
	win.SetErrorHandler(func(err error) {
		p.log.Debug("window frame failed", "error", err)
	})
	return win.Run()
}
