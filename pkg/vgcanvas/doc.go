// Package vgcanvas provides the public API for playing vgcanvas drawing
// scripts. A Player reads a configuration, creates the render backend and
// canvas it names, loads the Lua script and renders frames offscreen or in
// a window.
//
// # Basic Usage
//
//	p, err := vgcanvas.New("clock.toml", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	if err := p.Load(); err != nil {
//		log.Fatal(err)
//	}
//	if err := p.RenderFrames(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// # Configuration Sources
//
//   - Disk file: Use [New] to load from a filesystem path
//   - Embedded FS: Use [NewFromFS] to load from an [io/fs.FS]
//   - io.Reader: Use [NewFromReader] for dynamic configurations
//
// Script and font paths in a configuration file are relative to the file.
//
// # Scripts
//
// A script defines a draw function called once per frame with the frame
// index, and may define setup and teardown:
//
//	function draw(frame)
//		vg_fill_color(1, 0, 0, 1)
//		vg_rect(10, 10, 100, 50)
//		vg_render_fill()
//	end
//
// # Error Handling
//
// Errors returned by a Player are [*CategorizedError] values. Runtime
// errors are also reported through [ErrorHandler]:
//
//	p.SetErrorHandler(func(err error) {
//		log.Printf("vgcanvas error: %v", err)
//	})
//
// The handler is called asynchronously; do not block in the handler.
package vgcanvas
