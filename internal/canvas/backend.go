package canvas

// AlphaMode is the blending convention for colors in a frame.
type AlphaMode int

const (
	// AlphaStraight means colors are not premultiplied.
	AlphaStraight AlphaMode = iota
	// AlphaPremultiplied means color channels are already scaled by alpha.
	AlphaPremultiplied
)

// FrameInfo describes the viewport of a frame.
type FrameInfo struct {
	Width      int
	Height     int
	PixelRatio float64
	Alpha      AlphaMode
}

// RenderBackend creates render contexts. Implementations rasterize the
// device-space paths the canvas resolves.
type RenderBackend interface {
	// Name identifies the backend in logs and configuration.
	Name() string
	// NewContext allocates a render context.
	NewContext() (RenderContext, error)
}

// RenderContext is the backend resource a canvas owns between
// InitializeGraphicsResources and DestroyGraphicsResources.
//
// Calls arrive from a single goroutine in the order
// BeginFrame, (Fill | Stroke)*, EndFrame. Paths are in device pixels and
// must not be retained after the call returns.
type RenderContext interface {
	// LoadFont registers font data under name and returns its id.
	LoadFont(name string, data []byte) (int, error)
	// BeginFrame starts a frame with the given viewport.
	BeginFrame(info FrameInfo) error
	// Fill paints the interior of path.
	Fill(path *Path, style FillStyle) error
	// Stroke paints the outline of path.
	Stroke(path *Path, style StrokeStyle) error
	// EndFrame flushes the frame.
	EndFrame() error
	// Close releases the context. It must be safe to call more than once.
	Close() error
}
