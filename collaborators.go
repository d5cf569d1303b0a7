package pdfprint

import (
	"context"
	"image/draw"
	"runtime"
)

// PageRenderer decodes documents into page-addressable handles.
type PageRenderer interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

// Document is a decoded, page-addressable document.
type Document interface {
	PageCount() int
	// Page returns the page at index, starting at 1.
	Page(ctx context.Context, index int) (Page, error)
	Close() error
}

// Page is one page of a Document.
type Page interface {
	// Size returns the page size in PDF points, before any rotation.
	Size() (width, height float64)
	// Render draws the page into dst through vp. dst is already filled white.
	Render(ctx context.Context, dst draw.Image, vp Viewport) error
}

// Viewport is the transform a page is rendered through.
type Viewport struct {
	Scale    float64 // device pixels per PDF point
	Rotation int     // 0, 90, 180 or 270
	Width    int     // target surface width in pixels
	Height   int     // target surface height in pixels
}

// Inspector reads document metadata without rasterizing.
type Inspector interface {
	PageCount(ctx context.Context, data []byte) (int, error)
}

// SourceLoader resolves a locator into document bytes.
type SourceLoader interface {
	Load(ctx context.Context, locator string) ([]byte, error)
}

// Surface is a print surface handed out by a SurfaceHost.
type Surface interface {
	ID() string
}

// Content is what gets mounted onto a surface.
// Exactly one of EmbedURL (native strategy) or Pages (raster strategy) is set.
type Content struct {
	StyleSheet string
	HTML       string
	Pages      []PageElement
	EmbedURL   string
	PageWidth  float64 // points, largest page width
	PageHeight float64 // points, largest page height
}

// PageElement is one assembled raster page.
type PageElement struct {
	Index     int
	Src       string
	WidthPx   int
	HeightPx  int
	Dimension PageDimension
}

// SurfaceHost owns the platform side of print surfaces.
type SurfaceHost interface {
	Capabilities() HostCapabilities
	Create(ctx context.Context, id string) (Surface, error)
	DestroyIfExists(ctx context.Context, id string) error
	// Mount returns once the content has finished loading on the surface.
	Mount(ctx context.Context, s Surface, c *Content) error
	// Print returns once the host has finished printing the surface.
	Print(ctx context.Context, s Surface) error
	Teardown(ctx context.Context, s Surface) error
}

// Yielder lets the host run between pipeline steps.
type Yielder interface {
	Yield(ctx context.Context) error
}

// YielderFunc adapts a function to Yielder.
type YielderFunc func(ctx context.Context) error

// Yield calls f(ctx).
func (f YielderFunc) Yield(ctx context.Context) error {
	return f(ctx)
}

// schedulerYielder yields the goroutine scheduler and reports cancellation.
type schedulerYielder struct{}

func (schedulerYielder) Yield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}
