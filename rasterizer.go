package pdfprint

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
)

// rasterizer turns pages into white-backed RGBA surfaces at print resolution.
// It keeps one buffer and reuses it while the pixel size stays the same.
type rasterizer struct {
	yielder Yielder
	buf     *image.RGBA
}

func newRasterizer(y Yielder) *rasterizer {
	if y == nil {
		y = schedulerYielder{}
	}
	return &rasterizer{yielder: y}
}

// surfaceSize returns the pixel size of dim at printUnits pixels per point.
func surfaceSize(dim PageDimension, printUnits float64) (int, int) {
	return int(math.Floor(dim.Width * printUnits)), int(math.Floor(dim.Height * printUnits))
}

// rasterize renders page into the shared buffer. extraScale multiplies the
// viewport scale for footprint-normalized pages. The returned image is only
// valid until the next call or release.
func (r *rasterizer) rasterize(ctx context.Context, page Page, dim PageDimension, params *PrintParameters, extraScale float64) (*image.RGBA, error) {
	printUnits := params.printUnits()
	w, h := surfaceSize(dim, printUnits)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty raster surface %dx%d for page %.2fx%.2fpt", w, h, dim.Width, dim.Height)
	}

	surface := r.surface(w, h)
	draw.Draw(surface, surface.Bounds(), image.White, image.Point{}, draw.Src)

	vp := Viewport{
		Scale:    params.Scale * printUnits * extraScale,
		Rotation: NormalizeRotationForDimension(params.Rotation, dim),
		Width:    w,
		Height:   h,
	}

	if err := r.yielder.Yield(ctx); err != nil {
		return nil, err
	}
	if err := page.Render(ctx, surface, vp); err != nil {
		return nil, err
	}
	return surface, nil
}

func (r *rasterizer) surface(w, h int) *image.RGBA {
	if r.buf != nil && r.buf.Rect.Dx() == w && r.buf.Rect.Dy() == h {
		return r.buf
	}
	r.buf = image.NewRGBA(image.Rect(0, 0, w, h))
	return r.buf
}

// release drops the raster buffer.
func (r *rasterizer) release() {
	r.buf = nil
}
