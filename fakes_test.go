package pdfprint

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Fake renderer
// ---------------------------------------------------------------------------

type fakePageSpec struct {
	w, h      float64
	renderErr error
	panicMsg  string
}

type fakeRenderer struct {
	pages   []fakePageSpec
	openErr error

	opens   atomic.Int32
	renders atomic.Int32

	mu        sync.Mutex
	viewports []Viewport
}

func newFakeRenderer(sizes ...[2]float64) *fakeRenderer {
	r := &fakeRenderer{}
	for _, s := range sizes {
		r.pages = append(r.pages, fakePageSpec{w: s[0], h: s[1]})
	}
	return r
}

func (r *fakeRenderer) Open(_ context.Context, data []byte) (Document, error) {
	r.opens.Add(1)
	if r.openErr != nil {
		return nil, r.openErr
	}
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}
	return &fakeDocument{r: r}, nil
}

func (r *fakeRenderer) recorded() []Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Viewport, len(r.viewports))
	copy(out, r.viewports)
	return out
}

type fakeDocument struct {
	r      *fakeRenderer
	closed bool
}

func (d *fakeDocument) PageCount() int { return len(d.r.pages) }

func (d *fakeDocument) Page(_ context.Context, index int) (Page, error) {
	if index < 1 || index > len(d.r.pages) {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	return &fakePage{r: d.r, spec: d.r.pages[index-1]}, nil
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

type fakePage struct {
	r    *fakeRenderer
	spec fakePageSpec
}

func (p *fakePage) Size() (float64, float64) { return p.spec.w, p.spec.h }

func (p *fakePage) Render(_ context.Context, dst draw.Image, vp Viewport) error {
	if p.spec.panicMsg != "" {
		panic(p.spec.panicMsg)
	}
	if p.spec.renderErr != nil {
		return p.spec.renderErr
	}
	p.r.renders.Add(1)
	p.r.mu.Lock()
	p.r.viewports = append(p.r.viewports, vp)
	p.r.mu.Unlock()

	// One black pixel in the middle, the rest stays as filled.
	b := dst.Bounds()
	dst.Set(b.Dx()/2, b.Dy()/2, color.Black)
	return nil
}

// ---------------------------------------------------------------------------
// Fake surface host
// ---------------------------------------------------------------------------

type fakeSurface struct {
	id  string
	seq int
}

func (s *fakeSurface) ID() string { return s.id }

type fakeHost struct {
	caps HostCapabilities

	createErr  error
	destroyErr error
	mountErr   error
	printErr   error
	onPrint    func(ctx context.Context, s Surface) error

	mu        sync.Mutex
	seq       int
	live      map[*fakeSurface]bool
	maxLive   int
	mounted   []*Content
	printed   int
	destroyed []string
}

func newFakeHost(caps HostCapabilities) *fakeHost {
	return &fakeHost{caps: caps, live: make(map[*fakeSurface]bool)}
}

func rasterOnly() HostCapabilities {
	return HostCapabilities{SupportsRaster: true, SupportsBlobOutput: true}
}

func (h *fakeHost) Capabilities() HostCapabilities { return h.caps }

func (h *fakeHost) Create(_ context.Context, id string) (Surface, error) {
	if h.createErr != nil {
		return nil, h.createErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	s := &fakeSurface{id: id, seq: h.seq}
	h.live[s] = true
	h.maxLive = max(h.maxLive, h.liveFor(id))
	return s, nil
}

func (h *fakeHost) DestroyIfExists(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyed = append(h.destroyed, id)
	return h.destroyErr
}

func (h *fakeHost) Mount(_ context.Context, s Surface, c *Content) error {
	if h.mountErr != nil {
		return h.mountErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.live[s.(*fakeSurface)] {
		return errors.New("mount on dead surface")
	}
	h.mounted = append(h.mounted, c)
	return nil
}

func (h *fakeHost) Print(ctx context.Context, s Surface) error {
	if h.onPrint != nil {
		if err := h.onPrint(ctx, s); err != nil {
			return err
		}
	}
	if h.printErr != nil {
		return h.printErr
	}
	h.mu.Lock()
	h.printed++
	h.mu.Unlock()
	return nil
}

func (h *fakeHost) Teardown(_ context.Context, s Surface) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.live, s.(*fakeSurface))
	return nil
}

// liveFor must be called with h.mu held.
func (h *fakeHost) liveFor(id string) int {
	n := 0
	for s := range h.live {
		if s.id == id {
			n++
		}
	}
	return n
}

func (h *fakeHost) liveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

func (h *fakeHost) mountedContent() []*Content {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Content, len(h.mounted))
	copy(out, h.mounted)
	return out
}

// ---------------------------------------------------------------------------
// Fake inspector and loader
// ---------------------------------------------------------------------------

type fakeInspector struct {
	count int
	err   error
	calls atomic.Int32
}

func (i *fakeInspector) PageCount(_ context.Context, _ []byte) (int, error) {
	i.calls.Add(1)
	return i.count, i.err
}

type fakeLoader struct {
	data map[string][]byte
}

func (l *fakeLoader) Load(_ context.Context, locator string) ([]byte, error) {
	data, ok := l.data[locator]
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", ErrSourceLoad, locator)
	}
	return data, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// testPDF stands in for document bytes; the fake renderer never parses it.
var testPDF = []byte("%PDF-1.7 fake")

// whiteAt reports whether img is opaque white at (x, y).
func whiteAt(img image.Image, x, y int) bool {
	r, g, b, a := img.At(x, y).RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff && a == 0xffff
}
