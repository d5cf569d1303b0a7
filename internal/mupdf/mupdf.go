// Package mupdf renders PDF pages with MuPDF through go-fitz.
package mupdf

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/pdfinfo"
)

// pointsPerInch converts a viewport scale (pixels per point) to DPI.
const pointsPerInch = 72.0

// Compile-time interface implementation checks.
var (
	_ pdfprint.PageRenderer = (*Renderer)(nil)
	_ pdfprint.Document     = (*Document)(nil)
	_ pdfprint.Page         = (*Page)(nil)
)

// sizer reports exact page sizes in points.
type sizer interface {
	PageSizes(ctx context.Context, data []byte) ([]pdfprint.PageDimension, error)
}

// Renderer opens PDF documents with MuPDF.
type Renderer struct {
	sizes sizer
}

// New returns a MuPDF renderer. go-fitz reports page bounds in whole points,
// so fractional sizes are read with pdfcpu.
func New() *Renderer {
	return &Renderer{sizes: pdfinfo.New()}
}

// Open decodes data. The document must be closed by the caller.
func (r *Renderer) Open(ctx context.Context, data []byte) (pdfprint.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pdfprint.ErrDocumentDecode, err)
	}
	d := &Document{doc: doc}
	if r.sizes != nil {
		// Best effort: documents pdfcpu cannot parse keep MuPDF's bounds.
		if dims, err := r.sizes.PageSizes(ctx, data); err == nil && len(dims) == doc.NumPage() {
			d.exact = dims
		}
	}
	return d, nil
}

// Document is an open MuPDF document. MuPDF contexts are not safe for
// concurrent use, so every call is serialized.
type Document struct {
	mu     sync.Mutex
	doc    *fitz.Document
	exact  []pdfprint.PageDimension // by zero-based index; nil = unknown
	closed bool
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0
	}
	return d.doc.NumPage()
}

// Page returns page index, starting at 1.
func (d *Document) Page(ctx context.Context, index int) (pdfprint.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("page %d: document is closed", index)
	}
	if index < 1 || index > d.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", index, d.doc.NumPage())
	}

	bounds, err := d.doc.Bound(index - 1)
	if err != nil {
		return nil, fmt.Errorf("page %d bounds: %w", index, err)
	}
	width, height := float64(bounds.Dx()), float64(bounds.Dy())
	if d.exact != nil {
		e := d.exact[index-1]
		width, height = refine(width, e.Width), refine(height, e.Height)
	}
	return &Page{doc: d, index: index - 1, width: width, height: height}, nil
}

// refine returns exact when it agrees with MuPDF's whole-point bound.
// A larger gap means the two read different boxes; MuPDF's is the one
// it renders.
func refine(whole, exact float64) float64 {
	if math.Abs(exact-whole) <= 1 {
		return exact
	}
	return whole
}

// Close releases the MuPDF document. Close is idempotent.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.doc.Close()
}

func (d *Document) imageDPI(index int, dpi float64) (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("page %d: document is closed", index+1)
	}
	return d.doc.ImageDPI(index, dpi)
}

// Page is one page of a Document.
type Page struct {
	doc           *Document
	index         int // zero-based
	width, height float64
}

// Size returns the page size in points.
func (p *Page) Size() (float64, float64) {
	return p.width, p.height
}

// Render draws the page into dst at vp.Scale pixels per point, turned by
// vp.Rotation. Output larger than dst is scaled down to fit, and the result
// is centered.
func (p *Page) Render(ctx context.Context, dst draw.Image, vp pdfprint.Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if vp.Scale <= 0 {
		return fmt.Errorf("invalid viewport scale %v", vp.Scale)
	}

	img, err := p.doc.imageDPI(p.index, vp.Scale*pointsPerInch)
	if err != nil {
		return fmt.Errorf("rendering page %d: %w", p.index+1, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rotated := Rotate(img, vp.Rotation)
	Place(dst, rotated)
	return nil
}

// Place draws src centered in dst, scaling it down first when it does not
// fit. Aspect ratio is preserved.
func Place(dst draw.Image, src image.Image) {
	db, sb := dst.Bounds(), src.Bounds()
	if sb.Empty() || db.Empty() {
		return
	}

	w, h := sb.Dx(), sb.Dy()
	if w > db.Dx() || h > db.Dy() {
		ratio := min(float64(db.Dx())/float64(w), float64(db.Dy())/float64(h))
		w = max(1, int(float64(w)*ratio))
		h = max(1, int(float64(h)*ratio))
	}

	x := db.Min.X + (db.Dx()-w)/2
	y := db.Min.Y + (db.Dy()-h)/2
	target := image.Rect(x, y, x+w, y+h)

	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, target, src, sb.Min, draw.Over)
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, target, src, sb, xdraw.Over, nil)
}

// Rotate returns src turned clockwise by degrees (0, 90, 180 or 270).
// Other values return src unchanged.
func Rotate(src *image.RGBA, degrees int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var out *image.RGBA
	var at func(x, y int) (int, int)
	switch degrees {
	case 90:
		out = image.NewRGBA(image.Rect(0, 0, h, w))
		at = func(x, y int) (int, int) { return h - 1 - y, x }
	case 180:
		out = image.NewRGBA(image.Rect(0, 0, w, h))
		at = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 270:
		out = image.NewRGBA(image.Rect(0, 0, h, w))
		at = func(x, y int) (int, int) { return y, w - 1 - x }
	default:
		return src
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			dx, dy := at(x, y)
			di := out.PixOffset(dx, dy)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}
