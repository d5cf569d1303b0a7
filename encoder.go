package pdfprint

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/alnah/go-pdfprint/internal/fileutil"
)

// Encoder turns a raster surface into a source a display element can load.
type Encoder interface {
	Encode(ctx context.Context, img image.Image) (*Resource, error)
}

// Resource is an addressable page image or document. Revoke releases
// whatever backs the URL; it is safe to call more than once.
type Resource struct {
	URL string

	once   sync.Once
	revoke func() error
	err    error
}

// NewResource returns a Resource whose Revoke calls revoke once.
// A nil revoke makes Revoke a no-op.
func NewResource(url string, revoke func() error) *Resource {
	return &Resource{URL: url, revoke: revoke}
}

// Revoke releases the resource.
func (r *Resource) Revoke() error {
	if r == nil {
		return nil
	}
	r.once.Do(func() {
		if r.revoke != nil {
			r.err = r.revoke()
		}
	})
	return r.err
}

// Compile-time interface implementation checks.
var (
	_ Encoder = (*DataURLEncoder)(nil)
	_ Encoder = (*FileEncoder)(nil)
)

// DataURLEncoder encodes images as inline PNG data URLs.
type DataURLEncoder struct{}

// Encode returns a data:image/png URL. Revoke is a no-op.
func (DataURLEncoder) Encode(ctx context.Context, img image.Image) (*Resource, error) {
	data, err := encodePNG(ctx, img)
	if err != nil {
		return nil, err
	}
	return NewResource("data:image/png;base64,"+base64.StdEncoding.EncodeToString(data), nil), nil
}

// FileEncoder writes images as PNG files and hands out file:// URLs.
// Revoke deletes the file.
type FileEncoder struct {
	Dir string // empty = os.TempDir()
}

// Encode writes img to a temporary PNG file.
func (e FileEncoder) Encode(ctx context.Context, img image.Image) (*Resource, error) {
	data, err := encodePNG(ctx, img)
	if err != nil {
		return nil, err
	}
	return newFileResource(e.Dir, data, "png")
}

// newFileResource writes data to a temp file and returns it as a revocable
// file:// resource.
func newFileResource(dir string, data []byte, ext string) (*Resource, error) {
	path, cleanup, err := fileutil.WriteTempFile(dir, data, ext)
	if err != nil {
		return nil, err
	}
	u, err := fileutil.FileURL(path)
	if err != nil {
		cleanup()
		return nil, err
	}
	return NewResource(u, func() error {
		cleanup()
		return nil
	}), nil
}

func encodePNG(ctx context.Context, img image.Image) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// selectEncoder picks the page image encoding for a session.
// File resources are used only when asked for and the host can load them.
func selectEncoder(params *PrintParameters, caps HostCapabilities, dir string) Encoder {
	if params.UseDataURL || !caps.SupportsBlobOutput {
		return DataURLEncoder{}
	}
	return FileEncoder{Dir: dir}
}
