// Package pdfinfo reads PDF metadata with pdfcpu without rendering anything.
package pdfinfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	pdfprint "github.com/alnah/go-pdfprint"
)

// ErrEncrypted is returned for documents that need a password.
var ErrEncrypted = errors.New("document is password protected")

var disableConfigDir sync.Once

// Compile-time interface implementation check.
var _ pdfprint.Inspector = (*Inspector)(nil)

// Inspector answers page questions from the document structure alone.
type Inspector struct {
	conf *model.Configuration
}

// New returns an Inspector with relaxed validation, which accepts the
// slightly broken files most viewers open anyway.
func New() *Inspector {
	// pdfcpu otherwise creates a config dir under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Inspector{conf: conf}
}

// PageCount returns the number of pages in data.
func (i *Inspector) PageCount(ctx context.Context, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := api.PageCount(bytes.NewReader(data), i.conf)
	if err != nil {
		return 0, decodeError(err)
	}
	return n, nil
}

// PageSizes returns the natural size of every page in points, in page order.
// Page rotation from the document is already applied.
func (i *Inspector) PageSizes(ctx context.Context, data []byte) ([]pdfprint.PageDimension, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dims, err := api.PageDims(bytes.NewReader(data), i.conf)
	if err != nil {
		return nil, decodeError(err)
	}

	out := make([]pdfprint.PageDimension, len(dims))
	for n, d := range dims {
		out[n] = pdfprint.PageDimension{Width: d.Width, Height: d.Height}
	}
	return out, nil
}

func decodeError(err error) error {
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return fmt.Errorf("%w: %w", pdfprint.ErrDocumentDecode, ErrEncrypted)
	}
	return fmt.Errorf("%w: %v", pdfprint.ErrDocumentDecode, err)
}
