package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/config"
	"github.com/alnah/go-pdfprint/internal/pdfinfo"
	"github.com/alnah/go-pdfprint/internal/sink"
	"github.com/alnah/go-pdfprint/internal/spoolhost"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Stub renderer
// ---------------------------------------------------------------------------

// stubRenderer decodes any non-empty input into pages of fixed sizes.
type stubRenderer struct {
	sizes   [][2]float64
	openErr error
}

func (r *stubRenderer) Open(_ context.Context, data []byte) (pdfprint.Document, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}
	return &stubDocument{sizes: r.sizes}, nil
}

type stubDocument struct{ sizes [][2]float64 }

func (d *stubDocument) PageCount() int { return len(d.sizes) }

func (d *stubDocument) Page(_ context.Context, index int) (pdfprint.Page, error) {
	s := d.sizes[index-1]
	return stubPage{w: s[0], h: s[1]}, nil
}

func (d *stubDocument) Close() error { return nil }

type stubPage struct{ w, h float64 }

func (p stubPage) Size() (float64, float64) { return p.w, p.h }

func (p stubPage) Render(_ context.Context, dst draw.Image, _ pdfprint.Viewport) error {
	b := dst.Bounds()
	dst.Set(b.Dx()/2, b.Dy()/2, color.Black)
	return nil
}

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment
// ---------------------------------------------------------------------------

// testEnv is an Environment wired to a spool host in a temp dir.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer

	mu      sync.Mutex
	lastCfg *config.Config
	hostErr error
}

func newTestEnv(t *testing.T, renderer pdfprint.PageRenderer) *testEnv {
	t.Helper()
	te := &testEnv{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	spoolDir := t.TempDir()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	te.Environment = &Environment{
		Now:         func() time.Time { return fixed },
		Stdout:      te.stdout,
		Stderr:      te.stderr,
		NewRenderer: func() pdfprint.PageRenderer { return renderer },
		NewHost: func(cfg *config.Config, out sink.Sink, logger *zap.Logger) (Host, error) {
			te.mu.Lock()
			te.lastCfg = cfg
			hostErr := te.hostErr
			te.mu.Unlock()
			if hostErr != nil {
				return nil, hostErr
			}
			h, err := spoolhost.New(spoolhost.Config{
				Dir:          spoolDir,
				PrintCommand: cfg.Host.PrintCommand,
				Sink:         out,
				Logger:       logger,
			})
			if err != nil {
				return nil, err
			}
			return h, nil
		},
		Inspector: pdfinfo.New(),
	}
	return te
}

func (te *testEnv) config() *config.Config {
	te.mu.Lock()
	defer te.mu.Unlock()
	return te.lastCfg
}

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// buildPDF returns a real PDF with one page per dimension.
func buildPDF(t *testing.T, dims ...types.Dim) []byte {
	t.Helper()
	_ = pdfinfo.New() // keeps pdfcpu away from the user config dir
	conf := model.NewDefaultConfiguration()

	var doc []byte
	for _, d := range dims {
		var img bytes.Buffer
		if err := png.Encode(&img, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
			t.Fatal(err)
		}

		imp := pdfcpu.DefaultImportConfig()
		imp.PageDim = &types.Dim{Width: d.Width, Height: d.Height}
		imp.UserDim = true
		imp.Pos = types.Center

		var rs io.ReadSeeker
		if doc != nil {
			rs = bytes.NewReader(doc)
		}
		var out bytes.Buffer
		if err := api.ImportImages(rs, &out, []io.Reader{&img}, imp, conf); err != nil {
			t.Fatalf("building fixture: %v", err)
		}
		doc = out.Bytes()
	}
	return doc
}
