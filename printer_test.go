package pdfprint

// Notes:
// - All collaborators are fakes (fakes_test.go); no browser or MuPDF needed.
// - Superseding is driven by blocking the first session inside Print, which
//   is the only point where two sessions can overlap on one surface id.
// - Temp dirs are checked empty after each session to prove resources were
//   revoked on every exit path.

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alnah/go-pdfprint/internal/fileutil"
)

func newTestPrinter(t *testing.T, r PageRenderer, h SurfaceHost, opts ...Option) *Printer {
	t.Helper()
	p, err := NewPrinter(r, h, opts...)
	if err != nil {
		t.Fatalf("NewPrinter() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("temp dir not cleaned up: %v", names)
	}
}

// ---------------------------------------------------------------------------
// TestNewPrinter - Construction
// ---------------------------------------------------------------------------

func TestNewPrinter_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := NewPrinter(nil, newFakeHost(rasterOnly())); err == nil {
		t.Error("NewPrinter(nil renderer) expected error")
	}
	if _, err := NewPrinter(newFakeRenderer(), nil); err == nil {
		t.Error("NewPrinter(nil host) expected error")
	}
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) should panic")
		}
	}()
	WithTimeout(0)
}

// ---------------------------------------------------------------------------
// TestPrintDocument - Raster strategy
// ---------------------------------------------------------------------------

func TestPrintDocument_RasterProgressAndAssembly(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer([2]float64{612, 792}, [2]float64{842, 595}, [2]float64{612, 792}, [2]float64{500, 900}, [2]float64{612, 792})
	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, renderer, host)

	var events []ProgressEvent
	unsubscribe := p.OnProgress(func(ev ProgressEvent) { events = append(events, ev) })
	defer unsubscribe()

	if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}

	if len(events) != 5 {
		t.Fatalf("got %d progress events, want 5", len(events))
	}
	for i, ev := range events {
		if ev.Index != i+1 || ev.TotalCount != 5 {
			t.Errorf("event %d = %+v, want {Index:%d TotalCount:5}", i, ev, i+1)
		}
	}

	mounted := host.mountedContent()
	if len(mounted) != 1 {
		t.Fatalf("mounted %d times, want 1", len(mounted))
	}
	c := mounted[0]
	if len(c.Pages) != 5 {
		t.Fatalf("content has %d pages, want 5", len(c.Pages))
	}
	if c.PageWidth != 842 || c.PageHeight != 900 {
		t.Errorf("page size = %vx%v, want 842x900", c.PageWidth, c.PageHeight)
	}
	if !strings.Contains(c.StyleSheet, "size: 842pt 900pt;") {
		t.Errorf("stylesheet missing max size:\n%s", c.StyleSheet)
	}
	if !strings.HasPrefix(c.Pages[0].Src, "data:image/png;base64,") {
		t.Errorf("page src = %.40q, want data URL by default", c.Pages[0].Src)
	}
	if c.Pages[0].WidthPx != 816 || c.Pages[0].HeightPx != 1056 {
		t.Errorf("page 1 display = %dx%d, want 816x1056", c.Pages[0].WidthPx, c.Pages[0].HeightPx)
	}
	if c.EmbedURL != "" {
		t.Error("raster content should not carry an embed URL")
	}
	if host.printed != 1 {
		t.Errorf("printed %d times, want 1", host.printed)
	}
	if host.liveCount() != 0 {
		t.Errorf("%d surfaces still live after print", host.liveCount())
	}
}

func TestPrintDocument_ViewportFollowsParameters(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer([2]float64{842, 595}, [2]float64{595, 842})
	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, renderer, host)

	params, err := NewPrintParameters(
		WithResolution(144),
		WithScale(1.5),
		WithLayout(LayoutFixed),
		WithRotation(-90),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, params); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}

	vps := renderer.recorded()
	if len(vps) != 2 {
		t.Fatalf("rendered %d pages, want 2", len(vps))
	}
	// printUnits = 144/72 = 2
	if vps[0].Scale != 3 {
		t.Errorf("viewport scale = %v, want 3", vps[0].Scale)
	}
	if vps[0].Width != 1684 || vps[0].Height != 1190 {
		t.Errorf("page 1 surface = %dx%d, want 1684x1190", vps[0].Width, vps[0].Height)
	}
	if vps[0].Rotation != 270 {
		t.Errorf("page 1 rotation = %d, want 270", vps[0].Rotation)
	}
	// Page 2 is swapped to match the landscape first page.
	if vps[1].Width != 1684 || vps[1].Height != 1190 {
		t.Errorf("page 2 surface = %dx%d, want 1684x1190", vps[1].Width, vps[1].Height)
	}
	if vps[1].Rotation != 0 {
		t.Errorf("page 2 rotation = %d, want 0 (270 plus a quarter)", vps[1].Rotation)
	}

	pages := host.mountedContent()[0].Pages
	if !pages[1].Dimension.Reverted {
		t.Error("page 2 should be marked reverted")
	}
}

func TestPrintDocument_FitToFirstPage(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer([2]float64{300, 400}, [2]float64{600, 1000})
	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, renderer, host)

	params, err := NewPrintParameters(WithResolution(72), WithFitToFirstPage(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, params); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}

	vps := renderer.recorded()
	if vps[1].Width != 300 || vps[1].Height != 400 {
		t.Errorf("page 2 surface = %dx%d, want first page footprint 300x400", vps[1].Width, vps[1].Height)
	}
	if vps[1].Scale != 0.4 {
		t.Errorf("page 2 scale = %v, want 0.4", vps[1].Scale)
	}
}

func TestPrintDocument_FileResourcesRevoked(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	renderer := newFakeRenderer([2]float64{100, 100}, [2]float64{100, 100})
	host := newFakeHost(rasterOnly())

	var seen []string
	host.onPrint = func(context.Context, Surface) error {
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			seen = append(seen, e.Name())
		}
		return nil
	}
	p := newTestPrinter(t, renderer, host, WithTempDir(dir))

	params, _ := NewPrintParameters(WithDataURL(false))
	if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, params); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}

	if len(seen) != 2 {
		t.Errorf("saw %d page files while printing, want 2", len(seen))
	}
	if src := host.mountedContent()[0].Pages[0].Src; !strings.HasPrefix(src, "file://") {
		t.Errorf("page src = %q, want file:// URL", src)
	}
	assertDirEmpty(t, dir)
}

func TestPrintDocument_DataURLWhenHostLacksBlobOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	host := newFakeHost(HostCapabilities{SupportsRaster: true})
	p := newTestPrinter(t, newFakeRenderer([2]float64{100, 100}), host, WithTempDir(dir))

	params, _ := NewPrintParameters(WithDataURL(false))
	if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, params); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}
	if src := host.mountedContent()[0].Pages[0].Src; !strings.HasPrefix(src, "data:") {
		t.Errorf("page src = %.30q, want data URL fallback", src)
	}
}

// ---------------------------------------------------------------------------
// TestPrintDocument - Failures and cleanup
// ---------------------------------------------------------------------------

func TestPrintDocument_PageFailureAbortsSession(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	renderer := newFakeRenderer([2]float64{100, 100}, [2]float64{100, 100}, [2]float64{100, 100}, [2]float64{100, 100}, [2]float64{100, 100})
	renderer.pages[2].renderErr = errors.New("corrupt content stream")
	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, renderer, host, WithTempDir(dir))

	var events []ProgressEvent
	p.OnProgress(func(ev ProgressEvent) { events = append(events, ev) })

	params, _ := NewPrintParameters(WithDataURL(false))
	err := p.PrintDocument(context.Background(), Source{Data: testPDF}, params)

	var pe *PageRenderError
	if !errors.As(err, &pe) {
		t.Fatalf("PrintDocument() error = %v, want *PageRenderError", err)
	}
	if pe.Index != 3 {
		t.Errorf("PageRenderError.Index = %d, want 3", pe.Index)
	}
	if !errors.Is(err, ErrPageRender) {
		t.Error("error should match ErrPageRender")
	}
	if !strings.Contains(err.Error(), "corrupt content stream") {
		t.Errorf("error = %q, want renderer cause", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d progress events, want 2", len(events))
	}
	if n := len(host.mountedContent()); n != 0 {
		t.Errorf("mounted %d times, want 0", n)
	}
	if host.liveCount() != 0 {
		t.Error("surface still live after page failure")
	}
	assertDirEmpty(t, dir)
}

func TestPrintDocument_DecodeFailure(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer()
	renderer.openErr = errors.New("not a PDF")
	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, renderer, host)

	err := p.PrintDocument(context.Background(), Source{Data: []byte("garbage")}, nil)
	if !errors.Is(err, ErrDocumentDecode) {
		t.Errorf("PrintDocument() error = %v, want ErrDocumentDecode", err)
	}
	if host.liveCount() != 0 {
		t.Error("surface still live after decode failure")
	}
}

func TestPrintDocument_EmptyDocument(t *testing.T) {
	t.Parallel()

	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, newFakeRenderer(), host)

	err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil)
	if !errors.Is(err, ErrDocumentDecode) {
		t.Errorf("PrintDocument() error = %v, want ErrDocumentDecode", err)
	}
}

func TestPrintDocument_NoStrategy(t *testing.T) {
	t.Parallel()

	host := newFakeHost(HostCapabilities{})
	renderer := newFakeRenderer([2]float64{100, 100})
	p := newTestPrinter(t, renderer, host)

	err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil)
	if !errors.Is(err, ErrStrategyUnsupported) {
		t.Errorf("PrintDocument() error = %v, want ErrStrategyUnsupported", err)
	}
	if host.seq != 0 {
		t.Error("no surface should be created without a strategy")
	}
	if renderer.opens.Load() != 0 {
		t.Error("document should not be decoded without a strategy")
	}
}

func TestPrintDocument_InvalidParameters(t *testing.T) {
	t.Parallel()

	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, newFakeRenderer([2]float64{100, 100}), host)

	params := DefaultPrintParameters()
	params.Layout = "upside-down"
	err := p.PrintDocument(context.Background(), Source{Data: testPDF}, params)
	if !errors.Is(err, ErrInvalidLayoutMode) {
		t.Errorf("PrintDocument() error = %v, want ErrInvalidLayoutMode", err)
	}
	if params.Layout != "upside-down" {
		t.Error("caller's parameters were modified")
	}
}

func TestPrintDocument_SurfaceUnavailable(t *testing.T) {
	t.Parallel()

	host := newFakeHost(rasterOnly())
	host.createErr = errors.New("browser gone")
	renderer := newFakeRenderer([2]float64{100, 100})
	p := newTestPrinter(t, renderer, host)

	err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil)
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("PrintDocument() error = %v, want ErrSurfaceUnavailable", err)
	}
	if renderer.renders.Load() != 0 {
		t.Error("pages rendered without a surface")
	}
}

func TestPrintDocument_MountAndPrintFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(*fakeHost)
		wantErr error
	}{
		{
			name:    "mount fails",
			setup:   func(h *fakeHost) { h.mountErr = errors.New("navigation failed") },
			wantErr: ErrSurfaceUnavailable,
		},
		{
			name:    "mount cannot read source",
			setup:   func(h *fakeHost) { h.mountErr = fmt.Errorf("%w: %w", ErrSourceLoad, os.ErrNotExist) },
			wantErr: ErrSourceLoad,
		},
		{
			name:    "print fails",
			setup:   func(h *fakeHost) { h.printErr = errors.New("printer on fire") },
			wantErr: ErrPrintFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host := newFakeHost(rasterOnly())
			tt.setup(host)
			p := newTestPrinter(t, newFakeRenderer([2]float64{100, 100}), host)

			err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PrintDocument() error = %v, want %v", err, tt.wantErr)
			}
			if host.liveCount() != 0 {
				t.Error("surface still live after failure")
			}
		})
	}
}

func TestPrintDocument_PanicRecovered(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer([2]float64{100, 100})
	renderer.pages[0].panicMsg = "boom"
	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, renderer, host)

	err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("PrintDocument() error = %v, want recovered panic", err)
	}
	if host.liveCount() != 0 {
		t.Error("surface still live after panic")
	}
}

func TestPrintDocument_Cancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	renderer := newFakeRenderer([2]float64{100, 100}, [2]float64{100, 100}, [2]float64{100, 100}, [2]float64{100, 100})
	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, renderer, host, WithTempDir(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.OnProgress(func(ev ProgressEvent) {
		if ev.Index == 2 {
			cancel()
		}
	})

	params, _ := NewPrintParameters(WithDataURL(false))
	err := p.PrintDocument(ctx, Source{Data: testPDF}, params)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("PrintDocument() error = %v, want context.Canceled", err)
	}
	if n := renderer.renders.Load(); n != 2 {
		t.Errorf("rendered %d pages, want 2", n)
	}
	if n := len(host.mountedContent()); n != 0 {
		t.Errorf("mounted %d times after cancel, want 0", n)
	}
	if host.liveCount() != 0 {
		t.Error("surface still live after cancel")
	}
	assertDirEmpty(t, dir)
}

func TestPrintDocument_Timeout(t *testing.T) {
	t.Parallel()

	host := newFakeHost(rasterOnly())
	host.onPrint = func(ctx context.Context, _ Surface) error {
		<-ctx.Done()
		return ctx.Err()
	}
	p := newTestPrinter(t, newFakeRenderer([2]float64{100, 100}), host, WithTimeout(50*time.Millisecond))

	err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("PrintDocument() error = %v, want DeadlineExceeded", err)
	}
	if host.liveCount() != 0 {
		t.Error("surface still live after timeout")
	}
}

func TestPrintDocument_ClosedPrinter(t *testing.T) {
	t.Parallel()

	p, err := NewPrinter(newFakeRenderer([2]float64{100, 100}), newFakeHost(rasterOnly()))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}

	if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil); !errors.Is(err, ErrPrinterClosed) {
		t.Errorf("PrintDocument() error = %v, want ErrPrinterClosed", err)
	}
	if _, err := p.PageCount(context.Background(), Source{Data: testPDF}); !errors.Is(err, ErrPrinterClosed) {
		t.Errorf("PageCount() error = %v, want ErrPrinterClosed", err)
	}
}

// ---------------------------------------------------------------------------
// TestPrintDocument - Surface reuse
// ---------------------------------------------------------------------------

func TestPrintDocument_SupersedesActiveSurface(t *testing.T) {
	t.Parallel()

	host := newFakeHost(rasterOnly())
	printing := make(chan struct{})
	resume := make(chan struct{})
	var once sync.Once
	host.onPrint = func(context.Context, Surface) error {
		first := false
		once.Do(func() { first = true })
		if first {
			close(printing)
			<-resume
		}
		return nil
	}
	p := newTestPrinter(t, newFakeRenderer([2]float64{100, 100}), host)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- p.PrintDocument(context.Background(), Source{Data: testPDF}, nil)
	}()
	<-printing

	if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil); err != nil {
		t.Fatalf("second PrintDocument() unexpected error: %v", err)
	}
	close(resume)
	if err := <-firstDone; err != nil {
		t.Fatalf("first PrintDocument() unexpected error: %v", err)
	}

	host.mu.Lock()
	maxLive := host.maxLive
	host.mu.Unlock()
	if maxLive != 1 {
		t.Errorf("max live surfaces for one id = %d, want 1", maxLive)
	}
	if host.liveCount() != 0 {
		t.Errorf("%d surfaces still live", host.liveCount())
	}
	if p.surfaces.Active(DefaultSurfaceID) {
		t.Error("surface id still tracked after both sessions")
	}
}

func TestPrintDocument_SequentialReuse(t *testing.T) {
	t.Parallel()

	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, newFakeRenderer([2]float64{100, 100}), host)

	for i := 0; i < 3; i++ {
		if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil); err != nil {
			t.Fatalf("PrintDocument() #%d unexpected error: %v", i+1, err)
		}
	}
	if host.seq != 3 {
		t.Errorf("created %d surfaces, want 3", host.seq)
	}
	if len(host.destroyed) != 3 {
		t.Errorf("DestroyIfExists called %d times, want 3", len(host.destroyed))
	}
	if host.liveCount() != 0 {
		t.Error("surface still live")
	}
}

// ---------------------------------------------------------------------------
// TestPrintDocument - Native embed strategy
// ---------------------------------------------------------------------------

func TestPrintDocument_NativeEmbed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	renderer := newFakeRenderer([2]float64{100, 100})
	host := newFakeHost(HostCapabilities{SupportsNativeEmbed: true, SupportsRaster: true})

	var staged []byte
	host.onPrint = func(context.Context, Surface) error {
		c := host.mountedContent()[0]
		path := strings.TrimPrefix(c.EmbedURL, "file://")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		staged = data
		return nil
	}
	p := newTestPrinter(t, renderer, host, WithTempDir(dir))

	var events int
	p.OnProgress(func(ProgressEvent) { events++ })

	if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}

	if string(staged) != string(testPDF) {
		t.Errorf("staged document = %q, want source bytes", staged)
	}
	if renderer.opens.Load() != 0 || renderer.renders.Load() != 0 {
		t.Error("native embed should not decode or rasterize")
	}
	if events != 0 {
		t.Errorf("got %d progress events, want 0", events)
	}
	if len(host.mountedContent()[0].Pages) != 0 {
		t.Error("native content should not carry raster pages")
	}
	assertDirEmpty(t, dir)
}

func TestPrintDocument_NativeEmbedLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := dir + string(os.PathSeparator) + "report.pdf"
	if err := os.WriteFile(src, testPDF, 0o600); err != nil {
		t.Fatal(err)
	}

	host := newFakeHost(HostCapabilities{SupportsNativeEmbed: true})
	p := newTestPrinter(t, newFakeRenderer(), host)

	if err := p.PrintDocument(context.Background(), Source{Locator: src}, nil); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}

	url := host.mountedContent()[0].EmbedURL
	if !strings.HasPrefix(url, "file://") || !strings.HasSuffix(url, "report.pdf") {
		t.Errorf("EmbedURL = %q, want file:// URL of the source", url)
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("source file must not be removed")
	}
}

func TestPrintDocument_NativeEmbedSourceErrors(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "gone.pdf")
	missingURL, err := fileutil.FileURL(missing)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		locator string
	}{
		{"missing path", missing},
		{"missing file URL", missingURL},
		{"bad data URL", "data:application/pdf;base64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host := newFakeHost(HostCapabilities{SupportsNativeEmbed: true})
			p := newTestPrinter(t, newFakeRenderer(), host)

			err := p.PrintDocument(context.Background(), Source{Locator: tt.locator}, nil)
			if !errors.Is(err, ErrSourceLoad) {
				t.Errorf("PrintDocument() error = %v, want ErrSourceLoad", err)
			}
			if errors.Is(err, ErrSurfaceUnavailable) {
				t.Errorf("PrintDocument() error = %v, a source error is not a surface error", err)
			}
			if len(host.mountedContent()) != 0 {
				t.Error("nothing should be mounted for an unreadable source")
			}
		})
	}
}

func TestPrintDocument_NativeEmbedDataURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	host := newFakeHost(HostCapabilities{SupportsNativeEmbed: true})
	var staged []byte
	host.onPrint = func(context.Context, Surface) error {
		path, err := fileutil.PathFromFileURL(host.mountedContent()[0].EmbedURL)
		if err != nil {
			return err
		}
		staged, err = os.ReadFile(path)
		return err
	}
	p := newTestPrinter(t, newFakeRenderer(), host, WithTempDir(dir))

	loc := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(testPDF)
	if err := p.PrintDocument(context.Background(), Source{Locator: loc}, nil); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}
	if string(staged) != string(testPDF) {
		t.Errorf("staged document = %q, want decoded data URL", staged)
	}
	assertDirEmpty(t, dir)
}

func TestPrintDocument_ForceRasterOverridesNative(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer([2]float64{100, 100})
	host := newFakeHost(HostCapabilities{SupportsNativeEmbed: true, SupportsRaster: true})
	p := newTestPrinter(t, renderer, host)

	params, _ := NewPrintParameters(WithForceRaster(true))
	if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, params); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}
	if renderer.renders.Load() != 1 {
		t.Errorf("rendered %d pages, want 1", renderer.renders.Load())
	}
}

// ---------------------------------------------------------------------------
// TestPageCount - Decode-only page count
// ---------------------------------------------------------------------------

func TestPageCount(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer([2]float64{1, 1}, [2]float64{1, 1}, [2]float64{1, 1})
	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, renderer, host)

	n, err := p.PageCount(context.Background(), Source{Data: testPDF})
	if err != nil {
		t.Fatalf("PageCount() unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("PageCount() = %d, want 3", n)
	}
	if renderer.renders.Load() != 0 {
		t.Error("PageCount() rasterized pages")
	}
	if host.seq != 0 {
		t.Error("PageCount() created a surface")
	}
}

func TestPageCount_UsesInspector(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer([2]float64{1, 1})
	inspector := &fakeInspector{count: 42}
	p := newTestPrinter(t, renderer, newFakeHost(rasterOnly()), WithInspector(inspector))

	n, err := p.PageCount(context.Background(), Source{Data: testPDF})
	if err != nil {
		t.Fatalf("PageCount() unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("PageCount() = %d, want 42", n)
	}
	if renderer.opens.Load() != 0 {
		t.Error("renderer used although an inspector is configured")
	}
}

func TestPageCount_Errors(t *testing.T) {
	t.Parallel()

	inspector := &fakeInspector{err: errors.New("xref broken")}
	loader := &fakeLoader{data: map[string][]byte{}}
	p := newTestPrinter(t, newFakeRenderer(), newFakeHost(rasterOnly()),
		WithInspector(inspector), WithSourceLoader(loader))

	if _, err := p.PageCount(context.Background(), Source{Data: testPDF}); !errors.Is(err, ErrDocumentDecode) {
		t.Errorf("PageCount(bad document) error = %v, want ErrDocumentDecode", err)
	}
	if _, err := p.PageCount(context.Background(), Source{Locator: "https://example.com/missing.pdf"}); !errors.Is(err, ErrSourceLoad) {
		t.Errorf("PageCount(missing) error = %v, want ErrSourceLoad", err)
	}
	if _, err := p.PageCount(context.Background(), Source{}); !errors.Is(err, ErrEmptySource) {
		t.Errorf("PageCount(empty) error = %v, want ErrEmptySource", err)
	}
}

func TestPrintDocument_LocatorThroughLoader(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{data: map[string][]byte{"https://example.com/a.pdf": testPDF}}
	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, newFakeRenderer([2]float64{100, 100}), host, WithSourceLoader(loader))

	if err := p.PrintDocument(context.Background(), Source{Locator: "https://example.com/a.pdf"}, nil); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}
	if !strings.Contains(host.mountedContent()[0].HTML, "<title>a.pdf</title>") {
		t.Error("container title should come from the locator")
	}
}

// ---------------------------------------------------------------------------
// TestPrintDocument - Logging
// ---------------------------------------------------------------------------

func TestPrintDocument_LogsTransitions(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	host := newFakeHost(rasterOnly())
	p := newTestPrinter(t, newFakeRenderer([2]float64{100, 100}), host, WithLogger(zap.New(core)))

	if err := p.PrintDocument(context.Background(), Source{Data: testPDF}, nil); err != nil {
		t.Fatalf("PrintDocument() unexpected error: %v", err)
	}

	var states []string
	for _, e := range logs.FilterMessage("print session transition").All() {
		states = append(states, e.ContextMap()["to"].(string))
	}
	want := []string{"document-loading", "page-loop", "assembling", "printing", "released"}
	if strings.Join(states, ",") != strings.Join(want, ",") {
		t.Errorf("transitions = %v, want %v", states, want)
	}
	if logs.FilterMessage("document printed").Len() != 1 {
		t.Error("missing completion log")
	}
}
