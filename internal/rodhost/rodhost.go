// Package rodhost prints through headless Chrome driven by go-rod. Every
// surface is a background tab: laid out at full size, never shown.
package rodhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/fileutil"
	"github.com/alnah/go-pdfprint/internal/process"
	"github.com/alnah/go-pdfprint/internal/sink"
)

// DefaultTimeout bounds page loads when the context has no deadline.
const DefaultTimeout = 30 * time.Second

// Sentinel errors.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageLoad       = errors.New("failed to load print container")
	ErrPDFGeneration  = errors.New("browser failed to print")
	ErrForeignSurface = errors.New("surface was not created by this host")
	ErrNotMounted     = errors.New("nothing mounted on surface")
)

// Compile-time interface implementation check.
var _ pdfprint.SurfaceHost = (*Host)(nil)

// Config configures a Host. Zero values fall back to ROD_BROWSER_BIN and
// ROD_NO_SANDBOX / CI from the environment.
type Config struct {
	BrowserBin string
	NoSandbox  bool
	Timeout    time.Duration
	TempDir    string // where container pages are written
	Sink       sink.Sink
	Logger     *zap.Logger
}

// Host is a pdfprint.SurfaceHost backed by Chrome tabs.
type Host struct {
	cfg Config

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	surfaces map[string]*surface
}

// New returns a host. The browser is launched on first use.
func New(cfg Config) *Host {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Sink == nil {
		cfg.Sink = sink.Discard{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.BrowserBin == "" {
		cfg.BrowserBin = os.Getenv("ROD_BROWSER_BIN")
	}
	if os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("CI") == "true" || cfg.BrowserBin != "" {
		// Required in CI and containers, where the pre-installed browser runs as root.
		cfg.NoSandbox = true
	}
	return &Host{cfg: cfg, surfaces: make(map[string]*surface)}
}

// Capabilities reports raster printing with file page images. Headless
// Chrome has no PDF viewer to print an embedded document natively.
func (h *Host) Capabilities() pdfprint.HostCapabilities {
	return pdfprint.HostCapabilities{
		SupportsRaster:     true,
		SupportsBlobOutput: true,
	}
}

// ensureBrowser lazily launches and connects to the browser.
// Must be called with h.mu held.
func (h *Host) ensureBrowser() error {
	if h.browser != nil {
		return nil
	}

	l := launcher.New().Headless(true)
	if h.cfg.BrowserBin != "" {
		l = l.Bin(h.cfg.BrowserBin)
	}
	if h.cfg.NoSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		process.KillProcessGroup(l.PID())
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	h.launcher, h.browser = l, browser
	h.cfg.Logger.Debug("browser connected", zap.String("control_url", u))
	return nil
}

// Close closes every tab and shuts the browser down.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.surfaces {
		s.close()
		delete(h.surfaces, id)
	}
	if h.browser == nil {
		return nil
	}

	err := h.browser.Close()
	// Chrome helpers sometimes survive Browser.Close; take the whole group down.
	process.KillProcessGroup(h.launcher.PID())
	h.launcher.Kill()
	h.launcher.Cleanup()
	h.browser, h.launcher = nil, nil
	return err
}

// surface is one tab plus the container file it shows.
type surface struct {
	id      string
	page    *rod.Page
	cleanup func()
	mounted bool
}

func (s *surface) ID() string { return s.id }

func (s *surface) close() {
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	s.setContainer(nil)
}

// setContainer removes the previous container file, if any, and keeps
// cleanup for the next one.
func (s *surface) setContainer(cleanup func()) {
	if s.cleanup != nil {
		s.cleanup()
	}
	s.cleanup = cleanup
}

// Create opens a blank background tab for id.
func (h *Host) Create(ctx context.Context, id string) (pdfprint.Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.ensureBrowser(); err != nil {
		return nil, err
	}
	page, err := h.browser.Page(proto.TargetCreateTarget{URL: "about:blank", Background: true})
	if err != nil {
		return nil, fmt.Errorf("opening tab: %w", err)
	}

	s := &surface{id: id, page: page}
	h.surfaces[id] = s
	return s, nil
}

// DestroyIfExists closes the tab registered under id, if any.
func (h *Host) DestroyIfExists(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.surfaces[id]; ok {
		s.close()
		delete(h.surfaces, id)
	}
	return nil
}

// Teardown closes the surface's tab and removes its container file.
func (h *Host) Teardown(_ context.Context, ps pdfprint.Surface) error {
	s, ok := ps.(*surface)
	if !ok {
		return ErrForeignSurface
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.surfaces[s.id] == s {
		delete(h.surfaces, s.id)
	}
	s.close()
	return nil
}

// Mount writes the container page to disk, loads it in the tab, and waits
// until it has loaded and painted.
func (h *Host) Mount(ctx context.Context, ps pdfprint.Surface, c *pdfprint.Content) error {
	s, ok := ps.(*surface)
	if !ok {
		return ErrForeignSurface
	}
	if c.EmbedURL != "" || c.HTML == "" {
		return fmt.Errorf("%w: rod host prints raster containers only", pdfprint.ErrStrategyUnsupported)
	}
	if s.page == nil {
		return fmt.Errorf("%w: surface %q already torn down", pdfprint.ErrSurfaceUnavailable, s.id)
	}

	path, cleanup, err := fileutil.WriteTempFile(h.cfg.TempDir, []byte(c.HTML), "html")
	if err != nil {
		return err
	}
	s.mounted = false
	s.setContainer(cleanup)
	fileURL, err := fileutil.FileURL(path)
	if err != nil {
		return err
	}

	timeout := h.timeout(ctx)
	if timeout <= 0 {
		return context.DeadlineExceeded
	}
	page := s.page.Context(ctx).Timeout(timeout)

	if err := page.Navigate(fileURL); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.WaitRepaint(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	s.mounted = true
	return nil
}

// Print prints the tab to PDF at the page size its stylesheet asks for, and
// hands the result to the sink.
func (h *Host) Print(ctx context.Context, ps pdfprint.Surface) error {
	s, ok := ps.(*surface)
	if !ok {
		return ErrForeignSurface
	}
	if !s.mounted || s.page == nil {
		return ErrNotMounted
	}

	reader, err := s.page.Context(ctx).PDF(buildPDFOptions())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	pdf, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	h.cfg.Logger.Debug("surface printed", zap.String("surface", s.id), zap.Int("bytes", len(pdf)))
	return h.cfg.Sink.Write(ctx, pdf)
}

// timeout returns the time left for a browser wait.
func (h *Host) timeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline)
	}
	return h.cfg.Timeout
}

// buildPDFOptions lets the container's @page rule decide the paper size.
func buildPDFOptions() *proto.PagePrintToPDF {
	zero := 0.0
	return &proto.PagePrintToPDF{
		PreferCSSPageSize: true,
		PrintBackground:   true,
		MarginTop:         &zero,
		MarginBottom:      &zero,
		MarginLeft:        &zero,
		MarginRight:       &zero,
	}
}
