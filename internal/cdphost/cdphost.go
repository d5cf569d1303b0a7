// Package cdphost prints through Chrome over the DevTools protocol with
// chromedp. Surfaces are tabs whose document is set in place, so page images
// must be inline data URLs.
package cdphost

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/sink"
)

// DefaultTimeout bounds browser actions when the context has no deadline.
const DefaultTimeout = 30 * time.Second

// waitImagesJS resolves once every image in the container has decoded.
const waitImagesJS = `Promise.all(Array.from(document.images).map(img => img.decode().catch(() => null))).then(() => document.images.length)`

// Sentinel errors.
var (
	ErrBrowserStart   = errors.New("failed to start browser")
	ErrForeignSurface = errors.New("surface was not created by this host")
	ErrNotMounted     = errors.New("nothing mounted on surface")
	ErrClosed         = errors.New("host is closed")
)

// Compile-time interface implementation check.
var _ pdfprint.SurfaceHost = (*Host)(nil)

// Config configures a Host.
type Config struct {
	ExecPath  string // Chrome binary; empty = chromedp's lookup
	RemoteURL string // DevTools URL of a running browser; overrides ExecPath
	Download  bool   // fetch a managed Chromium when ExecPath is empty
	NoSandbox bool
	Timeout   time.Duration
	Sink      sink.Sink
	Logger    *zap.Logger
}

// Host is a pdfprint.SurfaceHost backed by chromedp tabs.
type Host struct {
	cfg Config

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	surfaces      map[string]*surface
	closed        bool
}

// New prepares a host. The browser starts on first Create.
func New(cfg Config) (*Host, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Sink == nil {
		cfg.Sink = sink.Discard{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	if cfg.RemoteURL == "" && cfg.ExecPath == "" && cfg.Download {
		path, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		cfg.ExecPath = path
	}

	h := &Host{cfg: cfg, surfaces: make(map[string]*surface)}
	if cfg.RemoteURL != "" {
		h.allocCtx, h.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		h.allocCtx, h.allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	}
	return h, nil
}

// resolveBrowser downloads a compatible Chromium into rod's cache if one is
// not already there and returns the executable path.
func resolveBrowser() (string, error) {
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("%w: downloading browser: %v", ErrBrowserStart, err)
	}
	return path, nil
}

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// Capabilities reports raster printing. Documents set in place cannot load
// file page images, so the pipeline falls back to data URLs.
func (h *Host) Capabilities() pdfprint.HostCapabilities {
	return pdfprint.HostCapabilities{SupportsRaster: true}
}

// ensureBrowser starts the browser. Must be called with h.mu held.
func (h *Host) ensureBrowser() error {
	if h.closed {
		return ErrClosed
	}
	if h.browserCtx != nil {
		return nil
	}

	browserCtx, browserCancel := chromedp.NewContext(h.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			h.cfg.Logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	// Start eagerly so launch errors surface here, not mid-print.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		return fmt.Errorf("%w: %v", ErrBrowserStart, err)
	}
	h.browserCtx, h.browserCancel = browserCtx, browserCancel
	return nil
}

// Close closes every tab and the browser. Close is idempotent.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for id, s := range h.surfaces {
		s.cancel()
		delete(h.surfaces, id)
	}
	if h.browserCancel != nil {
		h.browserCancel()
	}
	h.allocCancel()
	return nil
}

// surface is one tab.
type surface struct {
	id      string
	tabCtx  context.Context
	cancel  context.CancelFunc
	mounted bool
}

func (s *surface) ID() string { return s.id }

// Create opens a blank tab for id.
func (h *Host) Create(ctx context.Context, id string) (pdfprint.Surface, error) {
	h.mu.Lock()
	if err := h.ensureBrowser(); err != nil {
		h.mu.Unlock()
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(h.browserCtx)
	h.mu.Unlock()

	s := &surface{id: id, tabCtx: tabCtx, cancel: cancel}
	if err := openTab(ctx, tabCtx, cancel, h.cfg.Timeout, attachTab); err != nil {
		cancel()
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	if err := h.run(ctx, s, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, fmt.Errorf("opening tab: %w", err)
	}

	h.mu.Lock()
	h.surfaces[id] = s
	h.mu.Unlock()
	return s, nil
}

// DestroyIfExists closes the tab registered under id, if any.
func (h *Host) DestroyIfExists(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.surfaces[id]; ok {
		s.cancel()
		delete(h.surfaces, id)
	}
	return nil
}

// Teardown closes the surface's tab.
func (h *Host) Teardown(_ context.Context, ps pdfprint.Surface) error {
	s, ok := ps.(*surface)
	if !ok {
		return ErrForeignSurface
	}
	h.mu.Lock()
	if h.surfaces[s.id] == s {
		delete(h.surfaces, s.id)
	}
	h.mu.Unlock()
	s.cancel()
	return nil
}

// Mount replaces the tab's document with the container and waits until
// every page image has decoded.
func (h *Host) Mount(ctx context.Context, ps pdfprint.Surface, c *pdfprint.Content) error {
	s, ok := ps.(*surface)
	if !ok {
		return ErrForeignSurface
	}
	if c.EmbedURL != "" || c.HTML == "" {
		return fmt.Errorf("%w: chromedp host prints raster containers only", pdfprint.ErrStrategyUnsupported)
	}

	var images int
	err := h.run(ctx, s,
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, c.HTML).Do(ctx)
		}),
		chromedp.Evaluate(waitImagesJS, &images, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return err
	}

	h.cfg.Logger.Debug("container mounted", zap.String("surface", s.id), zap.Int("images", images))
	s.mounted = true
	return nil
}

// Print prints the tab at the page size its stylesheet asks for and hands
// the PDF to the sink.
func (h *Host) Print(ctx context.Context, ps pdfprint.Surface) error {
	s, ok := ps.(*surface)
	if !ok {
		return ErrForeignSurface
	}
	if !s.mounted {
		return ErrNotMounted
	}

	var pdf []byte
	err := h.run(ctx, s, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		pdf, _, err = printParams().Do(ctx)
		return err
	}))
	if err != nil {
		return err
	}
	return h.cfg.Sink.Write(ctx, pdf)
}

// attachTab creates the tab's target. chromedp binds the target's event
// loop to the context of the first Run, so that context must be the tab's
// own and never a derived one.
func attachTab(tabCtx context.Context) error {
	return chromedp.Run(tabCtx)
}

// openTab attaches the tab on tabCtx. The caller's ctx and the timeout can
// abort the attach, but only by closing the tab.
func openTab(ctx, tabCtx context.Context, closeTab context.CancelFunc, timeout time.Duration, attach func(context.Context) error) error {
	timer := time.AfterFunc(timeout, closeTab)
	stop := context.AfterFunc(ctx, closeTab)
	err := attach(tabCtx)
	fired := !timer.Stop()
	aborted := !stop()

	switch {
	case aborted:
		return ctx.Err()
	case fired:
		return fmt.Errorf("%w: attaching tab after %v", context.DeadlineExceeded, timeout)
	}
	return err
}

// run executes actions on the tab, bounded by ctx and the host timeout.
// Cancelling the derived context stops the actions without closing the tab.
func (h *Host) run(ctx context.Context, s *surface, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.tabCtx, h.cfg.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// printParams lets the container's @page rule decide the paper size and
// margins. Zero margins are dropped on the wire, so the stylesheet sets them.
func printParams() *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPreferCSSPageSize(true).
		WithPrintBackground(true)
}
