package pdfprint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Printer orchestrates print sessions: decode, layout, rasterize, assemble,
// mount and print, with the surface released on every exit path.
// Create with NewPrinter, call PrintDocument per document, and Close when done.
type Printer struct {
	renderer  PageRenderer
	host      SurfaceHost
	inspector Inspector
	loader    SourceLoader
	yielder   Yielder
	logger    *zap.Logger
	tempDir   string
	timeout   time.Duration

	surfaces *SurfaceManager
	progress progressHub

	mu     sync.Mutex
	closed bool
}

// Option configures a Printer.
type Option func(*Printer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Printer) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithInspector sets the decode-only inspector used by PageCount.
func WithInspector(i Inspector) Option {
	return func(p *Printer) { p.inspector = i }
}

// WithSourceLoader sets how locators are turned into bytes.
func WithSourceLoader(l SourceLoader) Option {
	return func(p *Printer) {
		if l != nil {
			p.loader = l
		}
	}
}

// WithYielder sets the yield point used between pipeline steps.
func WithYielder(y Yielder) Option {
	return func(p *Printer) {
		if y != nil {
			p.yielder = y
		}
	}
}

// WithTempDir sets where file resources are written (default os.TempDir).
func WithTempDir(dir string) Option {
	return func(p *Printer) { p.tempDir = dir }
}

// WithTimeout bounds each PrintDocument call.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("pdfprint: WithTimeout duration must be positive")
	}
	return func(p *Printer) { p.timeout = d }
}

// NewPrinter creates a Printer over a page renderer and a surface host.
func NewPrinter(renderer PageRenderer, host SurfaceHost, opts ...Option) (*Printer, error) {
	if renderer == nil {
		return nil, errors.New("pdfprint: nil page renderer")
	}
	if host == nil {
		return nil, errors.New("pdfprint: nil surface host")
	}

	p := &Printer{
		renderer: renderer,
		host:     host,
		loader:   &LocatorLoader{},
		yielder:  schedulerYielder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.surfaces = NewSurfaceManager(host, p.logger)
	return p, nil
}

// OnProgress subscribes fn to page progress of every session on this
// Printer. Events emitted before subscribing are not replayed. fn runs on
// the printing goroutine and must not block for long. Call the returned
// function to unsubscribe.
func (p *Printer) OnProgress(fn func(ProgressEvent)) (unsubscribe func()) {
	return p.progress.subscribe(fn)
}

// PageCount returns the number of pages in src without rasterizing anything.
func (p *Printer) PageCount(ctx context.Context, src Source) (int, error) {
	if err := p.checkClosed(); err != nil {
		return 0, err
	}
	if err := src.Validate(); err != nil {
		return 0, err
	}

	data, err := p.sourceBytes(ctx, src)
	if err != nil {
		return 0, err
	}

	if p.inspector != nil {
		n, err := p.inspector.PageCount(ctx, data)
		if err != nil {
			if errors.Is(err, ErrDocumentDecode) {
				return 0, err
			}
			return 0, fmt.Errorf("%w: %v", ErrDocumentDecode, err)
		}
		return n, nil
	}

	doc, err := p.openDocument(ctx, data)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.PageCount(), nil
}

// PrintDocument prints src with params (nil = defaults). It returns once the
// host has printed and the surface has been released, or with the error that
// aborted the session. Starting a session on a surface id that is still in
// use supersedes the older session.
func (p *Printer) PrintDocument(ctx context.Context, src Source, params *PrintParameters) error {
	if err := p.checkClosed(); err != nil {
		return err
	}
	if params == nil {
		params = DefaultPrintParameters()
	}
	// Sessions work on their own copy so the caller's value stays untouched.
	sessionParams := *params
	if err := sessionParams.Validate(); err != nil {
		return err
	}
	if err := src.Validate(); err != nil {
		return err
	}

	strategy, err := selectStrategy(p.host.Capabilities(), sessionParams.ForceRaster)
	if err != nil {
		return err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	return newSession(p, sessionParams, strategy).run(ctx, src)
}

// Close tears down any surface still held. Close is idempotent.
func (p *Printer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	return p.surfaces.Close(context.Background())
}

func (p *Printer) checkClosed() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPrinterClosed
	}
	return nil
}

// sourceBytes returns the document bytes for src.
func (p *Printer) sourceBytes(ctx context.Context, src Source) ([]byte, error) {
	if len(src.Data) > 0 {
		return src.Data, nil
	}
	return p.loader.Load(ctx, src.Locator)
}

// openDocument decodes data, mapping failures to ErrDocumentDecode.
func (p *Printer) openDocument(ctx context.Context, data []byte) (Document, error) {
	doc, err := p.renderer.Open(ctx, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrDocumentDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDocumentDecode, err)
	}
	return doc, nil
}
