package pdfprint

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-pdfprint/internal/fileutil"
)

// sessionState is a step of one print session.
type sessionState int

const (
	stateIdle sessionState = iota
	stateDocumentLoading
	statePageLoop
	stateAssembling
	statePrinting
	stateReleased
	stateAborted
)

func (s sessionState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateDocumentLoading:
		return "document-loading"
	case statePageLoop:
		return "page-loop"
	case stateAssembling:
		return "assembling"
	case statePrinting:
		return "printing"
	case stateReleased:
		return "released"
	case stateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// session is one PrintDocument call. It owns the surface and every resource
// created on the way, and gives all of them back in release.
type session struct {
	printer  *Printer
	params   PrintParameters
	strategy Strategy
	logger   *zap.Logger

	state     sessionState
	surface   Surface
	resources []*Resource
	pages     []PageElement
}

func newSession(p *Printer, params PrintParameters, strategy Strategy) *session {
	return &session{
		printer:  p,
		params:   params,
		strategy: strategy,
		state:    stateIdle,
		logger: p.logger.With(
			zap.String("surface", params.SurfaceID),
			zap.Stringer("strategy", strategy),
		),
	}
}

func (s *session) transition(to sessionState, fields ...zap.Field) {
	s.logger.Debug("print session transition",
		append([]zap.Field{zap.Stringer("from", s.state), zap.Stringer("to", to)}, fields...)...)
	s.state = to
}

// run drives the session to Released or Aborted. Cleanup runs on every
// exit path before the outcome is returned.
func (s *session) run(ctx context.Context, src Source) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}

		releaseErr := s.release(context.WithoutCancel(ctx))
		if err == nil && releaseErr != nil {
			err = fmt.Errorf("releasing print surface: %w", releaseErr)
		} else if releaseErr != nil {
			s.logger.Warn("cleanup after failed session", zap.Error(releaseErr))
		}

		if err != nil {
			s.transition(stateAborted, zap.Error(err))
			return
		}
		s.transition(stateReleased)
		s.logger.Info("document printed",
			zap.Int("pages", len(s.pages)),
			zap.Duration("duration", time.Since(start)))
	}()

	s.surface, err = s.printer.surfaces.Acquire(ctx, s.params.SurfaceID)
	if err != nil {
		return err
	}

	var content *Content
	switch s.strategy {
	case StrategyNativeEmbed:
		content, err = s.prepareEmbed(ctx, src)
	case StrategyRaster:
		content, err = s.prepareRaster(ctx, src)
	default:
		err = ErrStrategyUnsupported
	}
	if err != nil {
		return err
	}

	return s.print(ctx, content)
}

// prepareEmbed hands the source itself to the surface.
func (s *session) prepareEmbed(ctx context.Context, src Source) (*Content, error) {
	s.transition(stateDocumentLoading)

	embedURL, err := s.embedURL(ctx, src)
	if err != nil {
		return nil, err
	}

	s.transition(stateAssembling)
	return &Content{EmbedURL: embedURL}, nil
}

// embedURL returns a URL the host can load the source PDF from. Bytes are
// written to a revocable temp file; local files are referenced in place.
func (s *session) embedURL(ctx context.Context, src Source) (string, error) {
	data := src.Data
	if len(data) == 0 {
		loc := strings.TrimSpace(src.Locator)
		switch {
		case strings.HasPrefix(loc, "file://"):
			path, err := fileutil.PathFromFileURL(loc)
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrSourceLoad, err)
			}
			if !fileutil.FileExists(path) {
				return "", fmt.Errorf("%w: %s does not exist", ErrSourceLoad, path)
			}
			return loc, nil
		case !isDataURL(loc) && !fileutil.IsURL(loc):
			if !fileutil.FileExists(loc) {
				return "", fmt.Errorf("%w: %s does not exist", ErrSourceLoad, loc)
			}
			return fileutil.FileURL(loc)
		}
		var err error
		if data, err = s.printer.loader.Load(ctx, loc); err != nil {
			return "", err
		}
	}

	res, err := newFileResource(s.printer.tempDir, data, "pdf")
	if err != nil {
		return "", fmt.Errorf("%w: staging document: %v", ErrSourceLoad, err)
	}
	s.resources = append(s.resources, res)
	return res.URL, nil
}

// prepareRaster decodes the document and rasterizes every page in order.
func (s *session) prepareRaster(ctx context.Context, src Source) (*Content, error) {
	s.transition(stateDocumentLoading)

	data, err := s.printer.sourceBytes(ctx, src)
	if err != nil {
		return nil, err
	}
	doc, err := s.printer.openDocument(ctx, data)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			s.logger.Warn("closing document", zap.Error(cerr))
		}
	}()

	total := doc.PageCount()
	if total <= 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrDocumentDecode)
	}

	caps := s.printer.host.Capabilities()
	encoder := selectEncoder(&s.params, caps, s.printer.tempDir)
	resolver := NewLayoutResolver(s.params.Layout)
	raster := newRasterizer(s.printer.yielder)
	defer raster.release()

	for i := 1; i <= total; i++ {
		s.transition(statePageLoop, zap.Int("page", i), zap.Int("total", total))
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("print cancelled before page %d: %w", i, err)
		}
		if err := s.renderPage(ctx, doc, i, resolver, raster, encoder); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return nil, fmt.Errorf("print cancelled at page %d: %w", i, err)
			}
			return nil, newPageRenderError(i, err)
		}
		s.printer.progress.emit(ProgressEvent{Index: i, TotalCount: total})
	}

	s.transition(stateAssembling)

	dims := make([]PageDimension, len(s.pages))
	for i, p := range s.pages {
		dims[i] = p.Dimension
	}
	width, height := maxDimensions(dims)
	styleSheet := buildPageStyleSheet(width, height)
	html, err := buildContainerHTML(documentTitle(src), styleSheet, s.pages)
	if err != nil {
		return nil, err
	}

	return &Content{
		StyleSheet: styleSheet,
		HTML:       html,
		Pages:      s.pages,
		PageWidth:  width,
		PageHeight: height,
	}, nil
}

// renderPage resolves, rasterizes and encodes page i.
func (s *session) renderPage(ctx context.Context, doc Document, i int, resolver *LayoutResolver, raster *rasterizer, encoder Encoder) error {
	page, err := doc.Page(ctx, i)
	if err != nil {
		return err
	}

	rawWidth, rawHeight := page.Size()
	dim := resolver.Resolve(rawWidth, rawHeight)

	target, extraScale := dim, 1.0
	if s.params.FitToFirstPage && i > 1 {
		first := resolver.First()
		extraScale = ScaleFactor(*first, dim)
		target = PageDimension{Width: first.Width, Height: first.Height, Reverted: dim.Reverted}
	}

	img, err := raster.rasterize(ctx, page, target, &s.params, extraScale)
	if err != nil {
		return err
	}

	res, err := encoder.Encode(ctx, img)
	if err != nil {
		return err
	}
	s.resources = append(s.resources, res)

	widthPx, heightPx := displaySize(target, s.params.CSSUnits)
	s.pages = append(s.pages, PageElement{
		Index:     i,
		Src:       res.URL,
		WidthPx:   widthPx,
		HeightPx:  heightPx,
		Dimension: target,
	})
	return nil
}

// print mounts content and triggers the host's print action.
func (s *session) print(ctx context.Context, content *Content) error {
	s.transition(statePrinting)

	if err := s.printer.host.Mount(ctx, s.surface, content); err != nil {
		if errors.Is(err, ErrSurfaceUnavailable) || errors.Is(err, ErrSourceLoad) || ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: mounting content: %w", ErrSurfaceUnavailable, err)
	}
	if err := s.printer.yielder.Yield(ctx); err != nil {
		return err
	}
	if err := s.printer.host.Print(ctx, s.surface); err != nil {
		if errors.Is(err, ErrPrintFailed) || ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %w", ErrPrintFailed, err)
	}
	return nil
}

// release tears down the surface and revokes every resource.
func (s *session) release(ctx context.Context) error {
	var errs []error
	if s.surface != nil {
		if err := s.printer.surfaces.Release(ctx, s.surface); err != nil {
			errs = append(errs, err)
		}
		s.surface = nil
	}
	for _, r := range s.resources {
		if err := r.Revoke(); err != nil {
			errs = append(errs, err)
		}
	}
	s.resources = nil
	return errors.Join(errs...)
}

// documentTitle names the print container after the source.
func documentTitle(src Source) string {
	if src.Locator == "" {
		return "document"
	}
	loc := strings.TrimRight(src.Locator, "/\\")
	if i := strings.IndexAny(loc, "?#"); i >= 0 {
		loc = loc[:i]
	}
	base := path.Base(strings.ReplaceAll(loc, "\\", "/"))
	if base == "" || base == "." || base == "/" {
		return "document"
	}
	return base
}
