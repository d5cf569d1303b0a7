package pdfprint

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	ErrDocumentDecode      = errors.New("document could not be decoded")
	ErrPageRender          = errors.New("page rendering failed")
	ErrSurfaceUnavailable  = errors.New("print surface unavailable")
	ErrStrategyUnsupported = errors.New("no print strategy supported by host")
	ErrPrintFailed         = errors.New("print action failed")
	ErrPrinterClosed       = errors.New("printer is closed")

	// Source errors.
	ErrEmptySource = errors.New("source has neither data nor locator")
	ErrSourceLoad  = errors.New("failed to load source")

	// Print parameters validation errors.
	ErrInvalidLayoutMode = errors.New("invalid layout mode")
	ErrInvalidResolution = errors.New("invalid print resolution")
	ErrInvalidScale      = errors.New("invalid scale")
	ErrInvalidCSSUnits   = errors.New("invalid CSS units per point")
	ErrEmptySurfaceID    = errors.New("surface id cannot be empty")
)

// PageRenderError reports the page whose rendering aborted a session.
// Index is 1-based.
type PageRenderError struct {
	Index int
	Err   error
}

func (e *PageRenderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: page %d", ErrPageRender, e.Index)
	}
	return fmt.Sprintf("%v: page %d: %v", ErrPageRender, e.Index, e.Err)
}

// Is reports ErrPageRender as a match so callers can test with errors.Is.
func (e *PageRenderError) Is(target error) bool {
	return target == ErrPageRender
}

func (e *PageRenderError) Unwrap() error {
	return e.Err
}

// newPageRenderError wraps err unless it already carries a page index.
func newPageRenderError(index int, err error) error {
	var pe *PageRenderError
	if errors.As(err, &pe) {
		return err
	}
	return &PageRenderError{Index: index, Err: err}
}
