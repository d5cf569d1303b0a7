package main

import (
	"context"
	"errors"
	"os"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/cdphost"
	"github.com/alnah/go-pdfprint/internal/config"
	"github.com/alnah/go-pdfprint/internal/rodhost"
	"github.com/alnah/go-pdfprint/internal/sink"
	"github.com/alnah/go-pdfprint/internal/spoolhost"
)

// Exit codes for pdfprint CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Document printed
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or validation
	ExitIO       = 3 // Source or output not readable/writable
	ExitBrowser  = 4 // Browser, surface, or print command errors
	ExitDocument = 5 // Document decode or page render errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrTooManyInputs) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, pdfprint.ErrInvalidLayoutMode) ||
		errors.Is(err, pdfprint.ErrInvalidResolution) ||
		errors.Is(err, pdfprint.ErrInvalidScale) ||
		errors.Is(err, pdfprint.ErrInvalidCSSUnits) ||
		errors.Is(err, pdfprint.ErrEmptySurfaceID) ||
		errors.Is(err, pdfprint.ErrStrategyUnsupported) {
		return ExitUsage
	}

	// Document errors (exit 5)
	if errors.Is(err, pdfprint.ErrDocumentDecode) ||
		errors.Is(err, pdfprint.ErrPageRender) {
		return ExitDocument
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, pdfprint.ErrSourceLoad) ||
		errors.Is(err, pdfprint.ErrEmptySource) ||
		errors.Is(err, sink.ErrNoPath) {
		return ExitIO
	}

	// Browser/surface errors (exit 4)
	if errors.Is(err, pdfprint.ErrSurfaceUnavailable) ||
		errors.Is(err, pdfprint.ErrPrintFailed) ||
		errors.Is(err, rodhost.ErrBrowserConnect) ||
		errors.Is(err, cdphost.ErrBrowserStart) ||
		errors.Is(err, spoolhost.ErrPrintCommand) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitBrowser
	}

	return ExitGeneral
}
