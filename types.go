package pdfprint

import (
	"fmt"
	"strings"
)

// Print parameter defaults.
const (
	DefaultSurfaceID  = "pdfPrintIframe"
	DefaultResolution = 150
	DefaultScale      = 1.0
	DefaultCSSUnits   = 96.0 / 72.0
)

// pointsPerInch is the PDF user-space baseline.
const pointsPerInch = 72.0

// PrintParameters configures one print session.
// Build with NewPrintParameters or DefaultPrintParameters; the value must not
// change while a session is using it.
type PrintParameters struct {
	SurfaceID  string     `yaml:"surfaceId"`  // identity of the reusable print surface
	Resolution int        `yaml:"resolution"` // print resolution in DPI
	Rotation   int        `yaml:"rotation"`   // degrees, normalized to 0/90/180/270
	Scale      float64    `yaml:"scale"`      // viewport scale
	CSSUnits   float64    `yaml:"cssUnits"`   // display pixels per PDF point
	UseDataURL bool       `yaml:"useDataURL"` // inline data URLs instead of file resources
	Layout     LayoutMode `yaml:"layout"`     // none, portrait, landscape, fixed

	// ForceRaster skips native embedding even when the host supports it.
	ForceRaster bool `yaml:"forceRaster"`
	// FitToFirstPage renders every page into the first page's footprint.
	FitToFirstPage bool `yaml:"fitToFirstPage"`
}

// DefaultPrintParameters returns parameters with default values.
func DefaultPrintParameters() *PrintParameters {
	return &PrintParameters{
		SurfaceID:  DefaultSurfaceID,
		Resolution: DefaultResolution,
		Rotation:   0,
		Scale:      DefaultScale,
		CSSUnits:   DefaultCSSUnits,
		UseDataURL: true,
		Layout:     LayoutNone,
	}
}

// ParamOption overrides one print parameter.
type ParamOption func(*PrintParameters)

// NewPrintParameters applies opts over the defaults and validates the result.
func NewPrintParameters(opts ...ParamOption) (*PrintParameters, error) {
	p := DefaultPrintParameters()
	for _, opt := range opts {
		opt(p)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// WithSurfaceID sets the print surface identity.
func WithSurfaceID(id string) ParamOption {
	return func(p *PrintParameters) { p.SurfaceID = id }
}

// WithResolution sets the print resolution in DPI.
func WithResolution(dpi int) ParamOption {
	return func(p *PrintParameters) { p.Resolution = dpi }
}

// WithRotation sets the rotation in degrees.
func WithRotation(degrees int) ParamOption {
	return func(p *PrintParameters) { p.Rotation = degrees }
}

// WithScale sets the viewport scale.
func WithScale(scale float64) ParamOption {
	return func(p *PrintParameters) { p.Scale = scale }
}

// WithCSSUnits sets the display pixels per PDF point.
func WithCSSUnits(units float64) ParamOption {
	return func(p *PrintParameters) { p.CSSUnits = units }
}

// WithDataURL selects inline data URLs (true) or file resources (false).
func WithDataURL(enabled bool) ParamOption {
	return func(p *PrintParameters) { p.UseDataURL = enabled }
}

// WithLayout sets the layout mode.
func WithLayout(mode LayoutMode) ParamOption {
	return func(p *PrintParameters) { p.Layout = mode }
}

// WithForceRaster forces the raster strategy.
func WithForceRaster(enabled bool) ParamOption {
	return func(p *PrintParameters) { p.ForceRaster = enabled }
}

// WithFitToFirstPage scales pages into the first page's footprint.
func WithFitToFirstPage(enabled bool) ParamOption {
	return func(p *PrintParameters) { p.FitToFirstPage = enabled }
}

// Validate checks that all parameters are usable.
// The layout mode is compared case-insensitively and normalized in place.
func (p *PrintParameters) Validate() error {
	if p == nil {
		return nil
	}
	if strings.TrimSpace(p.SurfaceID) == "" {
		return ErrEmptySurfaceID
	}
	if p.Resolution <= 0 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidResolution, p.Resolution)
	}
	if p.Scale <= 0 {
		return fmt.Errorf("%w: %.2f (must be positive)", ErrInvalidScale, p.Scale)
	}
	if p.CSSUnits <= 0 {
		return fmt.Errorf("%w: %.4f (must be positive)", ErrInvalidCSSUnits, p.CSSUnits)
	}
	mode, err := ParseLayoutMode(string(p.Layout))
	if err != nil {
		return err
	}
	p.Layout = mode
	return nil
}

// printUnits returns device pixels per PDF point at the print resolution.
func (p *PrintParameters) printUnits() float64 {
	return float64(p.Resolution) / pointsPerInch
}

// ProgressEvent reports a completed page. Index runs from 1 to TotalCount.
type ProgressEvent struct {
	Index      int
	TotalCount int
}

// Source is the document to print: raw bytes or a locator (path or URL).
type Source struct {
	Data    []byte
	Locator string
}

// Validate checks that the source carries something to print.
func (s Source) Validate() error {
	if len(s.Data) == 0 && strings.TrimSpace(s.Locator) == "" {
		return ErrEmptySource
	}
	return nil
}
