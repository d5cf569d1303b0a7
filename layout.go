package pdfprint

import (
	"fmt"
	"strings"
)

// LayoutMode governs how a page's orientation is chosen.
type LayoutMode string

// Layout modes.
const (
	LayoutNone      LayoutMode = "none"
	LayoutPortrait  LayoutMode = "portrait"
	LayoutLandscape LayoutMode = "landscape"
	LayoutFixed     LayoutMode = "fixed"
)

// ParseLayoutMode converts s to a LayoutMode (case-insensitive).
// An empty string means LayoutNone.
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch m := LayoutMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return LayoutNone, nil
	case LayoutNone, LayoutPortrait, LayoutLandscape, LayoutFixed:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (must be none, portrait, landscape, or fixed)", ErrInvalidLayoutMode, s)
	}
}

// Valid reports whether m is one of the known layout modes.
func (m LayoutMode) Valid() bool {
	switch m {
	case LayoutNone, LayoutPortrait, LayoutLandscape, LayoutFixed:
		return true
	}
	return false
}

// PageDimension is a page size in PDF points after layout resolution.
// Reverted is set when width and height were swapped from the source.
type PageDimension struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Reverted bool    `json:"reverted,omitempty"`
}

// IsLandscape reports whether the dimension is wider than tall.
func (d PageDimension) IsLandscape() bool {
	return d.Width > d.Height
}

func (d PageDimension) swapped() PageDimension {
	return PageDimension{Width: d.Height, Height: d.Width, Reverted: true}
}

// ResolveDimension decides the oriented size of a page.
//
// none, portrait and landscape only look at the page itself. fixed compares
// the page against first, the resolved dimension of the first page, and
// swaps the page when the orientations disagree. A nil first means the page
// is the first page and keeps its natural size.
func ResolveDimension(rawWidth, rawHeight float64, first *PageDimension, mode LayoutMode) PageDimension {
	natural := PageDimension{Width: rawWidth, Height: rawHeight}
	landscapeSource := rawWidth > rawHeight

	switch mode {
	case LayoutLandscape:
		if landscapeSource {
			return natural
		}
		return natural.swapped()
	case LayoutPortrait:
		if !landscapeSource {
			return natural
		}
		return natural.swapped()
	case LayoutFixed:
		if first == nil || first.IsLandscape() == landscapeSource {
			return natural
		}
		return natural.swapped()
	default:
		return natural
	}
}

// LayoutResolver resolves page dimensions across one session. It keeps the
// first resolved dimension, which fixed mode and footprint scaling depend
// on, so pages must be resolved in order.
type LayoutResolver struct {
	mode       LayoutMode
	dimensions []PageDimension
}

// NewLayoutResolver returns a resolver for mode.
func NewLayoutResolver(mode LayoutMode) *LayoutResolver {
	return &LayoutResolver{mode: mode}
}

// Resolve resolves the next page and records it.
func (r *LayoutResolver) Resolve(rawWidth, rawHeight float64) PageDimension {
	dim := ResolveDimension(rawWidth, rawHeight, r.First(), r.mode)
	r.dimensions = append(r.dimensions, dim)
	return dim
}

// First returns the first resolved dimension, or nil before any page.
func (r *LayoutResolver) First() *PageDimension {
	if len(r.dimensions) == 0 {
		return nil
	}
	first := r.dimensions[0]
	return &first
}

// Dimensions returns the resolved dimensions in page order.
func (r *LayoutResolver) Dimensions() []PageDimension {
	out := make([]PageDimension, len(r.dimensions))
	copy(out, r.dimensions)
	return out
}

// maxDimensions returns the largest width and the largest height in dims.
// The two maxima may come from different pages.
func maxDimensions(dims []PageDimension) (width, height float64) {
	for _, d := range dims {
		width = max(width, d.Width)
		height = max(height, d.Height)
	}
	return width, height
}
