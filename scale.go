package pdfprint

// ScaleFactor computes the uniform scale that makes current match the
// footprint of first.
//
// When either ratio is below 1 the smaller ratio wins, otherwise the larger
// one does. The asymmetry is deliberate and must not be replaced by a plain
// min or max.
func ScaleFactor(first, current PageDimension) float64 {
	if current.Width <= 0 || current.Height <= 0 {
		return 1
	}
	widthFactor := first.Width / current.Width
	heightFactor := first.Height / current.Height

	if m := min(widthFactor, heightFactor); m < 1 {
		return m
	}
	return max(widthFactor, heightFactor)
}
