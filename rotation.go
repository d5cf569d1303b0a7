package pdfprint

// NormalizeRotation maps angle to one of 0, 90, 180 or 270.
// Angles that are not a multiple of 90 collapse to 0 (upright).
func NormalizeRotation(angle int) int {
	switch {
	case angle%90 != 0:
		return 0
	case angle >= 360:
		return angle % 360
	case angle < 0:
		return ((angle % 360) + 360) % 360
	default:
		return angle
	}
}

// NormalizeRotationForDimension normalizes angle and turns it a further
// quarter when the page dimension was swapped by the layout, so a page
// forced into the other orientation still prints in reading order.
func NormalizeRotationForDimension(angle int, dim PageDimension) int {
	r := NormalizeRotation(angle)
	if dim.Reverted {
		r = NormalizeRotation(r + 90)
	}
	return r
}
