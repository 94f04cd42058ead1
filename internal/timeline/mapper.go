package timeline

import "math"

// TimeToFraction maps a time onto [0,1] of the timeline.
// An unknown duration (zero, negative or NaN) maps everything to 0.
func TimeToFraction(t, duration float64) float64 {
	if !validDuration(duration) || math.IsNaN(t) {
		return 0
	}
	return clamp01(t / duration)
}

// FractionToTime maps a timeline fraction back to seconds.
func FractionToTime(fraction, duration float64) float64 {
	if !validDuration(duration) || math.IsNaN(fraction) {
		return 0
	}
	return clamp01(fraction) * duration
}

// PointerFraction converts a pointer position on a track of the given left
// edge and width into a fraction of the track.
func PointerFraction(x, left, width float64) float64 {
	if width <= 0 || math.IsNaN(width) || math.IsNaN(x) || math.IsNaN(left) {
		return 0
	}
	return clamp01((x - left) / width)
}

// Span returns the left offset and width, both as fractions of the
// timeline, of a segment drawn on it.
func Span(start, end, duration float64) (left, width float64) {
	left = TimeToFraction(start, duration)
	right := TimeToFraction(end, duration)
	if right < left {
		return left, 0
	}
	return left, right - left
}

// Cell maps a fraction to a column index on a track that is cells wide.
// The result is always within [0, cells-1].
func Cell(fraction float64, cells int) int {
	if cells <= 0 {
		return 0
	}
	i := int(math.Floor(clamp01(fraction) * float64(cells)))
	if i >= cells {
		i = cells - 1
	}
	return i
}

func validDuration(d float64) bool {
	return d > 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
