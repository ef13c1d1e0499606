// Package schedule maps narration playback position to the active slide
// index. Interactive preview and the export render loop both call
// ActiveIndex so the two always agree on which slide is visible at a given
// relative timestamp.
package schedule

// ActiveIndex returns the slide index for the given playback position.
// The second return value is false when there is no valid index to draw
// (no slides, or a non-positive duration).
func ActiveIndex(elapsed, duration float64, slideCount int) (int, bool) {
	if slideCount <= 0 || duration <= 0 {
		return 0, false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	idx := int(elapsed / duration * float64(slideCount))
	if idx > slideCount-1 {
		idx = slideCount - 1
	}
	return idx, true
}

// Fraction returns elapsed/duration clamped to [0, 1]; it is the canonical
// progress value all percentage displays derive from.
func Fraction(elapsed, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	f := elapsed / duration
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
