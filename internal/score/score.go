// Package score derives a task's priority from its three ratings.
package score

// Compute returns (impact * tractability) / uncertainty.
// A zero tractability or uncertainty yields 0. Ratings are not range checked,
// so a negative impact produces a negative score.
func Compute(impact, tractability, uncertainty int) float64 {
	if tractability == 0 || uncertainty == 0 {
		return 0.0
	}
	return float64(impact*tractability) / float64(uncertainty)
}
