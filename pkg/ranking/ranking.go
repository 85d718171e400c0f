package ranking

// Gap carries the relative metrics for one row of a time-ordered field.
type Gap struct {
	// ToLeader is the distance to the track record; zero for the leader.
	ToLeader float64

	// Interval is the distance to the immediately preceding (faster)
	// driver, not a cumulative value; zero for the leader.
	Interval float64
}

// Annotate computes gap-to-leader and interval-to-previous for a field of
// lap times sorted ascending. Results are index-aligned with the input.
func Annotate(sorted []float64) []Gap {
	if len(sorted) == 0 {
		return nil
	}

	gaps := make([]Gap, len(sorted))
	leader := sorted[0]

	for i, t := range sorted {
		gaps[i].ToLeader = t - leader

		if i > 0 {
			gaps[i].Interval = t - sorted[i-1]
		}
	}

	return gaps
}
