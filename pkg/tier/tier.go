package tier

// Tier is the categorical skill label derived from a driver's z-score.
type Tier string

// Tiers, best to worst.
const (
	SPlus Tier = "S+"
	S     Tier = "S"
	A     Tier = "A"
	B     Tier = "B"
	C     Tier = "C"
	D     Tier = "D"
)

// Ladder lists all tiers best to worst.
var Ladder = []Tier{SPlus, S, A, B, C, D}

// ZScore standardizes a lap time against the track mean, in standard
// deviation units; negative means faster than average. A zero standard
// deviation marks a degenerate distribution where every driver is average,
// so the z-score is 0.
func ZScore(time, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0.0
	}

	return (time - mean) / stdDev
}

// FromZScore maps a z-score to a tier. The ladder is evaluated with strict
// less-than, so a z-score exactly on a threshold lands in the next (slower)
// bucket: -1.0 is S territory's floor and yields A.
func FromZScore(z float64) Tier {
	switch {
	case z < -1.5:
		return SPlus
	case z < -1.0:
		return S
	case z < -0.5:
		return A
	case z < 0.0:
		return B
	case z < 0.5:
		return C
	default:
		return D
	}
}

// Percentile returns position/total as a percentage. Position is 1-indexed,
// so the fastest of N drivers scores 100/N. Total must be at least 1.
func Percentile(position, total int) float64 {
	return float64(position) / float64(total) * 100
}

// Rank orders tiers best (0) to worst (5); unknown tiers sort last.
func (t Tier) Rank() int {
	for i, candidate := range Ladder {
		if t == candidate {
			return i
		}
	}

	return len(Ladder)
}

// Color returns the badge color the leaderboard UI renders for the tier.
func (t Tier) Color() string {
	switch t {
	case SPlus:
		return "#a855f7"
	case S:
		return "#fbbf24"
	case A:
		return "#10b981"
	case B:
		return "#3b82f6"
	case D:
		return "#ef4444"
	default:
		return "#6b7280"
	}
}
