package crawlstatus

// DefaultMaxDeviation is the widest spread, in percentage points, that daily
// readings may have and still be considered in agreement.
const DefaultMaxDeviation = 5.0

// FilterCoherent keeps the largest group of values that agree with each
// other within maxDeviation.
//
// A group is seeded with each value in turn and grown greedily by testing
// every other value in input order against the current group bounds. The
// first largest group wins, so the result is deterministic for a given
// input order. Inputs of 0 or 1 values are returned as is.
func FilterCoherent(values []float64, maxDeviation float64) []float64 {
	if len(values) <= 1 {
		return values
	}

	var best []float64
	for i, seed := range values {
		group := []float64{seed}
		low, high := seed, seed

		for j, candidate := range values {
			if i == j {
				continue
			}
			newLow := min(low, candidate)
			newHigh := max(high, candidate)
			if newHigh-newLow <= maxDeviation {
				group = append(group, candidate)
				low, high = newLow, newHigh
			}
		}

		if len(group) > len(best) {
			best = group
		}
	}
	return best
}

// Average is the arithmetic mean of values, 0 when there are none so that
// missing data never reads as healthy.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// CountZeroDays counts the readings that are exactly zero.
func CountZeroDays(values []float64) int {
	count := 0
	for _, v := range values {
		if v == 0 {
			count++
		}
	}
	return count
}
