package mot

import "sort"

// FilterByScore returns observations with score greater than or equal to threshold.
// Threshold is inclusive. Order of the input is preserved.
func FilterByScore(observations []Observation, threshold float64) []Observation {
	kept := make([]Observation, 0, len(observations))
	for _, obs := range observations {
		if obs.Score >= threshold {
			kept = append(kept, obs)
		}
	}
	return kept
}

// SuppressOverlaps performs greedy non-maximum suppression.
// When two observations of the same category overlap with IoU strictly greater
// than iouThreshold only the one with the higher score survives (earlier one wins ties).
// If classAgnostic is set, categories are ignored.
// Survivors are returned in their original order.
func SuppressOverlaps(observations []Observation, iouThreshold float64, classAgnostic bool) []Observation {
	if len(observations) < 2 {
		kept := make([]Observation, len(observations))
		copy(kept, observations)
		return kept
	}

	order := make([]int, len(observations))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return observations[order[i]].Score > observations[order[j]].Score
	})

	suppressed := make([]bool, len(observations))
	for oi, i := range order {
		if suppressed[i] {
			continue
		}
		for _, j := range order[oi+1:] {
			if suppressed[j] {
				continue
			}
			if !classAgnostic && observations[i].Category != observations[j].Category {
				continue
			}
			if IoU(observations[i].Box, observations[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}

	kept := make([]Observation, 0, len(observations))
	for i, obs := range observations {
		if !suppressed[i] {
			kept = append(kept, obs)
		}
	}
	return kept
}
