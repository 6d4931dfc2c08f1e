package mot

import "sort"

// NewByteTracker creates a new ByteTrack Tracker with specified parameters. Other parameters are taken from DefaultConfig.
func NewByteTracker(maxDisappeared int, minIoU, highThresh float64, algorithm MatchingAlgorithm) (*Tracker, error) {
	cfg := DefaultConfig()
	cfg.MaxDisappeared = maxDisappeared
	cfg.MatchIoU = minIoU
	cfg.HighThreshold = highThresh
	cfg.Matching = algorithm
	return NewTracker(AlgorithmByteTrack, cfg)
}

// associateByteTrack matches observations with existing tracks in two stages:
//  1. high confidence observations against every live track;
//  2. remaining observations against tracks that were tracked on previous frame and left unmatched.
//
// Returns matches and indices of observations left unmatched (ascending).
func (tracker *Tracker) associateByteTrack(predicted []Rectangle, observations []Observation) ([]match, []int) {
	allTracks := make([]int, len(tracker.tracks))
	for i := range tracker.tracks {
		allTracks[i] = i
	}

	highObs := make([]int, 0, len(observations))
	lowObs := make([]int, 0)
	for i, obs := range observations {
		if obs.Score >= tracker.cfg.HighThreshold {
			highObs = append(highObs, i)
		} else {
			lowObs = append(lowObs, i)
		}
	}

	// 1. First stage: Match high confidence detections
	matches, unmatchedTracks, unmatchedHigh := tracker.associateByIoU(allTracks, highObs, predicted, observations, tracker.cfg.MatchIoU)

	// 2. Second stage: Match low confidence detections with remaining tracks.
	// Lost tracks do not take part: a low score box alone is not enough evidence to revive them
	remainTracked := make([]int, 0, len(unmatchedTracks))
	for _, trackIdx := range unmatchedTracks {
		if tracker.tracks[trackIdx].state == TrackStateTracked {
			remainTracked = append(remainTracked, trackIdx)
		}
	}
	lowMatches, _, unmatchedLow := tracker.associateByIoU(remainTracked, lowObs, predicted, observations, tracker.cfg.LowMatchIoU)
	matches = append(matches, lowMatches...)

	unmatchedObs := append(unmatchedHigh, unmatchedLow...)
	sort.Ints(unmatchedObs)
	return matches, unmatchedObs
}
