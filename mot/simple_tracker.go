package mot

import (
	"math"
	"sort"
)

// NewCentroidTracker creates a new Centroid Tracker with specified parameters. Other parameters are taken from DefaultConfig.
// maxDistance is in normalized image units.
func NewCentroidTracker(maxDistance float64, maxDisappeared int) (*Tracker, error) {
	cfg := DefaultConfig()
	cfg.CentroidMaxDistance = maxDistance
	cfg.MaxDisappeared = maxDisappeared
	return NewTracker(AlgorithmCentroid, cfg)
}

// associateCentroid matches observations to the track with nearest predicted center.
// Closest pairs are resolved first; an observation whose nearest track is already
// reserved stays unmatched.
func (tracker *Tracker) associateCentroid(predicted []Rectangle, observations []Observation) ([]match, []int) {
	priorityQueue := make(distanceHeap, 0, len(observations))
	for obsIdx, obs := range observations {
		minTrack := -1
		minDistance := math.MaxFloat64
		center := obs.Box.Center()
		for trackIdx, track := range tracker.tracks {
			if !tracker.sameCategory(track, obs) {
				continue
			}
			// Both current and predicted centers are checked: prediction may overshoot for erratic objects
			dist := euclideanDistance(center, track.GetCenter())
			distPredicted := euclideanDistance(center, predicted[trackIdx].Center())
			distVerified := math.Min(dist, distPredicted)
			if distVerified < minDistance {
				minDistance = distVerified
				minTrack = trackIdx
			}
		}
		priorityQueue.Push(&distanceObs{
			obsIdx:   obsIdx,
			trackIdx: minTrack,
			distance: minDistance,
		})
	}

	matches := make([]match, 0)
	unmatchedObs := make([]int, 0)
	// We need to prevent double update of tracks
	reservedTracks := make(map[int]struct{})
	for priorityQueue.Len() > 0 {
		item := priorityQueue.Pop()
		if item.trackIdx < 0 {
			unmatchedObs = append(unmatchedObs, item.obsIdx)
			continue
		}
		// Since we are using priority queue with min-heap we guarantee that track is updated with min distance only once.
		if _, reserved := reservedTracks[item.trackIdx]; reserved {
			unmatchedObs = append(unmatchedObs, item.obsIdx)
			continue
		}
		obs := observations[item.obsIdx]
		if item.distance < obs.Box.Diagonal()*0.5 || item.distance < tracker.cfg.CentroidMaxDistance {
			matches = append(matches, match{track: item.trackIdx, obs: item.obsIdx})
			reservedTracks[item.trackIdx] = struct{}{}
		} else {
			unmatchedObs = append(unmatchedObs, item.obsIdx)
		}
	}
	sort.Ints(unmatchedObs)
	return matches, unmatchedObs
}
