package mot

import (
	"container/heap"
	"sort"
)

// NewIoUTracker creates a new IoU Tracker with specified parameters. Other parameters are taken from DefaultConfig.
func NewIoUTracker(maxDisappeared int, minScore float64) (*Tracker, error) {
	cfg := DefaultConfig()
	cfg.MaxDisappeared = maxDisappeared
	cfg.MatchIoU = minScore
	return NewTracker(AlgorithmIoU, cfg)
}

// iouDistanceObs holds an observation with its match score and best track for priority queue
type iouDistanceObs struct {
	score    float64
	trackIdx int
	obsIdx   int
	index    int
}

// iouHeap implements heap.Interface for max-heap by score
type iouHeap []*iouDistanceObs

func (h iouHeap) Len() int { return len(h) }

// Less returns true if i has higher score (max-heap). Ties keep observation order
func (h iouHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score > h[j].score
	}
	return h[i].obsIdx < h[j].obsIdx
}

func (h iouHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *iouHeap) Push(x any) {
	n := len(*h)
	item := x.(*iouDistanceObs)
	item.index = n
	*h = append(*h, item)
}

func (h *iouHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// hybridScore combines IoU and center distance into 0-1 similarity.
// IoU is favored when available, distance relative to object size is a fallback.
func hybridScore(predicted, observed Rectangle) float64 {
	iouValue := IoU(predicted, observed)
	distance := euclideanDistance(predicted.Center(), observed.Center())
	scale := observed.Diagonal()
	if scale <= 0 {
		scale = 1e-9
	}
	distanceScore := 1.0 / (1.0 + distance/scale)
	if iouValue > 0.05 {
		return iouValue*0.8 + distanceScore*0.2
	}
	// Lower weight for pure distance matching
	return distanceScore * 0.5
}

// associateIoU matches every observation with its best scoring track, processing
// observations from highest score to lowest so each track is updated at most once.
// Observations whose best track is already taken or scores not above MatchIoU stay unmatched.
func (tracker *Tracker) associateIoU(predicted []Rectangle, observations []Observation) ([]match, []int) {
	pq := &iouHeap{}
	heap.Init(pq)

	for obsIdx, obs := range observations {
		bestTrack := -1
		maxScore := 0.0
		for trackIdx, track := range tracker.tracks {
			if !tracker.sameCategory(track, obs) {
				continue
			}
			score := hybridScore(predicted[trackIdx], obs.Box)
			if score > maxScore {
				maxScore = score
				bestTrack = trackIdx
			}
		}
		heap.Push(pq, &iouDistanceObs{
			score:    maxScore,
			trackIdx: bestTrack,
			obsIdx:   obsIdx,
		})
	}

	matches := make([]match, 0)
	unmatchedObs := make([]int, 0)
	// Prevent double update of tracks
	reservedTracks := make(map[int]struct{})
	for pq.Len() > 0 {
		item := heap.Pop(pq).(*iouDistanceObs)
		if item.trackIdx < 0 {
			unmatchedObs = append(unmatchedObs, item.obsIdx)
			continue
		}
		if _, reserved := reservedTracks[item.trackIdx]; reserved {
			unmatchedObs = append(unmatchedObs, item.obsIdx)
			continue
		}
		if item.score > tracker.cfg.MatchIoU {
			matches = append(matches, match{track: item.trackIdx, obs: item.obsIdx})
			reservedTracks[item.trackIdx] = struct{}{}
		} else {
			unmatchedObs = append(unmatchedObs, item.obsIdx)
		}
	}
	sort.Ints(unmatchedObs)
	return matches, unmatchedObs
}
