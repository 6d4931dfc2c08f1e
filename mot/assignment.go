package mot

import (
	"sort"

	"github.com/arthurkushman/go-hungarian"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian MatchingAlgorithm = iota
	// MatchingAlgorithmGreedy uses a greedy algorithm for faster but potentially suboptimal assignment
	MatchingAlgorithmGreedy
)

func (algorithm MatchingAlgorithm) String() string {
	switch algorithm {
	case MatchingAlgorithmHungarian:
		return "hungarian"
	case MatchingAlgorithmGreedy:
		return "greedy"
	default:
		return "unknown"
	}
}

// match pairs index of a track in Tracker.tracks with index of an observation in the current batch
type match struct {
	track int
	obs   int
}

// associateByIoU matches given tracks with given observations by IoU of predicted boxes.
// trackIndices: indices into tracker.tracks (and predicted).
// obsIndices: indices into observations.
// Pairs below minIoU are never matched. Returned unmatched slices keep the input order.
func (tracker *Tracker) associateByIoU(
	trackIndices []int,
	obsIndices []int,
	predicted []Rectangle,
	observations []Observation,
	minIoU float64,
) ([]match, []int, []int) {
	matches := make([]match, 0)
	if len(trackIndices) == 0 || len(obsIndices) == 0 {
		return matches, append([]int{}, trackIndices...), append([]int{}, obsIndices...)
	}
	iouMatrix := tracker.createIoUMatrix(trackIndices, obsIndices, predicted, observations)
	pairs := tracker.performMatching(iouMatrix, minIoU)

	matchedTracks := make(map[int]struct{}, len(pairs))
	matchedObs := make(map[int]struct{}, len(pairs))
	for _, pair := range pairs {
		if iouMatrix[pair[0]][pair[1]] < minIoU {
			continue
		}
		matches = append(matches, match{
			track: trackIndices[pair[0]],
			obs:   obsIndices[pair[1]],
		})
		matchedTracks[pair[0]] = struct{}{}
		matchedObs[pair[1]] = struct{}{}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].track < matches[j].track
	})

	unmatchedTracks := make([]int, 0, len(trackIndices)-len(matchedTracks))
	for i, trackIdx := range trackIndices {
		if _, found := matchedTracks[i]; !found {
			unmatchedTracks = append(unmatchedTracks, trackIdx)
		}
	}
	unmatchedObs := make([]int, 0, len(obsIndices)-len(matchedObs))
	for j, obsIdx := range obsIndices {
		if _, found := matchedObs[j]; !found {
			unmatchedObs = append(unmatchedObs, obsIdx)
		}
	}
	return matches, unmatchedTracks, unmatchedObs
}

// createIoUMatrix is helper function to create IoU matrix: rows = tracks, columns = observations.
// Pairs of different categories get zero IoU unless tracker is class agnostic.
// Boxes without area are compared by center distance, see boxSimilarity.
func (tracker *Tracker) createIoUMatrix(
	trackIndices []int,
	obsIndices []int,
	predicted []Rectangle,
	observations []Observation,
) [][]float64 {
	iouMatrix := make([][]float64, len(trackIndices))
	for i, trackIdx := range trackIndices {
		row := make([]float64, len(obsIndices))
		for j, obsIdx := range obsIndices {
			if !tracker.sameCategory(tracker.tracks[trackIdx], observations[obsIdx]) {
				continue
			}
			row[j] = boxSimilarity(predicted[trackIdx], observations[obsIdx].Box, tracker.cfg.CentroidMaxDistance)
		}
		iouMatrix[i] = row
	}
	return iouMatrix
}

// performMatching is helper function to perform matching using Hungarian or Greedy algorithm.
// Returns: a slice of [2]int, where each element is {row, column} of iouMatrix.
func (tracker *Tracker) performMatching(iouMatrix [][]float64, minIoU float64) [][2]int {
	switch tracker.cfg.Matching {
	case MatchingAlgorithmHungarian:
		return performHungarianMatching(iouMatrix, minIoU)
	default:
		return performGreedyMatching(iouMatrix, minIoU)
	}
}

// performHungarianMatching maximizes total IoU of pairs passing minIoU.
// The matrix is split into independent blocks first, so the cost depends on
// how crowded the scene is rather than on the total number of tracks.
func performHungarianMatching(iouMatrix [][]float64, minIoU float64) [][2]int {
	matches := make([][2]int, 0)
	for _, block := range splitAssignmentBlocks(iouMatrix, minIoU) {
		sub := make([][]float64, len(block.rows))
		for i, row := range block.rows {
			sub[i] = make([]float64, len(block.cols))
			for j, col := range block.cols {
				if iouVal := iouMatrix[row][col]; iouVal >= minIoU {
					sub[i][j] = iouVal
				}
			}
		}
		var pairs [][2]int
		switch {
		case len(block.rows) == 1 && len(block.cols) == 1:
			pairs = [][2]int{{0, 0}}
		case maxInt(len(block.rows), len(block.cols)) <= smallBlockSize:
			pairs = solveHungarianSmall(sub)
		default:
			pairs = maximizeIoUAssignment(sub)
		}
		for _, pair := range pairs {
			matches = append(matches, [2]int{block.rows[pair[0]], block.cols[pair[1]]})
		}
	}
	return matches
}

// solveHungarianSmall runs go-hungarian over a small block padded to square
func solveHungarianSmall(iouMatrix [][]float64) [][2]int {
	numTracks := len(iouMatrix)
	if numTracks == 0 || len(iouMatrix[0]) == 0 {
		return [][2]int{}
	}
	numDetections := len(iouMatrix[0])

	// Pad rectangular matrix to square one. Padding is done with 0.0 values (lowest IoU)
	paddedSize := maxInt(numTracks, numDetections)
	paddedMatrix := make([][]float64, paddedSize)
	for i := 0; i < paddedSize; i++ {
		paddedMatrix[i] = make([]float64, paddedSize)
		if i < numTracks {
			copy(paddedMatrix[i], iouMatrix[i])
		}
	}

	assignmentsMap := hungarian.SolveMax(paddedMatrix)
	matches := make([][2]int, 0, numTracks)
	for trackIndex, rowMap := range assignmentsMap {
		// Inner map contains single entry: {detectionIndex: iou_value}
		for detectionIndex := range rowMap {
			// Skip dummy rows and columns
			if trackIndex < numTracks && detectionIndex < numDetections {
				matches = append(matches, [2]int{trackIndex, detectionIndex})
			}
			break
		}
	}
	return matches
}

// performGreedyMatching picks pairs in order of decreasing IoU.
func performGreedyMatching(iouMatrix [][]float64, minIoU float64) [][2]int {
	type candidate struct {
		row, col int
		iou      float64
	}
	candidates := make([]candidate, 0)
	for i, row := range iouMatrix {
		for j, iouVal := range row {
			if iouVal > 0 && iouVal >= minIoU {
				candidates = append(candidates, candidate{row: i, col: j, iou: iouVal})
			}
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].iou > candidates[b].iou
	})
	matchedRows := make(map[int]struct{})
	matchedCols := make(map[int]struct{})
	matches := make([][2]int, 0)
	for _, c := range candidates {
		if _, found := matchedRows[c.row]; found {
			continue
		}
		if _, found := matchedCols[c.col]; found {
			continue
		}
		matches = append(matches, [2]int{c.row, c.col})
		matchedRows[c.row] = struct{}{}
		matchedCols[c.col] = struct{}{}
	}
	return matches
}
