package mot

import "math"

// IoU calculates Intersection over Union between two rectangles.
// Returns 0 for disjoint or degenerate rectangles.
func IoU(r1, r2 Rectangle) float64 {
	xA := maxFloat64(r1.X, r2.X)
	yA := maxFloat64(r1.Y, r2.Y)
	xB := minFloat64(r1.X+r1.Width, r2.X+r2.Width)
	yB := minFloat64(r1.Y+r1.Height, r2.Y+r2.Height)

	interArea := maxFloat64(0, xB-xA) * maxFloat64(0, yB-yA)
	if interArea == 0 {
		return 0.0
	}

	unionArea := r1.Area() + r2.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}
	return interArea / unionArea
}

// boxSimilarity is IoU for boxes with area. Points and lines have no area to overlap,
// so for them similarity falls linearly from 1 (same center) to 0 (centers gate apart).
func boxSimilarity(predicted, observed Rectangle, gate float64) float64 {
	if predicted.Area() > 0 && observed.Area() > 0 {
		return IoU(predicted, observed)
	}
	distance := euclideanDistance(predicted.Center(), observed.Center())
	if distance >= gate {
		return 0.0
	}
	return 1.0 - distance/gate
}

func maxFloat64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
