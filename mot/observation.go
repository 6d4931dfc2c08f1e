package mot

import (
	"github.com/pkg/errors"
)

// Observation is a single detection of one frame supplied by an upstream detector.
type Observation struct {
	// Category (class) identifier produced by detector
	Category uint32
	// Confidence in [0, 1]
	Score float64
	// Normalized bounding box
	Box Rectangle
}

// NewObservation creates observation from normalized top-left corner and size
func NewObservation(category uint32, score, x, y, w, h float64) Observation {
	return Observation{
		Category: category,
		Score:    score,
		Box:      NewRect(x, y, w, h),
	}
}

// Validate checks that observation could be consumed by a tracker:
// every number is finite, score lies in [0, 1] and box size is not negative.
func (obs Observation) Validate() error {
	if !isFinite(obs.Score) || obs.Score < 0 || obs.Score > 1 {
		return errors.Errorf("score %v is outside [0, 1]", obs.Score)
	}
	if !obs.Box.isFinite() {
		return errors.Errorf("box %+v has non-finite coordinates", obs.Box)
	}
	if obs.Box.Width < 0 || obs.Box.Height < 0 {
		return errors.Errorf("box %+v has negative size", obs.Box)
	}
	return nil
}
