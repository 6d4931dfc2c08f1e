package mot

import (
	"github.com/LdDl/mot-tracker/config"
	"github.com/pkg/errors"
)

// Algorithm is for association algorithm used by Tracker
type Algorithm uint16

const (
	// AlgorithmByteTrack is two-stage association: high confidence observations first, then low confidence ones
	AlgorithmByteTrack Algorithm = iota
	// AlgorithmIoU is single-stage association by IoU with center distance fallback
	AlgorithmIoU
	// AlgorithmCentroid is nearest-center association gated by object size
	AlgorithmCentroid
)

func (algorithm Algorithm) String() string {
	switch algorithm {
	case AlgorithmByteTrack:
		return "bytetrack"
	case AlgorithmIoU:
		return "iou"
	case AlgorithmCentroid:
		return "centroid"
	default:
		return "unknown"
	}
}

// IsValid reports whether algorithm is known
func (algorithm Algorithm) IsValid() bool {
	return algorithm <= AlgorithmCentroid
}

// Config is a set of policy parameters of Tracker
type Config struct {
	// Observations with score at least this value join the first association stage (ByteTrack only)
	HighThreshold float64
	// Unmatched observations below this score do not start new tracks
	NewTrackThreshold float64
	// Minimum IoU between predicted box and observation to be considered the same object
	MatchIoU float64
	// Minimum IoU for second (low confidence) association stage (ByteTrack only)
	LowMatchIoU float64
	// Maximum number of frames an object can be missing before it is removed
	MaxDisappeared int
	// Upper bound of live tracks
	MaxTracks int
	// Max length of per-track trail of centers
	TrailLength int
	// Whether Tracks() includes tracks which were not matched on the latest frame
	ReportLost bool
	// Whether observations could be matched to tracks of other category
	ClassAgnostic bool
	// Algorithm to use for matching
	Matching MatchingAlgorithm
	// Motion model of tracks
	Motion MotionKind
	// Kalman filter tuning when Motion is MotionKalman
	Kalman KalmanParams
	// Max center distance in normalized units. Gates Centroid association and
	// matching of boxes without area (points, lines) in IoU based association
	CentroidMaxDistance float64
}

// DefaultConfig returns configuration built from defaults of config.TuningConfig
func DefaultConfig() Config {
	cfg, _ := ConfigFromTuning(config.EmptyTuningConfig())
	return cfg
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(tuning *config.TuningConfig) (Config, error) {
	matching, err := ParseMatchingAlgorithm(tuning.GetMatching())
	if err != nil {
		return Config{}, err
	}
	motion, err := ParseMotionKind(tuning.GetMotion())
	if err != nil {
		return Config{}, err
	}
	return Config{
		HighThreshold:     tuning.GetHighThreshold(),
		NewTrackThreshold: tuning.GetNewTrackThreshold(),
		MatchIoU:          tuning.GetMatchIoU(),
		LowMatchIoU:       tuning.GetLowMatchIoU(),
		MaxDisappeared:    tuning.GetMaxDisappeared(),
		MaxTracks:         tuning.GetMaxTracks(),
		TrailLength:       tuning.GetTrailLength(),
		ReportLost:        tuning.GetReportLost(),
		ClassAgnostic:     tuning.GetClassAgnostic(),
		Matching:          matching,
		Motion:            motion,
		Kalman: KalmanParams{
			Dt:          tuning.GetKalmanDt(),
			StdDevA:     tuning.GetKalmanStdDevA(),
			StdDevMPos:  tuning.GetKalmanStdDevMPos(),
			StdDevMSize: tuning.GetKalmanStdDevMSize(),
		},
		CentroidMaxDistance: tuning.GetCentroidMaxDistance(),
	}, nil
}

// ParseMatchingAlgorithm converts name from tuning file into MatchingAlgorithm
func ParseMatchingAlgorithm(name string) (MatchingAlgorithm, error) {
	switch name {
	case config.MatchingHungarian:
		return MatchingAlgorithmHungarian, nil
	case config.MatchingGreedy:
		return MatchingAlgorithmGreedy, nil
	default:
		return 0, errors.Errorf("unknown matching algorithm '%s'", name)
	}
}

// ParseMotionKind converts name from tuning file into MotionKind
func ParseMotionKind(name string) (MotionKind, error) {
	switch name {
	case config.MotionKalman:
		return MotionKalman, nil
	case config.MotionNone:
		return MotionNone, nil
	default:
		return 0, errors.Errorf("unknown motion model '%s'", name)
	}
}

// Validate checks policy parameters
func (cfg Config) Validate() error {
	if !inUnit(cfg.HighThreshold) {
		return errors.Errorf("high threshold %v is outside [0, 1]", cfg.HighThreshold)
	}
	if !inUnit(cfg.NewTrackThreshold) {
		return errors.Errorf("new track threshold %v is outside [0, 1]", cfg.NewTrackThreshold)
	}
	if !inUnit(cfg.MatchIoU) || cfg.MatchIoU == 0 {
		return errors.Errorf("match IoU %v is outside (0, 1]", cfg.MatchIoU)
	}
	if !inUnit(cfg.LowMatchIoU) || cfg.LowMatchIoU == 0 {
		return errors.Errorf("low match IoU %v is outside (0, 1]", cfg.LowMatchIoU)
	}
	if cfg.MaxDisappeared < 0 {
		return errors.Errorf("max disappeared %d is negative", cfg.MaxDisappeared)
	}
	if cfg.MaxTracks <= 0 {
		return errors.Errorf("max tracks %d is not positive", cfg.MaxTracks)
	}
	if cfg.TrailLength < 0 {
		return errors.Errorf("trail length %d is negative", cfg.TrailLength)
	}
	if cfg.Matching != MatchingAlgorithmHungarian && cfg.Matching != MatchingAlgorithmGreedy {
		return errors.Errorf("unknown matching algorithm %d", cfg.Matching)
	}
	switch cfg.Motion {
	case MotionNone:
	case MotionKalman:
		if !(cfg.Kalman.Dt > 0) || !(cfg.Kalman.StdDevA > 0) || !(cfg.Kalman.StdDevMPos > 0) || !(cfg.Kalman.StdDevMSize > 0) {
			return errors.Errorf("kalman params must be positive, got %+v", cfg.Kalman)
		}
	default:
		return errors.Errorf("unknown motion model %d", cfg.Motion)
	}
	if !(cfg.CentroidMaxDistance > 0) || !isFinite(cfg.CentroidMaxDistance) {
		return errors.Errorf("centroid max distance %v is not positive", cfg.CentroidMaxDistance)
	}
	return nil
}

func inUnit(v float64) bool {
	return isFinite(v) && v >= 0 && v <= 1
}
