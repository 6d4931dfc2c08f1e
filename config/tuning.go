package config

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// It is a variable so binaries can pin another location at build time:
//
//	go build -ldflags "-X github.com/LdDl/mot-tracker/config.DefaultConfigPath=/etc/mot/tuning.json"
var DefaultConfigPath = "config/tuning.defaults.json"

// Matching algorithm names accepted in "matching" key
const (
	MatchingHungarian = "hungarian"
	MatchingGreedy    = "greedy"
)

// Motion model names accepted in "motion" key
const (
	MotionKalman = "kalman"
	MotionNone   = "none"
)

// TuningConfig represents the root configuration for tracker tuning.
// Every field is optional: Get* methods provide fallback defaults,
// so partial configs are safe.
type TuningConfig struct {
	// Association params
	HighThreshold     *float64 `json:"high_threshold,omitempty"`
	NewTrackThreshold *float64 `json:"new_track_threshold,omitempty"`
	MatchIoU          *float64 `json:"match_iou,omitempty"`
	LowMatchIoU       *float64 `json:"low_match_iou,omitempty"`
	Matching          *string  `json:"matching,omitempty"` // "hungarian" or "greedy"
	ClassAgnostic     *bool    `json:"class_agnostic,omitempty"`

	// Lifecycle params
	MaxDisappeared         *int  `json:"max_disappeared,omitempty"`
	MaxTracks              *int  `json:"max_tracks,omitempty"`
	MaxPendingObservations *int  `json:"max_pending_observations,omitempty"`
	TrailLength            *int  `json:"trail_length,omitempty"`
	ReportLost             *bool `json:"report_lost,omitempty"`

	// Motion params
	Motion            *string  `json:"motion,omitempty"` // "kalman" or "none"
	KalmanDt          *float64 `json:"kalman_dt,omitempty"`
	KalmanStdDevA     *float64 `json:"kalman_std_dev_a,omitempty"`
	KalmanStdDevMPos  *float64 `json:"kalman_std_dev_m_pos,omitempty"`
	KalmanStdDevMSize *float64 `json:"kalman_std_dev_m_size,omitempty"`

	// Centroid tracker params
	CentroidMaxDistance *float64 `json:"centroid_max_distance,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Every Get* method of it returns the built-in default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// maxConfigSize caps tuning file size
const maxConfigSize = 1 << 20

// LoadTuningConfig reads a JSON tuning file and validates it.
// Only files with .json extension up to 1MB are accepted. Unknown keys are rejected
// so a misspelled key does not silently fall back to its default.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, errors.Errorf("config file must have .json extension, got %q", ext)
	}
	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "can't open config file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxConfigSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "can't read config file")
	}
	if len(data) > maxConfigSize {
		return nil, errors.Errorf("config file %s is too large (max %d bytes)", cleanPath, maxConfigSize)
	}

	cfg := EmptyTuningConfig()
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "can't parse config JSON")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration %s", cleanPath)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath relative to the working directory
// or up to three of its parents, so tests of any package find it. Panics on failure.
func MustLoadDefaultConfig() *TuningConfig {
	prefix := ""
	var lastErr error
	for depth := 0; depth <= 3; depth++ {
		cfg, err := LoadTuningConfig(prefix + DefaultConfigPath)
		if err == nil {
			return cfg
		}
		lastErr = err
		prefix += "../"
	}
	panic(errors.Wrapf(lastErr, "can't load %s", DefaultConfigPath))
}

func checkUnit(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || *v < 0 || *v > 1 {
		return errors.Errorf("%s must be between 0 and 1, got %f", name, *v)
	}
	return nil
}

func checkPositive(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return errors.Errorf("%s must be positive, got %f", name, *v)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	for _, unit := range []struct {
		name string
		v    *float64
	}{
		{"high_threshold", c.HighThreshold},
		{"new_track_threshold", c.NewTrackThreshold},
		{"match_iou", c.MatchIoU},
		{"low_match_iou", c.LowMatchIoU},
	} {
		if err := checkUnit(unit.name, unit.v); err != nil {
			return err
		}
	}

	// Zero IoU gate would let any pair of boxes match
	if c.MatchIoU != nil && *c.MatchIoU == 0 {
		return errors.Errorf("match_iou must be greater than 0")
	}
	if c.LowMatchIoU != nil && *c.LowMatchIoU == 0 {
		return errors.Errorf("low_match_iou must be greater than 0")
	}

	if c.Matching != nil {
		switch *c.Matching {
		case MatchingHungarian, MatchingGreedy:
		default:
			return errors.Errorf("invalid matching '%s': expected '%s' or '%s'", *c.Matching, MatchingHungarian, MatchingGreedy)
		}
	}
	if c.Motion != nil {
		switch *c.Motion {
		case MotionKalman, MotionNone:
		default:
			return errors.Errorf("invalid motion '%s': expected '%s' or '%s'", *c.Motion, MotionKalman, MotionNone)
		}
	}

	if c.MaxDisappeared != nil && *c.MaxDisappeared < 0 {
		return errors.Errorf("max_disappeared must be non-negative, got %d", *c.MaxDisappeared)
	}
	if c.MaxTracks != nil && *c.MaxTracks <= 0 {
		return errors.Errorf("max_tracks must be positive, got %d", *c.MaxTracks)
	}
	if c.MaxPendingObservations != nil && *c.MaxPendingObservations <= 0 {
		return errors.Errorf("max_pending_observations must be positive, got %d", *c.MaxPendingObservations)
	}
	if c.TrailLength != nil && *c.TrailLength < 0 {
		return errors.Errorf("trail_length must be non-negative, got %d", *c.TrailLength)
	}

	for _, positive := range []struct {
		name string
		v    *float64
	}{
		{"kalman_dt", c.KalmanDt},
		{"kalman_std_dev_a", c.KalmanStdDevA},
		{"kalman_std_dev_m_pos", c.KalmanStdDevMPos},
		{"kalman_std_dev_m_size", c.KalmanStdDevMSize},
		{"centroid_max_distance", c.CentroidMaxDistance},
	} {
		if err := checkPositive(positive.name, positive.v); err != nil {
			return err
		}
	}

	return nil
}

// GetHighThreshold returns the high_threshold value or the default.
// Observations scoring at least this value take part in the first association stage.
func (c *TuningConfig) GetHighThreshold() float64 {
	if c.HighThreshold == nil {
		return 0.5
	}
	return *c.HighThreshold
}

// GetNewTrackThreshold returns the new_track_threshold value or the default.
func (c *TuningConfig) GetNewTrackThreshold() float64 {
	if c.NewTrackThreshold == nil {
		return 0.0 // default: every unmatched observation starts a track
	}
	return *c.NewTrackThreshold
}

// GetMatchIoU returns the match_iou value or the default.
func (c *TuningConfig) GetMatchIoU() float64 {
	if c.MatchIoU == nil {
		return 0.3
	}
	return *c.MatchIoU
}

// GetLowMatchIoU returns the low_match_iou value or the default.
func (c *TuningConfig) GetLowMatchIoU() float64 {
	if c.LowMatchIoU == nil {
		return 0.5
	}
	return *c.LowMatchIoU
}

// GetMatching returns the matching value or the default.
func (c *TuningConfig) GetMatching() string {
	if c.Matching == nil || *c.Matching == "" {
		return MatchingHungarian
	}
	return *c.Matching
}

// GetClassAgnostic returns the class_agnostic value or the default.
func (c *TuningConfig) GetClassAgnostic() bool {
	if c.ClassAgnostic == nil {
		return false
	}
	return *c.ClassAgnostic
}

// GetMaxDisappeared returns the max_disappeared value or the default.
// A track unmatched for more than this number of frames is dropped.
func (c *TuningConfig) GetMaxDisappeared() int {
	if c.MaxDisappeared == nil {
		return 25
	}
	return *c.MaxDisappeared
}

// GetMaxTracks returns the max_tracks value or the default.
func (c *TuningConfig) GetMaxTracks() int {
	if c.MaxTracks == nil {
		return 1024
	}
	return *c.MaxTracks
}

// GetMaxPendingObservations returns the max_pending_observations value or the default.
func (c *TuningConfig) GetMaxPendingObservations() int {
	if c.MaxPendingObservations == nil {
		return 4096
	}
	return *c.MaxPendingObservations
}

// GetTrailLength returns the trail_length value or the default.
func (c *TuningConfig) GetTrailLength() int {
	if c.TrailLength == nil {
		return 150
	}
	return *c.TrailLength
}

// GetReportLost returns the report_lost value or the default.
func (c *TuningConfig) GetReportLost() bool {
	if c.ReportLost == nil {
		return true
	}
	return *c.ReportLost
}

// GetMotion returns the motion value or the default.
func (c *TuningConfig) GetMotion() string {
	if c.Motion == nil || *c.Motion == "" {
		return MotionKalman
	}
	return *c.Motion
}

// GetKalmanDt returns the kalman_dt value or the default.
func (c *TuningConfig) GetKalmanDt() float64 {
	if c.KalmanDt == nil {
		return 1.0
	}
	return *c.KalmanDt
}

// GetKalmanStdDevA returns the kalman_std_dev_a value or the default.
func (c *TuningConfig) GetKalmanStdDevA() float64 {
	if c.KalmanStdDevA == nil {
		return 0.005
	}
	return *c.KalmanStdDevA
}

// GetKalmanStdDevMPos returns the kalman_std_dev_m_pos value or the default.
func (c *TuningConfig) GetKalmanStdDevMPos() float64 {
	if c.KalmanStdDevMPos == nil {
		return 0.001
	}
	return *c.KalmanStdDevMPos
}

// GetKalmanStdDevMSize returns the kalman_std_dev_m_size value or the default.
func (c *TuningConfig) GetKalmanStdDevMSize() float64 {
	if c.KalmanStdDevMSize == nil {
		return 0.001
	}
	return *c.KalmanStdDevMSize
}

// GetCentroidMaxDistance returns the centroid_max_distance value or the default.
// Besides the Centroid tracker it gates matching of boxes without area.
func (c *TuningConfig) GetCentroidMaxDistance() float64 {
	if c.CentroidMaxDistance == nil {
		return 0.05
	}
	return *c.CentroidMaxDistance
}
