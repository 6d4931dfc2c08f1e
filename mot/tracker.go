package mot

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrIDSpaceExhausted is returned when a tracker can not allocate identifiers for new tracks anymore
var ErrIDSpaceExhausted = errors.New("track identifier space exhausted")

// Tracker is implementation of Multi-object tracker (MOT).
// Association step depends on chosen Algorithm, the rest (motion prediction,
// identity allocation, patience-based aging) is common for all of them.
//
// Tracker is not safe for concurrent use: exactly one Update may be in flight.
type Tracker struct {
	algorithm Algorithm
	cfg       Config
	// Live tracks in order of creation (ascending identifiers)
	tracks []*Track
	// Snapshot of Tracks() prepared after the latest Update
	output []*Track
	// Next identifier to hand out. Never decreases; kept wider than
	// identifiers so it can move past the last valid one without wrapping
	nextID  uint64
	frameID uint64
	logger  logrus.FieldLogger
}

// NewTracker creates a new instance of Tracker with specified algorithm and parameters.
func NewTracker(algorithm Algorithm, cfg Config) (*Tracker, error) {
	if !algorithm.IsValid() {
		return nil, errors.Errorf("unsupported algorithm %d", algorithm)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid tracker config")
	}
	return &Tracker{
		algorithm: algorithm,
		cfg:       cfg,
		tracks:    make([]*Track, 0),
		output:    make([]*Track, 0),
		nextID:    1,
		logger:    logrus.StandardLogger(),
	}, nil
}

// DefaultByteTracker creates a ByteTrack Tracker with default parameters.
func DefaultByteTracker() *Tracker {
	tracker, err := NewTracker(AlgorithmByteTrack, DefaultConfig())
	if err != nil {
		panic(err)
	}
	return tracker
}

// SetLogger replaces logger. Passing nil mutes tracker
func (tracker *Tracker) SetLogger(logger logrus.FieldLogger) {
	if logger == nil {
		muted := logrus.New()
		muted.SetLevel(logrus.PanicLevel)
		logger = muted
	}
	tracker.logger = logger
}

// Algorithm returns association algorithm of tracker
func (tracker *Tracker) Algorithm() Algorithm {
	return tracker.algorithm
}

// Config returns policy parameters of tracker
func (tracker *Tracker) Config() Config {
	return tracker.cfg
}

// FrameID returns number of Update calls made so far
func (tracker *Tracker) FrameID() uint64 {
	return tracker.frameID
}

// Len returns number of live tracks (both tracked and lost)
func (tracker *Tracker) Len() int {
	return len(tracker.tracks)
}

// Tracks returns tracks reported after the latest Update, ordered by
// descending score and then by ascending identifier.
// Returned slice is a copy, tracks themselves are shared.
func (tracker *Tracker) Tracks() []*Track {
	result := make([]*Track, len(tracker.output))
	copy(result, tracker.output)
	return result
}

// Reset drops every track. Identifier counter is kept, so identifiers of dropped tracks are never reissued
func (tracker *Tracker) Reset() {
	tracker.tracks = make([]*Track, 0)
	tracker.output = make([]*Track, 0)
}

// Update consumes observations of a single frame: associates them with existing tracks,
// creates new tracks for unmatched ones and ages out tracks missing for too long.
//
// Observations are expected to be filtered by score and suppressed already (see FilterByScore and SuppressOverlaps).
// On error tracker state is left unchanged.
func (tracker *Tracker) Update(observations []Observation) error {
	for i, obs := range observations {
		if err := obs.Validate(); err != nil {
			return errors.Wrapf(err, "invalid observation %d", i)
		}
	}

	// Planning stage. Nothing is mutated here
	predicted := make([]Rectangle, len(tracker.tracks))
	for i, track := range tracker.tracks {
		predicted[i] = track.GetPredictedBBox()
	}

	var matches []match
	var unmatchedObs []int
	switch tracker.algorithm {
	case AlgorithmByteTrack:
		matches, unmatchedObs = tracker.associateByteTrack(predicted, observations)
	case AlgorithmIoU:
		matches, unmatchedObs = tracker.associateIoU(predicted, observations)
	case AlgorithmCentroid:
		matches, unmatchedObs = tracker.associateCentroid(predicted, observations)
	default:
		return errors.Errorf("unsupported algorithm %d", tracker.algorithm)
	}

	newcomers := make([]int, 0, len(unmatchedObs))
	for _, obsIdx := range unmatchedObs {
		if observations[obsIdx].Score >= tracker.cfg.NewTrackThreshold {
			newcomers = append(newcomers, obsIdx)
		}
	}
	matchedObsForTrack := make(map[int]int, len(matches))
	for _, m := range matches {
		matchedObsForTrack[m.track] = m.obs
	}
	// Tracks surviving this frame limit how many newcomers fit under MaxTracks
	survivors := 0
	for i, track := range tracker.tracks {
		if _, matched := matchedObsForTrack[i]; matched || track.noMatchTimes+1 <= tracker.cfg.MaxDisappeared {
			survivors++
		}
	}
	admitted := minInt(len(newcomers), maxInt(tracker.cfg.MaxTracks-survivors, 0))
	if admitted > 0 && tracker.nextID+uint64(admitted)-1 > math.MaxUint32 {
		return ErrIDSpaceExhausted
	}

	// Commit stage
	tracker.frameID++
	for i, track := range tracker.tracks {
		track.predict()
		obsIdx, matched := matchedObsForTrack[i]
		if !matched {
			track.markMissed()
			continue
		}
		err := track.update(observations[obsIdx], tracker.frameID)
		if err != nil {
			// Motion model is broken, start it over from the observation
			tracker.logger.WithError(err).WithField("track", track.id).Warn("motion model re-initialised")
			track.motion = tracker.newMotion(observations[obsIdx].Box)
		}
	}

	// Remove tracks that have disappeared for too long
	alive := tracker.tracks[:0]
	for _, track := range tracker.tracks {
		if track.noMatchTimes > tracker.cfg.MaxDisappeared {
			tracker.logger.WithField("track", track.id).WithField("frames_lost", track.noMatchTimes).Debug("track dropped")
			continue
		}
		alive = append(alive, track)
	}
	for i := len(alive); i < len(tracker.tracks); i++ {
		tracker.tracks[i] = nil
	}
	tracker.tracks = alive

	// Add new tracks for unmatched observations
	if admitted < len(newcomers) {
		tracker.logger.WithField("max_tracks", tracker.cfg.MaxTracks).WithField("skipped", len(newcomers)-admitted).Warn("tracks limit reached, observations skipped")
	}
	for _, obsIdx := range newcomers[:admitted] {
		obs := observations[obsIdx]
		track := newTrack(uint32(tracker.nextID), obs, tracker.newMotion(obs.Box), tracker.frameID, tracker.cfg.TrailLength)
		tracker.nextID++
		tracker.tracks = append(tracker.tracks, track)
	}

	tracker.prepareOutput()
	return nil
}

func (tracker *Tracker) newMotion(box Rectangle) MotionModel {
	if tracker.cfg.Motion == MotionNone {
		return newStaticMotion(box)
	}
	return newKalmanMotion(box, tracker.cfg.Kalman)
}

func (tracker *Tracker) sameCategory(track *Track, obs Observation) bool {
	return tracker.cfg.ClassAgnostic || track.category == obs.Category
}

func (tracker *Tracker) prepareOutput() {
	output := make([]*Track, 0, len(tracker.tracks))
	for _, track := range tracker.tracks {
		if track.state == TrackStateLost && !tracker.cfg.ReportLost {
			continue
		}
		output = append(output, track)
	}
	sort.SliceStable(output, func(i, j int) bool {
		if output[i].score != output[j].score {
			return output[i].score > output[j].score
		}
		return output[i].id < output[j].id
	})
	tracker.output = output
}
