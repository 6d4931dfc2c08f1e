package session

import (
	"sync/atomic"

	"github.com/LdDl/mot-tracker/config"
	"github.com/LdDl/mot-tracker/mot"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Algorithm variants accepted by Create
const (
	AlgorithmByteTrack = mot.AlgorithmByteTrack
	AlgorithmIoU       = mot.AlgorithmIoU
	AlgorithmCentroid  = mot.AlgorithmCentroid
)

// Flags alter tracker policy on top of the tuning configuration
type Flags uint32

const (
	FlagNone Flags = 0
	// FlagGreedyMatching replaces Hungarian assignment with greedy one
	FlagGreedyMatching Flags = 1 << (iota - 1)
	// FlagClassAgnostic allows matching observations to tracks of other category
	FlagClassAgnostic
	// FlagNoMotion disables motion prediction
	FlagNoMotion

	flagsMask = FlagGreedyMatching | FlagClassAgnostic | FlagNoMotion
)

type lifecycle uint8

const (
	stateCreated lifecycle = iota + 1
	stateComputed
	stateDestroyed
)

// Object is a track record returned by GetObject
type Object struct {
	// Persistent identity, starts at 1 and is never reused within a session
	ID       uint32
	Category uint32
	// Score of the most recent matched observation
	Score float64
	// Box of the most recent matched observation
	Box mot.Rectangle
	// State is TrackStateLost when the track was not matched on the latest compute
	State mot.TrackState
	// FramesLost is number of consecutive computes without match
	FramesLost int
}

// Session is an exclusively owned tracker handle.
//
// Session is not safe for concurrent use. Callers must serialize access;
// overlapping calls are rejected with KindInvalidState.
type Session struct {
	id         uuid.UUID
	algorithm  mot.Algorithm
	flags      Flags
	tracker    *mot.Tracker
	pending    []mot.Observation
	maxPending int
	objects    []Object
	state      lifecycle
	lastError  string
	inFlight   atomic.Bool
	logger     *logrus.Entry
}

// Create allocates tracker state for the chosen algorithm.
func Create(algorithm mot.Algorithm, flags Flags, opts ...Option) (*Session, error) {
	const op = "create"
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if !algorithm.IsValid() {
		return nil, newError(op, KindInvalidArgument, errors.Errorf("unsupported algorithm %d", algorithm))
	}
	if flags&^flagsMask != 0 {
		return nil, newError(op, KindInvalidArgument, errors.Errorf("unsupported flags 0x%x", uint32(flags&^flagsMask)))
	}

	cfg := mot.DefaultConfig()
	maxPending := config.EmptyTuningConfig().GetMaxPendingObservations()
	if options.tuning != nil {
		if err := options.tuning.Validate(); err != nil {
			return nil, newError(op, KindInvalidArgument, errors.Wrap(err, "invalid tuning"))
		}
		var err error
		cfg, err = mot.ConfigFromTuning(options.tuning)
		if err != nil {
			return nil, newError(op, KindInvalidArgument, errors.Wrap(err, "invalid tuning"))
		}
		maxPending = options.tuning.GetMaxPendingObservations()
	}
	if options.maxPending > 0 {
		maxPending = options.maxPending
	}
	if flags&FlagGreedyMatching != 0 {
		cfg.Matching = mot.MatchingAlgorithmGreedy
	}
	if flags&FlagClassAgnostic != 0 {
		cfg.ClassAgnostic = true
	}
	if flags&FlagNoMotion != 0 {
		cfg.Motion = mot.MotionNone
	}

	tracker, err := mot.NewTracker(algorithm, cfg)
	if err != nil {
		return nil, newError(op, KindInvalidArgument, err)
	}

	id := uuid.New()
	logger := options.logger.WithFields(logrus.Fields{
		"session":   id.String(),
		"algorithm": algorithm.String(),
	})
	tracker.SetLogger(logger)

	s := &Session{
		id:         id,
		algorithm:  algorithm,
		flags:      flags,
		tracker:    tracker,
		pending:    make([]mot.Observation, 0),
		maxPending: maxPending,
		state:      stateCreated,
		logger:     logger,
	}
	logger.WithField("flags", uint32(flags)).Debug("session created")
	return s, nil
}

// Run creates a session, passes it to fn and destroys it on every exit path.
func Run(algorithm mot.Algorithm, flags Flags, fn func(*Session) error, opts ...Option) error {
	s, err := Create(algorithm, flags, opts...)
	if err != nil {
		return err
	}
	defer s.Destroy()
	return fn(s)
}

// ID returns handle identifier used in log records
func (s *Session) ID() uuid.UUID {
	if s == nil {
		return uuid.Nil
	}
	return s.id
}

// Algorithm returns algorithm the session was created with
func (s *Session) Algorithm() mot.Algorithm {
	if s == nil {
		return AlgorithmByteTrack
	}
	return s.algorithm
}

// Destroy releases all resources. It is safe to call it more than once and on nil session
func (s *Session) Destroy() {
	if s == nil || s.state == stateDestroyed {
		return
	}
	s.tracker = nil
	s.pending = nil
	s.objects = nil
	s.lastError = ""
	s.state = stateDestroyed
	s.logger.Debug("session destroyed")
}

// Close is Destroy in io.Closer form. It never fails
func (s *Session) Close() error {
	s.Destroy()
	return nil
}

// LastErrorDetail returns human-readable description of the failure of the latest call.
// It is empty if the latest call succeeded and stays valid until the next call.
func (s *Session) LastErrorDetail() string {
	if s == nil {
		return ""
	}
	return s.lastError
}

// AddObservation appends an observation to the pending batch of the next Compute
func (s *Session) AddObservation(obs mot.Observation) error {
	const op = "add observation"
	if err := s.begin(op); err != nil {
		return err
	}
	defer s.end()
	if err := obs.Validate(); err != nil {
		return s.fail(op, KindInvalidArgument, err)
	}
	if len(s.pending) >= s.maxPending {
		return s.fail(op, KindAllocationFailure, errors.Errorf("pending batch is full (%d observations)", s.maxPending))
	}
	s.pending = append(s.pending, obs)
	return nil
}

// Compute consumes the pending batch: drops observations scoring below scoreThreshold,
// suppresses same category overlaps above iouThreshold and updates tracks.
// On failure neither tracks nor the pending batch are changed.
func (s *Session) Compute(scoreThreshold, iouThreshold float64) error {
	const op = "compute"
	if err := s.begin(op); err != nil {
		return err
	}
	defer s.end()
	if !inUnit(scoreThreshold) {
		return s.fail(op, KindInvalidArgument, errors.Errorf("score threshold %v is outside [0, 1]", scoreThreshold))
	}
	if !inUnit(iouThreshold) {
		return s.fail(op, KindInvalidArgument, errors.Errorf("iou threshold %v is outside [0, 1]", iouThreshold))
	}

	cfg := s.tracker.Config()
	observations := mot.FilterByScore(s.pending, scoreThreshold)
	observations = mot.SuppressOverlaps(observations, iouThreshold, cfg.ClassAgnostic)
	err := s.tracker.Update(observations)
	if err != nil {
		if errors.Is(err, mot.ErrIDSpaceExhausted) {
			return s.fail(op, KindAllocationFailure, err)
		}
		return s.fail(op, KindInvalidArgument, err)
	}

	s.pending = s.pending[:0]
	s.objects = s.snapshot()
	s.state = stateComputed
	return nil
}

// ObjectCount returns number of tracks after the most recent Compute
func (s *Session) ObjectCount() (int, error) {
	const op = "object count"
	if err := s.begin(op); err != nil {
		return 0, err
	}
	defer s.end()
	if err := s.requireComputed(op); err != nil {
		return 0, err
	}
	return len(s.objects), nil
}

// GetObject returns track at position index. Tracks are ordered by descending score, then by ascending ID
func (s *Session) GetObject(index int) (Object, error) {
	const op = "get object"
	if err := s.begin(op); err != nil {
		return Object{}, err
	}
	defer s.end()
	if err := s.requireComputed(op); err != nil {
		return Object{}, err
	}
	if index < 0 || index >= len(s.objects) {
		return Object{}, s.fail(op, KindOutOfRange, errors.Errorf("index %d, object count %d", index, len(s.objects)))
	}
	return s.objects[index], nil
}

// Objects returns every track record after the most recent Compute
func (s *Session) Objects() ([]Object, error) {
	const op = "objects"
	if err := s.begin(op); err != nil {
		return nil, err
	}
	defer s.end()
	if err := s.requireComputed(op); err != nil {
		return nil, err
	}
	result := make([]Object, len(s.objects))
	copy(result, s.objects)
	return result, nil
}

// Track is a convenience for a single frame: adds every observation, computes and collects records.
// If adding or computing fails, observations of this call do not stay in the pending batch.
func (s *Session) Track(observations []mot.Observation, scoreThreshold, iouThreshold float64) ([]Object, error) {
	mark := 0
	if s != nil {
		mark = len(s.pending)
	}
	for _, obs := range observations {
		if err := s.AddObservation(obs); err != nil {
			s.rollback(mark, err)
			return nil, err
		}
	}
	if err := s.Compute(scoreThreshold, iouThreshold); err != nil {
		s.rollback(mark, err)
		return nil, err
	}
	return s.Objects()
}

// rollback truncates pending batch back to mark. InvalidState errors leave it be:
// either the session is gone or another call owns it
func (s *Session) rollback(mark int, err error) {
	if s == nil || KindOf(err) == KindInvalidState {
		return
	}
	s.pending = s.pending[:mark]
}

// Reset drops every track and the pending batch. Identifiers of dropped tracks are never reissued
func (s *Session) Reset() error {
	const op = "reset"
	if err := s.begin(op); err != nil {
		return err
	}
	defer s.end()
	s.tracker.Reset()
	s.pending = s.pending[:0]
	if s.state == stateComputed {
		s.objects = s.snapshot()
	}
	return nil
}

// begin checks that session is usable and marks call in flight
func (s *Session) begin(op string) error {
	if s == nil {
		return newError(op, KindInvalidState, errors.New("session is not created"))
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		// lastError belongs to the call in flight, leave it be
		return newError(op, KindInvalidState, errors.New("another call is in flight"))
	}
	s.lastError = ""
	if s.state == stateDestroyed {
		s.inFlight.Store(false)
		return s.fail(op, KindInvalidState, errors.New("session is destroyed"))
	}
	return nil
}

func (s *Session) end() {
	s.inFlight.Store(false)
}

func (s *Session) requireComputed(op string) error {
	if s.state != stateComputed {
		return s.fail(op, KindInvalidState, errors.New("compute has never run"))
	}
	return nil
}

func (s *Session) fail(op string, kind Kind, err error) error {
	sessionErr := newError(op, kind, err)
	s.lastError = sessionErr.Error()
	s.logger.WithError(err).WithField("kind", kind.String()).Debugf("%s failed", op)
	return sessionErr
}

func (s *Session) snapshot() []Object {
	tracks := s.tracker.Tracks()
	objects := make([]Object, len(tracks))
	for i, track := range tracks {
		objects[i] = Object{
			ID:         track.GetID(),
			Category:   track.GetCategory(),
			Score:      track.GetScore(),
			Box:        track.GetBBox(),
			State:      track.GetState(),
			FramesLost: track.GetNoMatchTimes(),
		}
	}
	return objects
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
