package session

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/LdDl/mot-tracker/config"
	"github.com/LdDl/mot-tracker/mot"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomFrames produces the same frames for the same seed. Half of the boxes crowd in the middle
func randomFrames(seed int64, frames, perFrame int) [][]mot.Observation {
	rnd := rand.New(rand.NewSource(seed))
	result := make([][]mot.Observation, frames)
	for frame := range result {
		observations := make([]mot.Observation, 0, perFrame)
		for i := 0; i < perFrame; i++ {
			category := uint32(rnd.Intn(3))
			score := 0.05 + 0.95*rnd.Float64()
			if i%2 == 0 {
				observations = append(observations, mot.NewObservation(category, score, 0.4+0.1*rnd.Float64(), 0.4+0.1*rnd.Float64(), 0.1, 0.1))
				continue
			}
			observations = append(observations, mot.NewObservation(category, score, 0.95*rnd.Float64(), 0.95*rnd.Float64(), 0.01+0.04*rnd.Float64(), 0.01+0.04*rnd.Float64()))
		}
		result[frame] = observations
	}
	return result
}

// trackedIDs runs every frame through the session and collects identifiers frame by frame
func trackedIDs(s *Session, frames [][]mot.Observation) ([][]uint32, error) {
	result := make([][]uint32, 0, len(frames))
	for _, frame := range frames {
		objects, err := s.Track(frame, 0.1, 0.7)
		if err != nil {
			return nil, err
		}
		ids := make([]uint32, len(objects))
		for i, obj := range objects {
			ids[i] = obj.ID
		}
		result = append(result, ids)
	}
	return result, nil
}

func TestSessionsAreIndependent(t *testing.T) {
	frames := randomFrames(3, 60, 20)
	sessions := []*Session{
		newTestSession(t, AlgorithmByteTrack, FlagNone),
		newTestSession(t, AlgorithmByteTrack, FlagNone),
	}
	results := make([][][]uint32, len(sessions))
	errs := make([]error, len(sessions))
	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *Session) {
			defer wg.Done()
			results[i], errs[i] = trackedIDs(s, frames)
		}(i, s)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "session %d", i)
	}
	require.Len(t, results[0], len(frames))
	if diff := cmp.Diff(results[0], results[1]); diff != "" {
		t.Errorf("Sessions fed with the same frames diverged (-first +second):\n%s", diff)
	}
	// Each session numbers its own tracks from 1
	assert.Contains(t, results[0][0], uint32(1))
	assert.Contains(t, results[1][0], uint32(1))
}

func TestComputeManyTracksBounded(t *testing.T) {
	maxDisappeared := 1000
	maxTracks := 2048
	tuning := &config.TuningConfig{MaxDisappeared: &maxDisappeared, MaxTracks: &maxTracks}
	s := newTestSession(t, AlgorithmByteTrack, FlagNone, WithTuning(tuning))

	const computeTimeout = 2 * time.Second
	for i, frame := range randomFrames(1, 300, 40) {
		for _, obs := range frame {
			require.NoError(t, s.AddObservation(obs))
		}
		start := time.Now()
		require.NoError(t, s.Compute(0.1, 0.7))
		elapsed := time.Since(start)
		require.LessOrEqual(t, elapsed, computeTimeout, "frame %d", i)
	}
	n, err := s.ObjectCount()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 300)
}
