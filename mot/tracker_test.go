package mot

import (
	"math"
	"testing"
)

func newTestTracker(t *testing.T, algorithm Algorithm, modify func(cfg *Config)) *Tracker {
	t.Helper()
	cfg := DefaultConfig()
	if modify != nil {
		modify(&cfg)
	}
	tracker, err := NewTracker(algorithm, cfg)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}
	tracker.SetLogger(nil)
	return tracker
}

func TestNewTrackerValidation(t *testing.T) {
	if _, err := NewTracker(Algorithm(42), DefaultConfig()); err == nil {
		t.Error("Unknown algorithm must be rejected")
	}
	cfg := DefaultConfig()
	cfg.MaxTracks = 0
	if _, err := NewTracker(AlgorithmByteTrack, cfg); err == nil {
		t.Error("Zero max tracks must be rejected")
	}
	cfg = DefaultConfig()
	cfg.HighThreshold = math.NaN()
	if _, err := NewTracker(AlgorithmByteTrack, cfg); err == nil {
		t.Error("NaN threshold must be rejected")
	}
}

func TestTrackerOrderingTies(t *testing.T) {
	for _, algorithm := range []Algorithm{AlgorithmByteTrack, AlgorithmIoU, AlgorithmCentroid} {
		t.Run(algorithm.String(), func(t *testing.T) {
			tracker := newTestTracker(t, algorithm, nil)
			observations := []Observation{
				NewObservation(0, 0.5, 0.0, 0.0, 0.1, 0.1),
				NewObservation(0, 0.9, 0.3, 0.3, 0.1, 0.1),
				NewObservation(0, 0.5, 0.6, 0.6, 0.1, 0.1),
			}
			if err := tracker.Update(observations); err != nil {
				t.Fatal(err)
			}
			tracks := tracker.Tracks()
			expected := []uint32{2, 1, 3}
			if len(tracks) != len(expected) {
				t.Fatalf("Expected %d tracks, got %d", len(expected), len(tracks))
			}
			for i, track := range tracks {
				if track.GetID() != expected[i] {
					t.Errorf("Position %d: expected id %d, got %d", i, expected[i], track.GetID())
				}
			}
		})
	}
}

func TestTrackerReportLost(t *testing.T) {
	tracker := newTestTracker(t, AlgorithmByteTrack, func(cfg *Config) {
		cfg.ReportLost = false
	})
	if err := tracker.Update([]Observation{NewObservation(0, 0.9, 0.1, 0.1, 0.2, 0.2)}); err != nil {
		t.Fatal(err)
	}
	if err := tracker.Update(nil); err != nil {
		t.Fatal(err)
	}
	if len(tracker.Tracks()) != 0 {
		t.Errorf("Lost tracks must be hidden, got %d", len(tracker.Tracks()))
	}
	if tracker.Len() != 1 {
		t.Errorf("Lost track must stay alive, got %d", tracker.Len())
	}
	if err := tracker.Update([]Observation{NewObservation(0, 0.9, 0.1, 0.1, 0.2, 0.2)}); err != nil {
		t.Fatal(err)
	}
	tracks := tracker.Tracks()
	if len(tracks) != 1 || tracks[0].GetID() != 1 {
		t.Errorf("Expected track 1 to be reported again, got %v", tracks)
	}
}

func TestTrackerMaxTracks(t *testing.T) {
	tracker := newTestTracker(t, AlgorithmByteTrack, func(cfg *Config) {
		cfg.MaxTracks = 2
	})
	observations := []Observation{
		NewObservation(0, 0.9, 0.0, 0.0, 0.1, 0.1),
		NewObservation(0, 0.9, 0.3, 0.3, 0.1, 0.1),
		NewObservation(0, 0.9, 0.6, 0.6, 0.1, 0.1),
	}
	if err := tracker.Update(observations); err != nil {
		t.Fatal(err)
	}
	if tracker.Len() != 2 {
		t.Errorf("Expected 2 tracks, got %d", tracker.Len())
	}
}

func TestTrackerNewTrackThreshold(t *testing.T) {
	tracker := newTestTracker(t, AlgorithmByteTrack, func(cfg *Config) {
		cfg.NewTrackThreshold = 0.6
	})
	observations := []Observation{
		NewObservation(0, 0.9, 0.0, 0.0, 0.1, 0.1),
		NewObservation(0, 0.3, 0.5, 0.5, 0.1, 0.1),
	}
	if err := tracker.Update(observations); err != nil {
		t.Fatal(err)
	}
	tracks := tracker.Tracks()
	if len(tracks) != 1 || tracks[0].GetScore() != 0.9 {
		t.Errorf("Only confident observation must start track, got %v", tracks)
	}
}

func TestTrackerInvalidObservation(t *testing.T) {
	tracker := newTestTracker(t, AlgorithmByteTrack, nil)
	if err := tracker.Update([]Observation{NewObservation(0, 0.9, 0.1, 0.1, 0.2, 0.2)}); err != nil {
		t.Fatal(err)
	}
	err := tracker.Update([]Observation{
		NewObservation(0, 0.9, 0.5, 0.5, 0.2, 0.2),
		NewObservation(0, 0.9, math.NaN(), 0.1, 0.2, 0.2),
	})
	if err == nil {
		t.Fatal("Invalid observation must be rejected")
	}
	if tracker.FrameID() != 1 || tracker.Len() != 1 {
		t.Errorf("Tracker must be unchanged: frame %d, %d tracks", tracker.FrameID(), tracker.Len())
	}
	if tracker.Tracks()[0].GetNoMatchTimes() != 0 {
		t.Error("Rejected update must not age tracks")
	}
}

func TestTrackerReset(t *testing.T) {
	tracker := newTestTracker(t, AlgorithmByteTrack, nil)
	if err := tracker.Update([]Observation{NewObservation(0, 0.9, 0.1, 0.1, 0.2, 0.2)}); err != nil {
		t.Fatal(err)
	}
	tracker.Reset()
	if tracker.Len() != 0 || len(tracker.Tracks()) != 0 {
		t.Fatal("Reset must drop every track")
	}
	if err := tracker.Update([]Observation{NewObservation(0, 0.9, 0.1, 0.1, 0.2, 0.2)}); err != nil {
		t.Fatal(err)
	}
	tracks := tracker.Tracks()
	if len(tracks) != 1 || tracks[0].GetID() != 2 {
		t.Errorf("Expected new track with id 2, got %v", tracks)
	}
}

func TestTrackerNoMotion(t *testing.T) {
	tracker := newTestTracker(t, AlgorithmByteTrack, func(cfg *Config) {
		cfg.Motion = MotionNone
	})
	for i := 0; i < 5; i++ {
		shift := 0.02 * float64(i)
		if err := tracker.Update([]Observation{NewObservation(0, 0.9, 0.1+shift, 0.1, 0.2, 0.2)}); err != nil {
			t.Fatal(err)
		}
	}
	tracks := tracker.Tracks()
	if len(tracks) != 1 {
		t.Fatalf("Expected 1 track, got %d", len(tracks))
	}
	if tracks[0].GetPredictedBBox() != tracks[0].GetBBox() {
		t.Errorf("Without motion prediction is the last box: %v vs %v", tracks[0].GetPredictedBBox(), tracks[0].GetBBox())
	}
}

func TestParseNames(t *testing.T) {
	if m, err := ParseMatchingAlgorithm("greedy"); err != nil || m != MatchingAlgorithmGreedy {
		t.Errorf("Expected greedy, got %v (%v)", m, err)
	}
	if _, err := ParseMatchingAlgorithm("auction"); err == nil {
		t.Error("Unknown matching algorithm must be rejected")
	}
	if m, err := ParseMotionKind("none"); err != nil || m != MotionNone {
		t.Errorf("Expected none, got %v (%v)", m, err)
	}
	if _, err := ParseMotionKind("particle"); err == nil {
		t.Error("Unknown motion model must be rejected")
	}
}
