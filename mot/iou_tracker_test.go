package mot

import (
	"math"
	"testing"
)

func TestNewIoUTracker(t *testing.T) {
	tracker, err := NewIoUTracker(100, 0.3)
	if err != nil {
		t.Fatalf("NewIoUTracker failed: %v", err)
	}
	if tracker.Config().MaxDisappeared != 100 {
		t.Errorf("Expected MaxDisappeared 100, got %d", tracker.Config().MaxDisappeared)
	}
	if tracker.Config().MatchIoU != 0.3 {
		t.Errorf("Expected MatchIoU 0.3, got %f", tracker.Config().MatchIoU)
	}
	if tracker.Algorithm() != AlgorithmIoU {
		t.Errorf("Expected %s, got %s", AlgorithmIoU, tracker.Algorithm())
	}
}

func TestHybridScore(t *testing.T) {
	box := NewRect(0.1, 0.1, 0.2, 0.2)
	if score := hybridScore(box, box); math.Abs(score-1.0) > eps {
		t.Errorf("Identical boxes must score 1, got %v", score)
	}
	// Disjoint boxes fall back to distance: 0.5 / (1 + distance / diagonal)
	far := NewRect(0.5, 0.1, 0.2, 0.2)
	expected := 0.5 / (1.0 + 0.4/far.Diagonal())
	if score := hybridScore(box, far); math.Abs(score-expected) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", hybridScore(box, far), expected)
	}
}

func TestIoUTrackerBasicMatching(t *testing.T) {
	tracker, err := NewIoUTracker(5, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	tracker.SetLogger(nil)

	// First frame - two detections
	frame1 := []Observation{
		NewObservation(0, 0.9, 0.01, 0.02, 0.03, 0.04),
		NewObservation(0, 0.8, 0.10, 0.20, 0.03, 0.04),
	}
	if err := tracker.Update(frame1); err != nil {
		t.Fatalf("Frame 1 failed: %v", err)
	}
	if tracker.Len() != 2 {
		t.Errorf("Expected 2 objects after frame 1, got %d", tracker.Len())
	}

	// Second frame - slightly moved detections (should match)
	frame2 := []Observation{
		NewObservation(0, 0.9, 0.012, 0.022, 0.03, 0.04),
		NewObservation(0, 0.8, 0.102, 0.202, 0.03, 0.04),
	}
	if err := tracker.Update(frame2); err != nil {
		t.Fatalf("Frame 2 failed: %v", err)
	}
	if tracker.Len() != 2 {
		t.Errorf("Expected 2 objects after frame 2, got %d", tracker.Len())
	}
	for _, track := range tracker.Tracks() {
		if len(track.GetTrack()) != 2 {
			t.Errorf("Object track should have 2 points, got %d", len(track.GetTrack()))
		}
		if track.GetState() != TrackStateTracked {
			t.Errorf("Track %d should be tracked", track.GetID())
		}
	}
}

func TestIoUTrackerDistanceFallback(t *testing.T) {
	tracker, err := NewIoUTracker(5, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	tracker.SetLogger(nil)

	if err := tracker.Update([]Observation{NewObservation(0, 0.9, 0.10, 0.10, 0.05, 0.05)}); err != nil {
		t.Fatal(err)
	}
	// Fast object: no overlap with previous position but close relative to its size
	if err := tracker.Update([]Observation{NewObservation(0, 0.9, 0.16, 0.10, 0.05, 0.05)}); err != nil {
		t.Fatal(err)
	}
	tracks := tracker.Tracks()
	if len(tracks) != 1 || tracks[0].GetID() != 1 {
		t.Errorf("Expected object to keep id 1, got %v", tracks)
	}
}

func TestIoUTrackerSingleUpdatePerTrack(t *testing.T) {
	tracker, err := NewIoUTracker(5, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	tracker.SetLogger(nil)

	if err := tracker.Update([]Observation{NewObservation(0, 0.9, 0.10, 0.10, 0.2, 0.2)}); err != nil {
		t.Fatal(err)
	}
	// Both observations prefer track 1, the better one wins it
	frame2 := []Observation{
		NewObservation(0, 0.6, 0.13, 0.13, 0.2, 0.2),
		NewObservation(0, 0.9, 0.10, 0.10, 0.2, 0.2),
	}
	if err := tracker.Update(frame2); err != nil {
		t.Fatal(err)
	}
	tracks := tracker.Tracks()
	if len(tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(tracks))
	}
	first := findTrack(tracks, 1)
	if first == nil || first.GetBBox() != frame2[1].Box {
		t.Errorf("Track 1 must take the closest observation, got %+v", first)
	}
	if findTrack(tracks, 2) == nil {
		t.Error("Second observation must start track 2")
	}
}

func TestIoUTrackerRemovesStale(t *testing.T) {
	tracker, err := NewIoUTracker(2, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	tracker.SetLogger(nil)
	if err := tracker.Update([]Observation{NewObservation(0, 0.9, 0.10, 0.10, 0.2, 0.2)}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := tracker.Update(nil); err != nil {
			t.Fatal(err)
		}
	}
	if tracker.Len() != 0 {
		t.Errorf("Expected stale track to be removed, got %d tracks", tracker.Len())
	}
}
