package mot

import (
	"math"
	"testing"
)

func rectAlmostEqual(r1, r2 Rectangle, tolerance float64) bool {
	return math.Abs(r1.X-r2.X) <= tolerance &&
		math.Abs(r1.Y-r2.Y) <= tolerance &&
		math.Abs(r1.Width-r2.Width) <= tolerance &&
		math.Abs(r1.Height-r2.Height) <= tolerance
}

func TestKalmanMotionInitialPrediction(t *testing.T) {
	box := NewRect(0.1, 0.2, 0.3, 0.4)
	motion := newKalmanMotion(box, DefaultConfig().Kalman)

	// No velocity yet: object is expected where it was seen
	if predicted := motion.Predicted(); !rectAlmostEqual(predicted, box, 1e-6) {
		t.Errorf("Expected prediction %v, got %v", box, predicted)
	}
	if estimate := motion.Estimate(); !rectAlmostEqual(estimate, box, 1e-6) {
		t.Errorf("Expected estimate %v, got %v", box, estimate)
	}
}

func TestKalmanMotionPredictedIsPure(t *testing.T) {
	motion := newKalmanMotion(NewRect(0.1, 0.1, 0.2, 0.2), DefaultConfig().Kalman)
	boxes := []Rectangle{
		NewRect(0.11, 0.11, 0.2, 0.2),
		NewRect(0.12, 0.12, 0.2, 0.2),
		NewRect(0.13, 0.13, 0.2, 0.2),
	}
	for _, box := range boxes {
		motion.Predict()
		if err := motion.Correct(box); err != nil {
			t.Fatalf("Correct failed: %v", err)
		}
	}
	first := motion.Predicted()
	second := motion.Predicted()
	if first != second {
		t.Errorf("Predicted must not change state: %v vs %v", first, second)
	}
	motion.Predict()
	if estimate := motion.Estimate(); !rectAlmostEqual(estimate, first, 1e-6) {
		t.Errorf("Predict moved state to %v, expected %v", estimate, first)
	}
}

func TestKalmanMotionFollowsObject(t *testing.T) {
	motion := newKalmanMotion(NewRect(0.1, 0.1, 0.2, 0.2), DefaultConfig().Kalman)
	for i := 1; i <= 10; i++ {
		motion.Predict()
		shift := 0.01 * float64(i)
		if err := motion.Correct(NewRect(0.1+shift, 0.1, 0.2, 0.2)); err != nil {
			t.Fatalf("Correct failed on step %d: %v", i, err)
		}
	}
	vx, _, _, _ := motion.Velocity()
	if vx <= 0 {
		t.Errorf("Object moves right, expected positive vx, got %v", vx)
	}
	predicted := motion.Predicted()
	if predicted.Width < 0 || predicted.Height < 0 {
		t.Errorf("Predicted bbox should have non-negative dimensions, got %v", predicted)
	}
}

func TestStaticMotion(t *testing.T) {
	box := NewRect(0.1, 0.2, 0.3, 0.4)
	motion := newStaticMotion(box)
	motion.Predict()
	if motion.Predicted() != box {
		t.Errorf("Expected prediction %v, got %v", box, motion.Predicted())
	}
	next := NewRect(0.2, 0.2, 0.3, 0.4)
	if err := motion.Correct(next); err != nil {
		t.Fatalf("Correct failed: %v", err)
	}
	if motion.Estimate() != next {
		t.Errorf("Expected estimate %v, got %v", next, motion.Estimate())
	}
	vx, vy, vw, vh := motion.Velocity()
	if vx != 0 || vy != 0 || vw != 0 || vh != 0 {
		t.Errorf("Static motion must have zero velocity, got (%v, %v, %v, %v)", vx, vy, vw, vh)
	}
}

func TestTrackLifecycle(t *testing.T) {
	obs := NewObservation(3, 0.9, 0.1, 0.1, 0.2, 0.2)
	track := newTrack(7, obs, newStaticMotion(obs.Box), 1, 2)

	if track.GetID() != 7 || track.GetCategory() != 3 || track.GetHits() != 1 {
		t.Errorf("Wrong initial track: id=%d category=%d hits=%d", track.GetID(), track.GetCategory(), track.GetHits())
	}
	if track.GetState() != TrackStateTracked {
		t.Errorf("New track must be tracked, got %s", track.GetState())
	}

	track.markMissed()
	track.markMissed()
	if track.GetState() != TrackStateLost || track.GetNoMatchTimes() != 2 {
		t.Errorf("Expected lost track with 2 misses, got %s with %d", track.GetState(), track.GetNoMatchTimes())
	}

	next := NewObservation(3, 0.4, 0.12, 0.12, 0.2, 0.2)
	if err := track.update(next, 4); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if track.GetState() != TrackStateTracked || track.GetNoMatchTimes() != 0 {
		t.Errorf("Matched track must be tracked with no misses, got %s with %d", track.GetState(), track.GetNoMatchTimes())
	}
	// Reported values are raw values of the latest observation
	if track.GetScore() != 0.4 || track.GetBBox() != next.Box {
		t.Errorf("Expected score 0.4 and box %v, got %v and %v", next.Box, track.GetScore(), track.GetBBox())
	}
	if track.GetLastFrame() != 4 || track.GetStartFrame() != 1 {
		t.Errorf("Wrong frames: start=%d last=%d", track.GetStartFrame(), track.GetLastFrame())
	}

	// Trail is bounded
	track.appendPoint(NewPoint(0.5, 0.5))
	if len(track.GetTrack()) != track.GetMaxTrackLen() {
		t.Errorf("Expected trail of %d points, got %d", track.GetMaxTrackLen(), len(track.GetTrack()))
	}
	if last := track.GetTrack()[len(track.GetTrack())-1]; last != NewPoint(0.5, 0.5) {
		t.Errorf("Wrong last trail point: %v", last)
	}
}
