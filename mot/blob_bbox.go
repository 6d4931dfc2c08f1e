package mot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// KalmanParams holds tuning of the bounding box Kalman filter.
// Values are expressed in normalized image units.
type KalmanParams struct {
	// Time step between two consecutive Compute calls
	Dt float64
	// Standard deviation of acceleration (process noise)
	StdDevA float64
	// Standard deviation of center measurement
	StdDevMPos float64
	// Standard deviation of width/height measurement
	StdDevMSize float64
}

// kalmanMotion is a MotionModel using 8-D Kalman filter for full bounding box dynamics.
// State vector: [cx, cy, w, h, vx, vy, vw, vh] - center position, size, and velocities.
type kalmanMotion struct {
	dt      float64
	tracker *kalman_filter.KalmanBBox
}

func newKalmanMotion(box Rectangle, params KalmanParams) *kalmanMotion {
	center := box.Center()
	// No control input: prediction is a pure constant velocity step, so
	// Predicted() can be evaluated from the state without touching the filter.
	uCx := 0.0
	uCy := 0.0
	uW := 0.0
	uH := 0.0
	kf := kalman_filter.NewKalmanBBox(
		params.Dt, uCx, uCy, uW, uH,
		params.StdDevA, params.StdDevMPos, params.StdDevMPos, params.StdDevMSize, params.StdDevMSize,
		kalman_filter.WithStateBBox(center.X, center.Y, box.Width, box.Height),
	)
	return &kalmanMotion{
		dt:      params.Dt,
		tracker: kf,
	}
}

// Predicted extrapolates current state by one time step
func (m *kalmanMotion) Predicted() Rectangle {
	cx, cy, w, h := m.tracker.GetState()
	vx, vy, vw, vh := m.tracker.GetVelocity()
	return NewRectFromCenter(
		cx+vx*m.dt,
		cy+vy*m.dt,
		maxFloat64(0, w+vw*m.dt),
		maxFloat64(0, h+vh*m.dt),
	)
}

// Predict executes Kalman filter prediction step
func (m *kalmanMotion) Predict() {
	m.tracker.Predict()
}

// Correct executes Kalman filter update step with full bbox measurement
func (m *kalmanMotion) Correct(measured Rectangle) error {
	center := measured.Center()
	err := m.tracker.Update(center.X, center.Y, measured.Width, measured.Height)
	if err != nil {
		return errors.Wrap(err, "Can't update object tracker")
	}
	return nil
}

// Estimate returns smoothed bounding box from Kalman filter
func (m *kalmanMotion) Estimate() Rectangle {
	cx, cy, w, h := m.tracker.GetState()
	return NewRectFromCenter(cx, cy, maxFloat64(0, w), maxFloat64(0, h))
}

// Velocity returns current velocity estimates (vx, vy, vw, vh) from Kalman filter
func (m *kalmanMotion) Velocity() (float64, float64, float64, float64) {
	return m.tracker.GetVelocity()
}
