package mot

// MotionModel estimates where a tracked object will be on the next frame.
// Predicted must not change state: trackers compute the whole association
// before mutating anything, so the prediction is read first and committed
// with Predict afterwards.
type MotionModel interface {
	// Predicted returns the box expected after the next Predict call
	Predicted() Rectangle
	// Predict advances model by one time step
	Predict()
	// Correct feeds measured box into model
	Correct(measured Rectangle) error
	// Estimate returns current (possibly smoothed) box
	Estimate() Rectangle
	// Velocity returns estimated (vx, vy, vw, vh)
	Velocity() (float64, float64, float64, float64)
}

// MotionKind selects motion model used by tracks
type MotionKind uint16

const (
	// MotionKalman uses 8-D Kalman filter for bounding box dynamics
	MotionKalman MotionKind = iota
	// MotionNone assumes object stays where it was seen last time
	MotionNone
)

func (kind MotionKind) String() string {
	switch kind {
	case MotionKalman:
		return "kalman"
	case MotionNone:
		return "none"
	default:
		return "unknown"
	}
}

// staticMotion is a MotionModel without dynamics.
type staticMotion struct {
	box Rectangle
}

func newStaticMotion(box Rectangle) *staticMotion {
	return &staticMotion{box: box}
}

func (m *staticMotion) Predicted() Rectangle {
	return m.box
}

func (m *staticMotion) Predict() {}

func (m *staticMotion) Correct(measured Rectangle) error {
	m.box = measured
	return nil
}

func (m *staticMotion) Estimate() Rectangle {
	return m.box
}

func (m *staticMotion) Velocity() (float64, float64, float64, float64) {
	return 0, 0, 0, 0
}
