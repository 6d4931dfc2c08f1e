package mot

// TrackState is lifecycle state of a track
type TrackState uint8

const (
	// TrackStateTracked means track was matched on the latest frame
	TrackStateTracked TrackState = iota
	// TrackStateLost means track was not matched on the latest frame but is still within patience window
	TrackStateLost
)

func (state TrackState) String() string {
	switch state {
	case TrackStateTracked:
		return "tracked"
	case TrackStateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Track is a persistent identity assigned to one physical object across frames.
type Track struct {
	id           uint32
	category     uint32
	score        float64
	box          Rectangle
	motion       MotionModel
	state        TrackState
	noMatchTimes int
	hits         int
	startFrame   uint64
	lastFrame    uint64
	track        []Point
	maxTrackLen  int
}

func newTrack(id uint32, obs Observation, motion MotionModel, frame uint64, maxTrackLen int) *Track {
	track := Track{
		id:          id,
		category:    obs.Category,
		score:       obs.Score,
		box:         obs.Box,
		motion:      motion,
		state:       TrackStateTracked,
		hits:        1,
		startFrame:  frame,
		lastFrame:   frame,
		track:       make([]Point, 0, maxInt(maxTrackLen, 1)),
		maxTrackLen: maxTrackLen,
	}
	track.appendPoint(obs.Box.Center())
	return &track
}

// GetID returns track's identifier. Identifiers start at 1
func (track *Track) GetID() uint32 {
	return track.id
}

// GetCategory returns category of the last matched observation
func (track *Track) GetCategory() uint32 {
	return track.category
}

// GetScore returns confidence of the last matched observation
func (track *Track) GetScore() float64 {
	return track.score
}

// GetBBox returns box of the last matched observation
func (track *Track) GetBBox() Rectangle {
	return track.box
}

// GetFilteredBBox returns box smoothed by motion model
func (track *Track) GetFilteredBBox() Rectangle {
	return track.motion.Estimate()
}

// GetPredictedBBox returns box where object is expected on the next frame
func (track *Track) GetPredictedBBox() Rectangle {
	return track.motion.Predicted()
}

// GetCenter returns center of the last matched box
func (track *Track) GetCenter() Point {
	return track.box.Center()
}

// GetState returns lifecycle state
func (track *Track) GetState() TrackState {
	return track.state
}

// GetNoMatchTimes returns number of consecutive frames without match
func (track *Track) GetNoMatchTimes() int {
	return track.noMatchTimes
}

// GetHits returns number of frames the track was matched on (including the first one)
func (track *Track) GetHits() int {
	return track.hits
}

// GetStartFrame returns frame number the track was created on
func (track *Track) GetStartFrame() uint64 {
	return track.startFrame
}

// GetLastFrame returns frame number the track was matched on last time
func (track *Track) GetLastFrame() uint64 {
	return track.lastFrame
}

// GetTrack returns trail of centers. Be careful: this is not copy of trail, but reference to it
func (track *Track) GetTrack() []Point {
	return track.track
}

// GetMaxTrackLen returns max trail length
func (track *Track) GetMaxTrackLen() int {
	return track.maxTrackLen
}

// GetVelocity returns velocity estimated by motion model
func (track *Track) GetVelocity() (float64, float64, float64, float64) {
	return track.motion.Velocity()
}

// predict advances motion model by one frame
func (track *Track) predict() {
	track.motion.Predict()
}

// update applies matched observation. Reported score and box are always the
// raw values of the observation; the motion model only drives prediction.
// Returns error from motion model, state of track is updated anyway.
func (track *Track) update(obs Observation, frame uint64) error {
	track.category = obs.Category
	track.score = obs.Score
	track.box = obs.Box
	track.state = TrackStateTracked
	track.noMatchTimes = 0
	track.hits++
	track.lastFrame = frame
	track.appendPoint(obs.Box.Center())
	return track.motion.Correct(obs.Box)
}

// markMissed registers frame without match
func (track *Track) markMissed() {
	track.state = TrackStateLost
	track.noMatchTimes++
}

func (track *Track) appendPoint(pt Point) {
	if track.maxTrackLen <= 0 {
		return
	}
	track.track = append(track.track, pt)
	if len(track.track) > track.maxTrackLen {
		track.track = track.track[1:]
	}
}
