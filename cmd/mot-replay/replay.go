package main

import (
	"github.com/LdDl/mot-tracker/mot"
	"github.com/LdDl/mot-tracker/session"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// trackJSON is a single element of "tracks" array written back to every line
type trackJSON struct {
	ID         uint32     `json:"id"`
	Category   uint32     `json:"category"`
	Score      float64    `json:"score"`
	Box        [4]float64 `json:"box"`
	State      string     `json:"state"`
	FramesLost int        `json:"frames_lost"`
}

// replayer keeps one tracker session per camera
type replayer struct {
	algorithm      mot.Algorithm
	flags          session.Flags
	opts           []session.Option
	scoreThreshold float64
	iouThreshold   float64
	sessions       map[int64]*session.Session
	logger         *logrus.Entry
}

func newReplayer(algorithm mot.Algorithm, flags session.Flags, scoreThreshold, iouThreshold float64, logger *logrus.Entry, opts ...session.Option) *replayer {
	return &replayer{
		algorithm:      algorithm,
		flags:          flags,
		opts:           opts,
		scoreThreshold: scoreThreshold,
		iouThreshold:   iouThreshold,
		sessions:       make(map[int64]*session.Session),
		logger:         logger,
	}
}

func (r *replayer) sessionFor(camID int64) (*session.Session, error) {
	if s, ok := r.sessions[camID]; ok {
		return s, nil
	}
	s, err := session.Create(r.algorithm, r.flags, r.opts...)
	if err != nil {
		return nil, err
	}
	r.logger.WithField("camera", camID).WithField("session", s.ID().String()).Info("new camera")
	r.sessions[camID] = s
	return s, nil
}

// processLine tracks objects of a single JSON frame and returns the same frame with "tracks" array set.
// Expected input:
//
//	{"camera":{"id":1},"info":{"width":1920,"height":1080},"items":[{"category":0,"score":0.9,"box":[x,y,w,h]}]}
//
// When width and height are given boxes are treated as pixels, otherwise as normalized values.
func (r *replayer) processLine(line []byte) ([]byte, error) {
	if !gjson.ValidBytes(line) {
		return nil, errors.New("malformed JSON")
	}
	frame := gjson.ParseBytes(line)
	camID := frame.Get("camera.id").Int()
	width := frame.Get("info.width").Float()
	height := frame.Get("info.height").Float()
	pixels := width > 0 && height > 0

	observations := make([]mot.Observation, 0)
	for i, item := range frame.Get("items").Array() {
		box := item.Get("box").Array()
		if len(box) != 4 {
			return nil, errors.Errorf("item %d: box must have 4 numbers, got %d", i, len(box))
		}
		rect := mot.NewRect(box[0].Float(), box[1].Float(), box[2].Float(), box[3].Float())
		if pixels {
			rect = rect.Scale(1.0/width, 1.0/height)
		}
		observations = append(observations, mot.Observation{
			Category: uint32(item.Get("category").Uint()),
			Score:    item.Get("score").Float(),
			Box:      rect,
		})
	}

	s, err := r.sessionFor(camID)
	if err != nil {
		return nil, errors.Wrapf(err, "camera %d", camID)
	}
	objects, err := s.Track(observations, r.scoreThreshold, r.iouThreshold)
	if err != nil {
		return nil, errors.Wrapf(err, "camera %d: %s", camID, s.LastErrorDetail())
	}

	tracks := make([]trackJSON, len(objects))
	for i, obj := range objects {
		rect := obj.Box
		if pixels {
			rect = rect.Scale(width, height)
		}
		tracks[i] = trackJSON{
			ID:         obj.ID,
			Category:   obj.Category,
			Score:      obj.Score,
			Box:        [4]float64{rect.X, rect.Y, rect.Width, rect.Height},
			State:      obj.State.String(),
			FramesLost: obj.FramesLost,
		}
	}
	out, err := sjson.SetBytes(line, "tracks", tracks)
	if err != nil {
		return nil, errors.Wrap(err, "can't write tracks")
	}
	return out, nil
}

// Close destroys every session
func (r *replayer) Close() {
	for camID, s := range r.sessions {
		s.Destroy()
		delete(r.sessions, camID)
	}
}
