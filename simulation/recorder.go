package simulation

import (
	"errors"
	"fmt"
	"io"

	"github.com/spacescrapers/towerphys/actor"
	"github.com/vmihailenco/msgpack/v5"
)

// Frame is the state of an attempt after one tick, as seen by a renderer
type Frame struct {
	Tick   int         `msgpack:"tick"`
	Phase  Phase       `msgpack:"phase"`
	Height float64     `msgpack:"height"`
	Bodies []FrameBody `msgpack:"bodies"`
}

// FrameBody is the drawable part of a body snapshot
type FrameBody struct {
	Index  int            `msgpack:"i"`
	Type   actor.TileType `msgpack:"t"`
	X      float64        `msgpack:"x"`
	Y      float64        `msgpack:"y"`
	Angle  float64        `msgpack:"a"`
	Static bool           `msgpack:"s"`
	Inert  bool           `msgpack:"d"`
}

// Recorder streams the frames of an attempt as consecutive msgpack values.
// The last frame is written once the attempt is decided and carries the won or lost phase.
// The first encoding error stops the recording and is kept for Err.
type Recorder struct {
	controller *Controller
	encoder    *msgpack.Encoder
	every      int
	frames     int
	err        error
}

// NewRecorder writes one frame every n ticks of controller to w, plus the frame of the outcome
func NewRecorder(controller *Controller, w io.Writer, every int) *Recorder {
	if every <= 0 {
		every = 1
	}

	r := &Recorder{
		controller: controller,
		encoder:    msgpack.NewEncoder(w),
		every:      every,
	}
	controller.OnTick(r.onTick)
	controller.OnPhaseChange(r.onPhaseChange)

	return r
}

func (r *Recorder) onTick(tick int) {
	// The last tick is written after evaluation
	if tick%r.every != 0 || tick >= r.controller.config.SurvivalTicks() {
		return
	}
	r.record(tick)
}

func (r *Recorder) onPhaseChange(from, to Phase) {
	if to.Terminal() {
		r.record(r.controller.Ticks())
	}
}

func (r *Recorder) record(tick int) {
	if r.err != nil {
		return
	}

	if err := r.encoder.Encode(r.frame(tick)); err != nil {
		r.err = fmt.Errorf("record tick %d: %w", tick, err)
		return
	}
	r.frames++
}

func (r *Recorder) frame(tick int) Frame {
	states := r.controller.Bodies()
	frame := Frame{
		Tick:   tick,
		Phase:  r.controller.Phase(),
		Height: r.controller.TowerHeight(),
		Bodies: make([]FrameBody, len(states)),
	}
	for i, s := range states {
		frame.Bodies[i] = FrameBody{
			Index:  s.Index,
			Type:   s.Type,
			X:      s.Position.X(),
			Y:      s.Position.Y(),
			Angle:  s.Pose.Angle,
			Static: s.Static,
			Inert:  s.Inert,
		}
	}

	return frame
}

// Frames returns the number of frames written so far
func (r *Recorder) Frames() int {
	return r.frames
}

func (r *Recorder) Err() error {
	return r.err
}

// ReadFrames decodes every frame of a recording
func ReadFrames(reader io.Reader) ([]Frame, error) {
	decoder := msgpack.NewDecoder(reader)

	var frames []Frame
	for {
		var frame Frame
		err := decoder.Decode(&frame)
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, fmt.Errorf("read frame %d: %w", len(frames), err)
		}
		frames = append(frames, frame)
	}
}
