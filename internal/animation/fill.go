package animation

import (
	"time"

	"github.com/smazurov/lightpilot/internal/hal"
)

type fill struct {
	channels int
}

func newFill(channels int) *fill {
	return &fill{channels: channels}
}

func (f *fill) Name() string { return Fill.String() }

func (f *fill) Step(in Input) (hal.Frame, time.Duration) {
	delay := stepDelay(in.Params.FillInterval)
	frame := hal.DarkFrame(f.channels)
	if in.LedsOff {
		return frame, delay
	}
	c := in.Params.Color.Scale(in.Params.Level(in.Value))
	for i := range frame {
		frame[i] = c
	}
	return frame, delay
}
