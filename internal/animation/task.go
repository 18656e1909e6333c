package animation

import (
	"fmt"
	"time"

	"github.com/smazurov/lightpilot/internal/hal"
)

// Input is what a task sees of the shared state at the top of a step.
type Input struct {
	Value   int
	LedsOff bool
	Params  Params
}

// Task is one animation routine. Step renders the next frame and returns
// how long to wait before the following step. A nil frame means nothing to
// write this step. Tasks hold their own progress and are not shared.
type Task interface {
	Name() string
	Step(in Input) (hal.Frame, time.Duration)
}

// New returns the task for mode driving channels outputs.
func New(mode Mode, channels int) Task {
	switch mode {
	case Sweep:
		return newSweep(channels)
	case Breathe:
		return newBreathe(channels)
	case Fill:
		return newFill(channels)
	default:
		panic(fmt.Sprintf("animation: no task for %v", mode))
	}
}

// offIdle is how often the dark routine wakes to check for cancellation.
const offIdle = 100 * time.Millisecond

type off struct {
	channels int
	written  bool
}

// NewOff returns the routine used while the LEDs are switched off. It
// writes one dark frame and then idles.
func NewOff(channels int) Task {
	return &off{channels: channels}
}

func (o *off) Name() string { return "off" }

func (o *off) Step(_ Input) (hal.Frame, time.Duration) {
	if o.written {
		return nil, offIdle
	}
	o.written = true
	return hal.DarkFrame(o.channels), offIdle
}
