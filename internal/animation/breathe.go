package animation

import (
	"math"
	"time"

	"github.com/smazurov/lightpilot/internal/hal"
)

type breathe struct {
	channels int
	i        int
}

func newBreathe(channels int) *breathe {
	return &breathe{channels: channels}
}

func (b *breathe) Name() string { return Breathe.String() }

// breathLevel is (sin(i*pi/(steps/2)) + 1) / 2.
func breathLevel(i, steps int) float64 {
	return (math.Sin(float64(i)*math.Pi/(float64(steps)/2)) + 1) / 2
}

func (b *breathe) Step(in Input) (hal.Frame, time.Duration) {
	steps := max(in.Params.BreathSteps, 2)
	delay := stepDelay(in.Params.Period(in.Value) / time.Duration(steps))

	frame := hal.DarkFrame(b.channels)
	if in.LedsOff {
		return frame, delay
	}

	b.i %= steps
	c := in.Params.Color.Scale(breathLevel(b.i, steps))
	for i := range frame {
		frame[i] = c
	}
	b.i++
	return frame, delay
}
