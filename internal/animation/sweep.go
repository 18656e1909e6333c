package animation

import (
	"time"

	"github.com/smazurov/lightpilot/internal/hal"
)

// rainbowColors is the palette a rainbow sweep steps through, one per lap.
const rainbowColors = 6

type sweep struct {
	channels int
	pos      int
	lap      int
}

func newSweep(channels int) *sweep {
	return &sweep{channels: channels}
}

func (s *sweep) Name() string { return Sweep.String() }

// sweepPattern returns the channel lit at each step of one lap. A bouncing
// sweep over 3 channels is 0 1 2 1.
func sweepPattern(n int, bounce bool) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, 2*n)
	for i := 0; i < n; i++ {
		out = append(out, i)
	}
	if bounce {
		for i := n - 2; i > 0; i-- {
			out = append(out, i)
		}
	}
	return out
}

func (s *sweep) Step(in Input) (hal.Frame, time.Duration) {
	pattern := sweepPattern(s.channels, in.Params.Bounce)
	delay := stepDelay(in.Params.Period(in.Value) / time.Duration(max(len(pattern), 1)))

	frame := hal.DarkFrame(s.channels)
	if in.LedsOff || len(pattern) == 0 {
		return frame, delay
	}

	if s.pos >= len(pattern) {
		s.pos = 0
		s.lap++
	}
	color := in.Params.Color
	if in.Params.Rainbow {
		color = Wheel(uint8(s.lap % rainbowColors * 256 / rainbowColors))
	}
	frame[pattern[s.pos]] = color
	s.pos++
	return frame, delay
}

// Wheel maps a position on a 256-step colour wheel to an RGB colour:
// red to green to blue and back to red.
func Wheel(pos uint8) hal.Color {
	switch {
	case pos < 85:
		return hal.Color{R: 255 - pos*3, G: pos * 3}
	case pos < 170:
		pos -= 85
		return hal.Color{G: 255 - pos*3, B: pos * 3}
	default:
		pos -= 170
		return hal.Color{R: pos * 3, B: 255 - pos*3}
	}
}
