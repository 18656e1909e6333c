// Package animation implements the output routines selected by the
// scheduler. Each routine is a Task stepped cooperatively: one call to Step
// renders one frame and says how long to wait before the next.
package animation

import (
	"fmt"
	"strings"
)

// Mode selects an animation. The set is closed.
type Mode int

const (
	Sweep Mode = iota
	Breathe
	Fill

	// NumModes is the number of selectable modes.
	NumModes
)

var modeNames = [NumModes]string{
	Sweep:   "sweep",
	Breathe: "breathe",
	Fill:    "fill",
}

var modeDescriptions = [NumModes]string{
	Sweep:   "One lit channel moving along the strip; the knob sets the lap time",
	Breathe: "All channels fading in and out on a sine curve; the knob sets the period",
	Fill:    "All channels at a brightness set by the knob",
}

func (m Mode) String() string {
	if m.Valid() {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Description is a one-line summary for the mode catalogue.
func (m Mode) Description() string {
	if m.Valid() {
		return modeDescriptions[m]
	}
	return ""
}

// Valid reports whether m is one of the selectable modes.
func (m Mode) Valid() bool {
	return m >= 0 && m < NumModes
}

// Next returns the mode after m, wrapping to the first.
func (m Mode) Next() Mode {
	return (m + 1) % NumModes
}

// Modes lists every selectable mode in order.
func Modes() []Mode {
	out := make([]Mode, NumModes)
	for i := range out {
		out[i] = Mode(i)
	}
	return out
}

// ParseMode accepts a mode name or its index.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if s == name || s == fmt.Sprint(i) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
