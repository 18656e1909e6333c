package input

import (
	"fmt"
	"time"
)

// Default timings.
const (
	DefaultDebounce  = 50 * time.Millisecond
	DefaultLongPress = 1000 * time.Millisecond
)

type debounceState int

const (
	stateIdle debounceState = iota
	statePressCandidate
	statePressed
	stateReleaseCandidate
)

func (s debounceState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case statePressCandidate:
		return "press_candidate"
	case statePressed:
		return "pressed"
	case stateReleaseCandidate:
		return "release_candidate"
	default:
		return "invalid"
	}
}

// Timing configures a Debouncer.
type Timing struct {
	Debounce  time.Duration
	LongPress time.Duration
}

// Validate rejects timings the state machine cannot honour.
func (t Timing) Validate() error {
	if t.Debounce < 0 {
		return fmt.Errorf("%w: debounce %v is negative", ErrInvalidTiming, t.Debounce)
	}
	if t.LongPress <= t.Debounce {
		return fmt.Errorf("%w: long press %v must exceed debounce %v", ErrInvalidTiming, t.LongPress, t.Debounce)
	}
	return nil
}

// Debouncer classifies a bouncy boolean stream into presses. A level must
// stay stable for the debounce window before a press or release is
// confirmed. The hold time runs from the start of the confirmed press to
// the start of the confirmed release.
//
// A Debouncer is not safe for concurrent use; one sampler owns it.
type Debouncer struct {
	timing Timing
	state  debounceState

	candidateAt time.Time
	pressedAt   time.Time
}

// NewDebouncer returns an idle debouncer.
func NewDebouncer(t Timing) (*Debouncer, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Debouncer{timing: t}, nil
}

// SetTiming replaces the timing. A press in progress is classified with
// the new threshold.
func (d *Debouncer) SetTiming(t Timing) error {
	if err := t.Validate(); err != nil {
		return err
	}
	d.timing = t
	return nil
}

// Timing returns the active timing.
func (d *Debouncer) Timing() Timing {
	return d.timing
}

// Pressed reports whether a press has been confirmed and not yet released.
func (d *Debouncer) Pressed() bool {
	return d.state == statePressed || d.state == stateReleaseCandidate
}

// Sample feeds one reading taken at now. It returns an event when a
// release is confirmed.
func (d *Debouncer) Sample(level bool, now time.Time) (InputEvent, bool) {
	switch d.state {
	case stateIdle:
		if level {
			d.state = statePressCandidate
			d.candidateAt = now
		}

	case statePressCandidate:
		switch {
		case !level:
			d.state = stateIdle
		case now.Sub(d.candidateAt) >= d.timing.Debounce:
			d.state = statePressed
			d.pressedAt = d.candidateAt
		}

	case statePressed:
		if !level {
			d.state = stateReleaseCandidate
			d.candidateAt = now
		}

	case stateReleaseCandidate:
		switch {
		case level:
			d.state = statePressed
		case now.Sub(d.candidateAt) >= d.timing.Debounce:
			d.state = stateIdle
			held := d.candidateAt.Sub(d.pressedAt)
			return InputEvent{
				Kind:            Classify(held, d.timing.LongPress),
				PressDurationMs: int(held.Milliseconds()),
				Source:          SourceButton,
				At:              now,
			}, true
		}
	}
	return InputEvent{}, false
}

// Reset drops any press in progress.
func (d *Debouncer) Reset() {
	d.state = stateIdle
}
