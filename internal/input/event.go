// Package input turns raw button samples into classified presses and hands
// them to the scheduler through a single-slot mailbox.
package input

import (
	"fmt"
	"time"
)

// PressKind classifies a completed press.
type PressKind int

const (
	ShortPress PressKind = iota
	LongPress
)

func (k PressKind) String() string {
	switch k {
	case ShortPress:
		return "short"
	case LongPress:
		return "long"
	default:
		return fmt.Sprintf("PressKind(%d)", int(k))
	}
}

// ParsePressKind accepts "short" or "long".
func ParsePressKind(s string) (PressKind, error) {
	switch s {
	case "short":
		return ShortPress, nil
	case "long":
		return LongPress, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPressKind, s)
	}
}

// Press sources.
const (
	SourceButton = "button"
	SourceAPI    = "api"
	SourceCLI    = "cli"
)

// InputEvent is produced once per press/release cycle and consumed once.
type InputEvent struct {
	Kind            PressKind
	PressDurationMs int
	Source          string
	At              time.Time
}

// Classify returns LongPress when d reaches the threshold.
func Classify(d, longPress time.Duration) PressKind {
	if d >= longPress {
		return LongPress
	}
	return ShortPress
}
