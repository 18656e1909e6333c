package animation

import (
	"fmt"
	"time"

	"github.com/smazurov/lightpilot/internal/hal"
)

// Defaults.
const (
	DefaultPeriodMin    = 500 * time.Millisecond
	DefaultPeriodMax    = 3000 * time.Millisecond
	DefaultFillInterval = 50 * time.Millisecond
	DefaultBreathSteps  = 120
	DefaultInputMax     = 4095

	// MinStepDelay keeps every routine from spinning.
	MinStepDelay = time.Millisecond
)

// Params are the tunables read by every step. They may change between
// steps when the tuning file is reloaded.
type Params struct {
	InputMax     int
	PeriodMin    time.Duration
	PeriodMax    time.Duration
	FillInterval time.Duration
	BreathSteps  int
	Color        hal.Color
	Bounce       bool
	Rainbow      bool
}

// DefaultParams matches a 12-bit knob driving white LEDs.
func DefaultParams() Params {
	return Params{
		InputMax:     DefaultInputMax,
		PeriodMin:    DefaultPeriodMin,
		PeriodMax:    DefaultPeriodMax,
		FillInterval: DefaultFillInterval,
		BreathSteps:  DefaultBreathSteps,
		Color:        hal.White,
		Bounce:       true,
	}
}

// Validate rejects parameters that would stall or divide by zero.
func (p Params) Validate() error {
	switch {
	case p.InputMax <= 0:
		return fmt.Errorf("%w: input max %d", ErrInvalidParams, p.InputMax)
	case p.PeriodMin <= 0:
		return fmt.Errorf("%w: period min %v", ErrInvalidParams, p.PeriodMin)
	case p.PeriodMax < p.PeriodMin:
		return fmt.Errorf("%w: period max %v below min %v", ErrInvalidParams, p.PeriodMax, p.PeriodMin)
	case p.FillInterval <= 0:
		return fmt.Errorf("%w: fill interval %v", ErrInvalidParams, p.FillInterval)
	case p.BreathSteps < 2:
		return fmt.Errorf("%w: breath steps %d", ErrInvalidParams, p.BreathSteps)
	}
	return nil
}

// Period maps value in [0, InputMax] linearly onto [PeriodMin, PeriodMax].
func (p Params) Period(value int) time.Duration {
	value = min(max(value, 0), p.InputMax)
	span := p.PeriodMax - p.PeriodMin
	return p.PeriodMin + time.Duration(int64(span)*int64(value)/int64(p.InputMax))
}

// Level maps value in [0, InputMax] onto a brightness in [0, 1].
func (p Params) Level(value int) float64 {
	value = min(max(value, 0), p.InputMax)
	return float64(value) / float64(p.InputMax)
}

func stepDelay(d time.Duration) time.Duration {
	return max(d, MinStepDelay)
}
