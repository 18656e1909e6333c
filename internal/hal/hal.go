// Package hal describes the hardware the controller talks to: one digital
// input (the button), one analog input (the knob) and one output sink (a
// set of LEDs or pixels). Boards provide concrete implementations.
package hal

import (
	"errors"
	"log/slog"
)

// Color is one RGB output value.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Black is the idle output value.
var Black = Color{}

// White is full brightness on every component.
var White = Color{R: 255, G: 255, B: 255}

// Scale returns c with every component multiplied by f, clamped to [0, 1].
func (c Color) Scale(f float64) Color {
	if f <= 0 {
		return Black
	}
	if f >= 1 {
		return c
	}
	return Color{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}

// Level returns the brightest component, used by single-colour outputs.
func (c Color) Level() uint8 {
	return max(c.R, c.G, c.B)
}

// Frame holds one colour per output channel.
type Frame []Color

// DarkFrame returns a frame of n black channels.
func DarkFrame(n int) Frame {
	return make(Frame, n)
}

// IsDark reports whether every channel in the frame is black.
func (f Frame) IsDark() bool {
	for _, c := range f {
		if c != Black {
			return false
		}
	}
	return true
}

// DigitalInputPin is sampled once per debouncer tick.
type DigitalInputPin interface {
	Read() (bool, error)
}

// AnalogInputPin is sampled once per smoother tick. Values are in [0, Max()].
type AnalogInputPin interface {
	Read() (int, error)
	Max() int
}

// OutputSink receives frames from the active animation.
// Clear must leave every channel dark.
type OutputSink interface {
	Apply(frame Frame) error
	Clear() error
	Channels() int
}

// Hardware bundles the opened inputs and outputs of one board.
type Hardware struct {
	Board  string
	Button DigitalInputPin
	Knob   AnalogInputPin
	Sink   OutputSink

	closers []func() error
	logger  *slog.Logger
}

func (h *Hardware) onClose(fn func() error) {
	h.closers = append(h.closers, fn)
}

// Close clears the outputs and releases every resource in reverse order.
func (h *Hardware) Close() error {
	var errs []error
	if h.Sink != nil {
		if err := h.Sink.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	if h.logger != nil {
		h.logger.Debug("Hardware released", "board", h.Board)
	}
	return errors.Join(errs...)
}
