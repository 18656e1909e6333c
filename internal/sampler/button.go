// Package sampler runs the periodic input loops: one for the button, one
// for the knob. Each loop reads its pin once per tick and skips the tick on
// a transient read error.
package sampler

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/input"
	"github.com/smazurov/lightpilot/internal/logging"
	"github.com/smazurov/lightpilot/internal/metrics"
)

// DefaultButtonInterval is the debouncer sampling period.
const DefaultButtonInterval = 20 * time.Millisecond

// Button samples a digital pin through a Debouncer and emits presses.
type Button struct {
	pin       hal.DigitalInputPin
	debouncer *input.Debouncer
	interval  time.Duration
	emit      func(input.InputEvent)
	timing    chan input.Timing
	logger    *slog.Logger
}

// NewButton returns a sampler reading pin every interval. emit runs on the
// sampler goroutine.
func NewButton(pin hal.DigitalInputPin, debouncer *input.Debouncer, interval time.Duration, emit func(input.InputEvent)) *Button {
	if interval <= 0 {
		interval = DefaultButtonInterval
	}
	return &Button{
		pin:       pin,
		debouncer: debouncer,
		interval:  interval,
		emit:      emit,
		timing:    make(chan input.Timing, 1),
		logger:    logging.GetLogger("input"),
	}
}

// SetTiming hands new debounce timing to the sampler goroutine. Only the
// latest pending value is kept.
func (b *Button) SetTiming(t input.Timing) {
	for {
		select {
		case b.timing <- t:
			return
		default:
		}
		select {
		case <-b.timing:
		default:
		}
	}
}

// Run samples until ctx is done.
func (b *Button) Run(ctx context.Context) error {
	b.logger.Info("Starting button sampler",
		"interval", b.interval,
		"debounce", b.debouncer.Timing().Debounce,
		"long_press", b.debouncer.Timing().LongPress)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-b.timing:
			if err := b.debouncer.SetTiming(t); err != nil {
				b.logger.Warn("Rejected debounce timing", "error", err)
			} else {
				b.logger.Info("Debounce timing updated", "debounce", t.Debounce, "long_press", t.LongPress)
			}
		case now := <-ticker.C:
			b.sample(now)
		}
	}
}

func (b *Button) sample(now time.Time) {
	level, err := b.pin.Read()
	if err != nil {
		metrics.IncSensorReadError("button")
		b.logger.Debug("Button read failed, skipping tick", "error", err)
		return
	}
	if ev, ok := b.debouncer.Sample(level, now); ok {
		b.logger.Debug("Press classified", "kind", ev.Kind, "duration_ms", ev.PressDurationMs)
		b.emit(ev)
	}
}
