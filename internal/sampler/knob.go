package sampler

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/lightpilot/internal/events"
	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/logging"
	"github.com/smazurov/lightpilot/internal/metrics"
	"github.com/smazurov/lightpilot/internal/smoothing"
	"github.com/smazurov/lightpilot/internal/state"
)

// DefaultKnobInterval is the analog sampling period.
const DefaultKnobInterval = 50 * time.Millisecond

// Knob samples an analog pin into a Smoother and publishes the average to
// the shared state.
type Knob struct {
	pin      hal.AnalogInputPin
	smoother *smoothing.Smoother
	interval time.Duration
	state    *state.Shared
	bus      *events.Bus
	deadband int
	logger   *slog.Logger

	published int
	hasPub    bool
}

// NewKnob returns a sampler reading pin every interval. Sensor events are
// published when the average moves by deadband or more; zero picks one
// percent of the pin range.
func NewKnob(pin hal.AnalogInputPin, smoother *smoothing.Smoother, interval time.Duration, st *state.Shared, bus *events.Bus, deadband int) *Knob {
	if interval <= 0 {
		interval = DefaultKnobInterval
	}
	if deadband <= 0 {
		deadband = max(pin.Max()/100, 1)
	}
	return &Knob{
		pin:      pin,
		smoother: smoother,
		interval: interval,
		state:    st,
		bus:      bus,
		deadband: deadband,
		logger:   logging.GetLogger("sampler"),
	}
}

// Run samples until ctx is done.
func (k *Knob) Run(ctx context.Context) error {
	k.logger.Info("Starting knob sampler",
		"interval", k.interval,
		"window", k.smoother.Cap(),
		"max", k.pin.Max())

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			k.sample(now)
		}
	}
}

func (k *Knob) sample(now time.Time) {
	raw, err := k.pin.Read()
	if err != nil {
		metrics.IncSensorReadError("knob")
		k.logger.Debug("Knob read failed, skipping tick", "error", err)
		return
	}

	smoothed := k.smoother.Add(raw)
	k.state.SetSmoothed(raw, smoothed)
	metrics.SetSmoothedValue(smoothed)

	if k.hasPub && abs(smoothed-k.published) < k.deadband {
		return
	}
	k.published, k.hasPub = smoothed, true
	k.bus.Publish(events.SensorValueEvent{
		Raw:       raw,
		Smoothed:  smoothed,
		Max:       k.pin.Max(),
		Timestamp: now.Format(time.RFC3339Nano),
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
