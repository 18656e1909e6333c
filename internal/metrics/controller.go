package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lightpilot"

var (
	pressesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "input",
		Name:      "presses_total",
		Help:      "Classified presses by kind and source",
	}, []string{"kind", "source"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "input",
		Name:      "events_dropped_total",
		Help:      "Presses overwritten in the mailbox before the scheduler consumed them",
	})

	sensorReadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sampler",
		Name:      "sensor_read_errors_total",
		Help:      "Transient sensor read failures; the tick was skipped",
	}, []string{"sensor"})

	smoothedValue = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sampler",
		Name:      "smoothed_value",
		Help:      "Current moving average of the analog input",
	})

	taskSwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "task_switches_total",
		Help:      "Animation tasks started, by mode",
	}, []string{"mode"})

	cancelLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "cancel_latency_seconds",
		Help:      "Time between requesting a task cancel and its exit acknowledgement",
		Buckets:   []float64{.0005, .001, .002, .005, .01, .02, .05, .1, .25},
	})

	cancelTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "cancel_timeouts_total",
		Help:      "Tasks that did not acknowledge cancellation in time",
	})

	stepOverruns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "animation",
		Name:      "step_overruns_total",
		Help:      "Animation steps whose compute time exceeded the step budget",
	}, []string{"mode"})

	sinkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "animation",
		Name:      "sink_errors_total",
		Help:      "Failed writes to the output sink",
	})

	activeMode = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "mode",
		Help:      "Index of the active animation mode",
	})

	ledsOff = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "leds_off",
		Help:      "1 while the LEDs are switched off",
	})
)

// IncPress counts one classified press.
func IncPress(kind, source string) {
	pressesTotal.WithLabelValues(kind, source).Inc()
}

// IncEventsDropped counts one overwritten mailbox event.
func IncEventsDropped() {
	eventsDropped.Inc()
}

// IncSensorReadError counts one skipped sampling tick.
func IncSensorReadError(sensor string) {
	sensorReadErrors.WithLabelValues(sensor).Inc()
}

// SetSmoothedValue publishes the current smoothed reading.
func SetSmoothedValue(v int) {
	smoothedValue.Set(float64(v))
}

// IncTaskSwitch counts one task start.
func IncTaskSwitch(mode string) {
	taskSwitches.WithLabelValues(mode).Inc()
}

// ObserveCancelLatency records how long a task took to acknowledge cancel.
func ObserveCancelLatency(seconds float64) {
	cancelLatency.Observe(seconds)
}

// IncCancelTimeout counts one missed cancel acknowledgement.
func IncCancelTimeout() {
	cancelTimeouts.Inc()
}

// IncStepOverrun counts one animation step over budget.
func IncStepOverrun(mode string) {
	stepOverruns.WithLabelValues(mode).Inc()
}

// IncSinkError counts one failed output write.
func IncSinkError() {
	sinkErrors.Inc()
}

// SetSchedulerState publishes the mode index and power state.
func SetSchedulerState(mode int, off bool) {
	activeMode.Set(float64(mode))
	if off {
		ledsOff.Set(1)
	} else {
		ledsOff.Set(0)
	}
}
