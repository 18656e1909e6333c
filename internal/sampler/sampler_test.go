package sampler

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smazurov/lightpilot/internal/animation"
	"github.com/smazurov/lightpilot/internal/events"
	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/input"
	"github.com/smazurov/lightpilot/internal/smoothing"
	"github.com/smazurov/lightpilot/internal/state"
)

func newDebouncer(t *testing.T, debounce, long time.Duration) *input.Debouncer {
	t.Helper()
	d, err := input.NewDebouncer(input.Timing{Debounce: debounce, LongPress: long})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func startButton(t *testing.T, b *Button) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = b.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestButtonEmitsPress(t *testing.T) {
	pin := hal.NewSimButton()
	got := make(chan input.InputEvent, 4)
	b := NewButton(pin, newDebouncer(t, 20*time.Millisecond, 200*time.Millisecond), 2*time.Millisecond,
		func(ev input.InputEvent) { got <- ev })
	startButton(t, b)

	if err := pin.Press(context.Background(), 100*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-got:
		if ev.Kind != input.ShortPress {
			t.Errorf("Kind = %v, want short", ev.Kind)
		}
		if ev.PressDurationMs < 70 || ev.PressDurationMs > 150 {
			t.Errorf("PressDurationMs = %d, want about 100", ev.PressDurationMs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no press emitted")
	}
}

func TestButtonSkipsFailedReads(t *testing.T) {
	pin := hal.NewSimButton()
	got := make(chan input.InputEvent, 4)
	b := NewButton(pin, newDebouncer(t, 10*time.Millisecond, 100*time.Millisecond), 2*time.Millisecond,
		func(ev input.InputEvent) { got <- ev })

	before := sensorErrors("button")
	pin.FailNext(5)
	startButton(t, b)

	if err := pin.Press(context.Background(), 250*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-got:
		if ev.Kind != input.LongPress {
			t.Errorf("Kind = %v, want long", ev.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no press emitted after read errors")
	}
	if after := sensorErrors("button"); after < before+5 {
		t.Errorf("sensor_read_errors_total{button} = %v, want >= %v", after, before+5)
	}
}

func TestButtonSetTiming(t *testing.T) {
	pin := hal.NewSimButton()
	got := make(chan input.InputEvent, 4)
	deb := newDebouncer(t, 10*time.Millisecond, 2*time.Second)
	b := NewButton(pin, deb, 2*time.Millisecond, func(ev input.InputEvent) { got <- ev })

	// Only the latest pending timing survives.
	b.SetTiming(input.Timing{Debounce: 10 * time.Millisecond, LongPress: time.Second})
	b.SetTiming(input.Timing{Debounce: 10 * time.Millisecond, LongPress: 50 * time.Millisecond})
	startButton(t, b)
	time.Sleep(10 * time.Millisecond)

	if err := pin.Press(context.Background(), 120*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-got:
		if ev.Kind != input.LongPress {
			t.Errorf("Kind = %v, want long after timing update", ev.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no press emitted")
	}
}

func TestKnobUpdatesState(t *testing.T) {
	pin := hal.NewSimKnob(1000, 0, 4095)
	st := state.New(animation.Fill)
	bus := events.New()
	sensor := make(chan events.SensorValueEvent, 16)
	unsub := bus.Subscribe(func(e events.SensorValueEvent) {
		select {
		case sensor <- e:
		default:
		}
	})
	defer unsub()

	k := NewKnob(pin, smoothing.New(4), 2*time.Millisecond, st, bus, 0)

	before := sensorErrors("knob")
	pin.FailNext(3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = k.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := st.Snapshot(); s.HasValue && s.SmoothedValue == 1000 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if s := st.Snapshot(); s.SmoothedValue != 1000 || s.RawValue != 1000 {
		t.Fatalf("state = %+v, want smoothed 1000", s)
	}

	select {
	case e := <-sensor:
		if e.Smoothed != 1000 || e.Max != 4095 {
			t.Errorf("sensor event = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no sensor event")
	}

	// A move inside the deadband (40 for 4095) publishes nothing new.
	drain(sensor)
	pin.Set(1010)
	time.Sleep(30 * time.Millisecond)
	select {
	case e := <-sensor:
		t.Errorf("unexpected sensor event inside deadband: %+v", e)
	default:
	}

	pin.Set(3000)
	select {
	case e := <-sensor:
		if e.Smoothed <= 1010 {
			t.Errorf("sensor event = %+v, want a larger value", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no sensor event after a large move")
	}

	if after := sensorErrors("knob"); after < before+3 {
		t.Errorf("sensor_read_errors_total{knob} = %v, want >= %v", after, before+3)
	}
}

func drain(ch chan events.SensorValueEvent) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// sensorErrors reads the read error counter for sensor from the default registry.
func sensorErrors(sensor string) float64 {
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return 0
	}
	for _, mf := range mfs {
		if mf.GetName() != "lightpilot_sampler_sensor_read_errors_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "sensor" && l.GetValue() == sensor {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
