// Package controller assembles the samplers, the mailbox and the scheduler
// around one opened board and runs them until shutdown.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/lightpilot/internal/animation"
	"github.com/smazurov/lightpilot/internal/config"
	"github.com/smazurov/lightpilot/internal/events"
	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/input"
	"github.com/smazurov/lightpilot/internal/logging"
	"github.com/smazurov/lightpilot/internal/metrics"
	"github.com/smazurov/lightpilot/internal/sampler"
	"github.com/smazurov/lightpilot/internal/scheduler"
	"github.com/smazurov/lightpilot/internal/smoothing"
	"github.com/smazurov/lightpilot/internal/state"
)

// Options configures a Controller. Zero values pick the package defaults.
type Options struct {
	Hardware *hal.Hardware
	Bus      *events.Bus

	Timing      input.Timing
	Params      animation.Params
	DefaultMode animation.Mode

	ButtonInterval time.Duration
	KnobInterval   time.Duration
	Window         int
	Deadband       int

	StepBudget    time.Duration
	CancelTimeout time.Duration

	Logger *slog.Logger
}

// Controller owns the running pipeline for one board.
type Controller struct {
	hw      *hal.Hardware
	bus     *events.Bus
	state   *state.Shared
	mailbox *input.Mailbox
	button  *sampler.Button
	knob    *sampler.Knob
	sched   *scheduler.Scheduler
	logger  *slog.Logger

	params atomic.Pointer[animation.Params]

	// tuneMu serialises ApplyTuning.
	tuneMu sync.Mutex
	timing input.Timing
}

// New validates opts and builds the pipeline without starting it.
func New(opts Options) (*Controller, error) {
	if opts.Hardware == nil {
		return nil, fmt.Errorf("%w: hardware", scheduler.ErrMissingOption)
	}
	if opts.Bus == nil {
		opts.Bus = events.New()
	}
	if opts.Timing == (input.Timing{}) {
		opts.Timing = input.Timing{Debounce: input.DefaultDebounce, LongPress: input.DefaultLongPress}
	}
	if opts.Params == (animation.Params{}) {
		opts.Params = animation.DefaultParams()
	}
	opts.Params.InputMax = opts.Hardware.Knob.Max()
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("main")
	}

	debouncer, err := input.NewDebouncer(opts.Timing)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		hw:      opts.Hardware,
		bus:     opts.Bus,
		state:   state.New(opts.DefaultMode),
		mailbox: input.NewMailbox(),
		timing:  opts.Timing,
		logger:  logger,
	}
	params := opts.Params
	c.params.Store(&params)

	c.mailbox.OnDrop(func(lost input.InputEvent, total uint64) {
		c.logger.Debug("Unconsumed press overwritten", "kind", lost.Kind, "source", lost.Source, "total", total)
		c.bus.Publish(events.EventDroppedEvent{
			Kind:      lost.Kind.String(),
			Total:     total,
			Timestamp: time.Now().Format(time.RFC3339Nano),
		})
	})

	c.button = sampler.NewButton(opts.Hardware.Button, debouncer, opts.ButtonInterval, c.emit)
	c.knob = sampler.NewKnob(opts.Hardware.Knob, smoothing.New(opts.Window), opts.KnobInterval, c.state, c.bus, opts.Deadband)

	c.sched, err = scheduler.New(scheduler.Options{
		Sink:          opts.Hardware.Sink,
		State:         c.state,
		Mailbox:       c.mailbox,
		Bus:           c.bus,
		Params:        c.Params,
		DefaultMode:   opts.DefaultMode,
		StepBudget:    opts.StepBudget,
		CancelTimeout: opts.CancelTimeout,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Run starts the samplers and the scheduler and blocks until ctx is done or
// the scheduler fails. The outputs are cleared when Run returns.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.logger.Info("Controller starting",
		"board", c.hw.Board,
		"mode", c.state.Snapshot().Mode,
		"channels", c.hw.Sink.Channels())

	loops := []struct {
		name string
		run  func(context.Context) error
	}{
		{"button", c.button.Run},
		{"knob", c.knob.Run},
		{"scheduler", c.sched.Run},
	}

	errCh := make(chan error, len(loops))
	var wg sync.WaitGroup
	for _, l := range loops {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.run(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", l.name, err)
				cancel()
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		c.logger.Error("Controller stopped with error", "error", err)
		return err
	}
	c.logger.Info("Controller stopped")
	return nil
}

// emit is the single entry point for presses from every source.
func (c *Controller) emit(ev input.InputEvent) {
	metrics.IncPress(ev.Kind.String(), ev.Source)
	c.bus.Publish(events.PressEvent{
		Kind:       ev.Kind.String(),
		DurationMs: ev.PressDurationMs,
		Source:     ev.Source,
		Timestamp:  ev.At.Format(time.RFC3339Nano),
	})
	c.mailbox.Post(ev)
}

// Press injects a press from a non-button source such as the HTTP API.
// Long presses report the configured threshold as their duration.
func (c *Controller) Press(kind input.PressKind, source string) input.InputEvent {
	ev := input.InputEvent{Kind: kind, Source: source, At: time.Now()}
	if kind == input.LongPress {
		c.tuneMu.Lock()
		ev.PressDurationMs = int(c.timing.LongPress / time.Millisecond)
		c.tuneMu.Unlock()
	}
	c.logger.Debug("Press injected", "kind", kind, "source", source)
	c.emit(ev)
	return ev
}

// Snapshot returns the current shared state.
func (c *Controller) Snapshot() state.Snapshot {
	return c.state.Snapshot()
}

// Params returns the animation parameters in effect.
func (c *Controller) Params() animation.Params {
	return *c.params.Load()
}

// Timing returns the debounce timing in effect.
func (c *Controller) Timing() input.Timing {
	c.tuneMu.Lock()
	defer c.tuneMu.Unlock()
	return c.timing
}

// Bus returns the event bus the pipeline publishes on.
func (c *Controller) Bus() *events.Bus {
	return c.bus
}

// Hardware returns the board the controller drives.
func (c *Controller) Hardware() *hal.Hardware {
	return c.hw
}

// DroppedPresses returns the number of presses overwritten before the
// scheduler consumed them.
func (c *Controller) DroppedPresses() uint64 {
	return c.mailbox.Dropped()
}

// ApplyTuning merges t over the settings in effect. Nothing changes when
// the merged result is invalid.
func (c *Controller) ApplyTuning(t config.Tuning) error {
	c.tuneMu.Lock()
	defer c.tuneMu.Unlock()

	timing := input.Timing{
		Debounce:  config.Millis(t.DebounceMs, c.timing.Debounce),
		LongPress: config.Millis(t.LongPressMs, c.timing.LongPress),
	}
	if err := timing.Validate(); err != nil {
		return err
	}

	p := c.Params()
	p.PeriodMin = config.Millis(t.PeriodMinMs, p.PeriodMin)
	p.PeriodMax = config.Millis(t.PeriodMaxMs, p.PeriodMax)
	p.FillInterval = config.Millis(t.FillIntervalMs, p.FillInterval)
	if t.Color != nil {
		col, err := hal.ParseColor(*t.Color)
		if err != nil {
			return err
		}
		p.Color = col
	}
	if t.Bounce != nil {
		p.Bounce = *t.Bounce
	}
	if t.Rainbow != nil {
		p.Rainbow = *t.Rainbow
	}
	if err := p.Validate(); err != nil {
		return err
	}

	c.params.Store(&p)
	if timing != c.timing {
		c.timing = timing
		c.button.SetTiming(timing)
	}

	c.logger.Info("Tuning applied",
		"debounce", timing.Debounce,
		"long_press", timing.LongPress,
		"period_min", p.PeriodMin,
		"period_max", p.PeriodMax,
		"color", p.Color.Hex(),
		"bounce", p.Bounce,
		"rainbow", p.Rainbow)
	return nil
}

// ReloadTuning is the config watcher callback: it applies t and reports
// the outcome on the bus.
func (c *Controller) ReloadTuning(path string) func(config.Tuning) {
	return func(t config.Tuning) {
		ev := events.TuningReloadedEvent{Path: path, Timestamp: time.Now().Format(time.RFC3339Nano)}
		if err := c.ApplyTuning(t); err != nil {
			c.logger.Warn("Rejected tuning, keeping previous values", "path", path, "error", err)
			ev.Error = err.Error()
		}
		c.bus.Publish(ev)
	}
}
