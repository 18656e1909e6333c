// Package scheduler owns the running animation task. It consumes presses
// from the mailbox, updates mode and power, and switches tasks with a
// cancel, acknowledge, start handshake so two tasks never write to the
// outputs at the same time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/lightpilot/internal/animation"
	"github.com/smazurov/lightpilot/internal/events"
	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/input"
	"github.com/smazurov/lightpilot/internal/logging"
	"github.com/smazurov/lightpilot/internal/metrics"
	"github.com/smazurov/lightpilot/internal/state"
)

// DefaultStepBudget is the compute allowance for one animation step.
const DefaultStepBudget = 20 * time.Millisecond

var (
	// ErrCancelTimeout means a task did not exit in time. The outputs may
	// still be driven by it, so the scheduler stops.
	ErrCancelTimeout = errors.New("animation task did not acknowledge cancel")

	ErrMissingOption = errors.New("missing scheduler option")
)

// Options configures a Scheduler.
type Options struct {
	Sink    hal.OutputSink
	State   *state.Shared
	Mailbox *input.Mailbox
	Bus     *events.Bus

	// Params is read at every animation step.
	Params      func() animation.Params
	DefaultMode animation.Mode

	StepBudget    time.Duration
	CancelTimeout time.Duration

	// NewTask builds the routine for a mode; tests swap it.
	NewTask func(mode animation.Mode, channels int) animation.Task
	Logger  *slog.Logger
}

// Scheduler supervises at most one animation task.
type Scheduler struct {
	opts    Options
	logger  *slog.Logger
	current *Handle
}

// New validates opts and fills defaults.
func New(opts Options) (*Scheduler, error) {
	switch {
	case opts.Sink == nil:
		return nil, fmt.Errorf("%w: sink", ErrMissingOption)
	case opts.State == nil:
		return nil, fmt.Errorf("%w: state", ErrMissingOption)
	case opts.Mailbox == nil:
		return nil, fmt.Errorf("%w: mailbox", ErrMissingOption)
	}
	if !opts.DefaultMode.Valid() {
		return nil, fmt.Errorf("default mode: %w: %d", animation.ErrUnknownMode, opts.DefaultMode)
	}
	if opts.Params == nil {
		p := animation.DefaultParams()
		opts.Params = func() animation.Params { return p }
	}
	if opts.StepBudget <= 0 {
		opts.StepBudget = DefaultStepBudget
	}
	if opts.CancelTimeout <= 0 {
		opts.CancelTimeout = 5 * opts.StepBudget
	}
	if opts.NewTask == nil {
		opts.NewTask = animation.New
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("scheduler")
	}
	return &Scheduler{opts: opts, logger: logger}, nil
}

// Run starts the task for the current state and then handles presses until
// ctx is done. The task is stopped and the outputs cleared before Run
// returns. A non-nil error means a task failed to stop.
func (s *Scheduler) Run(ctx context.Context) error {
	snap := s.opts.State.Snapshot()
	s.start(snap.Mode, snap.LedsOff)

	for {
		select {
		case <-ctx.Done():
			if err := s.stop(); err != nil {
				return err
			}
			s.logger.Info("Scheduler stopped")
			return nil
		case ev := <-s.opts.Mailbox.C():
			if err := s.handle(ev); err != nil {
				return err
			}
		}
	}
}

// next applies a press to the current mode and power state.
func next(ev input.InputEvent, mode animation.Mode, off bool, defaultMode animation.Mode) (animation.Mode, bool) {
	switch ev.Kind {
	case input.ShortPress:
		// Only a long press wakes the LEDs.
		if off {
			return mode, off
		}
		return mode.Next(), off
	case input.LongPress:
		if off {
			return defaultMode, false
		}
		return mode, true
	}
	return mode, off
}

func (s *Scheduler) handle(ev input.InputEvent) error {
	s.opts.State.SetLastEvent(ev)

	snap := s.opts.State.Snapshot()
	mode, off := next(ev, snap.Mode, snap.LedsOff, s.opts.DefaultMode)
	if mode == snap.Mode && off == snap.LedsOff {
		s.logger.Debug("Press ignored", "kind", ev.Kind, "source", ev.Source, "leds_off", off)
		return nil
	}

	s.logger.Info("Switching animation",
		"kind", ev.Kind,
		"duration_ms", ev.PressDurationMs,
		"source", ev.Source,
		"from", snap.Mode,
		"to", mode,
		"leds_off", off)

	if err := s.stop(); err != nil {
		return err
	}
	s.opts.State.SetPower(mode, off)
	s.start(mode, off)
	return nil
}

func (s *Scheduler) start(mode animation.Mode, off bool) {
	channels := s.opts.Sink.Channels()
	var task animation.Task
	if off {
		task = animation.NewOff(channels)
	} else {
		task = s.opts.NewTask(mode, channels)
	}

	h := newHandle(mode, off, task)
	s.current = h
	s.opts.State.SetTaskID(h.ID.String())

	r := &runner{
		handle: h,
		sink:   s.opts.Sink,
		state:  s.opts.State,
		params: s.opts.Params,
		budget: s.opts.StepBudget,
		logger: s.logger,
	}
	go r.run()

	metrics.IncTaskSwitch(task.Name())
	metrics.SetSchedulerState(int(mode), off)
	s.opts.Bus.Publish(events.StateChangedEvent{
		Mode:      mode.String(),
		LedsOff:   off,
		TaskID:    h.ID.String(),
		Timestamp: h.Started.Format(time.RFC3339Nano),
	})
	s.logger.Debug("Task started", "task", task.Name(), "id", h.ID)
}

// stop cancels the current task and waits for its acknowledgement.
func (s *Scheduler) stop() error {
	h := s.current
	if h == nil {
		return nil
	}

	requested := time.Now()
	h.Cancel()

	timer := time.NewTimer(s.opts.CancelTimeout)
	defer timer.Stop()
	select {
	case <-h.Done():
		metrics.ObserveCancelLatency(time.Since(requested).Seconds())
		s.current = nil
		return nil
	case <-timer.C:
		metrics.IncCancelTimeout()
		s.logger.Error("Animation task did not stop",
			"task", h.Name(),
			"id", h.ID,
			"timeout", s.opts.CancelTimeout)
		return fmt.Errorf("%w: %s task %s after %v", ErrCancelTimeout, h.Name(), h.ID, s.opts.CancelTimeout)
	}
}
