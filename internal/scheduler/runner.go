package scheduler

import (
	"log/slog"
	"time"

	"github.com/smazurov/lightpilot/internal/animation"
	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/metrics"
	"github.com/smazurov/lightpilot/internal/state"
)

// runner steps one task until cancelled.
type runner struct {
	handle *Handle
	sink   hal.OutputSink
	state  *state.Shared
	params func() animation.Params
	budget time.Duration
	logger *slog.Logger
}

func (r *runner) run() {
	h := r.handle
	defer close(h.done)
	defer func() {
		if err := r.sink.Clear(); err != nil {
			metrics.IncSinkError()
			r.logger.Warn("Failed to clear outputs", "task", h.Name(), "error", err)
		}
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	var sinkFailing bool
	for {
		select {
		case <-h.cancel:
			return
		default:
		}

		snap := r.state.Snapshot()
		in := animation.Input{
			Value:   snap.SmoothedValue,
			LedsOff: snap.LedsOff,
			Params:  r.params(),
		}

		start := time.Now()
		frame, delay := h.task.Step(in)
		if elapsed := time.Since(start); elapsed > r.budget {
			metrics.IncStepOverrun(h.Name())
			r.logger.Warn("Animation step over budget", "task", h.Name(), "elapsed", elapsed, "budget", r.budget)
		}

		if frame != nil {
			if err := r.sink.Apply(frame); err != nil {
				metrics.IncSinkError()
				if !sinkFailing {
					r.logger.Warn("Failed to write frame", "task", h.Name(), "error", err)
				}
				sinkFailing = true
			} else {
				sinkFailing = false
			}
		}

		timer.Reset(max(delay, animation.MinStepDelay))
		select {
		case <-h.cancel:
			return
		case <-timer.C:
		}
	}
}
