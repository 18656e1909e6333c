package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/lightpilot/internal/animation"
)

// Handle identifies one running animation task. The scheduler owns the only
// live handle; a handle is never reused once its task has exited.
type Handle struct {
	ID      uuid.UUID
	Mode    animation.Mode
	Off     bool
	Started time.Time

	task   animation.Task
	cancel chan struct{}
	once   sync.Once
	done   chan struct{}
}

func newHandle(mode animation.Mode, off bool, task animation.Task) *Handle {
	return &Handle{
		ID:      uuid.New(),
		Mode:    mode,
		Off:     off,
		Started: time.Now(),
		task:    task,
		cancel:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Name is the routine name, "off" while the LEDs are switched off.
func (h *Handle) Name() string {
	return h.task.Name()
}

// Cancel asks the task to stop at its next suspension point. Safe to call
// more than once.
func (h *Handle) Cancel() {
	h.once.Do(func() { close(h.cancel) })
}

// Cancelled reports whether Cancel has been called.
func (h *Handle) Cancelled() bool {
	select {
	case <-h.cancel:
		return true
	default:
		return false
	}
}

// Done is closed after the task has cleared the sink and exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
