// Package state holds the values shared between the samplers, the scheduler
// and the running animation. Each field has exactly one writer: the knob
// sampler owns the readings and the scheduler owns everything else.
package state

import (
	"sync"
	"time"

	"github.com/smazurov/lightpilot/internal/animation"
	"github.com/smazurov/lightpilot/internal/input"
)

// Snapshot is a consistent copy of the shared state.
type Snapshot struct {
	Mode          animation.Mode
	LedsOff       bool
	SmoothedValue int
	RawValue      int
	HasValue      bool
	LastEvent     *input.InputEvent
	TaskID        string
	UpdatedAt     time.Time
}

// Shared is created once at startup and lives for the whole process.
type Shared struct {
	mu   sync.RWMutex
	snap Snapshot
}

// New returns state starting in mode with the LEDs on.
func New(mode animation.Mode) *Shared {
	return &Shared{snap: Snapshot{Mode: mode, UpdatedAt: time.Now()}}
}

// Snapshot returns a copy of the current state.
func (s *Shared) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	if snap.LastEvent != nil {
		ev := *snap.LastEvent
		snap.LastEvent = &ev
	}
	return snap
}

// SetPower sets mode and ledsOff together. Scheduler only.
func (s *Shared) SetPower(mode animation.Mode, off bool) {
	s.update(func(snap *Snapshot) {
		snap.Mode = mode
		snap.LedsOff = off
	})
}

// SetTaskID records the running task. Scheduler only.
func (s *Shared) SetTaskID(id string) {
	s.update(func(snap *Snapshot) { snap.TaskID = id })
}

// SetSmoothed records the latest knob reading. Knob sampler only.
func (s *Shared) SetSmoothed(raw, smoothed int) {
	s.update(func(snap *Snapshot) {
		snap.RawValue = raw
		snap.SmoothedValue = smoothed
		snap.HasValue = true
	})
}

// SetLastEvent records the latest consumed press. Scheduler only.
func (s *Shared) SetLastEvent(ev input.InputEvent) {
	s.update(func(snap *Snapshot) { snap.LastEvent = &ev })
}

func (s *Shared) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.snap.UpdatedAt = time.Now()
	s.mu.Unlock()
}
