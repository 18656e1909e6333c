package state

import (
	"sync"
	"testing"

	"github.com/smazurov/lightpilot/internal/animation"
	"github.com/smazurov/lightpilot/internal/input"
)

func TestSharedWriters(t *testing.T) {
	s := New(animation.Breathe)
	snap := s.Snapshot()
	if snap.Mode != animation.Breathe || snap.LedsOff || snap.HasValue {
		t.Fatalf("initial snapshot = %+v", snap)
	}

	s.SetPower(animation.Fill, true)
	s.SetSmoothed(2051, 2048)
	s.SetLastEvent(input.InputEvent{Kind: input.LongPress, PressDurationMs: 1200})
	s.SetTaskID("task-1")

	snap = s.Snapshot()
	if snap.Mode != animation.Fill || !snap.LedsOff {
		t.Errorf("power = %v/%v", snap.Mode, snap.LedsOff)
	}
	if snap.SmoothedValue != 2048 || snap.RawValue != 2051 || !snap.HasValue {
		t.Errorf("value = %+v", snap)
	}
	if snap.LastEvent == nil || snap.LastEvent.PressDurationMs != 1200 {
		t.Errorf("last event = %+v", snap.LastEvent)
	}
	if snap.TaskID != "task-1" {
		t.Errorf("task id = %q", snap.TaskID)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(animation.Sweep)
	s.SetLastEvent(input.InputEvent{PressDurationMs: 10})

	snap := s.Snapshot()
	snap.LastEvent.PressDurationMs = 99

	if got := s.Snapshot().LastEvent.PressDurationMs; got != 10 {
		t.Errorf("mutating a snapshot changed shared state: %d", got)
	}
}

func TestSharedConcurrentWriters(t *testing.T) {
	s := New(animation.Sweep)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := range 1000 {
			s.SetSmoothed(i, i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := range 1000 {
			s.SetPower(animation.Mode(i%int(animation.NumModes)), i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for range 1000 {
			_ = s.Snapshot()
		}
	}()
	wg.Wait()

	if got := s.Snapshot().SmoothedValue; got != 999 {
		t.Errorf("SmoothedValue = %d, want 999", got)
	}
}
