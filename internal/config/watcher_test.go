package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher[T any](t *testing.T, w *Watcher[T]) {
	t.Helper()
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	// Let the watcher register before the first write
	time.Sleep(50 * time.Millisecond)
}

func TestConfigWatcher_ReloadsTuning(t *testing.T) {
	path := writeTOML(t, "[tuning]\ndebounce_ms = 50\n")

	received := make(chan Tuning, 4)
	w := NewConfigWatcher(path, LoadTuning, newTestLogger(), WithDebounce[Tuning](30*time.Millisecond))
	w.OnReload(func(tu Tuning) { received <- tu })
	startWatcher(t, w)

	if err := os.WriteFile(path, []byte("[tuning]\ndebounce_ms = 25\nbounce = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case tu := <-received:
		if tu.DebounceMs == nil || *tu.DebounceMs != 25 || tu.Bounce == nil || *tu.Bounce {
			t.Errorf("reloaded tuning = %+v", tu)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestConfigWatcher_RenameSave(t *testing.T) {
	path := writeTOML(t, "[tuning]\nlong_press_ms = 1000\n")

	received := make(chan Tuning, 4)
	w := NewConfigWatcher(path, LoadTuning, newTestLogger(), WithDebounce[Tuning](30*time.Millisecond))
	w.OnReload(func(tu Tuning) { received <- tu })
	startWatcher(t, w)

	tmp := filepath.Join(filepath.Dir(path), ".lightpilot.toml.swp")
	if err := os.WriteFile(tmp, []byte("[tuning]\nlong_press_ms = 700\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case tu := <-received:
		if tu.LongPressMs == nil || *tu.LongPressMs != 700 {
			t.Errorf("reloaded tuning = %+v", tu)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("rename save not picked up")
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	path := writeTOML(t, "[tuning]\n")

	var count atomic.Int32
	w := NewConfigWatcher(path, LoadTuning, newTestLogger(), WithDebounce[Tuning](20*time.Millisecond))
	w.OnReload(func(Tuning) { count.Add(1) })
	startWatcher(t, w)

	other := filepath.Join(filepath.Dir(path), "other.toml")
	if err := os.WriteFile(other, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if got := count.Load(); got != 0 {
		t.Errorf("handler called %d times for an unrelated file", got)
	}
}

func TestConfigWatcher_ErrorHandler(t *testing.T) {
	path := writeTOML(t, "[tuning]\n")

	errs := make(chan error, 1)
	reloads := make(chan Tuning, 1)
	w := NewConfigWatcher(path, LoadTuning, newTestLogger(),
		WithDebounce[Tuning](30*time.Millisecond),
		WithErrorHandler[Tuning](func(err error) { errs <- err }))
	w.OnReload(func(tu Tuning) { reloads <- tu })
	startWatcher(t, w)

	if err := os.WriteFile(path, []byte("[tuning]\ncolor = \"mauve\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errs:
	case <-reloads:
		t.Fatal("handler should not run for invalid tuning")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestConfigWatcher_Debounce(t *testing.T) {
	path := writeTOML(t, "[tuning]\ndebounce_ms = 0\n")

	var count, last atomic.Int32
	w := NewConfigWatcher(path, LoadTuning, newTestLogger(), WithDebounce[Tuning](150*time.Millisecond))
	w.OnReload(func(tu Tuning) {
		count.Add(1)
		if tu.DebounceMs != nil {
			last.Store(int32(*tu.DebounceMs))
		}
	})
	startWatcher(t, w)

	for i := 1; i <= 5; i++ {
		if err := os.WriteFile(path, fmt.Appendf(nil, "[tuning]\ndebounce_ms = %d\n", i), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(30 * time.Millisecond)
	}
	time.Sleep(400 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 debounced reload, got %d", got)
	}
	if got := last.Load(); got != 5 {
		t.Errorf("expected final value 5, got %d", got)
	}
}

func TestConfigWatcher_Unsubscribe(t *testing.T) {
	path := writeTOML(t, "[tuning]\n")

	var kept, dropped atomic.Int32
	w := NewConfigWatcher(path, LoadTuning, newTestLogger(), WithDebounce[Tuning](20*time.Millisecond))
	w.OnReload(func(Tuning) { kept.Add(1) })
	unsub := w.OnReload(func(Tuning) { dropped.Add(1) })
	unsub()
	startWatcher(t, w)

	if err := os.WriteFile(path, []byte("[tuning]\nrainbow = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if kept.Load() != 1 || dropped.Load() != 0 {
		t.Errorf("kept = %d, dropped = %d", kept.Load(), dropped.Load())
	}
}

func TestConfigWatcher_Stop(t *testing.T) {
	path := writeTOML(t, "[tuning]\n")

	var count atomic.Int32
	w := NewConfigWatcher(path, LoadTuning, newTestLogger(), WithDebounce[Tuning](20*time.Millisecond))
	w.OnReload(func(Tuning) { count.Add(1) })
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("[tuning]\nbounce = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := count.Load(); got != 0 {
		t.Errorf("expected 0 calls after stop, got %d", got)
	}
}
