package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smazurov/lightpilot/internal/animation"
	"github.com/smazurov/lightpilot/internal/events"
	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/input"
	"github.com/smazurov/lightpilot/internal/state"
)

// tagTask fills every channel with R = tag so frames identify their writer.
type tagTask struct {
	name  string
	tag   uint8
	delay time.Duration
	block <-chan struct{}
}

func (t *tagTask) Name() string { return t.name }

func (t *tagTask) Step(_ animation.Input) (hal.Frame, time.Duration) {
	if t.block != nil {
		<-t.block
	}
	f := hal.DarkFrame(3)
	for i := range f {
		f[i] = hal.Color{R: t.tag}
	}
	return f, t.delay
}

func tagFor(mode animation.Mode) uint8 { return uint8(mode) + 1 }

func tagTasks(mode animation.Mode, _ int) animation.Task {
	return &tagTask{name: mode.String(), tag: tagFor(mode), delay: 2 * time.Millisecond}
}

// exclusiveSink fails the test if two writers overlap.
type exclusiveSink struct {
	*hal.RecordingSink
	t        *testing.T
	inFlight atomic.Int32
}

func (s *exclusiveSink) Apply(f hal.Frame) error {
	if s.inFlight.Add(1) > 1 {
		s.t.Error("concurrent Apply calls")
	}
	defer s.inFlight.Add(-1)
	time.Sleep(100 * time.Microsecond)
	return s.RecordingSink.Apply(f)
}

type harness struct {
	sched   *Scheduler
	sink    *exclusiveSink
	state   *state.Shared
	mailbox *input.Mailbox
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

func newHarness(t *testing.T, initial animation.Mode, mutate func(*Options)) *harness {
	t.Helper()
	sink := &exclusiveSink{RecordingSink: hal.NewRecordingSink(3, 0), t: t}
	h := &harness{
		sink:    sink,
		state:   state.New(initial),
		mailbox: input.NewMailbox(),
		done:    make(chan struct{}),
	}
	opts := Options{
		Sink:        sink,
		State:       h.state,
		Mailbox:     h.mailbox,
		Bus:         events.New(),
		DefaultMode: animation.Sweep,
		NewTask:     tagTasks,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&opts)
	}
	sched, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.sched = sched

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.err = sched.Run(ctx)
		close(h.done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
		}
	})
	return h
}

func (h *harness) press(kind input.PressKind) {
	h.mailbox.Post(input.InputEvent{Kind: kind, Source: input.SourceCLI, At: time.Now()})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (h *harness) waitState(t *testing.T, mode animation.Mode, off bool) {
	t.Helper()
	waitFor(t, "state", func() bool {
		s := h.state.Snapshot()
		return s.Mode == mode && s.LedsOff == off
	})
}

// waitFrame waits until the sink shows a frame with tag.
func (h *harness) waitFrame(t *testing.T, tag uint8) {
	t.Helper()
	waitFor(t, "frame", func() bool {
		f := h.sink.Last()
		return len(f) > 0 && f[0].R == tag
	})
}

func TestShortPressWrapsMode(t *testing.T) {
	h := newHarness(t, animation.Fill, nil)
	h.waitFrame(t, tagFor(animation.Fill))

	h.press(input.ShortPress)
	h.waitState(t, animation.Sweep, false)
	h.waitFrame(t, tagFor(animation.Sweep))

	h.press(input.ShortPress)
	h.waitState(t, animation.Breathe, false)
}

func TestLongPressTogglesPower(t *testing.T) {
	h := newHarness(t, animation.Breathe, nil)
	h.waitFrame(t, tagFor(animation.Breathe))

	h.press(input.LongPress)
	h.waitState(t, animation.Breathe, true)
	waitFor(t, "dark outputs", func() bool { return h.sink.Last().IsDark() })

	// Short presses are ignored while off.
	h.press(input.ShortPress)
	time.Sleep(20 * time.Millisecond)
	if s := h.state.Snapshot(); s.Mode != animation.Breathe || !s.LedsOff {
		t.Fatalf("short press while off changed state to %+v", s)
	}

	h.press(input.LongPress)
	h.waitState(t, animation.Sweep, false)
	h.waitFrame(t, tagFor(animation.Sweep))

	if ev := h.state.Snapshot().LastEvent; ev == nil || ev.Kind != input.LongPress {
		t.Errorf("LastEvent = %+v", ev)
	}
}

func TestClearPrecedesNewModeFrames(t *testing.T) {
	h := newHarness(t, animation.Sweep, nil)

	modes := []animation.Mode{animation.Sweep}
	for range 6 {
		prev := modes[len(modes)-1]
		h.waitFrame(t, tagFor(prev))
		h.press(input.ShortPress)
		next := prev.Next()
		h.waitState(t, next, false)
		modes = append(modes, next)
	}
	h.waitFrame(t, tagFor(modes[len(modes)-1]))
	h.cancel()
	<-h.done
	if h.err != nil {
		t.Fatalf("Run() error = %v", h.err)
	}

	// Walk the ops: each change of writer must be separated by a clear, and
	// a writer never reappears once replaced.
	ops := h.sink.Ops()
	seg := 0
	lastTag := tagFor(modes[0])
	clearedSinceLast := false
	for _, op := range ops {
		if op.Clear {
			clearedSinceLast = true
			continue
		}
		tag := op.Frame[0].R
		if tag == lastTag && !clearedSinceLast {
			continue
		}
		if tag == lastTag && clearedSinceLast {
			t.Fatalf("task %d wrote after its clear", tag)
		}
		if !clearedSinceLast {
			t.Fatalf("frame from %d followed %d without a clear", tag, lastTag)
		}
		seg++
		if seg >= len(modes) || tag != tagFor(modes[seg]) {
			t.Fatalf("unexpected writer %d at segment %d", tag, seg)
		}
		lastTag = tag
		clearedSinceLast = false
	}
	if seg != len(modes)-1 {
		t.Errorf("saw %d switches, want %d", seg, len(modes)-1)
	}
	if last := ops[len(ops)-1]; !last.Clear {
		t.Error("outputs not cleared on shutdown")
	}
}

func TestRapidPressesKeepOneWriter(t *testing.T) {
	h := newHarness(t, animation.Sweep, nil)
	for i := range 50 {
		if i%7 == 0 {
			h.press(input.LongPress)
		} else {
			h.press(input.ShortPress)
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	h.cancel()
	<-h.done
	if h.err != nil {
		t.Fatalf("Run() error = %v", h.err)
	}
}

func TestTaskIDChangesPerTask(t *testing.T) {
	h := newHarness(t, animation.Sweep, nil)
	waitFor(t, "task id", func() bool { return h.state.Snapshot().TaskID != "" })
	first := h.state.Snapshot().TaskID

	h.press(input.ShortPress)
	waitFor(t, "new task id", func() bool {
		id := h.state.Snapshot().TaskID
		return id != "" && id != first
	})
}

func TestStateChangedEventsPublished(t *testing.T) {
	bus := events.New()
	got := make(chan events.StateChangedEvent, 8)
	unsub := bus.Subscribe(func(e events.StateChangedEvent) { got <- e })
	defer unsub()

	h := newHarness(t, animation.Sweep, func(o *Options) { o.Bus = bus })
	h.press(input.LongPress)

	want := []struct {
		mode string
		off  bool
	}{{"sweep", false}, {"sweep", true}}
	for _, w := range want {
		select {
		case e := <-got:
			if e.Mode != w.mode || e.LedsOff != w.off || e.TaskID == "" {
				t.Errorf("event = %+v, want mode %s off %v", e, w.mode, w.off)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("state event not published")
		}
	}
}

func TestCancelTimeout(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	t.Cleanup(func() { once.Do(func() { close(release) }) })

	h := newHarness(t, animation.Sweep, func(o *Options) {
		o.CancelTimeout = 20 * time.Millisecond
		o.NewTask = func(mode animation.Mode, _ int) animation.Task {
			return &tagTask{name: "stuck", tag: 9, delay: time.Millisecond, block: release}
		}
	})

	h.press(input.ShortPress)
	select {
	case <-h.done:
		if !errors.Is(h.err, ErrCancelTimeout) {
			t.Fatalf("Run() error = %v, want ErrCancelTimeout", h.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not report the stuck task")
	}
	once.Do(func() { close(release) })
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrMissingOption) {
		t.Errorf("error = %v, want ErrMissingOption", err)
	}
	_, err := New(Options{
		Sink:        hal.NewRecordingSink(1, 0),
		State:       state.New(animation.Sweep),
		Mailbox:     input.NewMailbox(),
		DefaultMode: animation.NumModes,
	})
	if !errors.Is(err, animation.ErrUnknownMode) {
		t.Errorf("error = %v, want ErrUnknownMode", err)
	}
}

func TestNext(t *testing.T) {
	short := input.InputEvent{Kind: input.ShortPress}
	long := input.InputEvent{Kind: input.LongPress}
	tests := []struct {
		name     string
		ev       input.InputEvent
		mode     animation.Mode
		off      bool
		wantMode animation.Mode
		wantOff  bool
	}{
		{"short advances", short, animation.Sweep, false, animation.Breathe, false},
		{"short wraps", short, animation.Fill, false, animation.Sweep, false},
		{"short ignored while off", short, animation.Fill, true, animation.Fill, true},
		{"long switches off", long, animation.Fill, false, animation.Fill, true},
		{"long wakes into default", long, animation.Fill, true, animation.Breathe, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, off := next(tt.ev, tt.mode, tt.off, animation.Breathe)
			if mode != tt.wantMode || off != tt.wantOff {
				t.Errorf("next() = %v/%v, want %v/%v", mode, off, tt.wantMode, tt.wantOff)
			}
		})
	}
}
