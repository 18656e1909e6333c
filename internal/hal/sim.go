package hal

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// SimButton is a DigitalInputPin driven by the caller.
type SimButton struct {
	level    atomic.Bool
	failNext atomic.Int32
}

// NewSimButton returns a released button.
func NewSimButton() *SimButton {
	return &SimButton{}
}

// Set forces the level seen by the next Read.
func (b *SimButton) Set(pressed bool) {
	b.level.Store(pressed)
}

// FailNext makes the next n reads return ErrReadFailed.
func (b *SimButton) FailNext(n int) {
	b.failNext.Store(int32(n))
}

// Press holds the button down for hold, then releases it.
func (b *SimButton) Press(ctx context.Context, hold time.Duration) error {
	b.Set(true)
	defer b.Set(false)

	t := time.NewTimer(hold)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (b *SimButton) Read() (bool, error) {
	if b.failNext.Load() > 0 {
		b.failNext.Add(-1)
		return false, ErrReadFailed
	}
	return b.level.Load(), nil
}

// SimKnob is an AnalogInputPin returning a set value plus uniform noise.
type SimKnob struct {
	mu       sync.Mutex
	value    int
	noise    int
	max      int
	failNext int
}

// NewSimKnob returns a knob at value with +/- noise jitter.
func NewSimKnob(value, noise, maxValue int) *SimKnob {
	if maxValue <= 0 {
		maxValue = 4095
	}
	return &SimKnob{value: value, noise: noise, max: maxValue}
}

// Set moves the knob.
func (k *SimKnob) Set(value int) {
	k.mu.Lock()
	k.value = value
	k.mu.Unlock()
}

// FailNext makes the next n reads return ErrReadFailed.
func (k *SimKnob) FailNext(n int) {
	k.mu.Lock()
	k.failNext = n
	k.mu.Unlock()
}

func (k *SimKnob) Read() (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.failNext > 0 {
		k.failNext--
		return 0, ErrReadFailed
	}
	v := k.value
	if k.noise > 0 {
		v += rand.IntN(2*k.noise+1) - k.noise
	}
	return min(max(v, 0), k.max), nil
}

func (k *SimKnob) Max() int {
	return k.max
}

// SinkOp is one recorded call on a RecordingSink.
type SinkOp struct {
	Clear bool
	Frame Frame
	At    time.Time
}

// RecordingSink is an OutputSink that keeps every call in memory.
type RecordingSink struct {
	mu       sync.Mutex
	channels int
	ops      []SinkOp
	limit    int
	onApply  func(Frame)
}

// NewRecordingSink returns a sink with n channels. It keeps at most limit
// operations; zero keeps everything.
func NewRecordingSink(n, limit int) *RecordingSink {
	return &RecordingSink{channels: n, limit: limit}
}

// OnApply registers a callback invoked after every frame, outside the lock.
func (s *RecordingSink) OnApply(fn func(Frame)) {
	s.mu.Lock()
	s.onApply = fn
	s.mu.Unlock()
}

func (s *RecordingSink) Apply(frame Frame) error {
	if len(frame) != s.channels {
		return ErrFrameSize
	}
	cp := make(Frame, len(frame))
	copy(cp, frame)

	s.mu.Lock()
	s.record(SinkOp{Frame: cp, At: time.Now()})
	fn := s.onApply
	s.mu.Unlock()

	if fn != nil {
		fn(cp)
	}
	return nil
}

func (s *RecordingSink) Clear() error {
	s.mu.Lock()
	s.record(SinkOp{Clear: true, Frame: DarkFrame(s.channels), At: time.Now()})
	s.mu.Unlock()
	return nil
}

func (s *RecordingSink) Channels() int {
	return s.channels
}

// Ops returns a copy of the recorded operations.
func (s *RecordingSink) Ops() []SinkOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SinkOp(nil), s.ops...)
}

// Last returns the most recent frame, dark if nothing was written.
func (s *RecordingSink) Last() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ops) == 0 {
		return DarkFrame(s.channels)
	}
	return s.ops[len(s.ops)-1].Frame
}

// Reset drops the recorded operations.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	s.ops = nil
	s.mu.Unlock()
}

func (s *RecordingSink) record(op SinkOp) {
	s.ops = append(s.ops, op)
	if s.limit > 0 && len(s.ops) > s.limit {
		s.ops = s.ops[len(s.ops)-s.limit:]
	}
}
