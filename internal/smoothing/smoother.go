// Package smoothing averages noisy analog samples over a fixed window.
package smoothing

// DefaultWindow is the number of samples averaged.
const DefaultWindow = 10

// Smoother is a moving average over the last N samples. Before the window
// fills, the mean is taken over the samples seen so far. The result is
// floored, so it always lies between the smallest and largest sample in the
// window.
//
// A Smoother is not safe for concurrent use.
type Smoother struct {
	buf  []int
	next int
	n    int
	sum  int
}

// New returns a smoother averaging up to window samples. A window below 1
// is treated as 1.
func New(window int) *Smoother {
	return &Smoother{buf: make([]int, max(window, 1))}
}

// Add inserts v, evicting the oldest sample once full, and returns the new
// mean.
func (s *Smoother) Add(v int) int {
	if s.n == len(s.buf) {
		s.sum -= s.buf[s.next]
	} else {
		s.n++
	}
	s.buf[s.next] = v
	s.sum += v
	s.next = (s.next + 1) % len(s.buf)
	return s.mean()
}

// Value returns the current mean. ok is false until the first sample.
func (s *Smoother) Value() (int, bool) {
	if s.n == 0 {
		return 0, false
	}
	return s.mean(), true
}

// Len returns the number of samples held.
func (s *Smoother) Len() int { return s.n }

// Cap returns the window size.
func (s *Smoother) Cap() int { return len(s.buf) }

// Reset empties the window.
func (s *Smoother) Reset() {
	s.n, s.next, s.sum = 0, 0, 0
}

func (s *Smoother) mean() int {
	q := s.sum / s.n
	// Go truncates toward zero; floor for negative sums.
	if s.sum%s.n != 0 && s.sum < 0 {
		q--
	}
	return q
}
