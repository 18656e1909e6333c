package hal

// Gamma applies a square-law correction so equal steps look equally bright.
func Gamma(v uint8) uint8 {
	return uint8(uint16(v) * uint16(v) / 255)
}

type gammaSink struct {
	OutputSink
	buf Frame
}

// WithGamma wraps sink so every frame is gamma corrected before output.
func WithGamma(sink OutputSink) OutputSink {
	return &gammaSink{OutputSink: sink, buf: make(Frame, sink.Channels())}
}

func (g *gammaSink) Apply(frame Frame) error {
	if len(frame) != len(g.buf) {
		return ErrFrameSize
	}
	for i, c := range frame {
		g.buf[i] = Color{R: Gamma(c.R), G: Gamma(c.G), B: Gamma(c.B)}
	}
	return g.OutputSink.Apply(g.buf)
}
