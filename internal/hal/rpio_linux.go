//go:build linux

package hal

import (
	"fmt"
	"log/slog"

	"github.com/stianeikeland/go-rpio/v4"
)

// BCM pins wired to the two hardware PWM channels.
var pwmChannels = map[int]int{12: 0, 18: 0, 13: 1, 19: 1}

const (
	mcp3008Max = 1023
	pwmCycle   = 255
	gpioMaxPin = 27
)

func openRPIO(cfg Config, hw *Hardware, logger *slog.Logger) error {
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("rpio: failed to open gpio memory: %w", err)
	}
	hw.onClose(rpio.Close)

	button, err := newRPIOButton(cfg)
	if err != nil {
		return err
	}
	hw.Button = button

	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		return fmt.Errorf("rpio: failed to start SPI0 for MCP3008 channel %d: %w", cfg.ADCChannel, err)
	}
	hw.onClose(func() error {
		rpio.SpiEnd(rpio.Spi0)
		return nil
	})
	knob, err := newMCP3008(cfg.ADCChannel)
	if err != nil {
		return err
	}
	hw.Knob = knob

	sink, err := newRPIOSink(cfg.OutputPins, cfg.PWMFreq, logger)
	if err != nil {
		return err
	}
	hw.Sink = sink
	return nil
}

type rpioButton struct {
	pin       rpio.Pin
	activeLow bool
}

func newRPIOButton(cfg Config) (*rpioButton, error) {
	if cfg.ButtonPin < 0 || cfg.ButtonPin > gpioMaxPin {
		return nil, fmt.Errorf("rpio: button: %w: %d", ErrInvalidPin, cfg.ButtonPin)
	}
	pin := rpio.Pin(cfg.ButtonPin)
	pin.Input()
	switch cfg.ButtonPull {
	case PullUp:
		pin.PullUp()
	case PullDown:
		pin.PullDown()
	case PullNone, "":
		pin.PullOff()
	default:
		return nil, fmt.Errorf("rpio: button pin %d: unknown pull %q", cfg.ButtonPin, cfg.ButtonPull)
	}
	return &rpioButton{pin: pin, activeLow: cfg.ButtonActiveLow}, nil
}

func (b *rpioButton) Read() (bool, error) {
	high := b.pin.Read() == rpio.High
	return high != b.activeLow, nil
}

// mcp3008 reads one single-ended channel of an MCP3008 on SPI0 CE0.
type mcp3008 struct {
	channel int
}

func newMCP3008(channel int) (*mcp3008, error) {
	if channel < 0 || channel > 7 {
		return nil, fmt.Errorf("rpio: mcp3008: %w: channel %d", ErrInvalidPin, channel)
	}
	rpio.SpiSpeed(1_000_000)
	rpio.SpiChipSelect(0)
	return &mcp3008{channel: channel}, nil
}

func (m *mcp3008) Read() (int, error) {
	buf := []byte{1, byte(8+m.channel) << 4, 0}
	rpio.SpiExchange(buf)
	// The null bit precedes the sample and is always low on a live chip.
	if buf[1]&0x04 != 0 {
		return 0, fmt.Errorf("mcp3008 channel %d: %w", m.channel, ErrReadFailed)
	}
	return int(buf[1]&0x03)<<8 | int(buf[2]), nil
}

func (m *mcp3008) Max() int {
	return mcp3008Max
}

type rpioOutput struct {
	pin rpio.Pin
	pwm bool
}

// rpioSink drives one LED per GPIO pin. Pins on a free hardware PWM channel
// get PWM brightness, all others switch on above half brightness.
type rpioSink struct {
	outputs []rpioOutput
}

func newRPIOSink(pins []int, freq int, logger *slog.Logger) (*rpioSink, error) {
	if len(pins) == 0 {
		return nil, ErrNoOutputs
	}
	s := &rpioSink{}
	used := map[int]bool{}
	for _, p := range pins {
		if p < 0 || p > gpioMaxPin {
			return nil, fmt.Errorf("rpio: output: %w: %d", ErrInvalidPin, p)
		}
		pin := rpio.Pin(p)
		ch, ok := pwmChannels[p]
		if ok && !used[ch] {
			used[ch] = true
			pin.Pwm()
			pin.Freq(freq)
			pin.DutyCycle(0, pwmCycle)
			s.outputs = append(s.outputs, rpioOutput{pin: pin, pwm: true})
			continue
		}
		if ok {
			logger.Warn("PWM channel already in use, falling back to on/off output", "pin", p, "channel", ch)
		}
		pin.Output()
		pin.Low()
		s.outputs = append(s.outputs, rpioOutput{pin: pin})
	}
	return s, nil
}

func (s *rpioSink) Apply(frame Frame) error {
	if len(frame) != len(s.outputs) {
		return ErrFrameSize
	}
	for i, out := range s.outputs {
		level := frame[i].Level()
		switch {
		case out.pwm:
			out.pin.DutyCycle(uint32(level), pwmCycle)
		case level >= 128:
			out.pin.High()
		default:
			out.pin.Low()
		}
	}
	return nil
}

func (s *rpioSink) Clear() error {
	return s.Apply(DarkFrame(len(s.outputs)))
}

func (s *rpioSink) Channels() int {
	return len(s.outputs)
}
