package hal

// Board names accepted by Open.
const (
	BoardAuto  = "auto"
	BoardRPIO  = "rpio"
	BoardSysfs = "sysfs"
	BoardSim   = "sim"
)

// Pull modes for the button input.
const (
	PullNone = "none"
	PullUp   = "up"
	PullDown = "down"
)

// Config selects and configures a board.
type Config struct {
	Board string

	// Button
	ButtonPin       int
	ButtonActiveLow bool
	ButtonPull      string

	// Knob (MCP3008 on SPI0)
	ADCChannel int

	// Outputs
	OutputPins []int
	PWMFreq    int
	SysfsLEDs  []string
	SysfsRoot  string
	Gamma      bool

	// Simulation
	SimChannels int
	SimKnob     int
	SimNoise    int
	SimKnobMax  int
}

// DefaultConfig returns a config for the simulated board.
func DefaultConfig() Config {
	return Config{
		Board:           BoardAuto,
		ButtonPin:       17,
		ButtonActiveLow: true,
		ButtonPull:      PullUp,
		ADCChannel:      0,
		OutputPins:      []int{18, 23, 24},
		PWMFreq:         64000,
		SysfsRoot:       sysfsLEDPath,
		SimChannels:     3,
		SimKnob:         2048,
		SimNoise:        8,
		SimKnobMax:      4095,
	}
}
