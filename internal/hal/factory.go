package hal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var deviceTreeModelPath = "/proc/device-tree/model"

// Open detects or selects the board named in cfg and opens its inputs and
// outputs. Any failure here is fatal for the caller.
func Open(cfg Config, logger *slog.Logger) (*Hardware, error) {
	if logger == nil {
		logger = slog.Default()
	}

	board := cfg.Board
	if board == "" || board == BoardAuto {
		model := detectBoard()
		logger.Info("Detecting board", "board_model", model)
		board = boardForModel(model)
	}

	hw := &Hardware{Board: board, logger: logger}
	var err error
	switch board {
	case BoardRPIO:
		err = openRPIO(cfg, hw, logger)
	case BoardSysfs:
		err = openSysfs(cfg, hw)
	case BoardSim:
		openSim(cfg, hw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoard, board)
	}
	if err != nil {
		_ = hw.Close()
		return nil, fmt.Errorf("failed to open %s board: %w", board, err)
	}

	if cfg.Gamma {
		hw.Sink = WithGamma(hw.Sink)
	}
	logger.Info("Hardware ready", "board", board, "channels", hw.Sink.Channels(), "knob_max", hw.Knob.Max())
	return hw, nil
}

func boardForModel(model string) string {
	switch {
	case strings.Contains(model, "Raspberry Pi"):
		return BoardRPIO
	default:
		return BoardSim
	}
}

// openSysfs drives LED class devices. There is no button or ADC in the LED
// class, so the inputs come from the simulator and the HTTP API.
func openSysfs(cfg Config, hw *Hardware) error {
	sink, err := newSysfsSink(cfg.SysfsRoot, cfg.SysfsLEDs)
	if err != nil {
		return err
	}
	hw.Button = NewSimButton()
	hw.Knob = NewSimKnob(cfg.SimKnob, 0, cfg.SimKnobMax)
	hw.Sink = sink
	return nil
}

func openSim(cfg Config, hw *Hardware) {
	n := cfg.SimChannels
	if n <= 0 {
		n = 3
	}
	hw.Button = NewSimButton()
	hw.Knob = NewSimKnob(cfg.SimKnob, cfg.SimNoise, cfg.SimKnobMax)
	hw.Sink = NewRecordingSink(n, 1024)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
