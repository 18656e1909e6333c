// Package cmd holds the lightpilot subcommands.
package cmd

import (
	"github.com/spf13/pflag"

	"github.com/smazurov/lightpilot/internal/hal"
)

// addBoardFlags binds the hardware selection flags shared by subcommands.
func addBoardFlags(fs *pflag.FlagSet, cfg *hal.Config) {
	fs.StringVar(&cfg.Board, "board", cfg.Board, "Board backend (auto, rpio, sysfs, sim)")
	fs.IntVar(&cfg.ButtonPin, "button-pin", cfg.ButtonPin, "Button GPIO (BCM numbering)")
	fs.BoolVar(&cfg.ButtonActiveLow, "button-active-low", cfg.ButtonActiveLow, "Button reads low when pressed")
	fs.StringVar(&cfg.ButtonPull, "button-pull", cfg.ButtonPull, "Button pull resistor (none, up, down)")
	fs.IntVar(&cfg.ADCChannel, "adc-channel", cfg.ADCChannel, "MCP3008 channel of the knob")
	fs.IntSliceVar(&cfg.OutputPins, "output-pins", cfg.OutputPins, "Output GPIOs")
	fs.StringSliceVar(&cfg.SysfsLEDs, "sysfs-leds", cfg.SysfsLEDs, "LED class names for the sysfs board")
	fs.IntVar(&cfg.SimChannels, "channels", cfg.SimChannels, "Output channels of the simulated board")
	fs.IntVar(&cfg.SimKnob, "knob", cfg.SimKnob, "Initial knob value of the simulated board")
}
