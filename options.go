package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/lightpilot/internal/animation"
	"github.com/smazurov/lightpilot/internal/controller"
	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/input"
	"github.com/smazurov/lightpilot/internal/logging"
)

// Options for the CLI - flat structure with toml mapping. The [tuning]
// table of the same file is watched and applied without a restart.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"lightpilot.toml"`

	// Server settings
	Port         string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	AuthUsername string `help:"Basic auth username, empty disables auth" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesAPI     bool `help:"Serve the HTTP API" default:"true" toml:"features.api" env:"FEATURES_API"`
	FeaturesMetrics bool `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"features.metrics" env:"FEATURES_METRICS"`
	FeaturesThermal bool `help:"Export board temperatures" default:"true" toml:"features.thermal" env:"FEATURES_THERMAL"`

	// Board settings
	Board       string `help:"Board backend (auto, rpio, sysfs, sim)" default:"auto" toml:"board.type" env:"BOARD"`
	Gamma       bool   `help:"Apply gamma correction to output levels" default:"false" toml:"board.gamma" env:"BOARD_GAMMA"`
	SimChannels int    `help:"Output channels of the simulated board" default:"3" toml:"board.sim_channels" env:"BOARD_SIM_CHANNELS"`

	// Button settings
	ButtonPin        int    `help:"Button GPIO (BCM numbering)" default:"17" toml:"button.pin" env:"BUTTON_PIN"`
	ButtonActiveLow  bool   `help:"Button reads low when pressed" default:"true" toml:"button.active_low" env:"BUTTON_ACTIVE_LOW"`
	ButtonPull       string `help:"Button pull resistor (none, up, down)" default:"up" toml:"button.pull" env:"BUTTON_PULL"`
	ButtonIntervalMs int    `help:"Button sampling interval in milliseconds" default:"20" toml:"button.interval_ms" env:"BUTTON_INTERVAL_MS"`
	DebounceMs       int    `help:"Stable time to confirm a press or release" default:"50" toml:"button.debounce_ms" env:"BUTTON_DEBOUNCE_MS"`
	LongPressMs      int    `help:"Hold time at which a press is long" default:"1000" toml:"button.long_press_ms" env:"BUTTON_LONG_PRESS_MS"`

	// Knob settings
	ADCChannel     int `help:"MCP3008 channel of the knob" default:"0" toml:"knob.adc_channel" env:"KNOB_ADC_CHANNEL"`
	KnobIntervalMs int `help:"Knob sampling interval in milliseconds" default:"50" toml:"knob.interval_ms" env:"KNOB_INTERVAL_MS"`
	KnobWindow     int `help:"Samples in the knob moving average" default:"10" toml:"knob.window" env:"KNOB_WINDOW"`

	// Output settings
	OutputPins string `help:"Comma-separated output GPIOs" default:"18,23,24" toml:"outputs.pins" env:"OUTPUT_PINS"`
	PWMFreq    int    `help:"Hardware PWM frequency in Hz" default:"64000" toml:"outputs.pwm_freq" env:"OUTPUT_PWM_FREQ"`
	SysfsLEDs  string `help:"Comma-separated LED class names for the sysfs board" default:"" toml:"outputs.sysfs_leds" env:"OUTPUT_SYSFS_LEDS"`

	// Animation settings
	DefaultMode     string `help:"Mode at startup and after waking (sweep, breathe, fill)" default:"sweep" toml:"animation.default_mode" env:"ANIMATION_DEFAULT_MODE"`
	PeriodMinMs     int    `help:"Animation period at knob minimum" default:"500" toml:"animation.period_min_ms" env:"ANIMATION_PERIOD_MIN_MS"`
	PeriodMaxMs     int    `help:"Animation period at knob maximum" default:"3000" toml:"animation.period_max_ms" env:"ANIMATION_PERIOD_MAX_MS"`
	FillIntervalMs  int    `help:"Refresh interval of the fill mode" default:"50" toml:"animation.fill_interval_ms" env:"ANIMATION_FILL_INTERVAL_MS"`
	Color           string `help:"Base colour (#rrggbb or name)" default:"white" toml:"animation.color" env:"ANIMATION_COLOR"`
	Bounce          bool   `help:"Sweep bounces instead of wrapping" default:"true" toml:"animation.bounce" env:"ANIMATION_BOUNCE"`
	Rainbow         bool   `help:"Sweep cycles a rainbow palette" default:"false" toml:"animation.rainbow" env:"ANIMATION_RAINBOW"`
	StepBudgetMs    int    `help:"Compute budget of one animation step" default:"20" toml:"animation.step_budget_ms" env:"ANIMATION_STEP_BUDGET_MS"`
	CancelTimeoutMs int    `help:"Wait for a task to stop before giving up, 0 picks 5x step budget" default:"0" toml:"animation.cancel_timeout_ms" env:"ANIMATION_CANCEL_TIMEOUT_MS"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingInput     string `help:"Button input logging level" default:"info" toml:"logging.input" env:"LOGGING_INPUT"`
	LoggingSampler   string `help:"Knob sampler logging level" default:"info" toml:"logging.sampler" env:"LOGGING_SAMPLER"`
	LoggingScheduler string `help:"Scheduler logging level" default:"info" toml:"logging.scheduler" env:"LOGGING_SCHEDULER"`
	LoggingHAL       string `help:"Hardware logging level" default:"info" toml:"logging.hal" env:"LOGGING_HAL"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingConfig    string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"input":     o.LoggingInput,
			"sampler":   o.LoggingSampler,
			"scheduler": o.LoggingScheduler,
			"animation": o.LoggingScheduler,
			"hal":       o.LoggingHAL,
			"api":       o.LoggingAPI,
			"config":    o.LoggingConfig,
		},
	}
}

func (o *Options) halConfig() (hal.Config, error) {
	pins, err := parsePins(o.OutputPins)
	if err != nil {
		return hal.Config{}, err
	}

	cfg := hal.DefaultConfig()
	cfg.Board = o.Board
	cfg.ButtonPin = o.ButtonPin
	cfg.ButtonActiveLow = o.ButtonActiveLow
	cfg.ButtonPull = o.ButtonPull
	cfg.ADCChannel = o.ADCChannel
	cfg.OutputPins = pins
	cfg.PWMFreq = o.PWMFreq
	cfg.SysfsLEDs = splitList(o.SysfsLEDs)
	cfg.Gamma = o.Gamma
	cfg.SimChannels = o.SimChannels
	return cfg, nil
}

func (o *Options) controllerOptions(hw *hal.Hardware) (controller.Options, error) {
	mode, err := animation.ParseMode(o.DefaultMode)
	if err != nil {
		return controller.Options{}, err
	}
	color, err := hal.ParseColor(o.Color)
	if err != nil {
		return controller.Options{}, fmt.Errorf("animation.color: %w", err)
	}

	params := animation.DefaultParams()
	params.PeriodMin = millis(o.PeriodMinMs)
	params.PeriodMax = millis(o.PeriodMaxMs)
	params.FillInterval = millis(o.FillIntervalMs)
	params.Color = color
	params.Bounce = o.Bounce
	params.Rainbow = o.Rainbow

	return controller.Options{
		Hardware:       hw,
		Timing:         input.Timing{Debounce: millis(o.DebounceMs), LongPress: millis(o.LongPressMs)},
		Params:         params,
		DefaultMode:    mode,
		ButtonInterval: millis(o.ButtonIntervalMs),
		KnobInterval:   millis(o.KnobIntervalMs),
		Window:         o.KnobWindow,
		StepBudget:     millis(o.StepBudgetMs),
		CancelTimeout:  millis(o.CancelTimeoutMs),
	}, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePins(s string) ([]int, error) {
	parts := splitList(s)
	pins := make([]int, 0, len(parts))
	for _, p := range parts {
		pin, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", hal.ErrInvalidPin, p)
		}
		pins = append(pins, pin)
	}
	return pins, nil
}
