package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string `help:"Config file path"`

	Board      string   `toml:"hardware.board" env:"BOARD"`
	Gamma      bool     `toml:"hardware.gamma" env:"GAMMA"`
	ButtonPin  int      `toml:"button.pin" env:"BUTTON_PIN"`
	OutputPins []int    `toml:"output.pins" env:"OUTPUT_PINS"`
	SysfsLEDs  []string `toml:"output.sysfs_leds" env:"SYSFS_LEDS"`
	Scale      float64  `toml:"knob.scale" env:"KNOB_SCALE"`
	Untagged   string
}

func writeTOML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lightpilot.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleTOML = `
[hardware]
board = "rpio"
gamma = true

[button]
pin = 27

[output]
pins = [12, 13, 19]
sysfs_leds = ["act", "pwr"]

[knob]
scale = 1.5
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeTOML(t, sampleTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := testOptions{
		Config:     opts.Config,
		Board:      "rpio",
		Gamma:      true,
		ButtonPin:  27,
		OutputPins: []int{12, 13, 19},
		SysfsLEDs:  []string{"act", "pwr"},
		Scale:      1.5,
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("got %+v\nwant %+v", *opts, want)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("LIGHTPILOT_BOARD", "sim")
	t.Setenv("LIGHTPILOT_GAMMA", "true")
	t.Setenv("LIGHTPILOT_BUTTON_PIN", "4")
	t.Setenv("LIGHTPILOT_OUTPUT_PINS", "18, 23")
	t.Setenv("LIGHTPILOT_SYSFS_LEDS", "led0,led1")
	t.Setenv("LIGHTPILOT_KNOB_SCALE", "0.25")

	opts := &testOptions{}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if opts.Board != "sim" || !opts.Gamma || opts.ButtonPin != 4 || opts.Scale != 0.25 {
		t.Errorf("scalars = %+v", opts)
	}
	if !reflect.DeepEqual(opts.OutputPins, []int{18, 23}) {
		t.Errorf("OutputPins = %v", opts.OutputPins)
	}
	if !reflect.DeepEqual(opts.SysfsLEDs, []string{"led0", "led1"}) {
		t.Errorf("SysfsLEDs = %v", opts.SysfsLEDs)
	}
}

func TestLoadConfigEnvOverridesToml(t *testing.T) {
	t.Setenv("LIGHTPILOT_BOARD", "sysfs")

	opts := &testOptions{Config: writeTOML(t, sampleTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatal(err)
	}
	if opts.Board != "sysfs" {
		t.Errorf("Board = %q, want env override", opts.Board)
	}
	if opts.ButtonPin != 27 {
		t.Errorf("ButtonPin = %d, want TOML value", opts.ButtonPin)
	}
}

func TestLoadConfigCLIWins(t *testing.T) {
	t.Setenv("LIGHTPILOT_BUTTON_PIN", "5")

	opts := &testOptions{Config: writeTOML(t, sampleTOML)}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&opts.ButtonPin, "button-pin", 17, "")
	cmd.Flags().StringVar(&opts.Board, "board", "auto", "")
	if err := cmd.Flags().Parse([]string{"--button-pin=22"}); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatal(err)
	}
	if opts.ButtonPin != 22 {
		t.Errorf("ButtonPin = %d, want CLI value 22", opts.ButtonPin)
	}
	if opts.Board != "rpio" {
		t.Errorf("Board = %q, unset flag should take the TOML value", opts.Board)
	}
}

func TestLoadConfigBadValues(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		t.Setenv("LIGHTPILOT_BUTTON_PIN", "seventeen")
		if err := LoadConfig(&testOptions{}, nil); err == nil {
			t.Error("expected error for non-numeric env value")
		}
	})
	t.Run("toml type", func(t *testing.T) {
		path := writeTOML(t, "[button]\npin = \"x\"\n")
		if err := LoadConfig(&testOptions{Config: path}, nil); err == nil {
			t.Error("expected error for string in int field")
		}
	})
	t.Run("toml syntax", func(t *testing.T) {
		path := writeTOML(t, "[button\npin = 1\n")
		if err := LoadConfig(&testOptions{Config: path}, nil); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})
	t.Run("not a pointer", func(t *testing.T) {
		if err := LoadConfig(testOptions{}, nil); err == nil {
			t.Error("expected error for non-pointer opts")
		}
	})
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "missing.toml"), Board: "auto"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
	if opts.Board != "auto" {
		t.Errorf("defaults should survive a missing file, Board = %q", opts.Board)
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{"value": "nested_value"},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"root.child", nil},
	}
	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.expected {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.expected)
		}
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":            "port",
		"ButtonPin":       "button-pin",
		"ButtonActiveLow": "button-active-low",
		"LoggingLevel":    "logging-level",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeTOML(t, `
[logging]
level = "warn"
format = "json"
sampler = "debug"

[logging.modules]
api = "error"
`)
	cfg := LoadLoggingConfig(path)
	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Modules["sampler"] != "debug" || cfg.Modules["api"] != "error" {
		t.Errorf("modules = %v", cfg.Modules)
	}

	def := LoadLoggingConfig("")
	if def.Level != "info" || def.Format != "text" {
		t.Errorf("defaults = %+v", def)
	}
}
