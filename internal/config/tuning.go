package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/lightpilot/internal/hal"
)

// Tuning is the hot-reloadable [tuning] table. Unset keys keep the value
// the process started with.
type Tuning struct {
	DebounceMs     *int    `toml:"debounce_ms"`
	LongPressMs    *int    `toml:"long_press_ms"`
	PeriodMinMs    *int    `toml:"period_min_ms"`
	PeriodMaxMs    *int    `toml:"period_max_ms"`
	FillIntervalMs *int    `toml:"fill_interval_ms"`
	Color          *string `toml:"color"`
	Bounce         *bool   `toml:"bounce"`
	Rainbow        *bool   `toml:"rainbow"`
}

// LoadTuning reads the [tuning] table from path. Other tables are ignored.
func LoadTuning(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}

	var doc struct {
		Tuning Tuning `toml:"tuning"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Tuning{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := doc.Tuning.validate(); err != nil {
		return Tuning{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc.Tuning, nil
}

func (t Tuning) validate() error {
	for name, v := range map[string]*int{
		"debounce_ms":      t.DebounceMs,
		"long_press_ms":    t.LongPressMs,
		"period_min_ms":    t.PeriodMinMs,
		"period_max_ms":    t.PeriodMaxMs,
		"fill_interval_ms": t.FillIntervalMs,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("tuning.%s must not be negative", name)
		}
	}
	if t.Color != nil {
		if _, err := hal.ParseColor(*t.Color); err != nil {
			return fmt.Errorf("tuning.color: %w", err)
		}
	}
	return nil
}

// Millis converts an optional millisecond count, falling back to def.
func Millis(v *int, def time.Duration) time.Duration {
	if v == nil {
		return def
	}
	return time.Duration(*v) * time.Millisecond
}
