package config

import (
	"testing"
	"time"
)

func TestLoadTuning(t *testing.T) {
	path := writeTOML(t, `
[server]
port = 8090

[tuning]
debounce_ms = 30
long_press_ms = 800
color = "#ff8000"
rainbow = true
`)
	tuning, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning() error = %v", err)
	}
	if tuning.DebounceMs == nil || *tuning.DebounceMs != 30 {
		t.Errorf("DebounceMs = %v", tuning.DebounceMs)
	}
	if tuning.Rainbow == nil || !*tuning.Rainbow {
		t.Errorf("Rainbow = %v", tuning.Rainbow)
	}
	if tuning.Bounce != nil || tuning.PeriodMinMs != nil {
		t.Error("unset keys should stay nil")
	}
	if got := Millis(tuning.LongPressMs, time.Second); got != 800*time.Millisecond {
		t.Errorf("Millis(long_press) = %v", got)
	}
	if got := Millis(tuning.PeriodMaxMs, 3*time.Second); got != 3*time.Second {
		t.Errorf("Millis(nil) = %v, want default", got)
	}
}

func TestLoadTuningRejectsBadValues(t *testing.T) {
	for name, content := range map[string]string{
		"negative": "[tuning]\ndebounce_ms = -5\n",
		"colour":   "[tuning]\ncolor = \"mauve\"\n",
		"syntax":   "[tuning\n",
		"type":     "[tuning]\nbounce = \"yes\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadTuning(writeTOML(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
