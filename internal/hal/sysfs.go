package hal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfsSink drives Linux LED class devices, one channel per LED.
type sysfsSink struct {
	root string
	leds []sysfsLED
}

type sysfsLED struct {
	name          string
	brightness    string
	maxBrightness int
}

// newSysfsSink opens the named LEDs under root and switches their trigger
// to manual control.
func newSysfsSink(root string, names []string) (*sysfsSink, error) {
	if len(names) == 0 {
		return nil, ErrNoOutputs
	}
	if root == "" {
		root = sysfsLEDPath
	}

	s := &sysfsSink{root: root}
	for _, name := range names {
		ledPath := filepath.Join(root, name)
		if _, err := os.Stat(ledPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q at %s", ErrLEDNotFound, name, ledPath)
		}

		maxBrightness := 1
		if data, err := os.ReadFile(filepath.Join(ledPath, "max_brightness")); err == nil {
			if v, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && v > 0 {
				maxBrightness = v
			}
		}

		// Some LEDs have no trigger file; brightness still works.
		triggerPath := filepath.Join(ledPath, "trigger")
		if _, err := os.Stat(triggerPath); err == nil {
			if err := os.WriteFile(triggerPath, []byte("none"), 0644); err != nil {
				return nil, fmt.Errorf("failed to set LED %q trigger: %w", name, err)
			}
		}

		s.leds = append(s.leds, sysfsLED{
			name:          name,
			brightness:    filepath.Join(ledPath, "brightness"),
			maxBrightness: maxBrightness,
		})
	}
	return s, nil
}

func (s *sysfsSink) Apply(frame Frame) error {
	if len(frame) != len(s.leds) {
		return ErrFrameSize
	}
	for i, led := range s.leds {
		value := int(frame[i].Level()) * led.maxBrightness / 255
		if err := os.WriteFile(led.brightness, []byte(strconv.Itoa(value)), 0644); err != nil {
			return fmt.Errorf("failed to set LED %q brightness: %w", led.name, err)
		}
	}
	return nil
}

func (s *sysfsSink) Clear() error {
	return s.Apply(DarkFrame(len(s.leds)))
}

func (s *sysfsSink) Channels() int {
	return len(s.leds)
}
