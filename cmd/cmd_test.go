package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/input"
	"github.com/smazurov/lightpilot/internal/smoothing"
)

func init() {
	color.NoColor = true
}

func TestParseScript(t *testing.T) {
	steps, err := parseScript("short, long!, knob=1200, wait=250ms,,long")
	if err != nil {
		t.Fatalf("parseScript() error = %v", err)
	}
	if len(steps) != 5 {
		t.Fatalf("got %d steps, want 5", len(steps))
	}
	if steps[0].press == nil || *steps[0].press != input.ShortPress || steps[0].inject {
		t.Errorf("step 0 = %+v", steps[0])
	}
	if steps[1].press == nil || *steps[1].press != input.LongPress || !steps[1].inject {
		t.Errorf("step 1 = %+v", steps[1])
	}
	if steps[2].knob == nil || *steps[2].knob != 1200 {
		t.Errorf("step 2 = %+v", steps[2])
	}
	if steps[3].wait != 250*time.Millisecond {
		t.Errorf("step 3 = %+v", steps[3])
	}
}

func TestParseScript_Errors(t *testing.T) {
	for _, script := range []string{"medium", "knob=-1", "knob=x", "wait=soon", "color=red"} {
		t.Run(script, func(t *testing.T) {
			if _, err := parseScript(script); !errors.Is(err, errBadScript) {
				t.Errorf("parseScript(%q) error = %v, want errBadScript", script, err)
			}
		})
	}
}

func TestHoldFor(t *testing.T) {
	timing := input.Timing{Debounce: 50 * time.Millisecond, LongPress: time.Second}
	if got := holdFor(input.ShortPress, timing); got >= timing.LongPress-timing.Debounce {
		t.Errorf("short hold %v too close to the threshold", got)
	}
	if got := holdFor(input.LongPress, timing); got <= timing.LongPress+timing.Debounce {
		t.Errorf("long hold %v too close to the threshold", got)
	}
}

func TestRenderFrame(t *testing.T) {
	got := renderFrame(hal.Frame{hal.White, hal.Black, {R: 10}})
	if got != "●○●" {
		t.Errorf("renderFrame() = %q", got)
	}
}

func TestPrinter_SkipsRepeatedFrames(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)
	p.frame(hal.Frame{hal.White, hal.Black})
	p.frame(hal.Frame{hal.White, hal.Black})
	p.frame(hal.Frame{hal.Black, hal.White})

	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("printed %d lines, want 2:\n%s", n, buf.String())
	}
}

func TestProbe_ClassifiesSimulatedPress(t *testing.T) {
	button := hal.NewSimButton()
	hw := &hal.Hardware{
		Board:  hal.BoardSim,
		Button: button,
		Knob:   hal.NewSimKnob(3000, 0, 4095),
		Sink:   hal.NewRecordingSink(3, 16),
	}
	debouncer, err := input.NewDebouncer(input.Timing{Debounce: 10 * time.Millisecond, LongPress: 200 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	go func() { _ = button.Press(ctx, 60*time.Millisecond) }()

	var buf bytes.Buffer
	stats := probe(ctx, hw, debouncer, smoothing.New(4), 2*time.Millisecond, 5*time.Millisecond, newPrinter(&buf))

	if stats.presses[input.ShortPress] != 1 || stats.presses[input.LongPress] != 0 {
		t.Errorf("presses = %v, want one short", stats.presses)
	}
	if !strings.Contains(buf.String(), "smoothed 3000") {
		t.Errorf("knob reading not printed:\n%s", buf.String())
	}
}

func TestCommandsRegisterFlags(t *testing.T) {
	sim := CreateSimulateCmd()
	for _, name := range []string{"script", "gap", "mode", "channels", "no-color"} {
		if sim.Flags().Lookup(name) == nil {
			t.Errorf("simulate is missing --%s", name)
		}
	}
	probeCmd := CreateProbeCmd()
	for _, name := range []string{"board", "button-pin", "output-pins", "duration", "window"} {
		if probeCmd.Flags().Lookup(name) == nil {
			t.Errorf("probe is missing --%s", name)
		}
	}
}
