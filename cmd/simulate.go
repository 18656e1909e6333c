package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smazurov/lightpilot/internal/animation"
	"github.com/smazurov/lightpilot/internal/controller"
	"github.com/smazurov/lightpilot/internal/events"
	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/input"
	"github.com/smazurov/lightpilot/internal/logging"
)

var errBadScript = errors.New("invalid script step")

// scriptStep is one action of a simulate script.
type scriptStep struct {
	press  *input.PressKind
	inject bool // skip the button and debouncer
	knob   *int
	wait   time.Duration
}

// parseScript reads comma-separated steps:
//
//	short, long      press the simulated button
//	short!, long!    inject the press directly
//	knob=N           move the knob
//	wait=DURATION    pause
func parseScript(s string) ([]scriptStep, error) {
	var steps []scriptStep
	for _, raw := range strings.Split(s, ",") {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			continue
		}
		key, value, hasValue := strings.Cut(tok, "=")
		switch {
		case hasValue && key == "knob":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: %q", errBadScript, tok)
			}
			steps = append(steps, scriptStep{knob: &n})
		case hasValue && key == "wait":
			d, err := time.ParseDuration(value)
			if err != nil || d < 0 {
				return nil, fmt.Errorf("%w: %q", errBadScript, tok)
			}
			steps = append(steps, scriptStep{wait: d})
		case !hasValue:
			inject := strings.HasSuffix(tok, "!")
			kind, err := input.ParsePressKind(strings.TrimSuffix(tok, "!"))
			if err != nil {
				return nil, fmt.Errorf("%w: %q", errBadScript, tok)
			}
			steps = append(steps, scriptStep{press: &kind, inject: inject})
		default:
			return nil, fmt.Errorf("%w: %q", errBadScript, tok)
		}
	}
	return steps, nil
}

// CreateSimulateCmd creates the simulate command.
func CreateSimulateCmd() *cobra.Command {
	var (
		script      string
		gap         time.Duration
		defaultMode string
		debounceMs  int
		longPressMs int
		logLevel    string
		noColor     bool
	)
	board := hal.DefaultConfig()
	board.Board = hal.BoardSim

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the controller on the simulated board",
		Long: `Runs the full controller against a simulated button, knob and LEDs and prints every ` +
			`frame that changes. Presses in the script go through the debouncer unless suffixed with "!".`,
		Example: `  lightpilot simulate --script "short,short,knob=4000,wait=2s,long,long"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, err := parseScript(script)
			if err != nil {
				return err
			}
			mode, err := animation.ParseMode(defaultMode)
			if err != nil {
				return err
			}
			if noColor {
				color.NoColor = true
			}

			logging.Initialize(logging.Config{Level: logLevel, Format: "text"})

			board.Board = hal.BoardSim
			hw, err := hal.Open(board, logging.GetLogger("hal"))
			if err != nil {
				return err
			}
			defer hw.Close()
			button, okButton := hw.Button.(*hal.SimButton)
			knob, okKnob := hw.Knob.(*hal.SimKnob)
			sink, okSink := hw.Sink.(*hal.RecordingSink)
			if !okButton || !okKnob || !okSink {
				return fmt.Errorf("simulated board returned unexpected devices")
			}

			timing := input.Timing{
				Debounce:  time.Duration(debounceMs) * time.Millisecond,
				LongPress: time.Duration(longPressMs) * time.Millisecond,
			}
			ctrl, err := controller.New(controller.Options{
				Hardware:    hw,
				Bus:         events.New(),
				Timing:      timing,
				DefaultMode: mode,
			})
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			sink.OnApply(out.frame)
			defer ctrl.Bus().Subscribe(func(e events.PressEvent) {
				out.line("%s %s press (%dms, %s)", pressColor.Sprint("▶"), e.Kind, e.DurationMs, e.Source)
			})()
			defer ctrl.Bus().Subscribe(func(e events.StateChangedEvent) {
				if e.LedsOff {
					out.line("%s leds off", stateColor.Sprint("■"))
					return
				}
				out.line("%s mode %s", stateColor.Sprint("■"), e.Mode)
			})()
			defer ctrl.Bus().Subscribe(func(e events.EventDroppedEvent) {
				out.line("%s dropped %s press (total %d)", warnColor.Sprint("!"), e.Kind, e.Total)
			})()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			runErr := make(chan error, 1)
			go func() { runErr <- ctrl.Run(ctx) }()

			if err := playScript(ctx, steps, gap, timing, button, knob, ctrl); err != nil && !errors.Is(err, context.Canceled) {
				cancel()
				<-runErr
				return err
			}

			cancel()
			return <-runErr
		},
	}

	cmd.Flags().StringVar(&script, "script", "short,short,short,long,long", "Comma-separated steps (short, long, short!, long!, knob=N, wait=DURATION)")
	cmd.Flags().DurationVar(&gap, "gap", 1500*time.Millisecond, "Pause after every step")
	cmd.Flags().StringVar(&defaultMode, "mode", animation.Sweep.String(), "Mode at startup and after waking")
	cmd.Flags().IntVar(&debounceMs, "debounce-ms", int(input.DefaultDebounce/time.Millisecond), "Debounce window")
	cmd.Flags().IntVar(&longPressMs, "long-press-ms", int(input.DefaultLongPress/time.Millisecond), "Long press threshold")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Logging level")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	cmd.Flags().IntVar(&board.SimChannels, "channels", board.SimChannels, "Number of simulated LEDs")
	cmd.Flags().IntVar(&board.SimKnob, "knob", board.SimKnob, "Initial knob value")
	cmd.Flags().IntVar(&board.SimNoise, "noise", board.SimNoise, "Knob jitter in counts")

	return cmd
}

// playScript performs steps in order, pausing gap after each.
func playScript(ctx context.Context, steps []scriptStep, gap time.Duration, timing input.Timing,
	button *hal.SimButton, knob *hal.SimKnob, ctrl *controller.Controller) error {
	for _, step := range steps {
		var err error
		switch {
		case step.press != nil && step.inject:
			ctrl.Press(*step.press, input.SourceCLI)
		case step.press != nil:
			err = button.Press(ctx, holdFor(*step.press, timing))
		case step.knob != nil:
			knob.Set(*step.knob)
		case step.wait > 0:
			err = sleep(ctx, step.wait)
		}
		if err != nil {
			return err
		}
		if err := sleep(ctx, gap); err != nil {
			return err
		}
	}
	return nil
}

// holdFor picks a hold time that lands clearly on one side of the
// long press threshold.
func holdFor(kind input.PressKind, timing input.Timing) time.Duration {
	if kind == input.LongPress {
		return timing.LongPress + 4*timing.Debounce + 100*time.Millisecond
	}
	return min(3*timing.Debounce+100*time.Millisecond, (timing.LongPress+timing.Debounce)/2)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
