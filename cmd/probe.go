package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/input"
	"github.com/smazurov/lightpilot/internal/logging"
	"github.com/smazurov/lightpilot/internal/smoothing"
)

// probeStats summarises a probe run.
type probeStats struct {
	buttonErrors int
	knobErrors   int
	presses      map[input.PressKind]int
}

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var (
		duration       time.Duration
		buttonInterval time.Duration
		knobInterval   time.Duration
		debounceMs     int
		longPressMs    int
		window         int
		logLevel       string
		noColor        bool
	)
	board := hal.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Sample the button and knob and print what the controller would see",
		Long: `Opens the board inputs without starting any animation. Every classified press is printed ` +
			`with its hold time, and the knob is printed raw and smoothed whenever it moves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				color.NoColor = true
			}
			logging.Initialize(logging.Config{Level: logLevel, Format: "text"})

			debouncer, err := input.NewDebouncer(input.Timing{
				Debounce:  time.Duration(debounceMs) * time.Millisecond,
				LongPress: time.Duration(longPressMs) * time.Millisecond,
			})
			if err != nil {
				return err
			}

			hw, err := hal.Open(board, logging.GetLogger("hal"))
			if err != nil {
				return err
			}
			defer hw.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			out := newPrinter(cmd.OutOrStdout())
			out.line("probing %s board: button every %v, knob every %v (max %d)",
				hw.Board, buttonInterval, knobInterval, hw.Knob.Max())

			stats := probe(ctx, hw, debouncer, smoothing.New(window), buttonInterval, knobInterval, out)

			out.line("%d short, %d long presses; %d button and %d knob read errors",
				stats.presses[input.ShortPress], stats.presses[input.LongPress],
				stats.buttonErrors, stats.knobErrors)
			return nil
		},
	}

	addBoardFlags(cmd.Flags(), &board)
	cmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "How long to sample, 0 runs until interrupted")
	cmd.Flags().DurationVar(&buttonInterval, "button-interval", 20*time.Millisecond, "Button sampling interval")
	cmd.Flags().DurationVar(&knobInterval, "knob-interval", 50*time.Millisecond, "Knob sampling interval")
	cmd.Flags().IntVar(&debounceMs, "debounce-ms", int(input.DefaultDebounce/time.Millisecond), "Debounce window")
	cmd.Flags().IntVar(&longPressMs, "long-press-ms", int(input.DefaultLongPress/time.Millisecond), "Long press threshold")
	cmd.Flags().IntVar(&window, "window", smoothing.DefaultWindow, "Samples in the knob moving average")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Logging level")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	return cmd
}

// probe samples both inputs on their own tickers until ctx is done. The
// knob is printed when the smoothed value moves by one percent of range.
func probe(ctx context.Context, hw *hal.Hardware, debouncer *input.Debouncer, smoother *smoothing.Smoother,
	buttonInterval, knobInterval time.Duration, out *printer) probeStats {
	stats := probeStats{presses: make(map[input.PressKind]int)}

	buttonTick := time.NewTicker(buttonInterval)
	defer buttonTick.Stop()
	knobTick := time.NewTicker(knobInterval)
	defer knobTick.Stop()

	step := max(hw.Knob.Max()/100, 1)
	printed := -step - 1

	for {
		select {
		case <-ctx.Done():
			return stats
		case now := <-buttonTick.C:
			level, err := hw.Button.Read()
			if err != nil {
				stats.buttonErrors++
				continue
			}
			if ev, ok := debouncer.Sample(level, now); ok {
				stats.presses[ev.Kind]++
				out.line("%s %s press, held %dms", pressColor.Sprint("▶"), ev.Kind, ev.PressDurationMs)
			}
		case <-knobTick.C:
			raw, err := hw.Knob.Read()
			if err != nil {
				stats.knobErrors++
				continue
			}
			smoothed := smoother.Add(raw)
			if d := smoothed - printed; d >= step || d <= -step {
				printed = smoothed
				out.line("knob raw %4d smoothed %4d (%d/%d samples)", raw, smoothed, smoother.Len(), smoother.Cap())
			}
		}
	}
}
