package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/lightpilot/cmd"
	"github.com/smazurov/lightpilot/internal/api"
	"github.com/smazurov/lightpilot/internal/config"
	"github.com/smazurov/lightpilot/internal/controller"
	"github.com/smazurov/lightpilot/internal/events"
	"github.com/smazurov/lightpilot/internal/hal"
	"github.com/smazurov/lightpilot/internal/logging"
	"github.com/smazurov/lightpilot/internal/metrics/collectors"
	"github.com/smazurov/lightpilot/internal/metrics/exporters"
	"github.com/smazurov/lightpilot/internal/systemd"
	"github.com/smazurov/lightpilot/internal/version"
)

// shutdownTimeout bounds how long OnStop waits for the outputs to clear.
const shutdownTimeout = 5 * time.Second

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})

		hooks.OnStart(func() {
			defer close(stopped)
			if err := run(ctx, opts, logger); err != nil {
				logger.Error("lightpilot stopped", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			select {
			case <-stopped:
			case <-time.After(shutdownTimeout):
				logger.Error("Shutdown timed out", "timeout", shutdownTimeout)
			}
		})
	})

	cli.Root().Use = "lightpilot"
	cli.Root().Short = "Button and knob driven LED animation controller"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateSimulateCmd())
	cli.Root().AddCommand(cmd.CreateProbeCmd())

	cli.Run()
}

// run opens the board and drives it until ctx is done. Hardware failures
// and a task that will not stop are returned as errors.
func run(ctx context.Context, opts *Options, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	halCfg, err := opts.halConfig()
	if err != nil {
		return fmt.Errorf("hardware config: %w", err)
	}
	hw, err := hal.Open(halCfg, logging.GetLogger("hal"))
	if err != nil {
		return fmt.Errorf("hardware initialisation: %w", err)
	}
	defer func() {
		if closeErr := hw.Close(); closeErr != nil {
			logger.Warn("Failed to release hardware", "error", closeErr)
		}
	}()

	ctrlOpts, err := opts.controllerOptions(hw)
	if err != nil {
		return err
	}
	eventBus := events.New()
	ctrlOpts.Bus = eventBus
	ctrl, err := controller.New(ctrlOpts)
	if err != nil {
		return err
	}

	// The [tuning] table is applied once now and again on every change
	if tuning, tuneErr := config.LoadTuning(opts.Config); tuneErr == nil {
		if applyErr := ctrl.ApplyTuning(tuning); applyErr != nil {
			logger.Warn("Ignoring invalid tuning", "path", opts.Config, "error", applyErr)
		}
	} else if !errors.Is(tuneErr, fs.ErrNotExist) {
		logger.Warn("Failed to load tuning", "path", opts.Config, "error", tuneErr)
	}

	watcher := config.NewConfigWatcher(
		opts.Config,
		config.LoadTuning,
		logging.GetLogger("config"),
		config.WithErrorHandler[config.Tuning](func(err error) {
			eventBus.Publish(events.TuningReloadedEvent{
				Path:      opts.Config,
				Error:     err.Error(),
				Timestamp: time.Now().Format(time.RFC3339Nano),
			})
		}),
	)
	watcher.OnReload(ctrl.ReloadTuning(opts.Config))
	if watchErr := watcher.Start(ctx); watchErr != nil {
		logger.Warn("Failed to start config watcher, hot-reload disabled", "error", watchErr)
	} else {
		defer func() { _ = watcher.Stop() }()
	}

	if opts.FeaturesThermal {
		thermal := collectors.NewThermalCollector()
		if startErr := thermal.Start(ctx); startErr == nil {
			defer func() { _ = thermal.Stop() }()
		}
	}

	serveErr := make(chan error, 1)
	if opts.FeaturesAPI {
		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Controller:   ctrl,
			EventBus:     eventBus,
		}
		if opts.FeaturesMetrics {
			apiOpts.PrometheusHandler = exporters.HTTPHandler()
		}
		server := api.NewServer(apiOpts)

		go func() {
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("http server: %w", startErr)
				cancel()
			}
		}()
		defer func() {
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
		}()
	}

	notifier := systemd.NewNotifier(logger)
	unsubscribe := eventBus.Subscribe(func(e events.StateChangedEvent) {
		if e.LedsOff {
			notifier.Status("LEDs off")
		} else {
			notifier.Status("mode " + e.Mode)
		}
	})
	defer unsubscribe()
	go notifier.Watchdog(ctx)
	notifier.Ready()

	logger.Info("lightpilot running",
		"version", version.String(),
		"board", hw.Board,
		"config", opts.Config)

	runErr := ctrl.Run(ctx)
	notifier.Stopping()
	select {
	case err := <-serveErr:
		return errors.Join(err, runErr)
	default:
		return runErr
	}
}
