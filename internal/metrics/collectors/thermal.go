// Package collectors polls board sensors that are not part of the control
// loop and publishes them as metrics.
package collectors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/lightpilot/internal/logging"
	"github.com/smazurov/lightpilot/internal/metrics"
)

const (
	defaultThermalRoot     = "/sys/class/thermal"
	defaultThermalInterval = 10 * time.Second
)

// ThermalCollector reads /sys/class/thermal/thermal_zone*/temp.
type ThermalCollector struct {
	logger   *slog.Logger
	root     string
	interval time.Duration
	seen     map[string]string
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewThermalCollector creates a collector for the kernel thermal zones.
func NewThermalCollector() *ThermalCollector {
	return &ThermalCollector{
		logger:   logging.GetLogger("hal"),
		root:     defaultThermalRoot,
		interval: defaultThermalInterval,
		seen:     make(map[string]string),
	}
}

// Start begins polling. Boards without thermal zones are not an error; the
// collector logs once and keeps polling in case zones appear.
func (c *ThermalCollector) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run()
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (c *ThermalCollector) Stop() error {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	return nil
}

func (c *ThermalCollector) run() {
	defer close(c.done)
	c.logger.Info("Starting thermal collection", "path", c.root, "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	if n := c.collect(); n == 0 {
		c.logger.Info("No thermal zones found", "path", c.root)
	}
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

type thermalZone struct {
	Name    string
	Type    string
	Celsius float64
}

// collect publishes every readable zone and returns how many it found.
func (c *ThermalCollector) collect() int {
	zones, err := readThermalZones(c.root)
	if err != nil {
		c.logger.Warn("Failed to read thermal zones", "error", err)
		return 0
	}

	current := make(map[string]string, len(zones))
	for _, z := range zones {
		metrics.SetBoardTemperature(z.Name, z.Type, z.Celsius)
		current[z.Name] = z.Type
	}
	for name, kind := range c.seen {
		if current[name] != kind {
			metrics.DeleteBoardTemperature(name, kind)
		}
	}
	c.seen = current
	return len(zones)
}

func readThermalZones(root string) ([]thermalZone, error) {
	dirs, err := filepath.Glob(filepath.Join(root, "thermal_zone*"))
	if err != nil {
		return nil, err
	}

	zones := make([]thermalZone, 0, len(dirs))
	for _, dir := range dirs {
		raw, err := os.ReadFile(filepath.Join(dir, "temp"))
		if err != nil {
			continue
		}
		celsius, err := parseMilliCelsius(string(raw))
		if err != nil {
			continue
		}
		kind := "unknown"
		if t, err := os.ReadFile(filepath.Join(dir, "type")); err == nil {
			kind = strings.TrimSpace(string(t))
		}
		zones = append(zones, thermalZone{
			Name:    filepath.Base(dir),
			Type:    kind,
			Celsius: celsius,
		})
	}
	return zones, nil
}

// parseMilliCelsius converts the kernel's millidegree reading.
func parseMilliCelsius(s string) (float64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid temperature %q: %w", strings.TrimSpace(s), err)
	}
	return float64(v) / 1000, nil
}
