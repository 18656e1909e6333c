package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var boardTemperature = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "board",
	Name:      "temperature_celsius",
	Help:      "Thermal zone temperature reported by the kernel",
}, []string{"zone", "type"})

// SetBoardTemperature sets the temperature of one thermal zone.
func SetBoardTemperature(zone, kind string, celsius float64) {
	boardTemperature.WithLabelValues(zone, kind).Set(celsius)
}

// DeleteBoardTemperature removes a zone that disappeared.
func DeleteBoardTemperature(zone, kind string) {
	boardTemperature.DeleteLabelValues(zone, kind)
}
