package metrics

import "github.com/kilianp07/svitlo/core/factory"

// Config lists the sinks to build.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort is the listen address for /metrics, e.g. ":9100".
	// Empty disables the exporter.
	PrometheusPort string `json:"prometheus_port"`
}
