package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/svitlo/core/factory"
	coremetrics "github.com/kilianp07/svitlo/core/metrics"
)

// init registers the built-in sinks next to the core nop sink.
func init() {
	_ = coremetrics.RegisterStatusSink("prometheus", func(map[string]any) (coremetrics.StatusSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterStatusSink("influx", func(conf map[string]any) (coremetrics.StatusSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
