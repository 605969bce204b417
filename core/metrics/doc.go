// Package metrics defines the sinks that record status updates and poll
// outcomes. Implementations such as the Prometheus and InfluxDB sinks live
// in infra/metrics and register themselves with RegisterStatusSink; several
// configured sinks are combined into a MultiSink.
package metrics
