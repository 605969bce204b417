// Package infra holds the adapters around the core packages: the schedule
// page fetcher, the MQTT status publisher, the Prometheus and InfluxDB
// sinks and the zerolog logger.
package infra
