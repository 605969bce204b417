package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/svitlo/core/events"
	coremetrics "github.com/kilianp07/svitlo/core/metrics"
)

// PromSink exposes the current status and poll outcomes as Prometheus
// metrics.
type PromSink struct {
	powerOn      prometheus.Gauge
	slot         prometheus.Gauge
	nextOn       prometheus.Gauge
	nextOff      prometheus.Gauge
	outages      *prometheus.GaugeVec
	polls        *prometheus.CounterVec
	updates      *prometheus.CounterVec
	pollDuration prometheus.Histogram
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the metrics on reg. A nil registerer
// defaults to the global one. Collectors already present on reg are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.powerOn, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "svitlo_power_on",
		Help: "1 when the schedule says power is on right now, 0 otherwise",
	})); err != nil {
		return nil, err
	}
	if s.slot, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "svitlo_current_slot",
		Help: "Current half-hour slot index (0-47)",
	})); err != nil {
		return nil, err
	}
	if s.nextOn, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "svitlo_next_on_timestamp_seconds",
		Help: "Unix time of the next power-on transition, 0 when unknown",
	})); err != nil {
		return nil, err
	}
	if s.nextOff, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "svitlo_next_off_timestamp_seconds",
		Help: "Unix time of the next power-off transition, 0 when unknown",
	})); err != nil {
		return nil, err
	}
	if s.outages, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "svitlo_outage_intervals",
		Help: "Number of outage windows in the published schedule",
	}, []string{"day"})); err != nil {
		return nil, err
	}
	if s.polls, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "svitlo_polls_total",
		Help: "Schedule polls by result",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if s.updates, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "svitlo_status_updates_total",
		Help: "Published status updates by trigger",
	}, []string{"trigger"})); err != nil {
		return nil, err
	}
	if s.pollDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "svitlo_poll_duration_seconds",
		Help:    "Time spent fetching and parsing the schedule",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordStatus updates the gauges from the status and counts the update.
func (s *PromSink) RecordStatus(ev events.StatusEvent) error {
	st := ev.Status
	if st.IsOn() {
		s.powerOn.Set(1)
	} else {
		s.powerOn.Set(0)
	}
	s.slot.Set(float64(st.NowHalfHourIndex))
	s.nextOn.Set(0)
	if t, ok := st.NextOn(); ok {
		s.nextOn.Set(float64(t.Unix()))
	}
	s.nextOff.Set(0)
	if t, ok := st.NextOff(); ok {
		s.nextOff.Set(float64(t.Unix()))
	}
	s.updates.WithLabelValues(string(ev.Trigger)).Inc()
	return nil
}

// RecordPoll counts the poll and, on success, records its duration and
// the outage window counts.
func (s *PromSink) RecordPoll(ev events.PollEvent) error {
	if !ev.Success {
		s.polls.WithLabelValues("error").Inc()
		return nil
	}
	s.polls.WithLabelValues("success").Inc()
	s.pollDuration.Observe(ev.Duration.Seconds())
	s.outages.WithLabelValues("today").Set(float64(ev.OutagesToday))
	s.outages.WithLabelValues("tomorrow").Set(float64(ev.OutagesTomorrow))
	return nil
}

var (
	_ coremetrics.StatusSink   = (*PromSink)(nil)
	_ coremetrics.PollRecorder = (*PromSink)(nil)
)
