package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/svitlo/core/events"
	coremetrics "github.com/kilianp07/svitlo/core/metrics"
	"github.com/kilianp07/svitlo/infra/logger"
)

// InfluxConfig describes an InfluxDB v2 endpoint.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes status updates and polls to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A URL ending in the
// write path is accepted.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the instance and returns a NopSink when
// the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.StatusSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordStatus writes a power_status point.
func (s *InfluxSink) RecordStatus(ev events.StatusEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, statusPoint(ev))
}

// RecordPoll writes a schedule_poll point.
func (s *InfluxSink) RecordPoll(ev events.PollEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, pollPoint(ev))
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func statusPoint(ev events.StatusEvent) *write.Point {
	st := ev.Status
	p := write.NewPointWithMeasurement("power_status").
		AddTag("region", st.Region).
		AddTag("queue", st.Queue).
		AddTag("trigger", string(ev.Trigger)).
		AddField("on", st.IsOn()).
		AddField("slot", st.NowHalfHourIndex)
	if t, ok := st.NextOn(); ok {
		p = p.AddField("next_on_unix", t.Unix())
	}
	if t, ok := st.NextOff(); ok {
		p = p.AddField("next_off_unix", t.Unix())
	}
	return p.SetTime(ev.Time)
}

func pollPoint(ev events.PollEvent) *write.Point {
	p := write.NewPointWithMeasurement("schedule_poll").
		AddTag("region", ev.Region).
		AddTag("queue", ev.Queue).
		AddField("success", ev.Success).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		AddField("outages_today", ev.OutagesToday).
		AddField("outages_tomorrow", ev.OutagesTomorrow)
	if ev.Err != nil {
		p = p.AddField("error", ev.Err.Error())
	}
	return p.SetTime(ev.Time)
}
