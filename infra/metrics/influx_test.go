package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/svitlo/core/events"
	coremetrics "github.com/kilianp07/svitlo/core/metrics"
)

type influxRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *influxRecorder) handler(health int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/health":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(health)
			if health == http.StatusOK {
				_, _ = io.WriteString(w, `{"name":"influxdb","status":"pass","message":"ready"}`)
			} else {
				_, _ = io.WriteString(w, `{"name":"influxdb","status":"fail","message":"down"}`)
			}
		case "/api/v2/write":
			data, _ := io.ReadAll(req.Body)
			r.mu.Lock()
			r.bodies = append(r.bodies, string(data))
			r.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (r *influxRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bodies) == 0 {
		return ""
	}
	return strings.TrimSpace(r.bodies[len(r.bodies)-1])
}

func TestInfluxSinkRecordStatus(t *testing.T) {
	rec := &influxRecorder{}
	srv := httptest.NewServer(rec.handler(http.StatusOK))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	require.NoError(t, sink.RecordStatus(sampleStatus()))

	body := rec.last()
	assert.True(t, strings.HasPrefix(body, "power_status,"), body)
	for _, part := range []string{"region=kyiv", "queue=4.1", "trigger=precise", "on=true", "slot=20i", "next_off_unix=1791964800i"} {
		assert.Contains(t, body, part)
	}
	assert.NotContains(t, body, "next_on_unix")
	assert.True(t, strings.HasSuffix(body, " 1791962100000000000"), body)
}

func TestInfluxSinkRecordPoll(t *testing.T) {
	rec := &influxRecorder{}
	srv := httptest.NewServer(rec.handler(http.StatusOK))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Org: "org", Bucket: "bucket"})
	defer sink.Close()
	require.NoError(t, sink.RecordPoll(events.PollEvent{
		Region: "kyiv", Queue: "4.1", Err: errors.New("status 503"),
		Duration: 1500 * time.Millisecond, Time: eventTime,
	}))

	body := rec.last()
	assert.True(t, strings.HasPrefix(body, "schedule_poll,"), body)
	for _, part := range []string{"success=false", "duration_ms=1500i", `error="status 503"`} {
		assert.Contains(t, body, part)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	down := httptest.NewServer((&influxRecorder{}).handler(http.StatusServiceUnavailable))
	defer down.Close()
	assert.IsType(t, coremetrics.NopSink{}, NewInfluxSinkWithFallback(InfluxConfig{URL: down.URL}))

	up := httptest.NewServer((&influxRecorder{}).handler(http.StatusOK))
	defer up.Close()
	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: up.URL, Org: "org", Bucket: "bucket"})
	influx, ok := sink.(*InfluxSink)
	require.True(t, ok)
	influx.Close()
}
