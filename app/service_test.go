package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/svitlo/config"
	"github.com/kilianp07/svitlo/core/factory"
	"github.com/kilianp07/svitlo/infra/source"
)

func schedulePage(queue string, day time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><div id="chergra%s"><table class="graph"><tbody><tr><td>%s</td></tr><tr><td>q</td>`, queue, day.Format("02.01.2006"))
	for h := 0; h < 24; h++ {
		cls := "on"
		if h%6 == 0 {
			cls = "off"
		}
		fmt.Fprintf(&b, `<td class="%s"></td>`, cls)
	}
	b.WriteString(`</tr></tbody></table></div></body></html>`)
	return b.String()
}

func TestServiceRun(t *testing.T) {
	cfg := &config.Config{
		Source:   source.Config{Region: "kiev", Queue: "4.1"},
		Timezone: "UTC",
	}
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(schedulePage("4.1", time.Now().UTC())))
	}))
	defer srv.Close()
	cfg.Source.BaseURL = srv.URL
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	svc, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, ok := svc.Coordinator.Latest()
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	st, _ := svc.Coordinator.Latest()
	assert.Equal(t, srv.URL+"/kiev", st.Source)
	assert.Len(t, svc.Coordinator.Outages(), 4)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestServiceRejectsUnknownSink(t *testing.T) {
	cfg := &config.Config{Source: source.Config{Region: "kiev", Queue: "1"}}
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "graphite"}}
	cfg.SetDefaults()
	_, err := New(cfg)
	assert.ErrorContains(t, err, "unknown module type")
}
