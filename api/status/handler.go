// Package status serves the current status and the outage calendar over
// HTTP and streams status updates over a websocket.
package status

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kilianp07/svitlo/core/events"
	"github.com/kilianp07/svitlo/core/interval"
	"github.com/kilianp07/svitlo/core/logger"
	corestatus "github.com/kilianp07/svitlo/core/status"
	"github.com/kilianp07/svitlo/internal/eventbus"
)

// Provider exposes the cached schedule.
type Provider interface {
	Latest() (corestatus.Status, bool)
	Outages() []interval.Outage
	Location() *time.Location
	Title() string
	Now() time.Time
}

// NewRouter mounts every endpoint on a fresh mux.
func NewRouter(p Provider, bus *eventbus.TypedBus[events.StatusEvent], log logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop{}
	}
	mux := http.NewServeMux()
	mux.Handle("/api/status", NewStatusHandler(p))
	mux.Handle("/api/status/ws", NewStreamHandler(p, bus, log))
	mux.Handle("/api/calendar", NewCalendarHandler(p))
	mux.Handle("/api/calendar/current", NewCurrentEventHandler(p))
	return mux
}

// NewStatusHandler serves GET /api/status.
func NewStatusHandler(p Provider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		st, ok := p.Latest()
		if !ok {
			http.Error(w, "schedule not loaded yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, st)
	})
}

// NewCalendarHandler serves GET /api/calendar?start=&end=. Bounds are
// RFC 3339 and default to the current local day and the next one.
func NewCalendarHandler(p Provider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		loc := p.Location()
		now := p.Now().In(loc)
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		end := start.AddDate(0, 0, 2)
		var err error
		if v := r.URL.Query().Get("start"); v != "" {
			if start, err = time.Parse(time.RFC3339, v); err != nil {
				http.Error(w, "invalid start: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		if v := r.URL.Query().Get("end"); v != "" {
			if end, err = time.Parse(time.RFC3339, v); err != nil {
				http.Error(w, "invalid end: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		if !end.After(start) {
			http.Error(w, "end must be after start", http.StatusBadRequest)
			return
		}
		evs := interval.Events(interval.Query(p.Outages(), start, end), p.Title(), loc)
		writeJSON(w, evs)
	})
}

// NewCurrentEventHandler serves GET /api/calendar/current: the outage in
// progress or the next one. No outage ahead yields 204.
func NewCurrentEventHandler(p Provider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		o, ok := interval.Current(p.Outages(), p.Now())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, interval.NewEvent(o, p.Title(), p.Location()))
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
