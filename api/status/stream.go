package status

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kilianp07/svitlo/core/events"
	"github.com/kilianp07/svitlo/core/logger"
	corestatus "github.com/kilianp07/svitlo/core/status"
	"github.com/kilianp07/svitlo/internal/eventbus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 10
)

// Message is one websocket frame.
type Message struct {
	Type    string             `json:"type"`
	Trigger events.Trigger     `json:"trigger,omitempty"`
	Data    *corestatus.Status `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewStreamHandler serves GET /api/status/ws. The current status is sent on
// connect, then every update published on bus.
func NewStreamHandler(p Provider, bus *eventbus.TypedBus[events.StatusEvent], log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("ws upgrade failed: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()

		conn.SetReadLimit(maxMsgSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		sub := bus.Subscribe()
		defer bus.Unsubscribe(sub)
		if st, ok := p.Latest(); ok {
			// the replayed event is older than what Latest just computed
			select {
			case <-sub:
			default:
			}
			if err := send(conn, Message{Type: "status", Data: &st}); err != nil {
				log.Debugf("ws initial write failed: %v", err)
				return
			}
		}

		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()
		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case ev, ok := <-sub:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
					return
				}
				st := ev.Status
				if err := send(conn, Message{Type: "status", Trigger: ev.Trigger, Data: &st}); err != nil {
					log.Debugf("ws write failed: %v", err)
					return
				}
			}
		}
	})
}

func send(conn *websocket.Conn, m Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(m)
}
