package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/vehicle-tracker/internal/adapters/nats"
	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsMessage is sent from client to subscribe/unsubscribe to a vehicle's frames.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Vehicle string `json:"vehicle"` // vehicle ID filter ("" = all)
}

// wsConn serialises writes to a websocket connection.
type wsConn struct {
	mu sync.Mutex
	c  *websocket.Conn
}

func (w *wsConn) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, data)
}

func (w *wsConn) write(kind int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteMessage(kind, data)
}

// keepAlive pings until done is closed or a write fails.
func (w *wsConn) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// WebSocketHandler relays playback frames published on NATS to connected
// clients. Clients start subscribed to every vehicle and may narrow with
// {"action":"subscribe","vehicle":"vehicle-1"}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		logger := slog.Default().With("remote_addr", remoteAddr, "ws", "relay")
		logger.Info("ws client connected")

		w := &wsConn{c: c}
		if nc == nil {
			_ = w.writeJSON(map[string]string{"error": "frame relay not configured"})
			return
		}

		relay := func(msg *nats.Msg) {
			if err := w.write(websocket.TextMessage, msg.Data); err == nil {
				metrics.FramesPublished.WithLabelValues("ws_relay").Inc()
			}
		}

		subs := make(map[string]*nats.Subscription) // subject -> subscription

		// Auto-subscribe to all vehicles by default
		sub, err := nc.Subscribe(natsadapter.SubjectAll, relay)
		if err != nil {
			logger.Error("ws default subscribe failed", "error", err)
			return
		}
		subs[natsadapter.SubjectAll] = sub

		done := make(chan struct{})
		go w.keepAlive(done)

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = w.writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject := natsadapter.SubjectAll
			if m.Vehicle != "" {
				subject = natsadapter.Subject(m.Vehicle)
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = w.writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = w.writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = w.writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = w.writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = w.writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = w.writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		logger.Info("ws client disconnected")
	}
}

// PlaybackSocketHandler runs one playback session per connection and pushes
// every frame to the client as JSON. Closing the connection tears the
// session down; no frame is written after that.
func PlaybackSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		w := &wsConn{c: c}
		if deps.Playback == nil {
			_ = w.writeJSON(APIError{Status: 503, Code: "unavailable", Message: "playback not configured"})
			return
		}

		session := deps.Playback.NewSession(func(f domain.Frame) {
			if err := w.writeJSON(f); err == nil {
				metrics.FramesPublished.WithLabelValues("ws_playback").Inc()
			}
		})
		logger := slog.Default().With("remote_addr", c.RemoteAddr().String(), "session_id", session.SessionID())
		metrics.PlaybackSessions.Inc()
		defer metrics.PlaybackSessions.Dec()
		defer session.Stop()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := session.Load(ctx); err != nil {
			logger.Warn("playback route fetch failed", "error", err)
			_ = w.writeJSON(APIError{Status: 502, Code: "transport_error", Message: "vehicle location source unavailable"})
			return
		}
		if err := session.Start(ctx); err != nil {
			logger.Error("playback start failed", "error", err)
			return
		}
		logger.Info("playback session opened")

		done := make(chan struct{})
		go w.keepAlive(done)
		defer close(done)

		// Client messages are ignored; reading detects the close.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		logger.Info("playback session closed", "cursor", session.Cursor())
	}
}
