package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
)

// Subject layout for playback frames: vehicle.playback.<vehicleID>.
const (
	SubjectPrefix  = "vehicle.playback."
	SubjectAll     = SubjectPrefix + ">"
	PlaybackStream = "VEHICLE_PLAYBACK"
)

// Subject returns the subject frames for vehicleID are published on.
func Subject(vehicleID string) string {
	return SubjectPrefix + vehicleID
}

// Publisher implements ports.FramePublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Frames are only interesting while a replay is being watched.
	cfg := nats.StreamConfig{
		Name:      PlaybackStream,
		Subjects:  []string{SubjectAll},
		Retention: nats.InterestPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.MemoryStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishFrame publishes frame as JSON on the vehicle's subject.
func (p *Publisher) PublishFrame(ctx context.Context, vehicleID string, frame *domain.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(Subject(vehicleID), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection, e.g. for the WebSocket relay.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("vehicle-tracker"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
