package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
)

// Subscriber implements ports.FrameSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeFrames delivers frames for vehicleID ("" or "*" for all vehicles)
// to handler. A handler error or undecodable payload naks the message.
func (s *Subscriber) SubscribeFrames(ctx context.Context, vehicleID string, handler func(ctx context.Context, frame *domain.Frame) error) error {
	subject := SubjectAll
	if vehicleID != "" && vehicleID != "*" {
		subject = Subject(vehicleID)
	}
	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		var frame domain.Frame
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &frame); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
