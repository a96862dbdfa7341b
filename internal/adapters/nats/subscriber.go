package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

// Subscriber consumes geometry events from JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeGeometrySaved delivers saved-geometry events to handler. A
// non-empty durable name resumes from the consumer's last ack. Messages
// the handler fails on are redelivered up to three times.
func (s *Subscriber) SubscribeGeometrySaved(ctx context.Context, durable string, handler func(ctx context.Context, e *domain.GeometrySavedEvent) error) error {
	opts := []nats.SubOpt{nats.ManualAck(), nats.MaxDeliver(3)}
	if durable != "" {
		opts = append(opts, nats.Durable(durable))
	} else {
		opts = append(opts, nats.DeliverNew())
	}

	sub, err := s.js.Subscribe(SubjectGeometrySaved, func(msg *nats.Msg) {
		var e domain.GeometrySavedEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &e); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}, opts...)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes all and drains the connection.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
