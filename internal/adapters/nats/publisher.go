package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

const (
	// StreamGeometryEvents holds geometry change events.
	StreamGeometryEvents = "GEOMETRY_EVENTS"
	// SubjectGeometrySaved is the wildcard for saved-geometry events; each
	// event is published on geometry.saved.<location id>.
	SubjectGeometrySaved = "geometry.saved.>"
)

// GeometrySavedSubject returns the subject for one location, or the
// wildcard when locationID is empty.
func GeometrySavedSubject(locationID string) string {
	if locationID == "" {
		return SubjectGeometrySaved
	}
	return "geometry.saved." + locationID
}

func connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the geometry stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamGeometryEvents,
		Subjects:  []string{"geometry.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, update it instead.
		if _, err := js.UpdateStream(cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishGeometrySaved publishes the event on geometry.saved.<location id>.
func (p *Publisher) PublishGeometrySaved(ctx context.Context, event *domain.GeometrySavedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(GeometrySavedSubject(event.LocationID), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return connect(url)
}
