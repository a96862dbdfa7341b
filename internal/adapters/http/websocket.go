package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/geodraw/internal/adapters/nats"
	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsRequest is sent by the client to follow or stop following locations.
type wsRequest struct {
	Action     string `json:"action"`      // "subscribe" | "unsubscribe"
	LocationID string `json:"location_id"` // "" = all locations
}

// wsEnvelope is every frame the server writes.
type wsEnvelope struct {
	Kind    string                     `json:"kind"` // "geometry_saved" | "status" | "error"
	Subject string                     `json:"subject,omitempty"`
	Message string                     `json:"message,omitempty"`
	Event   *domain.GeometrySavedEvent `json:"event,omitempty"`
}

// locationFeed is one websocket client and the NATS subscriptions it holds.
type locationFeed struct {
	conn   *websocket.Conn
	nc     *nats.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	subs    map[string]*nats.Subscription
}

func (f *locationFeed) send(env wsEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return f.conn.WriteMessage(websocket.TextMessage, data)
}

func (f *locationFeed) status(subject, msg string) {
	_ = f.send(wsEnvelope{Kind: "status", Subject: subject, Message: msg})
}

func (f *locationFeed) fail(msg string) {
	_ = f.send(wsEnvelope{Kind: "error", Message: msg})
}

// relay forwards one saved-geometry event. Payloads that do not decode are
// dropped; they were not produced by this service.
func (f *locationFeed) relay(msg *nats.Msg) {
	var ev domain.GeometrySavedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		f.logger.Warn("ws drop undecodable event", "subject", msg.Subject, "error", err)
		return
	}
	_ = f.send(wsEnvelope{Kind: "geometry_saved", Subject: msg.Subject, Event: &ev})
}

func (f *locationFeed) subscribe(locationID string) {
	subject := natsadapter.GeometrySavedSubject(locationID)
	if _, ok := f.subs[subject]; ok {
		f.status(subject, "already subscribed")
		return
	}
	sub, err := f.nc.Subscribe(subject, f.relay)
	if err != nil {
		f.fail("subscribe failed: " + err.Error())
		return
	}
	f.subs[subject] = sub

	// Following one location replaces the initial catch-all.
	all := natsadapter.GeometrySavedSubject("")
	if catchAll, ok := f.subs[all]; ok && subject != all {
		_ = catchAll.Unsubscribe()
		delete(f.subs, all)
	}
	f.status(subject, "subscribed")
}

func (f *locationFeed) unsubscribe(locationID string) {
	subject := natsadapter.GeometrySavedSubject(locationID)
	sub, ok := f.subs[subject]
	if !ok {
		f.fail("not subscribed to " + subject)
		return
	}
	_ = sub.Unsubscribe()
	delete(f.subs, subject)
	f.status(subject, "unsubscribed")
}

func (f *locationFeed) closeAll() {
	for subject, sub := range f.subs {
		_ = sub.Unsubscribe()
		delete(f.subs, subject)
	}
}

// keepAlive pings the client until done is closed or a write fails.
func (f *locationFeed) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.writeMu.Lock()
			err := f.conn.WriteMessage(websocket.PingMessage, nil)
			f.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// WebSocketHandler relays saved-geometry events from NATS so that other
// viewers can refresh a location someone else just edited.
// Clients send JSON: {"action":"subscribe","location_id":"<uuid>"}.
// Every connection starts subscribed to all locations; the first
// subscription to a single location narrows it.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		feed := &locationFeed{
			conn:   c,
			nc:     nc,
			logger: slog.Default().With("remote_addr", c.RemoteAddr().String()),
			subs:   make(map[string]*nats.Subscription),
		}

		if nc == nil {
			feed.fail("event stream not available")
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		feed.logger.Info("ws client connected")

		all := natsadapter.GeometrySavedSubject("")
		sub, err := nc.Subscribe(all, feed.relay)
		if err != nil {
			feed.logger.Error("ws default subscribe", "error", err)
			return
		}
		feed.subs[all] = sub
		defer feed.closeAll()

		done := make(chan struct{})
		defer close(done)
		go feed.keepAlive(done)

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var req wsRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				feed.fail("invalid JSON")
				continue
			}
			switch req.Action {
			case "subscribe":
				feed.subscribe(req.LocationID)
			case "unsubscribe":
				feed.unsubscribe(req.LocationID)
			default:
				feed.fail("unknown action: " + req.Action)
			}
		}

		feed.logger.Info("ws client disconnected")
	}
}
