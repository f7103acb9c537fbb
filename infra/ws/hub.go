// Package ws keeps the registry of live display connections and pushes sync
// signals to them over websockets.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/classboard/classboard/core/autorun"
	"github.com/classboard/classboard/core/events"
	"github.com/classboard/classboard/core/logger"
	"github.com/classboard/classboard/core/notify"
	"github.com/classboard/classboard/internal/eventbus"
)

const writeTimeout = 5 * time.Second

// DayEndFunc reports when the class day of (institution, grade, class) ends
// on the given day. ok is false when no day end is known.
type DayEndFunc func(ctx context.Context, institution, grade, class string, day time.Time) (time.Time, bool)

// Client describes one live connection for the statistics surface.
type Client struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Grade       string `json:"grade"`
	Class       string `json:"class"`
	Debug       bool   `json:"debug,omitempty"`
}

type conn struct {
	Client
	ws *websocket.Conn
}

// Hub groups display connections by (institution, grade) and broadcasts
// reload signals to whole groups. It implements notify.Registry.
type Hub struct {
	mu     sync.RWMutex
	groups map[autorun.NotifyKey]map[*conn]struct{}

	bus    eventbus.EventBus
	dayEnd DayEndFunc
	log    logger.Logger
	now    func() time.Time
}

var _ notify.Registry = (*Hub)(nil)

// NewHub builds an empty Hub. dayEnd may be nil, in which case every
// disconnect counts as normal.
func NewHub(bus eventbus.EventBus, dayEnd DayEndFunc, log logger.Logger) *Hub {
	return &Hub{
		groups: make(map[autorun.NotifyKey]map[*conn]struct{}),
		bus:    bus,
		dayEnd: dayEnd,
		log:    log,
		now:    time.Now,
	}
}

// SetClock overrides the hub clock. Test hook.
func (h *Hub) SetClock(now func() time.Time) { h.now = now }

// Handler upgrades the request and keeps the connection registered until the
// peer goes away. Inbound frames are read and discarded; the socket is a
// push channel only.
func (h *Hub) Handler(institution, grade, class string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
		if err != nil {
			h.log.Warnf("websocket accept for %s/%s/%s failed: %v", institution, grade, class, err)
			return
		}
		c := h.register(institution, grade, class, sock)
		h.log.Infof("client %s connected (%s/%s/%s debug=%v)", c.ID, institution, grade, class, c.Debug)

		ctx := r.Context()
		for {
			if _, _, err := sock.Read(ctx); err != nil {
				break
			}
		}
		_ = sock.Close(websocket.StatusNormalClosure, "closed")
		h.unregister(ctx, c)
	}
}

// register adds the connection to its group. A second live connection for the
// same class is marked debug so it stays out of the statistics.
func (h *Hub) register(institution, grade, class string, sock *websocket.Conn) *conn {
	key := autorun.NotifyKey{Institution: institution, Grade: grade}
	c := &conn{
		Client: Client{
			ID:          uuid.NewString(),
			Institution: institution,
			Grade:       grade,
			Class:       class,
		},
		ws: sock,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[key]
	if group == nil {
		group = make(map[*conn]struct{})
		h.groups[key] = group
	}
	for other := range group {
		if other.Class == class && !other.Debug {
			c.Debug = true
			break
		}
	}
	group[c] = struct{}{}
	return c
}

func (h *Hub) unregister(ctx context.Context, c *conn) {
	key := autorun.NotifyKey{Institution: c.Institution, Grade: c.Grade}
	h.mu.Lock()
	if group, ok := h.groups[key]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.groups, key)
		}
	}
	h.mu.Unlock()

	abnormal := false
	if !c.Debug && h.dayEnd != nil {
		now := h.now()
		if end, ok := h.dayEnd(ctx, c.Institution, c.Grade, c.Class, now); ok && now.Before(end) {
			abnormal = true
		}
	}
	h.log.Infof("client %s disconnected (%s/%s/%s abnormal=%v)", c.ID, c.Institution, c.Grade, c.Class, abnormal)
	if h.bus != nil {
		h.bus.Publish(events.ClientDisconnected{
			Institution: c.Institution,
			Grade:       c.Grade,
			Class:       c.Class,
			Abnormal:    abnormal,
		})
	}
}

// Keys lists the groups with at least one live connection.
func (h *Hub) Keys() []autorun.NotifyKey {
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]autorun.NotifyKey, 0, len(h.groups))
	for key := range h.groups {
		keys = append(keys, key)
	}
	return keys
}

// Broadcast writes message to every connection of the group. Individual write
// failures close that connection and do not stop the rest.
func (h *Hub) Broadcast(ctx context.Context, key autorun.NotifyKey, message string) error {
	h.mu.RLock()
	conns := make([]*conn, 0, len(h.groups[key]))
	for c := range h.groups[key] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.ws.Write(wctx, websocket.MessageText, []byte(message))
		cancel()
		if err != nil {
			h.log.Warnf("write to client %s failed: %v", c.ID, err)
			_ = c.ws.Close(websocket.StatusNormalClosure, "write failed")
		}
	}
	return nil
}

// Clients snapshots every live connection.
func (h *Hub) Clients() []Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Client
	for _, group := range h.groups {
		for c := range group {
			out = append(out, c.Client)
		}
	}
	return out
}

// Count returns the number of live non-debug connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, group := range h.groups {
		for c := range group {
			if !c.Debug {
				n++
			}
		}
	}
	return n
}
