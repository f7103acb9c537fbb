package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/classboard/core/autorun"
	"github.com/classboard/classboard/core/events"
	infralogger "github.com/classboard/classboard/infra/logger"
	"github.com/classboard/classboard/internal/eventbus"
)

func dialTestHub(t *testing.T, h *Hub, institution, grade, class string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Handler(institution, grade, class))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestBroadcastReachesGroup(t *testing.T) {
	h := NewHub(nil, nil, infralogger.NopLogger{})
	c := dialTestHub(t, h, "central", "grade1", "class1")
	defer c.Close(websocket.StatusNormalClosure, "done")

	key := autorun.NotifyKey{Institution: "central", Grade: "grade1"}
	waitFor(t, func() bool { return len(h.Keys()) == 1 })

	require.NoError(t, h.Broadcast(context.Background(), key, "SyncConfig"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	typ, data, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.Equal(t, "SyncConfig", string(data))
}

func TestDuplicateClassConnectionIsDebug(t *testing.T) {
	h := NewHub(nil, nil, infralogger.NopLogger{})
	first := dialTestHub(t, h, "central", "grade1", "class1")
	defer first.Close(websocket.StatusNormalClosure, "done")
	waitFor(t, func() bool { return h.Count() == 1 })

	second := dialTestHub(t, h, "central", "grade1", "class1")
	defer second.Close(websocket.StatusNormalClosure, "done")
	waitFor(t, func() bool { return len(h.Clients()) == 2 })

	// The duplicate is excluded from the non-debug count.
	assert.Equal(t, 1, h.Count())
	debug := 0
	for _, cl := range h.Clients() {
		if cl.Debug {
			debug++
		}
	}
	assert.Equal(t, 1, debug)
}

func TestDisconnectBeforeDayEndIsAbnormal(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	noon := time.Date(2026, 3, 2, 12, 0, 0, 0, time.Local)
	dayEnd := func(context.Context, string, string, string, time.Time) (time.Time, bool) {
		return noon.Add(5 * time.Hour), true
	}
	h := NewHub(bus, dayEnd, infralogger.NopLogger{})
	h.SetClock(func() time.Time { return noon })

	c := dialTestHub(t, h, "central", "grade1", "class1")
	waitFor(t, func() bool { return h.Count() == 1 })
	require.NoError(t, c.Close(websocket.StatusNormalClosure, "bye"))

	select {
	case ev := <-sub:
		dis, ok := ev.(events.ClientDisconnected)
		require.True(t, ok)
		assert.True(t, dis.Abnormal)
		assert.Equal(t, "class1", dis.Class)
	case <-time.After(2 * time.Second):
		t.Fatal("no disconnect event")
	}
	assert.Empty(t, h.Keys())
}

func TestDisconnectAfterDayEndIsNormal(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	evening := time.Date(2026, 3, 2, 18, 0, 0, 0, time.Local)
	dayEnd := func(context.Context, string, string, string, time.Time) (time.Time, bool) {
		return evening.Add(-time.Hour), true
	}
	h := NewHub(bus, dayEnd, infralogger.NopLogger{})
	h.SetClock(func() time.Time { return evening })

	c := dialTestHub(t, h, "central", "grade1", "class1")
	waitFor(t, func() bool { return h.Count() == 1 })
	require.NoError(t, c.Close(websocket.StatusNormalClosure, "bye"))

	select {
	case ev := <-sub:
		dis, ok := ev.(events.ClientDisconnected)
		require.True(t, ok)
		assert.False(t, dis.Abnormal)
	case <-time.After(2 * time.Second):
		t.Fatal("no disconnect event")
	}
}
