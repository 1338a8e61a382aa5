package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data []byte) Message {
	t.Helper()
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestToRoomDeliversOnlyToMembers(t *testing.T) {
	hub := NewHub(nil)
	hr := NewClient(UserRoom("u1"), "hr")
	sales := NewClient(UserRoom("u2"), "sales")
	hub.Register(hr)
	hub.Register(sales)

	delivered := hub.ToRoom(context.Background(), "hr", "attendance_update", map[string]any{"userId": "u3"})
	assert.True(t, delivered)

	msg := decode(t, <-hr.Messages())
	assert.Equal(t, "attendance_update", msg.Event)
	assert.Equal(t, "hr", msg.Room)
	assert.Len(t, sales.Messages(), 0)
}

func TestToRoomWithoutConnectionsIsNotDelivered(t *testing.T) {
	hub := NewHub(nil)
	assert.False(t, hub.ToRoom(context.Background(), UserRoom("nobody"), "notification", nil))
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub(nil)
	a := NewClient("admin")
	b := NewClient("developer")
	hub.Register(a)
	hub.Register(b)

	assert.True(t, hub.Broadcast(context.Background(), "project_created", map[string]string{"projectId": "p1"}))
	assert.Equal(t, "project_created", decode(t, <-a.Messages()).Event)
	assert.Equal(t, "project_created", decode(t, <-b.Messages()).Event)
}

func TestFullBufferDropsWithoutBlocking(t *testing.T) {
	hub := NewHub(nil)
	slow := NewClient("hr")
	hub.Register(slow)

	for i := 0; i < clientSendBuffer; i++ {
		require.True(t, hub.ToRoom(context.Background(), "hr", "attendance_update", i))
	}

	done := make(chan bool, 1)
	go func() { done <- hub.ToRoom(context.Background(), "hr", "attendance_update", "overflow") }()
	select {
	case delivered := <-done:
		assert.False(t, delivered)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full client buffer")
	}
}

func TestUnregisterRemovesEmptyRooms(t *testing.T) {
	hub := NewHub(nil)
	c := NewClient("hr")
	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c)

	assert.Equal(t, 0, hub.Connections())
	_, open := <-c.Messages()
	assert.False(t, open)
	assert.False(t, hub.ToRoom(context.Background(), "hr", "attendance_update", nil))
}

type memoryBus struct {
	mu        sync.Mutex
	published []Envelope
}

func (b *memoryBus) Publish(_ context.Context, env Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, env)
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, _ func(Envelope)) error {
	<-ctx.Done()
	return nil
}

func (b *memoryBus) Close() error { return nil }

func TestPublishForwardsToBus(t *testing.T) {
	bus := &memoryBus{}
	hub := NewHub(bus)
	hub.ToRoom(context.Background(), "admin", "lead_status_changed", map[string]string{"leadId": "l1"})

	require.Len(t, bus.published, 1)
	assert.Equal(t, "admin", bus.published[0].Room)
	assert.Equal(t, hub.origin, bus.published[0].Origin)
}

func TestServeDeliversOverWebsocket(t *testing.T) {
	hub := NewHub(nil)
	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(upgrader, w, r, UserRoom("u1"), "hr")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.True(t, hub.ToRoom(context.Background(), UserRoom("u1"), "notification", map[string]string{"title": "hi"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "notification", decode(t, data).Event)
}

func TestUpgraderRejectsUnknownOrigin(t *testing.T) {
	upgrader := NewUpgrader([]string{"http://localhost:3000"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, upgrader.CheckOrigin(req))
	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, upgrader.CheckOrigin(req))
}
