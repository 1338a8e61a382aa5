package realtimehandler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm/internal/domain/auth"
	"crm/internal/platform/realtime"
)

func TestConnectRejectsMissingOrBadToken(t *testing.T) {
	h := NewHandler(realtime.NewHub(nil), realtime.NewUpgrader(nil), "secret")

	rec := httptest.NewRecorder()
	h.HandleConnect(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleConnect(rec, httptest.NewRequest(http.MethodGet, "/ws?token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConnectJoinsUserAndRoleRooms(t *testing.T) {
	hub := realtime.NewHub(nil)
	h := NewHandler(hub, realtime.NewUpgrader(nil), "secret")
	ts := httptest.NewServer(http.HandlerFunc(h.HandleConnect))
	defer ts.Close()

	token, err := auth.GenerateToken("secret", auth.Claims{UserID: "u1", Role: auth.RoleHR}, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections() == 1 }, time.Second, 10*time.Millisecond)

	assert.True(t, hub.ToRoom(t.Context(), "hr", "notification", map[string]string{"title": "role"}))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"title":"role"`)

	assert.True(t, hub.ToRoom(t.Context(), realtime.UserRoom("u1"), "notification", map[string]string{"title": "personal"}))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"title":"personal"`)
}
