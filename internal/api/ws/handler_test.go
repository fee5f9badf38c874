package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/events"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

func dial(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", h.HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) types.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg types.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStreamsBusEvents(t *testing.T) {
	bus := events.NewBus()
	conn := dial(t, NewHandler(bus))

	hello := read(t, conn)
	assert.Equal(t, TypeSystem, hello.Type)
	assert.Equal(t, 1, bus.Subscribers())

	bus.SetActiveApp(&types.AppInfo{ID: "terminal", DisplayName: "Terminal"})

	msg := read(t, conn)
	assert.Equal(t, TypeEvent, msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, types.EventActiveApp, msg.Event.Type)
	require.NotNil(t, msg.Event.App)
	assert.Equal(t, "Terminal", msg.Event.App.DisplayName)
}

func TestPingAndUnknownMessages(t *testing.T) {
	conn := dial(t, NewHandler(events.NewBus()))
	read(t, conn)

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: TypePing}))
	assert.Equal(t, TypePong, read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: "generate"}))
	msg := read(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "unknown message type", msg.Message)
}

func TestDisconnectReleasesSubscription(t *testing.T) {
	bus := events.NewBus()
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	conn := dial(t, NewHandler(bus, WithMetrics(metrics)))
	read(t, conn)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WSConnections))

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return bus.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.WSConnections) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
