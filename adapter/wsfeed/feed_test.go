package wsfeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/botbus"
)

func newFeedServer(t *testing.T) (*botbus.Bus, string) {
	t.Helper()

	bus, err := botbus.NewBusBuilder().Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close(context.Background()) })

	srv := httptest.NewServer(Handler(bus, Defaults()))
	t.Cleanup(srv.Close)

	return bus, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestFeed_BackfillThenLive(t *testing.T) {
	bus, url := newFeedServer(t)

	bus.Publish(botbus.NewYouTubeVolume(50))
	conn := dial(t, url, nil)

	frame := readFrame(t, conn)
	assert.Equal(t, botbus.KindYouTubeVolume, frame["type"])
	assert.Equal(t, float64(50), frame["volume"])

	bus.Publish(botbus.NewFirework())
	frame = readFrame(t, conn)
	assert.Equal(t, botbus.KindFirework, frame["type"])
}

func TestFeed_FanOut(t *testing.T) {
	bus, url := newFeedServer(t)

	bus.Publish(botbus.NewYouTubeVolume(10))

	c1 := dial(t, url, nil)
	c2 := dial(t, url, nil)
	readFrame(t, c1)
	readFrame(t, c2)

	bus.Publish(botbus.NewPing())
	assert.Equal(t, botbus.KindPing, readFrame(t, c1)["type"])
	assert.Equal(t, botbus.KindPing, readFrame(t, c2)["type"])
}

func TestFeed_RejectsForeignOrigin(t *testing.T) {
	_, url := newFeedServer(t)

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFeed_AllowsLocalhostOrigin(t *testing.T) {
	bus, url := newFeedServer(t)
	bus.Publish(botbus.NewYouTubeVolume(1))

	header := http.Header{}
	header.Set("Origin", "http://localhost:3000")
	conn := dial(t, url, header)
	assert.Equal(t, botbus.KindYouTubeVolume, readFrame(t, conn)["type"])
}

func TestFeed_BusCloseEndsSocket(t *testing.T) {
	bus, url := newFeedServer(t)
	bus.Publish(botbus.NewYouTubeVolume(1))

	conn := dial(t, url, nil)
	readFrame(t, conn)

	require.NoError(t, bus.Close(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
