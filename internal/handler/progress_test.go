package handler

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataprep/ingest/internal/auth"
	"github.com/dataprep/ingest/internal/middleware"
	"github.com/dataprep/ingest/internal/store"
	ws "github.com/dataprep/ingest/internal/websocket"
)

func TestProgressFeed(t *testing.T) {
	st := store.NewMemoryStore()
	hub := ws.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	app := NewApp(AppConfig{
		Store:      st,
		Dispatcher: &recordingDispatcher{},
		Auth:       middleware.NewAuthMiddleware(testSecret),
		Hub:        hub,
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	require.NoError(t, st.Create(ctx, &store.Dataset{
		ID: "ds-1", Owner: "user-1", Filename: "a.csv", Status: store.StatusAnalyzing, Step: "initial_analysis", Progress: 50,
	}))
	require.NoError(t, st.Create(ctx, &store.Dataset{
		ID: "other", Owner: "user-2", Filename: "b.csv", Status: store.StatusQueued,
	}))

	token, err := auth.GenerateToken(testSecret, "user-1", "", time.Hour)
	require.NoError(t, err)
	base := "ws://" + ln.Addr().String() + "/ws/datasets/"

	conn, _, err := fastws.DefaultDialer.Dial(base+"ds-1?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.MessageTypeStatus, msg.Type)
	assert.Equal(t, store.StatusAnalyzing, msg.Status)
	assert.Equal(t, 50, msg.Progress)

	hub.PublishStatus("ds-1", store.StatusDone, "initial_analysis", 100, "")
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, store.StatusDone, msg.Status)
	assert.Equal(t, 100, msg.Progress)

	require.NoError(t, conn.WriteJSON(ws.Message{Type: ws.MessageTypePing}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.MessageTypePong, msg.Type)

	_, resp, err := fastws.DefaultDialer.Dial(base+"other?token="+token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = fastws.DefaultDialer.Dial(base+"ds-1", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
