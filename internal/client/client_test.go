package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftchat/call-signaling/internal/call"
	"github.com/driftchat/call-signaling/internal/handlers"
	"github.com/driftchat/call-signaling/internal/middleware"
	"github.com/driftchat/call-signaling/internal/models"
	"github.com/driftchat/call-signaling/internal/store"
)

// Interface checks: the client is the production Transport and Directory.
var (
	_ call.Transport = (*Client)(nil)
	_ call.Directory = (*Client)(nil)
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()
	logger := zerolog.Nop()
	callHandler := handlers.NewCallHandler(mem, logger)
	signalHandler := handlers.NewSignalHandler(mem, logger)
	auth := middleware.JWTAuth("test-secret")

	router := gin.New()
	api := router.Group("/api")
	{
		api.POST("/auth/login", handlers.Login("test-secret"))
		api.POST("/calls", auth, callHandler.StartCall)
		api.GET("/calls/:roomId", callHandler.GetCall)
		api.POST("/calls/:roomId/end", auth, callHandler.EndCall)
		api.GET("/conversations/:conversationId/call", auth, callHandler.GetActiveCall)
		api.POST("/rooms/:roomId/signals", auth, signalHandler.AppendSignal)
		api.GET("/rooms/:roomId/signals", auth, signalHandler.ListSignals)
	}

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func loggedIn(t *testing.T, server *httptest.Server, username string) *Client {
	t.Helper()
	c := New(server.URL)
	userID, err := c.Login(context.Background(), username, "demo")
	require.NoError(t, err)
	require.Equal(t, username, userID)
	return c
}

func TestCallLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	alice := loggedIn(t, server, "alice")
	bob := loggedIn(t, server, "bob")

	roomID, err := alice.StartCall(ctx, "general")
	require.NoError(t, err)
	require.NotEmpty(t, roomID)

	// A second start converges on the same room.
	again, err := bob.StartCall(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, roomID, again)

	room, err := bob.GetCallByRoomID(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, "alice", room.StartedBy)
	assert.Equal(t, models.CallStatusActive, room.Status)

	active, err := bob.GetActiveCall(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, roomID, active.RoomID)

	// Only the starter may end the call.
	err = bob.EndCall(ctx, roomID)
	assert.ErrorIs(t, err, call.ErrNotAuthorized)
	require.NoError(t, alice.EndCall(ctx, roomID))

	room, err = alice.GetCallByRoomID(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusEnded, room.Status)

	_, err = alice.GetActiveCall(ctx, "general")
	assert.ErrorIs(t, err, call.ErrCallNotFound)
}

func TestGetCallNotFoundOverHTTP(t *testing.T) {
	server := newTestServer(t)
	alice := loggedIn(t, server, "alice")

	_, err := alice.GetCallByRoomID(context.Background(), "call-none-0-000000000000")
	assert.ErrorIs(t, err, call.ErrCallNotFound)
}

func TestStatusMatchSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("get call: %w", &statusError{status: http.StatusNotFound, body: "nope"})

	assert.True(t, isStatus(err, http.StatusNotFound))
	assert.False(t, isStatus(err, http.StatusForbidden))
	assert.False(t, isStatus(errors.New("plain"), http.StatusNotFound))
}

func TestSignalExchangeOverHTTP(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	alice := loggedIn(t, server, "alice")
	bob := loggedIn(t, server, "bob")

	require.NoError(t, alice.Append(ctx, "room1", models.SignalTypeOffer, `{"type":"offer","sdp":"v=0"}`))
	require.NoError(t, bob.Append(ctx, "room1", models.SignalTypeAnswer, `{"type":"answer","sdp":"v=0"}`))

	// Each side sees only the other's signals.
	fromAlice, err := bob.List(ctx, "room1", 120)
	require.NoError(t, err)
	require.Len(t, fromAlice, 1)
	assert.Equal(t, models.SignalTypeOffer, fromAlice[0].Type)
	assert.Equal(t, "alice", fromAlice[0].SenderID)

	fromBob, err := alice.List(ctx, "room1", 120)
	require.NoError(t, err)
	require.Len(t, fromBob, 1)
	assert.Equal(t, models.SignalTypeAnswer, fromBob[0].Type)
}
