package call

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftchat/call-signaling/internal/models"
)

func activeRoom(roomID, conversationID, starterID string) *models.CallRoom {
	return &models.CallRoom{
		RoomID:         roomID,
		ConversationID: conversationID,
		StartedBy:      starterID,
		Status:         models.CallStatusActive,
		CreatedAt:      time.Now().UTC(),
	}
}

func newTestController(t *testing.T, selfID string, directory *fakeDirectory) (*Controller, *memTransport) {
	t.Helper()
	tr := &memTransport{}
	c := NewController(selfID, directory, tr, newFakeMedia(t), ControllerConfig{
		PollInterval:        10 * time.Millisecond,
		SignalListLimit:     120,
		DefaultConversation: "general",
	})
	t.Cleanup(func() { c.Leave(context.Background()) })
	return c, tr
}

func TestJoinKnownRoom(t *testing.T) {
	directory := newFakeDirectory()
	directory.addRoom(activeRoom("room1", "general", "alice"))
	c, tr := newTestController(t, "alice", directory)

	roomID, err := c.Join(context.Background(), "room1")
	require.NoError(t, err)
	assert.Equal(t, "room1", roomID)
	assert.Equal(t, "room1", c.RoomID())
	require.NotNil(t, c.Session())
	assert.True(t, c.Session().IsOffering())

	// The starter's initial offer goes out as part of joining.
	assert.Len(t, tr.byType(models.SignalTypeOffer), 1)
}

func TestJoinEmptyRoomStartsDefaultConversationCall(t *testing.T) {
	directory := newFakeDirectory()
	directory.addRoom(activeRoom("room-general", "general", "alice"))
	c, _ := newTestController(t, "bob", directory)

	roomID, err := c.Join(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "room-general", roomID)
	assert.Equal(t, []string{"general"}, directory.started)
	assert.False(t, c.Session().IsOffering())
}

func TestJoinUnknownRoom(t *testing.T) {
	directory := newFakeDirectory()
	c, _ := newTestController(t, "alice", directory)

	_, err := c.Join(context.Background(), "room-missing")
	assert.ErrorIs(t, err, ErrCallNotFound)
	assert.Nil(t, c.Session())
}

func TestJoinEndedRoom(t *testing.T) {
	directory := newFakeDirectory()
	room := activeRoom("room1", "general", "alice")
	room.Status = models.CallStatusEnded
	directory.addRoom(room)
	c, _ := newTestController(t, "alice", directory)

	_, err := c.Join(context.Background(), "room1")
	assert.ErrorIs(t, err, ErrCallEnded)
	assert.Nil(t, c.Session())
}

func TestLeaveEndsCallForStarter(t *testing.T) {
	directory := newFakeDirectory()
	directory.addRoom(activeRoom("room1", "general", "alice"))
	c, _ := newTestController(t, "alice", directory)

	_, err := c.Join(context.Background(), "room1")
	require.NoError(t, err)
	session := c.Session()

	c.Leave(context.Background())

	assert.Equal(t, []string{"room1"}, directory.endedRooms())
	assert.Nil(t, c.Session())
	assert.Equal(t, StateClosed, session.State())
}

func TestLeaveDoesNotEndCallForJoiner(t *testing.T) {
	directory := newFakeDirectory()
	directory.addRoom(activeRoom("room1", "general", "alice"))
	c, _ := newTestController(t, "bob", directory)

	_, err := c.Join(context.Background(), "room1")
	require.NoError(t, err)

	c.Leave(context.Background())

	assert.Empty(t, directory.endedRooms())
	assert.Nil(t, c.Session())
}

func TestLeaveSurvivesEndCallFailure(t *testing.T) {
	directory := newFakeDirectory()
	directory.addRoom(activeRoom("room1", "general", "alice"))
	directory.endErr = errors.New("backend down")
	c, _ := newTestController(t, "alice", directory)

	_, err := c.Join(context.Background(), "room1")
	require.NoError(t, err)
	session := c.Session()

	c.Leave(context.Background())

	assert.Nil(t, c.Session(), "a failed end call must not block leaving")
	assert.Equal(t, StateClosed, session.State())
}

func TestReconnectBuildsFreshSession(t *testing.T) {
	directory := newFakeDirectory()
	directory.addRoom(activeRoom("room1", "general", "alice"))
	c, _ := newTestController(t, "alice", directory)

	_, err := c.Join(context.Background(), "room1")
	require.NoError(t, err)
	first := c.Session()

	require.NoError(t, c.Reconnect(context.Background()))
	second := c.Session()

	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, StateClosed, first.State())
	assert.True(t, second.sentInitialOffer(), "the fresh session re-offers")
	assert.Equal(t, "room1", c.RoomID())
}

func TestReconnectWithoutCall(t *testing.T) {
	directory := newFakeDirectory()
	c, _ := newTestController(t, "alice", directory)

	err := c.Reconnect(context.Background())
	assert.ErrorIs(t, err, ErrNotInCall)
}

func TestMediaControlsWithoutCall(t *testing.T) {
	directory := newFakeDirectory()
	c, _ := newTestController(t, "alice", directory)

	assert.False(t, c.ToggleMic())
	assert.False(t, c.ToggleCam())
	assert.ErrorIs(t, c.ToggleScreenShare(context.Background()), ErrNotInCall)
	assert.ErrorIs(t, c.FlipCamera(context.Background()), ErrNotInCall)
	_, err := c.ToggleRecording()
	assert.ErrorIs(t, err, ErrNotInCall)
}

func TestToggleRecording(t *testing.T) {
	directory := newFakeDirectory()
	directory.addRoom(activeRoom("room1", "general", "alice"))
	tr := &memTransport{}
	c := NewController("alice", directory, tr, newFakeMedia(t), ControllerConfig{
		PollInterval: 10 * time.Millisecond,
		RecordingDir: t.TempDir(),
	})
	t.Cleanup(func() { c.Leave(context.Background()) })

	_, err := c.Join(context.Background(), "room1")
	require.NoError(t, err)

	recording, err := c.ToggleRecording()
	require.NoError(t, err)
	assert.True(t, recording)
	assert.True(t, c.Session().Recording())

	recording, err = c.ToggleRecording()
	require.NoError(t, err)
	assert.False(t, recording)
	assert.False(t, c.Session().Recording())
}

func TestJoinReplacesExistingSession(t *testing.T) {
	directory := newFakeDirectory()
	directory.addRoom(activeRoom("room1", "general", "alice"))
	directory.addRoom(activeRoom("room2", "random", "bob"))
	c, _ := newTestController(t, "alice", directory)

	_, err := c.Join(context.Background(), "room1")
	require.NoError(t, err)
	first := c.Session()

	_, err = c.Join(context.Background(), "room2")
	require.NoError(t, err)

	assert.Equal(t, StateClosed, first.State())
	assert.Equal(t, "room2", c.RoomID())
	assert.False(t, c.Session().IsOffering())
}
