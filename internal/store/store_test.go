package store

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftchat/call-signaling/internal/models"
)

var roomIDPattern = regexp.MustCompile(`^call-[a-z0-9_-]+-\d+-[0-9a-f]{12}$`)

func TestNewRoomIDFormat(t *testing.T) {
	id := NewRoomID("general")
	assert.Regexp(t, roomIDPattern, id)
	assert.True(t, strings.HasPrefix(id, "call-general-"))
}

func TestNewRoomIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRoomID("general")
		require.False(t, seen[id], "duplicate room id %s", id)
		seen[id] = true
	}
}

func TestSlugRoomPart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"general", "general"},
		{"  My Conversation!  ", "my-conversation"},
		{"a--b___c", "a-b___c"},
		{"---", "conversation"},
		{"", "conversation"},
		{strings.Repeat("x", 100), strings.Repeat("x", 48)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugRoomPart(tt.in), "input %q", tt.in)
	}
}

func TestStartCallIdempotentPerConversation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first, err := m.StartCall(ctx, "general", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", first.StartedBy)
	assert.Equal(t, models.CallStatusActive, first.Status)

	second, err := m.StartCall(ctx, "general", "bob")
	require.NoError(t, err)
	assert.Equal(t, first.RoomID, second.RoomID, "active call must be re-used")
	assert.Equal(t, "alice", second.StartedBy)

	other, err := m.StartCall(ctx, "random", "bob")
	require.NoError(t, err)
	assert.NotEqual(t, first.RoomID, other.RoomID)
}

func TestStartCallAfterEndCreatesNewRoom(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first, err := m.StartCall(ctx, "general", "alice")
	require.NoError(t, err)
	require.NoError(t, m.EndCall(ctx, first.RoomID, "alice"))

	second, err := m.StartCall(ctx, "general", "bob")
	require.NoError(t, err)
	assert.NotEqual(t, first.RoomID, second.RoomID)
	assert.Equal(t, "bob", second.StartedBy)
}

func TestGetCallByRoomID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	room, err := m.StartCall(ctx, "general", "alice")
	require.NoError(t, err)

	got, err := m.GetCallByRoomID(ctx, room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, room.RoomID, got.RoomID)

	_, err = m.GetCallByRoomID(ctx, "call-nope-0-000000000000")
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func TestGetActiveCall(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetActiveCall(ctx, "general")
	assert.ErrorIs(t, err, ErrCallNotFound)

	room, err := m.StartCall(ctx, "general", "alice")
	require.NoError(t, err)

	got, err := m.GetActiveCall(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, room.RoomID, got.RoomID)

	require.NoError(t, m.EndCall(ctx, room.RoomID, "alice"))
	_, err = m.GetActiveCall(ctx, "general")
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func TestEndCallAuthorization(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	room, err := m.StartCall(ctx, "general", "alice")
	require.NoError(t, err)

	// Only the starter may end an active call.
	err = m.EndCall(ctx, room.RoomID, "bob")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, m.EndCall(ctx, room.RoomID, "alice"))

	got, err := m.GetCallByRoomID(ctx, room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusEnded, got.Status)

	// Ending again, or ending a missing room, is a silent no-op for anyone.
	assert.NoError(t, m.EndCall(ctx, room.RoomID, "bob"))
	assert.NoError(t, m.EndCall(ctx, "call-missing-0-000000000000", "bob"))
}

func TestSignalAppendAndList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Append(ctx, "room1", "alice", models.SignalTypeOffer, `{"sdp":"a"}`)
	require.NoError(t, err)
	_, err = m.Append(ctx, "room1", "bob", models.SignalTypeAnswer, `{"sdp":"b"}`)
	require.NoError(t, err)
	_, err = m.Append(ctx, "room1", "alice", models.SignalTypeICE, `{"candidate":"c"}`)
	require.NoError(t, err)

	// bob sees only alice's signals, oldest first.
	got, err := m.List(ctx, "room1", "bob", 120)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.SignalTypeOffer, got[0].Type)
	assert.Equal(t, models.SignalTypeICE, got[1].Type)
	assert.Equal(t, "alice", got[0].SenderID)

	// Messages in other rooms are invisible.
	got, err = m.List(ctx, "room2", "bob", 120)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSignalIDsAreOrdered(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var ids []string
	for i := 0; i < 5; i++ {
		msg, err := m.Append(ctx, "room1", "alice", models.SignalTypeICE, "{}")
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

func TestSignalListLimitCapsScanNotResult(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// Interleave so the scan window decides what bob sees.
	for i := 0; i < 10; i++ {
		sender := "alice"
		if i%2 == 1 {
			sender = "bob"
		}
		_, err := m.Append(ctx, "room1", sender, models.SignalTypeICE, "{}")
		require.NoError(t, err)
	}

	// A window of 4 covers two of alice's and two of bob's; filtering
	// bob's own leaves two.
	got, err := m.List(ctx, "room1", "bob", 4)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
