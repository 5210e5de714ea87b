// Package store persists call rooms and the append-only signal log. The
// redis implementation backs the server; the memory implementation backs
// tests and serves as the reference semantics.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/driftchat/call-signaling/internal/models"
)

var (
	ErrCallNotFound  = errors.New("call not found")
	ErrNotAuthorized = errors.New("only the call starter can end it")
)

// CallStore manages call room records. StartCall is idempotent per
// conversation: while a conversation has an active call, StartCall returns
// it instead of creating a second one.
type CallStore interface {
	StartCall(ctx context.Context, conversationID, starterID string) (*models.CallRoom, error)
	GetCallByRoomID(ctx context.Context, roomID string) (*models.CallRoom, error)
	GetActiveCall(ctx context.Context, conversationID string) (*models.CallRoom, error)
	// EndCall marks the room ended. Ending a missing or already-ended call
	// is a silent no-op; ending someone else's active call fails with
	// ErrNotAuthorized.
	EndCall(ctx context.Context, roomID, userID string) error
}

// SignalLog is the room-scoped append-only store of signaling messages.
// Appended signals are immutable; List returns them in creation order,
// excluding those authored by excludeSenderID.
type SignalLog interface {
	Append(ctx context.Context, roomID, senderID string, signalType models.SignalType, payload string) (*models.SignalMessage, error)
	List(ctx context.Context, roomID, excludeSenderID string, limit int) ([]models.SignalMessage, error)
}

const (
	roomSlugMaxLen = 48
	roomRandBytes  = 6
)

var roomSlugUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)
var roomSlugDashes = regexp.MustCompile(`-+`)

// slugRoomPart reduces a conversation id to an identifier-safe slug.
func slugRoomPart(input string) string {
	safe := roomSlugUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(input)), "-")
	safe = roomSlugDashes.ReplaceAllString(safe, "-")
	safe = strings.Trim(safe, "-")
	if safe == "" {
		safe = "conversation"
	}
	if len(safe) > roomSlugMaxLen {
		safe = safe[:roomSlugMaxLen]
	}
	return safe
}

func randomHex(byteLength int) string {
	bytes := make([]byte, byteLength)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// NewRoomID derives a globally unique room id from the conversation id, the
// current time and random bytes, e.g. "call-general-1724989451123-a3f29bc401d2".
func NewRoomID(conversationID string) string {
	return "call-" + slugRoomPart(conversationID) + "-" +
		strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + randomHex(roomRandBytes)
}
