package call

import (
	"context"

	"github.com/driftchat/call-signaling/internal/models"
)

// Transport is the room-scoped, ordered, append-only signal exchange as seen
// by one participant. There is no push delivery: the dispatcher polls List.
// Append attributes the signal to this participant; List excludes messages
// this participant authored and returns the rest oldest first. The transport
// only guarantees that appends are atomic and that messages are immutable
// once stored; the session's phase machine handles everything else.
type Transport interface {
	Append(ctx context.Context, roomID string, signalType models.SignalType, payload string) error
	List(ctx context.Context, roomID string, limit int) ([]models.SignalMessage, error)
}

// Directory is the call-room record collaborator: the minimal bookkeeping
// surface the core needs to decide whether to connect and who offers.
type Directory interface {
	// StartCall returns the room id of the conversation's active call,
	// creating one if none exists.
	StartCall(ctx context.Context, conversationID string) (string, error)
	GetCallByRoomID(ctx context.Context, roomID string) (*models.CallRoom, error)
	// EndCall is idempotent for the starter and fails with ErrNotAuthorized
	// for anyone else.
	EndCall(ctx context.Context, roomID string) error
}
