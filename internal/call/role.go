package call

import (
	"strings"

	"github.com/driftchat/call-signaling/internal/models"
)

// IsOfferingSide reports whether selfID is the offering side of the call:
// the participant whose identity matches the room's recorded starter. The
// starter produces the initial offer once local media is ready; the other
// participant stays reactive until an offer arrives. A room has exactly one
// starter, so no negotiation handshake is needed to pick roles.
func IsOfferingSide(selfID string, room *models.CallRoom) bool {
	if room == nil {
		return false
	}
	me := strings.TrimSpace(selfID)
	starter := strings.TrimSpace(room.StartedBy)
	return me != "" && starter != "" && strings.EqualFold(me, starter)
}
