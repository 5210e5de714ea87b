package models

import "time"

// CallStatus is the lifecycle state of a call room.
type CallStatus string

const (
	CallStatusActive CallStatus = "active"
	CallStatusEnded  CallStatus = "ended"
)

// CallRoom is the bookkeeping record for one call. The signaling core treats
// it as read-only context: it decides whether to attempt a connection and
// which participant is the offering side.
type CallRoom struct {
	RoomID         string     `json:"roomId"`
	ConversationID string     `json:"conversationId"`
	StartedBy      string     `json:"startedBy"`
	Status         CallStatus `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// StartCallRequest is the request body for starting (or re-joining) a call.
type StartCallRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
}

// StartCallResponse is the response for starting a call.
type StartCallResponse struct {
	RoomID string `json:"roomId"`
}
