package models

import "time"

// SignalType represents the kind of WebRTC signaling payload a message carries
type SignalType string

const (
	SignalTypeOffer  SignalType = "offer"
	SignalTypeAnswer SignalType = "answer"
	SignalTypeICE    SignalType = "ice"
)

// Valid reports whether t is one of the three payload kinds the core exchanges.
func (t SignalType) Valid() bool {
	switch t {
	case SignalTypeOffer, SignalTypeAnswer, SignalTypeICE:
		return true
	}
	return false
}

// SignalMessage is the unit of exchange over the signal transport. Messages
// are immutable once appended; IDs are unique and creation-ordered within a
// room. CreatedAt is informational only; list order is the ordering guarantee.
type SignalMessage struct {
	ID        string     `json:"id"`
	RoomID    string     `json:"roomId"`
	SenderID  string     `json:"senderId"`
	Type      SignalType `json:"type"`
	Payload   string     `json:"payload"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AppendSignalRequest is the request body for appending a signal to a room.
type AppendSignalRequest struct {
	Type    SignalType `json:"type" binding:"required"`
	Payload string     `json:"payload" binding:"required"`
}

// ListSignalsResponse wraps the signals returned for a room.
type ListSignalsResponse struct {
	Signals []SignalMessage `json:"signals"`
}
