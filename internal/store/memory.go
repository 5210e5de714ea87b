package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/driftchat/call-signaling/internal/models"
)

// Compile-time interface checks.
var (
	_ CallStore = (*Memory)(nil)
	_ SignalLog = (*Memory)(nil)
)

// Memory is an in-process CallStore and SignalLog. It mirrors the redis
// implementation's semantics so the core and the handlers can be tested
// without a redis server.
type Memory struct {
	mu           sync.Mutex
	calls        map[string]*models.CallRoom // key: roomID
	activeByConv map[string]string           // key: conversationID, value: roomID
	signals      map[string][]models.SignalMessage
	seq          map[string]int64
}

func NewMemory() *Memory {
	return &Memory{
		calls:        make(map[string]*models.CallRoom),
		activeByConv: make(map[string]string),
		signals:      make(map[string][]models.SignalMessage),
		seq:          make(map[string]int64),
	}
}

func (m *Memory) StartCall(_ context.Context, conversationID, starterID string) (*models.CallRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if roomID, ok := m.activeByConv[conversationID]; ok {
		if call, ok := m.calls[roomID]; ok && call.Status == models.CallStatusActive {
			copied := *call
			return &copied, nil
		}
	}

	call := &models.CallRoom{
		RoomID:         NewRoomID(conversationID),
		ConversationID: conversationID,
		StartedBy:      starterID,
		Status:         models.CallStatusActive,
		CreatedAt:      time.Now().UTC(),
	}
	m.calls[call.RoomID] = call
	m.activeByConv[conversationID] = call.RoomID

	copied := *call
	return &copied, nil
}

func (m *Memory) GetCallByRoomID(_ context.Context, roomID string) (*models.CallRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call, ok := m.calls[roomID]
	if !ok {
		return nil, ErrCallNotFound
	}
	copied := *call
	return &copied, nil
}

func (m *Memory) GetActiveCall(_ context.Context, conversationID string) (*models.CallRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.activeByConv[conversationID]
	if !ok {
		return nil, ErrCallNotFound
	}
	call, ok := m.calls[roomID]
	if !ok || call.Status != models.CallStatusActive {
		return nil, ErrCallNotFound
	}
	copied := *call
	return &copied, nil
}

func (m *Memory) EndCall(_ context.Context, roomID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	call, ok := m.calls[roomID]
	if !ok {
		return nil
	}
	if call.Status != models.CallStatusActive {
		return nil
	}
	if call.StartedBy != userID {
		return ErrNotAuthorized
	}

	call.Status = models.CallStatusEnded
	delete(m.activeByConv, call.ConversationID)
	return nil
}

func (m *Memory) Append(_ context.Context, roomID, senderID string, signalType models.SignalType, payload string) (*models.SignalMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq[roomID]++
	msg := models.SignalMessage{
		ID:        fmt.Sprintf("%s:%06d", roomID, m.seq[roomID]),
		RoomID:    roomID,
		SenderID:  senderID,
		Type:      signalType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	m.signals[roomID] = append(m.signals[roomID], msg)
	return &msg, nil
}

func (m *Memory) List(_ context.Context, roomID, excludeSenderID string, limit int) ([]models.SignalMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// The limit caps how far into the log we read; self-authored messages
	// are filtered after the cut, matching the redis implementation.
	log := m.signals[roomID]
	if limit < len(log) {
		log = log[:limit]
	}
	out := make([]models.SignalMessage, 0, len(log))
	for _, msg := range log {
		if msg.SenderID == excludeSenderID {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}
