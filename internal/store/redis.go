package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/driftchat/call-signaling/internal/models"
)

const (
	callTTL   = 24 * time.Hour
	signalTTL = 24 * time.Hour
)

// Compile-time interface checks.
var (
	_ CallStore = (*Redis)(nil)
	_ SignalLog = (*Redis)(nil)
)

// Redis stores call rooms and signal logs in redis. Call records live under
// "call:room:<roomId>"; the active call per conversation is a pointer key
// claimed with SETNX so concurrent starts converge on one room. Signals are
// a list per room with an INCR-assigned sequence, which makes ids unique and
// creation-ordered within the room.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func callKey(roomID string) string           { return "call:room:" + roomID }
func activeKey(conversationID string) string { return "call:active:" + conversationID }
func signalsKey(roomID string) string        { return "signals:" + roomID }
func signalSeqKey(roomID string) string      { return "signals:" + roomID + ":seq" }

func (r *Redis) StartCall(ctx context.Context, conversationID, starterID string) (*models.CallRoom, error) {
	// Fast path: an active call already exists for the conversation.
	if call, err := r.GetActiveCall(ctx, conversationID); err == nil {
		return call, nil
	} else if !errors.Is(err, ErrCallNotFound) {
		return nil, err
	}

	call := &models.CallRoom{
		RoomID:         NewRoomID(conversationID),
		ConversationID: conversationID,
		StartedBy:      starterID,
		Status:         models.CallStatusActive,
		CreatedAt:      time.Now().UTC(),
	}

	claimed, err := r.client.SetNX(ctx, activeKey(conversationID), call.RoomID, callTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("claim active call: %w", err)
	}
	if !claimed {
		// Another participant created the call between our check and the
		// claim; return theirs.
		if existing, err := r.GetActiveCall(ctx, conversationID); err == nil {
			return existing, nil
		}
		return nil, ErrCallNotFound
	}

	data, err := json.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("marshal call: %w", err)
	}
	if err := r.client.Set(ctx, callKey(call.RoomID), data, callTTL).Err(); err != nil {
		return nil, fmt.Errorf("store call: %w", err)
	}

	log.Info().
		Str("room_id", call.RoomID).
		Str("conversation_id", conversationID).
		Str("started_by", starterID).
		Msg("call started")
	return call, nil
}

func (r *Redis) GetCallByRoomID(ctx context.Context, roomID string) (*models.CallRoom, error) {
	data, err := r.client.Get(ctx, callKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCallNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get call: %w", err)
	}

	var call models.CallRoom
	if err := json.Unmarshal([]byte(data), &call); err != nil {
		return nil, fmt.Errorf("parse call: %w", err)
	}
	return &call, nil
}

func (r *Redis) GetActiveCall(ctx context.Context, conversationID string) (*models.CallRoom, error) {
	roomID, err := r.client.Get(ctx, activeKey(conversationID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCallNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active call: %w", err)
	}

	call, err := r.GetCallByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if call.Status != models.CallStatusActive {
		return nil, ErrCallNotFound
	}
	return call, nil
}

func (r *Redis) EndCall(ctx context.Context, roomID, userID string) error {
	call, err := r.GetCallByRoomID(ctx, roomID)
	if errors.Is(err, ErrCallNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if call.Status != models.CallStatusActive {
		return nil
	}
	if call.StartedBy != userID {
		return ErrNotAuthorized
	}

	call.Status = models.CallStatusEnded
	data, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("marshal call: %w", err)
	}
	if err := r.client.Set(ctx, callKey(roomID), data, callTTL).Err(); err != nil {
		return fmt.Errorf("store call: %w", err)
	}
	r.client.Del(ctx, activeKey(call.ConversationID))

	log.Info().Str("room_id", roomID).Str("ended_by", userID).Msg("call ended")
	return nil
}

func (r *Redis) Append(ctx context.Context, roomID, senderID string, signalType models.SignalType, payload string) (*models.SignalMessage, error) {
	seq, err := r.client.Incr(ctx, signalSeqKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("signal sequence: %w", err)
	}

	msg := models.SignalMessage{
		ID:        fmt.Sprintf("%s:%06d", roomID, seq),
		RoomID:    roomID,
		SenderID:  senderID,
		Type:      signalType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal signal: %w", err)
	}
	if err := r.client.RPush(ctx, signalsKey(roomID), data).Err(); err != nil {
		return nil, fmt.Errorf("append signal: %w", err)
	}
	r.client.Expire(ctx, signalsKey(roomID), signalTTL)
	r.client.Expire(ctx, signalSeqKey(roomID), signalTTL)

	return &msg, nil
}

func (r *Redis) List(ctx context.Context, roomID, excludeSenderID string, limit int) ([]models.SignalMessage, error) {
	raw, err := r.client.LRange(ctx, signalsKey(roomID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}

	out := make([]models.SignalMessage, 0, len(raw))
	for _, item := range raw {
		var msg models.SignalMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			log.Warn().Err(err).Str("room_id", roomID).Msg("skipping unparseable signal record")
			continue
		}
		if msg.SenderID == excludeSenderID {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}
