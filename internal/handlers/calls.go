package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/driftchat/call-signaling/internal/models"
	"github.com/driftchat/call-signaling/internal/store"
)

// CallHandler serves the call room lifecycle endpoints.
type CallHandler struct {
	calls  store.CallStore
	logger zerolog.Logger
}

func NewCallHandler(calls store.CallStore, logger zerolog.Logger) *CallHandler {
	return &CallHandler{calls: calls, logger: logger}
}

// StartCall starts a call for a conversation, or returns the room of the
// already active call. Idempotent across concurrent starters.
func (h *CallHandler) StartCall(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req models.StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.calls.StartCall(c.Request.Context(), req.ConversationID, userID.(string))
	if err != nil {
		h.logger.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("start call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start call"})
		return
	}

	h.logger.Info().
		Str("room_id", room.RoomID).
		Str("conversation_id", req.ConversationID).
		Str("user_id", userID.(string)).
		Msg("call started")

	c.JSON(http.StatusOK, models.StartCallResponse{RoomID: room.RoomID})
}

// GetCall returns the room metadata for a room id.
func (h *CallHandler) GetCall(c *gin.Context) {
	roomID := c.Param("roomId")

	room, err := h.calls.GetCallByRoomID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrCallNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Call not found"})
			return
		}
		h.logger.Error().Err(err).Str("room_id", roomID).Msg("get call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get call"})
		return
	}

	c.JSON(http.StatusOK, room)
}

// GetActiveCall returns the active call room for a conversation, if any.
func (h *CallHandler) GetActiveCall(c *gin.Context) {
	conversationID := c.Param("conversationId")

	room, err := h.calls.GetActiveCall(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, store.ErrCallNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active call"})
			return
		}
		h.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("get active call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get active call"})
		return
	}

	c.JSON(http.StatusOK, room)
}

// EndCall marks a call ended. Only the starter may end it; ending a missing
// or already ended call is a no-op.
func (h *CallHandler) EndCall(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	roomID := c.Param("roomId")

	if err := h.calls.EndCall(c.Request.Context(), roomID, userID.(string)); err != nil {
		if errors.Is(err, store.ErrNotAuthorized) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the caller can end the call"})
			return
		}
		h.logger.Error().Err(err).Str("room_id", roomID).Msg("end call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end call"})
		return
	}

	h.logger.Info().Str("room_id", roomID).Str("user_id", userID.(string)).Msg("call ended")

	c.JSON(http.StatusOK, gin.H{"message": "Call ended"})
}
