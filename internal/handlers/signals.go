package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/driftchat/call-signaling/internal/models"
	"github.com/driftchat/call-signaling/internal/store"
)

const (
	defaultSignalLimit = 120
	minSignalLimit     = 20
	maxSignalLimit     = 300
)

// SignalHandler serves the append-only signal log endpoints.
type SignalHandler struct {
	signals store.SignalLog
	logger  zerolog.Logger
}

func NewSignalHandler(signals store.SignalLog, logger zerolog.Logger) *SignalHandler {
	return &SignalHandler{signals: signals, logger: logger}
}

// AppendSignal appends one signaling message to the room's log.
func (h *SignalHandler) AppendSignal(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	roomID := c.Param("roomId")

	var req models.AppendSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown signal type"})
		return
	}

	signal, err := h.signals.Append(c.Request.Context(), roomID, userID.(string), req.Type, req.Payload)
	if err != nil {
		h.logger.Error().Err(err).Str("room_id", roomID).Msg("append signal failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to append signal"})
		return
	}

	c.JSON(http.StatusOK, signal)
}

// ListSignals returns the oldest signals in the room, excluding the caller's
// own, oldest first. The limit applies to the scan window before filtering.
func (h *SignalHandler) ListSignals(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	roomID := c.Param("roomId")
	limit := clampLimit(c.Query("limit"))

	signals, err := h.signals.List(c.Request.Context(), roomID, userID.(string), limit)
	if err != nil {
		h.logger.Error().Err(err).Str("room_id", roomID).Msg("list signals failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list signals"})
		return
	}

	if signals == nil {
		signals = []models.SignalMessage{}
	}

	c.JSON(http.StatusOK, models.ListSignalsResponse{Signals: signals})
}

func clampLimit(raw string) int {
	limit := defaultSignalLimit
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < minSignalLimit {
		limit = minSignalLimit
	}
	if limit > maxSignalLimit {
		limit = maxSignalLimit
	}
	return limit
}
