package call

import (
	"context"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/driftchat/call-signaling/internal/models"
)

// ControllerConfig carries the ambient settings for call attempts.
type ControllerConfig struct {
	ICEServers          []webrtc.ICEServer
	PollInterval        time.Duration
	SignalListLimit     int
	DefaultConversation string
	RecordingDir        string
}

// Controller is the outward-facing surface the UI drives: join, leave,
// toggle media, share the screen, flip the camera, reconnect. It owns at
// most one PeerSession at a time and destroys-then-recreates it for
// reconnects.
type Controller struct {
	selfID    string
	directory Directory
	transport Transport
	media     Media
	cfg       ControllerConfig

	mu            sync.Mutex
	roomID        string
	room          *models.CallRoom
	session       *PeerSession
	dispatchStop  context.CancelFunc
	onRemoteTrack func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
}

func NewController(selfID string, directory Directory, transport Transport, media Media, cfg ControllerConfig) *Controller {
	if cfg.DefaultConversation == "" {
		cfg.DefaultConversation = "general"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.SignalListLimit <= 0 {
		cfg.SignalListLimit = 120
	}
	return &Controller{
		selfID:    selfID,
		directory: directory,
		transport: transport,
		media:     media,
		cfg:       cfg,
	}
}

// OnRemoteTrack registers a callback fired for each track the peer sends.
// Must be called before Join.
func (c *Controller) OnRemoteTrack(fn func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)) {
	c.mu.Lock()
	c.onRemoteTrack = fn
	c.mu.Unlock()
}

// Join validates the call room and starts a session in it. An empty room id
// starts (or re-uses) the active call for the default conversation and joins
// the room it returns. Fails with ErrCallNotFound or ErrCallEnded as
// distinct terminal states.
func (c *Controller) Join(ctx context.Context, roomID string) (string, error) {
	if roomID == "" {
		started, err := c.directory.StartCall(ctx, c.cfg.DefaultConversation)
		if err != nil {
			return "", err
		}
		roomID = started
	}

	room, err := c.directory.GetCallByRoomID(ctx, roomID)
	if err != nil {
		return "", err
	}
	if room == nil {
		return "", ErrCallNotFound
	}
	if room.Status == models.CallStatusEnded {
		return "", ErrCallEnded
	}

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		c.teardown()
		c.mu.Lock()
	}
	session := NewPeerSession(SessionConfig{
		RoomID:        roomID,
		SelfID:        c.selfID,
		Room:          room,
		Transport:     c.transport,
		Media:         c.media,
		ICEServers:    c.cfg.ICEServers,
		OnRemoteTrack: c.onRemoteTrack,
	})
	c.session = session
	c.roomID = roomID
	c.room = room
	c.mu.Unlock()

	if err := session.Start(ctx); err != nil {
		c.teardown()
		return "", err
	}

	dispatchCtx, cancel := context.WithCancel(context.Background())
	dispatcher := NewDispatcher(c.transport, session, roomID, c.cfg.SignalListLimit, c.cfg.PollInterval)
	go dispatcher.Run(dispatchCtx)

	c.mu.Lock()
	c.dispatchStop = cancel
	c.mu.Unlock()

	if session.IsOffering() {
		if err := session.SendInitialOffer(ctx); err != nil {
			log.Warn().Err(err).Str("room_id", roomID).Msg("failed to send initial offer")
		}
	}
	return roomID, nil
}

// Leave tears the session down and, when this participant started the call,
// marks the room ended. Ending is idempotent; an end-call failure never
// blocks leaving.
func (c *Controller) Leave(ctx context.Context) {
	c.mu.Lock()
	roomID := c.roomID
	room := c.room
	c.mu.Unlock()

	if room != nil && IsOfferingSide(c.selfID, room) {
		if err := c.directory.EndCall(ctx, roomID); err != nil {
			// Leaving must never be blocked by a backend error.
			log.Warn().Err(err).Str("room_id", roomID).Msg("end call failed, leaving anyway")
		}
	}
	c.teardown()
}

// Reconnect destroys the current session and builds a fresh one for the same
// room: new connection, cleared buffers, cleared processed-signal set, offer
// guard reset.
func (c *Controller) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	roomID := c.roomID
	c.mu.Unlock()
	if roomID == "" {
		return ErrNotInCall
	}

	c.teardown()
	_, err := c.Join(ctx, roomID)
	return err
}

func (c *Controller) teardown() {
	c.mu.Lock()
	session := c.session
	stop := c.dispatchStop
	c.session = nil
	c.dispatchStop = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if session != nil {
		session.Close()
	}
}

// ToggleMic flips the microphone; returns the new enabled state.
func (c *Controller) ToggleMic() bool {
	if s := c.currentSession(); s != nil {
		return s.ToggleMic()
	}
	return false
}

// ToggleCam flips the camera; returns the new enabled state.
func (c *Controller) ToggleCam() bool {
	if s := c.currentSession(); s != nil {
		return s.ToggleCam()
	}
	return false
}

// ToggleScreenShare starts the share when idle and stops it when active.
func (c *Controller) ToggleScreenShare(ctx context.Context) error {
	s := c.currentSession()
	if s == nil {
		return ErrNotInCall
	}
	if s.Sharing() {
		return s.StopScreenShare(ctx)
	}
	return s.StartScreenShare(ctx)
}

// ToggleRecording starts or stops writing the inbound media to disk and
// returns the new recording state.
func (c *Controller) ToggleRecording() (bool, error) {
	s := c.currentSession()
	if s == nil {
		return false, ErrNotInCall
	}
	if s.Recording() {
		return false, s.StopRecording()
	}
	if err := s.StartRecording(c.cfg.RecordingDir); err != nil {
		return false, err
	}
	return true, nil
}

// FlipCamera switches to the next camera device.
func (c *Controller) FlipCamera(ctx context.Context) error {
	s := c.currentSession()
	if s == nil {
		return ErrNotInCall
	}
	return s.FlipCamera(ctx)
}

func (c *Controller) currentSession() *PeerSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Session exposes the live session's observable state; nil outside a call.
func (c *Controller) Session() *PeerSession {
	return c.currentSession()
}

// RoomID is the room of the current (or last) call attempt.
func (c *Controller) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}
