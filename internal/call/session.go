package call

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/driftchat/call-signaling/internal/models"
)

const signalSendTimeout = 10 * time.Second

// SessionConfig wires one call attempt for one participant.
type SessionConfig struct {
	RoomID     string
	SelfID     string
	Room       *models.CallRoom
	Transport  Transport
	Media      Media
	ICEServers []webrtc.ICEServer

	// OnRemoteTrack, if set, is invoked for each track received from the
	// peer. The session also records remote tracks for RemoteTracks().
	OnRemoteTrack func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
}

// PeerSession is the live state of one call attempt: it exclusively owns the
// peer connection, the local media stream, the pending ICE buffer, the
// processed-signal set and the offer guard. A session is created and
// destroyed atomically; reconnecting means destroying it and building a new
// one, never mutating connection state across attempts.
//
// All signaling operations serialize on the session mutex, so no two of them
// ever interleave on the phase machine.
type PeerSession struct {
	cfg      SessionConfig
	offering bool
	logger   zerolog.Logger

	mu             sync.Mutex
	pc             *webrtc.PeerConnection
	phase          SignalingPhase
	state          ConnState
	local          *MediaStream
	screen         *MediaStream
	cameraTrack    LocalTrack
	cameraDeviceID string
	audioSender    *webrtc.RTPSender
	videoSender    *webrtc.RTPSender
	micEnabled     bool
	camEnabled     bool
	sharing        bool
	flipBusy       bool
	shareBusy      bool
	pendingICE     []webrtc.ICECandidateInit
	processed      map[string]struct{}
	sentOffer      bool
	cancelled      bool
	closed         bool
	remoteTracks   []*webrtc.TrackRemote
	recorder       *Recorder
	connectedAt    time.Time
	lastErr        string
	quality        string

	prevStats statsSample
	done      chan struct{}
}

// NewPeerSession builds a session without performing any I/O. Start acquires
// media and creates the peer connection.
func NewPeerSession(cfg SessionConfig) *PeerSession {
	return &PeerSession{
		cfg:       cfg,
		offering:  IsOfferingSide(cfg.SelfID, cfg.Room),
		logger:    log.With().Str("room_id", cfg.RoomID).Str("self_id", cfg.SelfID).Logger(),
		phase:     PhaseStable,
		state:     StateIdle,
		processed: make(map[string]struct{}),
		quality:   "unknown",
		done:      make(chan struct{}),
	}
}

// IsOffering reports whether this session is the side responsible for the
// initial offer.
func (s *PeerSession) IsOffering() bool { return s.offering }

// Start acquires camera and microphone, creates the peer connection,
// registers the remote-track / ICE / connection-state handlers and attaches
// the local tracks. If the session was closed while capture was in flight,
// the captured tracks are stopped and ErrSessionClosed is returned.
func (s *PeerSession) Start(ctx context.Context) error {
	stream, err := s.cfg.Media.GetUserMedia(CaptureOptions{Audio: true, Video: true})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMediaAccess, err)
	}

	s.mu.Lock()
	if s.cancelled || s.closed {
		s.mu.Unlock()
		_ = stream.Close()
		return ErrSessionClosed
	}

	pc, err := s.cfg.Media.NewPeerConnection(webrtc.Configuration{ICEServers: s.cfg.ICEServers})
	if err != nil {
		s.mu.Unlock()
		_ = stream.Close()
		return fmt.Errorf("create peer connection: %w", err)
	}
	s.pc = pc

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		s.mu.Lock()
		s.remoteTracks = append(s.remoteTracks, track)
		s.mu.Unlock()
		s.logger.Info().Str("kind", track.Kind().String()).Msg("remote track received")
		go s.readRemote(track)
		if s.cfg.OnRemoteTrack != nil {
			s.cfg.OnRemoteTrack(track, receiver)
		}
	})

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		// Candidates are transmitted immediately, one signal each.
		s.sendCandidate(candidate.ToJSON())
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.handleConnectionState(state)
	})

	for _, track := range stream.Tracks() {
		sender, err := pc.AddTrack(track)
		if err != nil {
			s.mu.Unlock()
			_ = stream.Close()
			_ = pc.Close()
			return fmt.Errorf("add track: %w", err)
		}
		switch track.Kind() {
		case webrtc.RTPCodecTypeAudio:
			s.audioSender = sender
		case webrtc.RTPCodecTypeVideo:
			s.videoSender = sender
		}
		go drainRTCP(sender)
	}

	s.local = stream
	if videos := stream.VideoTracks(); len(videos) > 0 {
		s.cameraTrack = videos[0]
	}
	s.micEnabled = len(stream.AudioTracks()) > 0
	s.camEnabled = len(stream.VideoTracks()) > 0
	s.state = StateNegotiating
	s.mu.Unlock()

	go s.sampleQuality()
	return nil
}

// readRemote keeps the inbound RTP flowing so interceptors and stats run,
// feeding the recorder while one is active. Exits when the track errors,
// which happens when the connection closes.
func (s *PeerSession) readRemote(track *webrtc.TrackRemote) {
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		s.mu.Lock()
		rec := s.recorder
		s.mu.Unlock()
		if rec != nil {
			rec.WriteRTP(track, pkt)
		}
	}
}

// drainRTCP keeps the sender's RTCP stream read so interceptors run.
func drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}

// SendInitialOffer creates and transmits the session's single initial offer.
// It is a no-op unless this is the offering side, local media is ready, the
// phase is stable and no offer has been sent yet, so calling it again later is
// harmless.
func (s *PeerSession) SendInitialOffer(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if !s.offering || s.sentOffer || s.phase != PhaseStable || s.local == nil {
		s.mu.Unlock()
		return nil
	}

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create offer: %w", err)
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("set local description: %w", err)
	}
	if s.phase, err = s.phase.Next(PhaseHaveLocalOffer); err != nil {
		s.mu.Unlock()
		return err
	}
	s.sentOffer = true
	payload, err := EncodeDescription(offer)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.cfg.Transport.Append(ctx, s.cfg.RoomID, models.SignalTypeOffer, payload); err != nil {
		return fmt.Errorf("send offer: %w", err)
	}
	s.logger.Info().Msg("initial offer sent")
	return nil
}

// Dispatch applies one signal from the transport. Each signal id is applied
// at most once per session: the id is marked processed before the payload is
// even decoded, so duplicate delivery across polls has no effect. Malformed
// payloads return ErrMalformedSignal and leave the session untouched.
func (s *PeerSession) Dispatch(ctx context.Context, sig models.SignalMessage) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if _, seen := s.processed[sig.ID]; seen {
		s.mu.Unlock()
		return nil
	}
	s.processed[sig.ID] = struct{}{}
	s.mu.Unlock()

	switch sig.Type {
	case models.SignalTypeOffer:
		return s.handleOffer(ctx, sig.Payload)
	case models.SignalTypeAnswer:
		return s.handleAnswer(sig.Payload)
	case models.SignalTypeICE:
		return s.handleCandidate(sig.Payload)
	default:
		s.logger.Debug().Str("type", string(sig.Type)).Msg("ignoring unknown signal type")
		return nil
	}
}

// handleOffer accepts a remote offer only while the phase is exactly stable.
// If this side already holds a local offer, the incoming one is dropped and
// the sender's offer loses. This is the two-participant glare policy.
func (s *PeerSession) handleOffer(ctx context.Context, payload string) error {
	desc, err := DecodeDescription(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.phase != PhaseStable {
		s.logger.Debug().Str("phase", s.phase.String()).Msg("dropping offer outside stable phase")
		s.mu.Unlock()
		return nil
	}
	if err := s.pc.SetRemoteDescription(desc); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("set remote offer: %w", err)
	}
	if s.phase, err = s.phase.Next(PhaseHaveRemoteOffer); err != nil {
		s.mu.Unlock()
		return err
	}
	s.flushPendingCandidatesLocked()

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create answer: %w", err)
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("set local answer: %w", err)
	}
	if s.phase, err = s.phase.Next(PhaseStable); err != nil {
		s.mu.Unlock()
		return err
	}
	out, err := EncodeDescription(answer)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.cfg.Transport.Append(ctx, s.cfg.RoomID, models.SignalTypeAnswer, out); err != nil {
		return fmt.Errorf("send answer: %w", err)
	}
	s.logger.Info().Msg("answer sent")
	return nil
}

// handleAnswer accepts an answer only while a local offer is outstanding.
// Anything else is an expected consequence of polled delivery and ignored.
func (s *PeerSession) handleAnswer(payload string) error {
	desc, err := DecodeDescription(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if s.phase != PhaseHaveLocalOffer {
		s.logger.Debug().Str("phase", s.phase.String()).Msg("dropping answer without outstanding offer")
		return nil
	}
	if err := s.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote answer: %w", err)
	}
	if s.phase, err = s.phase.Next(PhaseStable); err != nil {
		return err
	}
	s.flushPendingCandidatesLocked()
	return nil
}

// handleCandidate applies a candidate immediately once a remote description
// exists, and buffers it otherwise. Invalid candidates are discarded,
// common during reconnect races, never fatal.
func (s *PeerSession) handleCandidate(payload string) error {
	candidate, err := DecodeCandidate(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if s.pc.RemoteDescription() == nil {
		s.pendingICE = append(s.pendingICE, candidate)
		return nil
	}
	if err := s.pc.AddICECandidate(candidate); err != nil {
		s.logger.Debug().Err(err).Msg("discarding invalid ICE candidate")
	}
	return nil
}

// flushPendingCandidatesLocked drains the buffer in receipt order the moment
// a remote description is available. The buffer is empty afterwards.
func (s *PeerSession) flushPendingCandidatesLocked() {
	pending := s.pendingICE
	s.pendingICE = nil
	for _, candidate := range pending {
		if err := s.pc.AddICECandidate(candidate); err != nil {
			s.logger.Debug().Err(err).Msg("discarding buffered ICE candidate")
		}
	}
}

// sendCandidate transmits one locally discovered candidate. Runs on pion's
// gathering goroutine, so it must not take the session mutex.
func (s *PeerSession) sendCandidate(candidate webrtc.ICECandidateInit) {
	payload, err := EncodeCandidate(candidate)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode ICE candidate")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), signalSendTimeout)
	defer cancel()
	if err := s.cfg.Transport.Append(ctx, s.cfg.RoomID, models.SignalTypeICE, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to send ICE candidate")
	}
}

func (s *PeerSession) handleConnectionState(state webrtc.PeerConnectionState) {
	s.logger.Info().Str("connection_state", state.String()).Msg("connection state changed")

	switch state {
	case webrtc.PeerConnectionStateConnected:
		s.mu.Lock()
		if !s.closed {
			s.state = StateConnected
			s.lastErr = ""
			if s.connectedAt.IsZero() {
				s.connectedAt = time.Now()
			}
		}
		s.mu.Unlock()
	case webrtc.PeerConnectionStateFailed:
		s.restartICE()
	case webrtc.PeerConnectionStateClosed:
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
	}
}

// restartICE renegotiates transport paths after a failed connection state.
// This is the one case an offer is sent more than once per session; it is
// exempt from the initial-offer guard but still requires a stable phase.
func (s *PeerSession) restartICE() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = StateReconnecting
	if s.phase != PhaseStable {
		s.lastErr = ErrConnectionFailed.Error()
		s.mu.Unlock()
		return
	}

	offer, err := s.pc.CreateOffer(&webrtc.OfferOptions{ICERestart: true})
	if err == nil {
		err = s.pc.SetLocalDescription(offer)
	}
	if err != nil {
		s.lastErr = ErrConnectionFailed.Error()
		s.mu.Unlock()
		s.logger.Warn().Err(err).Msg("ICE restart failed")
		return
	}
	s.phase, _ = s.phase.Next(PhaseHaveLocalOffer)
	payload, err := EncodeDescription(offer)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn().Err(err).Msg("ICE restart failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), signalSendTimeout)
	defer cancel()
	if err := s.cfg.Transport.Append(ctx, s.cfg.RoomID, models.SignalTypeOffer, payload); err != nil {
		s.mu.Lock()
		s.lastErr = ErrConnectionFailed.Error()
		s.mu.Unlock()
		s.logger.Warn().Err(err).Msg("failed to send ICE restart offer")
		return
	}
	s.logger.Info().Msg("ICE restart offer sent")
}

// ToggleMic flips the microphone. The track itself is never stopped: the
// audio sender swaps between the live track and nil, keeping the peer
// connection's sender alive. Returns the new enabled state.
func (s *PeerSession) ToggleMic() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracks := s.local.AudioTracks()
	if s.closed || s.audioSender == nil || len(tracks) == 0 {
		return s.micEnabled
	}

	var target webrtc.TrackLocal
	if !s.micEnabled {
		target = tracks[0]
	}
	if err := s.audioSender.ReplaceTrack(target); err != nil {
		s.logger.Warn().Err(err).Msg("failed to toggle microphone")
		return s.micEnabled
	}
	s.micEnabled = !s.micEnabled
	return s.micEnabled
}

// ToggleCam flips the camera, same mechanism as ToggleMic. While screen
// sharing the screen track is the one swapped.
func (s *PeerSession) ToggleCam() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	track := s.currentVideoTrackLocked()
	if s.closed || s.videoSender == nil || track == nil {
		return s.camEnabled
	}

	var target webrtc.TrackLocal
	if !s.camEnabled {
		target = track
	}
	if err := s.videoSender.ReplaceTrack(target); err != nil {
		s.logger.Warn().Err(err).Msg("failed to toggle camera")
		return s.camEnabled
	}
	s.camEnabled = !s.camEnabled
	return s.camEnabled
}

func (s *PeerSession) currentVideoTrackLocked() LocalTrack {
	if s.sharing && s.screen != nil {
		if videos := s.screen.VideoTracks(); len(videos) > 0 {
			return videos[0]
		}
	}
	return s.cameraTrack
}

// StartScreenShare captures the display and swaps it onto the video sender
// in place. No new offer/answer round trip: the existing sender keeps its
// negotiated parameters. When the display track ends on its own (the
// platform's stop-sharing affordance), the camera is restored automatically.
func (s *PeerSession) StartScreenShare(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.sharing {
		s.mu.Unlock()
		return nil
	}
	if s.shareBusy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.shareBusy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.shareBusy = false
		s.mu.Unlock()
	}()

	stream, err := s.cfg.Media.GetDisplayMedia()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMediaAccess, err)
	}

	s.mu.Lock()
	if s.closed || s.cancelled {
		s.mu.Unlock()
		_ = stream.Close()
		return ErrSessionClosed
	}
	videos := stream.VideoTracks()
	if len(videos) == 0 || s.videoSender == nil {
		s.mu.Unlock()
		_ = stream.Close()
		return fmt.Errorf("%w: display capture produced no video track", ErrMediaAccess)
	}
	track := videos[0]
	if err := s.videoSender.ReplaceTrack(track); err != nil {
		s.mu.Unlock()
		_ = stream.Close()
		return fmt.Errorf("replace video track: %w", err)
	}
	s.screen = stream
	s.sharing = true
	s.mu.Unlock()

	track.OnEnded(func(error) {
		go func() { _ = s.StopScreenShare(context.Background()) }()
	})
	s.logger.Info().Msg("screen share started")
	return nil
}

// StopScreenShare restores the camera track on the video sender and stops
// the display capture. If the camera track is gone it is re-captured.
func (s *PeerSession) StopScreenShare(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if !s.sharing {
		s.mu.Unlock()
		return nil
	}
	s.sharing = false
	screen := s.screen
	s.screen = nil
	camera := s.cameraTrack
	deviceID := s.cameraDeviceID
	s.mu.Unlock()

	if screen != nil {
		_ = screen.Close()
	}

	if camera == nil {
		stream, err := s.cfg.Media.GetUserMedia(CaptureOptions{Video: true, VideoDeviceID: deviceID})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMediaAccess, err)
		}
		videos := stream.VideoTracks()
		if len(videos) == 0 {
			_ = stream.Close()
			return fmt.Errorf("%w: no camera track", ErrMediaAccess)
		}
		camera = videos[0]
		s.mu.Lock()
		if s.closed || s.cancelled {
			s.mu.Unlock()
			_ = stream.Close()
			return ErrSessionClosed
		}
		s.cameraTrack = camera
		s.local = NewMediaStream(append(s.local.AudioTracks(), camera)...)
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	var target webrtc.TrackLocal
	if s.camEnabled {
		target = camera
	}
	if s.videoSender != nil {
		if err := s.videoSender.ReplaceTrack(target); err != nil {
			return fmt.Errorf("restore camera track: %w", err)
		}
	}
	s.logger.Info().Msg("screen share stopped")
	return nil
}

// Sharing reports whether a screen share is active.
func (s *PeerSession) Sharing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sharing
}

// FlipCamera switches to the next available camera device and swaps the new
// track onto the video sender without renegotiation. Guarded against
// concurrent flips and against flipping during a screen share.
func (s *PeerSession) FlipCamera(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.sharing || s.flipBusy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.flipBusy = true
	current := s.cameraDeviceID
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.flipBusy = false
		s.mu.Unlock()
	}()

	inputs, err := s.cfg.Media.VideoInputs()
	if err != nil {
		return fmt.Errorf("enumerate cameras: %w", err)
	}
	if len(inputs) < 2 {
		return nil
	}
	// An unset device id means the default capture, which is the first
	// enumerated device.
	next := inputs[1]
	for i, input := range inputs {
		if input.DeviceID == current {
			next = inputs[(i+1)%len(inputs)]
			break
		}
	}

	stream, err := s.cfg.Media.GetUserMedia(CaptureOptions{Video: true, VideoDeviceID: next.DeviceID})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMediaAccess, err)
	}

	s.mu.Lock()
	if s.closed || s.cancelled {
		s.mu.Unlock()
		_ = stream.Close()
		return ErrSessionClosed
	}
	videos := stream.VideoTracks()
	if len(videos) == 0 {
		s.mu.Unlock()
		_ = stream.Close()
		return fmt.Errorf("%w: no camera track", ErrMediaAccess)
	}
	newTrack := videos[0]
	if s.camEnabled && s.videoSender != nil {
		if err := s.videoSender.ReplaceTrack(newTrack); err != nil {
			s.mu.Unlock()
			_ = stream.Close()
			return fmt.Errorf("replace video track: %w", err)
		}
	}
	old := s.cameraTrack
	s.cameraTrack = newTrack
	s.cameraDeviceID = next.DeviceID
	s.local = NewMediaStream(append(s.local.AudioTracks(), newTrack)...)
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	s.logger.Info().Str("device_id", next.DeviceID).Msg("camera flipped")
	return nil
}

// StartRecording begins writing the inbound media to containers under dir.
// Starting while already recording is a no-op.
func (s *PeerSession) StartRecording(dir string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.recorder != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	rec, err := NewRecorder(dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed || s.cancelled {
		s.mu.Unlock()
		_ = rec.Close()
		return ErrSessionClosed
	}
	s.recorder = rec
	s.mu.Unlock()
	s.logger.Info().Str("dir", dir).Msg("recording started")
	return nil
}

// StopRecording finalizes the recording containers. Stopping twice is
// harmless.
func (s *PeerSession) StopRecording() error {
	s.mu.Lock()
	rec := s.recorder
	s.recorder = nil
	s.mu.Unlock()
	if rec == nil {
		return nil
	}
	s.logger.Info().Msg("recording stopped")
	return rec.Close()
}

// Recording reports whether inbound media is being written to disk.
func (s *PeerSession) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder != nil
}

// Close tears the session down: the connection is closed, every local and
// screen-share track is stopped, and all buffers plus the processed-signal
// set are released. Idempotent.
func (s *PeerSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelled = true
	pc := s.pc
	local := s.local
	screen := s.screen
	recorder := s.recorder
	s.local = nil
	s.screen = nil
	s.cameraTrack = nil
	s.sharing = false
	s.recorder = nil
	s.pendingICE = nil
	s.processed = make(map[string]struct{})
	s.remoteTracks = nil
	s.state = StateClosed
	close(s.done)
	s.mu.Unlock()

	if pc != nil {
		_ = pc.Close()
	}
	_ = local.Close()
	_ = screen.Close()
	if recorder != nil {
		_ = recorder.Close()
	}
	s.logger.Info().Msg("session closed")
}

// Observables.

func (s *PeerSession) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *PeerSession) Phase() SignalingPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *PeerSession) MicEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.micEnabled
}

func (s *PeerSession) CamEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camEnabled
}

// LocalStream returns the current local media stream; nil before Start or
// after Close.
func (s *PeerSession) LocalStream() *MediaStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// RemoteTracks returns the tracks received from the peer, read-only.
func (s *PeerSession) RemoteTracks() []*webrtc.TrackRemote {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*webrtc.TrackRemote, len(s.remoteTracks))
	copy(out, s.remoteTracks)
	return out
}

// Duration is the elapsed time since the connection first reached the
// connected state, zero before that.
func (s *PeerSession) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectedAt.IsZero() {
		return 0
	}
	return time.Since(s.connectedAt)
}

// LastError is the retryable user-facing error message, empty when healthy.
func (s *PeerSession) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Busy reports whether a screen-share or camera-flip operation is in
// flight. The UI disables the corresponding controls while it is.
func (s *PeerSession) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flipBusy || s.shareBusy
}

// Quality is the human-readable label from inbound video sampling.
func (s *PeerSession) Quality() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quality
}

// test hooks, same package only.

func (s *PeerSession) pendingCandidateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingICE)
}

func (s *PeerSession) sentInitialOffer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sentOffer
}
