package call

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/driftchat/call-signaling/internal/models"
)

// fakeTrack is a sample-backed local track with the OnEnded/Close surface of
// a captured device track.
type fakeTrack struct {
	*webrtc.TrackLocalStaticSample
	mu      sync.Mutex
	onEnded func(error)
	closed  bool
}

func newFakeTrack(t *testing.T, kind webrtc.RTPCodecType, id string) *fakeTrack {
	t.Helper()
	capability := webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}
	if kind == webrtc.RTPCodecTypeVideo {
		capability = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}
	}
	track, err := webrtc.NewTrackLocalStaticSample(capability, id, "fake-stream")
	require.NoError(t, err)
	return &fakeTrack{TrackLocalStaticSample: track}
}

func (f *fakeTrack) OnEnded(handler func(error)) {
	f.mu.Lock()
	f.onEnded = handler
	f.mu.Unlock()
}

func (f *fakeTrack) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTrack) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// end simulates the platform stopping the capture on its own.
func (f *fakeTrack) end() {
	f.mu.Lock()
	handler := f.onEnded
	f.mu.Unlock()
	if handler != nil {
		handler(nil)
	}
}

// fakeMedia hands out fake tracks and real peer connections.
type fakeMedia struct {
	t *testing.T

	mu           sync.Mutex
	inputs       []MediaDeviceInfo
	captures     []CaptureOptions
	userTracks   []*fakeTrack
	screenTracks []*fakeTrack
	userMediaErr error
	displayErr   error
	counter      int
}

func newFakeMedia(t *testing.T) *fakeMedia {
	return &fakeMedia{
		t:      t,
		inputs: []MediaDeviceInfo{{DeviceID: "cam0", Label: "Integrated Camera"}},
	}
}

func (m *fakeMedia) NewPeerConnection(config webrtc.Configuration) (*webrtc.PeerConnection, error) {
	return webrtc.NewPeerConnection(config)
}

func (m *fakeMedia) GetUserMedia(opts CaptureOptions) (*MediaStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userMediaErr != nil {
		return nil, m.userMediaErr
	}
	m.captures = append(m.captures, opts)
	m.counter++

	var tracks []LocalTrack
	if opts.Audio {
		track := newFakeTrack(m.t, webrtc.RTPCodecTypeAudio, fmt.Sprintf("audio-%d", m.counter))
		m.userTracks = append(m.userTracks, track)
		tracks = append(tracks, track)
	}
	if opts.Video {
		track := newFakeTrack(m.t, webrtc.RTPCodecTypeVideo, fmt.Sprintf("video-%d", m.counter))
		m.userTracks = append(m.userTracks, track)
		tracks = append(tracks, track)
	}
	return NewMediaStream(tracks...), nil
}

func (m *fakeMedia) GetDisplayMedia() (*MediaStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.displayErr != nil {
		return nil, m.displayErr
	}
	m.counter++
	track := newFakeTrack(m.t, webrtc.RTPCodecTypeVideo, fmt.Sprintf("screen-%d", m.counter))
	m.screenTracks = append(m.screenTracks, track)
	return NewMediaStream(track), nil
}

func (m *fakeMedia) VideoInputs() ([]MediaDeviceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MediaDeviceInfo, len(m.inputs))
	copy(out, m.inputs)
	return out, nil
}

func (m *fakeMedia) captureOptions() []CaptureOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CaptureOptions, len(m.captures))
	copy(out, m.captures)
	return out
}

func (m *fakeMedia) lastScreenTrack() *fakeTrack {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.screenTracks) == 0 {
		return nil
	}
	return m.screenTracks[len(m.screenTracks)-1]
}

// memTransport records appended signals and serves canned lists.
type memTransport struct {
	mu        sync.Mutex
	seq       int
	appended  []models.SignalMessage
	canned    []models.SignalMessage
	appendErr error
}

func (tr *memTransport) Append(_ context.Context, roomID string, signalType models.SignalType, payload string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.appendErr != nil {
		return tr.appendErr
	}
	tr.seq++
	tr.appended = append(tr.appended, models.SignalMessage{
		ID:      fmt.Sprintf("%s:%06d", roomID, tr.seq),
		RoomID:  roomID,
		Type:    signalType,
		Payload: payload,
	})
	return nil
}

func (tr *memTransport) List(_ context.Context, _ string, _ int) ([]models.SignalMessage, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]models.SignalMessage, len(tr.canned))
	copy(out, tr.canned)
	return out, nil
}

func (tr *memTransport) byType(signalType models.SignalType) []models.SignalMessage {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	var out []models.SignalMessage
	for _, msg := range tr.appended {
		if msg.Type == signalType {
			out = append(out, msg)
		}
	}
	return out
}

// fakeDirectory is an in-memory call directory for controller tests.
type fakeDirectory struct {
	mu       sync.Mutex
	rooms    map[string]*models.CallRoom
	started  []string
	ended    []string
	startErr error
	endErr   error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{rooms: make(map[string]*models.CallRoom)}
}

func (d *fakeDirectory) addRoom(room *models.CallRoom) {
	d.mu.Lock()
	d.rooms[room.RoomID] = room
	d.mu.Unlock()
}

func (d *fakeDirectory) StartCall(_ context.Context, conversationID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return "", d.startErr
	}
	d.started = append(d.started, conversationID)
	for _, room := range d.rooms {
		if room.ConversationID == conversationID && room.Status == models.CallStatusActive {
			return room.RoomID, nil
		}
	}
	return "", ErrCallNotFound
}

func (d *fakeDirectory) GetCallByRoomID(_ context.Context, roomID string) (*models.CallRoom, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return nil, ErrCallNotFound
	}
	copied := *room
	return &copied, nil
}

func (d *fakeDirectory) EndCall(_ context.Context, roomID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ended = append(d.ended, roomID)
	return d.endErr
}

func (d *fakeDirectory) endedRooms() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.ended))
	copy(out, d.ended)
	return out
}

// makeRemoteOffer produces a real offer SDP from a throwaway peer connection.
func makeRemoteOffer(t *testing.T) string {
	t.Helper()
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	_, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio)
	require.NoError(t, err)
	_, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo)
	require.NoError(t, err)

	offer, err := pc.CreateOffer(nil)
	require.NoError(t, err)
	require.NoError(t, pc.SetLocalDescription(offer))

	payload, err := EncodeDescription(offer)
	require.NoError(t, err)
	return payload
}
