package call

import (
	"github.com/pion/webrtc/v4"
)

// LocalTrack is a locally captured media track: a webrtc.TrackLocal that can
// report its own end and be closed. pion/mediadevices tracks satisfy this
// directly; tests use sample-track fakes.
type LocalTrack interface {
	webrtc.TrackLocal
	OnEnded(handler func(error))
	Close() error
}

// MediaStream groups the tracks of one capture. Streams are replaced, never
// mutated: flipping the camera or starting a screen share produces a new
// stream.
type MediaStream struct {
	tracks []LocalTrack
}

func NewMediaStream(tracks ...LocalTrack) *MediaStream {
	return &MediaStream{tracks: tracks}
}

func (s *MediaStream) Tracks() []LocalTrack {
	if s == nil {
		return nil
	}
	return s.tracks
}

func (s *MediaStream) AudioTracks() []LocalTrack {
	return s.tracksOfKind(webrtc.RTPCodecTypeAudio)
}

func (s *MediaStream) VideoTracks() []LocalTrack {
	return s.tracksOfKind(webrtc.RTPCodecTypeVideo)
}

func (s *MediaStream) tracksOfKind(kind webrtc.RTPCodecType) []LocalTrack {
	if s == nil {
		return nil
	}
	var out []LocalTrack
	for _, t := range s.tracks {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

// Close stops every track in the stream. Best effort: the first error is
// returned but all tracks are closed.
func (s *MediaStream) Close() error {
	if s == nil {
		return nil
	}
	var first error
	for _, t := range s.tracks {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CaptureOptions selects what GetUserMedia captures. VideoDeviceID pins the
// camera; empty means the default device.
type CaptureOptions struct {
	Audio         bool
	Video         bool
	VideoDeviceID string
}

// MediaDeviceInfo describes one capture device.
type MediaDeviceInfo struct {
	DeviceID string
	Label    string
}

// Media is the capture and peer-connection factory the session depends on.
// The production implementation wraps pion/mediadevices; tests substitute
// fakes. NewPeerConnection lives here because the peer connection must be
// built from an API whose media engine knows the capture codecs.
type Media interface {
	NewPeerConnection(config webrtc.Configuration) (*webrtc.PeerConnection, error)
	GetUserMedia(opts CaptureOptions) (*MediaStream, error)
	GetDisplayMedia() (*MediaStream, error)
	VideoInputs() ([]MediaDeviceInfo, error)
}
