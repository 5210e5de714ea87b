package call

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

const opusSampleRate = 48000

// Recorder writes the peer's inbound media to disk: VP8 video into an IVF
// container and opus audio into an OGG container. One recorder covers one
// recording span; a later restart creates new files.
type Recorder struct {
	mu    sync.Mutex
	video *ivfwriter.IVFWriter
	audio *oggwriter.OggWriter

	VideoPath string
	AudioPath string
}

// NewRecorder creates the container files under dir, named by the current
// time so spans never collide.
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		dir = "."
	}
	stamp := time.Now().UnixMilli()
	videoPath := filepath.Join(dir, fmt.Sprintf("call-%d.ivf", stamp))
	audioPath := filepath.Join(dir, fmt.Sprintf("call-%d.ogg", stamp))

	video, err := ivfwriter.New(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video recording: %w", err)
	}
	audio, err := oggwriter.New(audioPath, opusSampleRate, 2)
	if err != nil {
		_ = video.Close()
		return nil, fmt.Errorf("open audio recording: %w", err)
	}
	return &Recorder{
		video:     video,
		audio:     audio,
		VideoPath: videoPath,
		AudioPath: audioPath,
	}, nil
}

// WriteRTP routes one inbound packet to the container for the track's kind.
// Non-VP8 video is skipped; write failures on individual packets are
// tolerated so a bad packet never ends the recording.
func (r *Recorder) WriteRTP(track *webrtc.TrackRemote, pkt *rtp.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch track.Kind() {
	case webrtc.RTPCodecTypeVideo:
		if r.video == nil || !strings.EqualFold(track.Codec().MimeType, webrtc.MimeTypeVP8) {
			return
		}
		_ = r.video.WriteRTP(pkt)
	case webrtc.RTPCodecTypeAudio:
		if r.audio != nil {
			_ = r.audio.WriteRTP(pkt)
		}
	}
}

// Close finalizes both containers. Best effort: the first error is returned
// but both writers are closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	if r.video != nil {
		if err := r.video.Close(); err != nil {
			first = err
		}
		r.video = nil
	}
	if r.audio != nil {
		if err := r.audio.Close(); err != nil && first == nil {
			first = err
		}
		r.audio = nil
	}
	return first
}
