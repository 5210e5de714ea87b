// Package media implements the call core's capture surface on top of
// pion/mediadevices: VP8+Opus encoding, V4L2/ALSA capture and X11 screen
// grabbing, with a webrtc API whose media engine knows the capture codecs.
package media

import (
	"fmt"

	"github.com/pion/interceptor"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"     // register camera driver
	_ "github.com/pion/mediadevices/pkg/driver/microphone" // register microphone driver
	_ "github.com/pion/mediadevices/pkg/driver/screen"     // register screen driver
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/webrtc/v4"

	"github.com/driftchat/call-signaling/internal/call"
)

const videoBitRate = 1_500_000 // 1.5 Mbps

// Engine satisfies call.Media with real devices.
type Engine struct {
	selector *mediadevices.CodecSelector
	api      *webrtc.API
}

func NewEngine() (*Engine, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, fmt.Errorf("vp8 params: %w", err)
	}
	vpxParams.BitRate = videoBitRate

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, fmt.Errorf("opus params: %w", err)
	}

	selector := mediadevices.NewCodecSelector(
		mediadevices.WithVideoEncoders(&vpxParams),
		mediadevices.WithAudioEncoders(&opusParams),
	)

	mediaEngine := &webrtc.MediaEngine{}
	selector.Populate(mediaEngine)

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
	)

	return &Engine{selector: selector, api: api}, nil
}

func (e *Engine) NewPeerConnection(config webrtc.Configuration) (*webrtc.PeerConnection, error) {
	return e.api.NewPeerConnection(config)
}

func (e *Engine) GetUserMedia(opts call.CaptureOptions) (*call.MediaStream, error) {
	constraints := mediadevices.MediaStreamConstraints{Codec: e.selector}
	if opts.Video {
		constraints.Video = func(c *mediadevices.MediaTrackConstraints) {
			// Raw formats only: some cameras expose MJPEG nodes that produce
			// frames the VP8 encoder cannot digest.
			c.FrameFormat = prop.FrameFormatOneOf{
				frame.FormatYUYV,
				frame.FormatI420,
				frame.FormatI444,
				frame.FormatRGBA,
			}
			c.Width = prop.IntRanged{Max: 1280}
			c.Height = prop.IntRanged{Max: 720}
			if opts.VideoDeviceID != "" {
				c.DeviceID = prop.String(opts.VideoDeviceID)
			}
		}
	}
	if opts.Audio {
		constraints.Audio = func(_ *mediadevices.MediaTrackConstraints) {}
	}

	stream, err := mediadevices.GetUserMedia(constraints)
	if err != nil {
		return nil, fmt.Errorf("get user media: %w", err)
	}
	return wrapStream(stream), nil
}

func (e *Engine) GetDisplayMedia() (*call.MediaStream, error) {
	stream, err := mediadevices.GetDisplayMedia(mediadevices.MediaStreamConstraints{
		Codec: e.selector,
		Video: func(_ *mediadevices.MediaTrackConstraints) {},
	})
	if err != nil {
		return nil, fmt.Errorf("get display media: %w", err)
	}
	return wrapStream(stream), nil
}

func (e *Engine) VideoInputs() ([]call.MediaDeviceInfo, error) {
	var out []call.MediaDeviceInfo
	for _, device := range mediadevices.EnumerateDevices() {
		if device.Kind != mediadevices.VideoInput {
			continue
		}
		out = append(out, call.MediaDeviceInfo{DeviceID: device.DeviceID, Label: device.Label})
	}
	return out, nil
}

// wrapStream lifts mediadevices tracks into the call package's track
// interface, which they already satisfy.
func wrapStream(stream mediadevices.MediaStream) *call.MediaStream {
	tracks := stream.GetTracks()
	out := make([]call.LocalTrack, 0, len(tracks))
	for _, track := range tracks {
		out = append(out, track)
	}
	return call.NewMediaStream(out...)
}
