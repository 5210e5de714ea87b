package call

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// The codec is plain lossless JSON over the standard WebRTC structures.
// Decode failures are non-fatal: the dispatcher skips the message.

func EncodeDescription(desc webrtc.SessionDescription) (string, error) {
	data, err := json.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("encode description: %w", err)
	}
	return string(data), nil
}

func DecodeDescription(payload string) (webrtc.SessionDescription, error) {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal([]byte(payload), &desc); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: %v", ErrMalformedSignal, err)
	}
	if desc.SDP == "" {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: empty sdp", ErrMalformedSignal)
	}
	return desc, nil
}

func EncodeCandidate(candidate webrtc.ICECandidateInit) (string, error) {
	data, err := json.Marshal(candidate)
	if err != nil {
		return "", fmt.Errorf("encode candidate: %w", err)
	}
	return string(data), nil
}

func DecodeCandidate(payload string) (webrtc.ICECandidateInit, error) {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal([]byte(payload), &candidate); err != nil {
		return webrtc.ICECandidateInit{}, fmt.Errorf("%w: %v", ErrMalformedSignal, err)
	}
	return candidate, nil
}
