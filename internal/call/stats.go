package call

import (
	"time"

	"github.com/pion/webrtc/v4"
)

const statsInterval = 3 * time.Second

type statsSample struct {
	at              time.Time
	bytesReceived   uint64
	packetsLost     int32
	packetsReceived uint32
}

// sampleQuality periodically reads inbound video stats and folds bitrate and
// packet loss into a coarse label. Runs until the session is closed.
func (s *PeerSession) sampleQuality() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sampleOnce()
		}
	}
}

func (s *PeerSession) sampleOnce() {
	s.mu.Lock()
	pc := s.pc
	connected := s.state == StateConnected
	s.mu.Unlock()
	if pc == nil || !connected {
		return
	}

	report := pc.GetStats()
	var current statsSample
	current.at = time.Now()
	found := false
	for _, stat := range report {
		inbound, ok := stat.(webrtc.InboundRTPStreamStats)
		if !ok || inbound.Kind != "video" {
			continue
		}
		current.bytesReceived += inbound.BytesReceived
		current.packetsLost += inbound.PacketsLost
		current.packetsReceived += inbound.PacketsReceived
		found = true
	}
	if !found {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.prevStats
	s.prevStats = current
	if prev.at.IsZero() {
		return
	}

	elapsed := current.at.Sub(prev.at).Seconds()
	if elapsed <= 0 {
		return
	}
	bitrateKbps := float64(current.bytesReceived-prev.bytesReceived) * 8 / 1000 / elapsed

	deltaReceived := float64(current.packetsReceived - prev.packetsReceived)
	deltaLost := float64(current.packetsLost - prev.packetsLost)
	lossPct := 0.0
	if deltaReceived+deltaLost > 0 {
		lossPct = deltaLost / (deltaReceived + deltaLost) * 100
	}

	s.quality = qualityLabel(bitrateKbps, lossPct)
}

func qualityLabel(bitrateKbps, lossPct float64) string {
	switch {
	case lossPct > 8 || bitrateKbps < 100:
		return "bad"
	case lossPct > 3 || bitrateKbps < 300:
		return "poor"
	case lossPct > 1 || bitrateKbps < 800:
		return "good"
	default:
		return "excellent"
	}
}
