package call

import "fmt"

// SignalingPhase is the local SDP negotiation state, tracked independently
// of ICE/media connectivity. Offers are only accepted in PhaseStable and
// answers only in PhaseHaveLocalOffer, which is all the ordering enforcement
// a polled transport needs.
type SignalingPhase int

const (
	PhaseStable SignalingPhase = iota
	PhaseHaveLocalOffer
	PhaseHaveRemoteOffer
)

func (p SignalingPhase) String() string {
	switch p {
	case PhaseStable:
		return "stable"
	case PhaseHaveLocalOffer:
		return "have-local-offer"
	case PhaseHaveRemoteOffer:
		return "have-remote-offer"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var phaseTransitions = map[SignalingPhase][]SignalingPhase{
	PhaseStable:          {PhaseHaveLocalOffer, PhaseHaveRemoteOffer},
	PhaseHaveLocalOffer:  {PhaseStable},
	PhaseHaveRemoteOffer: {PhaseStable},
}

// Next returns the target phase if the transition is legal, or an error and
// the unchanged phase otherwise.
func (p SignalingPhase) Next(to SignalingPhase) (SignalingPhase, error) {
	for _, allowed := range phaseTransitions[p] {
		if allowed == to {
			return to, nil
		}
	}
	return p, fmt.Errorf("invalid signaling transition %s -> %s", p, to)
}

// ConnState is the overall state of one call attempt.
type ConnState int

const (
	StateIdle ConnState = iota
	StateNegotiating
	StateConnected
	StateReconnecting
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}
