package rtc

import (
	"encoding/json"
	"log/slog"

	"github.com/abhishekkumarcoder21/random-meet/internal/transport/ws"

	"github.com/pion/webrtc/v4"
)

// negotiation state per remote peer; pending ICE candidates are queued
// until the remote description lands and flushed on that one transition.
type negotiationState int

const (
	negNone negotiationState = iota
	negHaveLocalOffer
	negHaveRemoteOffer
	negStable
)

var defaultICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302"}},
	{URLs: []string{"stun:stun1.l.google.com:19302"}},
	{URLs: []string{"stun:stun2.l.google.com:19302"}},
}

// peerLink is one negotiated transport to a remote participant of the call.
type peerLink struct {
	id    string
	alias string
	pc    *webrtc.PeerConnection

	neg           negotiationState
	remoteApplied bool

	// last-known remote media flags, default enabled
	audioEnabled bool
	videoEnabled bool
	hasTrack     bool
}

// newPeerLink builds the transport, attaches local tracks and wires the
// trickle-ICE and failure callbacks back into the session.
func (s *CallSession) newPeerLink(remoteID, alias string) (*peerLink, error) {
	if p, ok := s.peers[remoteID]; ok {
		return p, nil
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: s.iceServers})
	if err != nil {
		return nil, err
	}

	p := &peerLink{
		id:           remoteID,
		alias:        alias,
		pc:           pc,
		audioEnabled: true,
		videoEnabled: true,
	}

	if s.local != nil {
		for _, track := range s.local.Tracks() {
			if _, err := pc.AddTrack(track); err != nil {
				_ = pc.Close()
				return nil, err
			}
		}
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		candidate, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		_ = s.sig.Emit(ws.TypeICECandidate, ws.ICECandidatePayload{
			ToSocketID: remoteID,
			Candidate:  candidate,
		})
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateDisconnected {
			s.peerLost(remoteID)
		}
	})

	pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		s.mu.Lock()
		if link, ok := s.peers[remoteID]; ok {
			link.hasTrack = true
		}
		s.mu.Unlock()
		if s.events.OnRemoteTrack != nil {
			s.events.OnRemoteTrack(remoteID, alias, remote)
		}
	})

	s.peers[remoteID] = p
	if remoteID == s.pendingFrom {
		s.pendingFrom = "" // the awaited offer arrived
	}

	// candidates that raced ahead of the transport
	if queued := s.pending[remoteID]; len(queued) > 0 && p.remoteApplied {
		s.flushPendingLocked(p)
	}

	return p, nil
}

// applyRemoteDescription sets the description and flushes every queued
// candidate for this peer.
func (s *CallSession) applyRemoteDescription(p *peerLink, desc webrtc.SessionDescription) error {
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return err
	}
	p.remoteApplied = true
	switch desc.Type {
	case webrtc.SDPTypeOffer:
		p.neg = negHaveRemoteOffer
	case webrtc.SDPTypeAnswer:
		p.neg = negStable
	}
	s.flushPendingLocked(p)
	return nil
}

func (s *CallSession) flushPendingLocked(p *peerLink) {
	for _, cand := range s.pending[p.id] {
		if err := p.pc.AddICECandidate(cand); err != nil {
			slog.Debug("flush ice candidate", "peer", p.id, "err", err)
		}
	}
	delete(s.pending, p.id)
}

// closePeerLocked tears down one remote without touching the rest of the
// call.
func (s *CallSession) closePeerLocked(remoteID string) {
	if p, ok := s.peers[remoteID]; ok {
		_ = p.pc.Close()
		delete(s.peers, remoteID)
		if s.events.OnPeerGone != nil {
			s.events.OnPeerGone(remoteID)
		}
	}
	delete(s.pending, remoteID)
}
