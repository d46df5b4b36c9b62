package rtc

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/abhishekkumarcoder21/random-meet/internal/transport/ws"

	"github.com/pion/webrtc/v4"
)

type CallState string

const (
	StateIdle    CallState = "idle"
	StateCalling CallState = "calling" // outbound invite pending
	StateRinging CallState = "ringing" // inbound invite pending
	StateActive  CallState = "active"  // media flowing
)

const (
	CallTypeVideo = "video"
	CallTypeVoice = "voice"
)

// inviteTimeout bounds both an unanswered outbound invite and an
// unanswered inbound ring; it also implicitly bounds media acquisition.
const inviteTimeout = 30 * time.Second

type IncomingCall struct {
	FromSocketID string
	Alias        string
	CallType     string
}

// Signaler sends one event frame to the session orchestrator.
type Signaler interface {
	Emit(eventType string, payload any) error
}

// CallSession is the per-connection call state machine. It is owned by its
// connection: every mutation happens under its lock, driven either by the
// connection's event loop or by its own timers, and stale timers are
// neutralised by a generation counter so a transition can never fire out
// of a state the session already left.
type CallSession struct {
	mu sync.Mutex

	state    CallState
	callType string
	incoming *IncomingCall

	media Media
	local LocalMedia

	peers   map[string]*peerLink
	pending map[string][]webrtc.ICECandidateInit

	// pendingFrom is set on the acceptor between call-accept and the
	// inviter's offer; until that offer lands no peerLink exists, so the
	// inviter dropping in the window must still reset the session.
	pendingFrom string

	timer    *time.Timer
	timerGen int

	sig        Signaler
	selfID     func() string
	roomID     func() string
	events     *Events
	iceServers []webrtc.ICEServer
	timeout    time.Duration
}

func newCallSession(sig Signaler, media Media, events *Events, selfID, roomID func() string) *CallSession {
	return &CallSession{
		state:      StateIdle,
		media:      media,
		peers:      make(map[string]*peerLink),
		pending:    make(map[string][]webrtc.ICECandidateInit),
		sig:        sig,
		selfID:     selfID,
		roomID:     roomID,
		events:     events,
		iceServers: defaultICEServers,
		timeout:    inviteTimeout,
	}
}

func (s *CallSession) State() CallState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *CallSession) Incoming() *IncomingCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incoming == nil {
		return nil
	}
	cp := *s.incoming
	return &cp
}

// RemotePeerIDs lists the connections currently in the call.
func (s *CallSession) RemotePeerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.peers))
	for id := range s.peers {
		ids = append(ids, id)
	}
	return ids
}

// Start moves idle -> calling: arm the no-answer timeout, acquire media,
// then invite the whole room. Acquisition failure returns the session to
// idle with a user-facing reason.
func (s *CallSession) Start(video bool) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.state = StateCalling
	if video {
		s.callType = CallTypeVideo
	} else {
		s.callType = CallTypeVoice
	}
	s.armTimerLocked()
	gen := s.timerGen
	s.notifyStateLocked()
	s.mu.Unlock()

	local, err := s.media.Acquire(video)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timerGen != gen || s.state != StateCalling {
		// timed out or cancelled while the user sat on the permission prompt
		if local != nil {
			_ = local.Close()
		}
		return
	}
	if err != nil {
		s.resetLocked()
		s.surfaceErrorLocked("Failed to start call.")
		return
	}
	s.local = local

	_ = s.sig.Emit(ws.TypeCallInvite, ws.CallInvitePayload{
		RoomID:   s.roomID(),
		CallType: s.callType,
	})
}

// Cancel withdraws an outbound invite.
func (s *CallSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCalling {
		return
	}
	_ = s.sig.Emit(ws.TypeCallCancel, ws.CallSignalPayload{RoomID: s.roomID()})
	s.resetLocked()
}

// Accept takes the pending inbound invite active. The acceptor does not
// create the transport; it notifies the inviter, who originates the offer.
func (s *CallSession) Accept() {
	s.mu.Lock()
	if s.state != StateRinging || s.incoming == nil {
		s.mu.Unlock()
		return
	}
	inc := *s.incoming
	s.clearTimerLocked()
	gen := s.timerGen
	s.mu.Unlock()

	local, err := s.media.Acquire(inc.CallType == CallTypeVideo)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timerGen != gen || s.state != StateRinging {
		if local != nil {
			_ = local.Close()
		}
		return
	}
	if err != nil {
		_ = s.sig.Emit(ws.TypeCallDecline, ws.CallSignalPayload{
			RoomID:     s.roomID(),
			ToSocketID: inc.FromSocketID,
		})
		s.resetLocked()
		s.surfaceErrorLocked("Failed to accept call.")
		return
	}

	s.local = local
	s.callType = inc.CallType
	s.incoming = nil
	s.pendingFrom = inc.FromSocketID
	s.state = StateActive
	s.notifyStateLocked()

	_ = s.sig.Emit(ws.TypeCallAccept, ws.CallSignalPayload{
		RoomID:     s.roomID(),
		ToSocketID: inc.FromSocketID,
	})
}

// Decline refuses the pending inbound invite.
func (s *CallSession) Decline() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRinging || s.incoming == nil {
		return
	}
	_ = s.sig.Emit(ws.TypeCallDecline, ws.CallSignalPayload{
		RoomID:     s.roomID(),
		ToSocketID: s.incoming.FromSocketID,
	})
	s.resetLocked()
}

// End hangs up an active call.
func (s *CallSession) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	_ = s.sig.Emit(ws.TypeCallEnd, ws.CallSignalPayload{RoomID: s.roomID()})
	s.resetLocked()
}

// ToggleMedia flips a local track and tells the room.
func (s *CallSession) ToggleMedia(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local == nil {
		return
	}
	enabled := !s.local.Enabled(kind)
	if !s.local.SetEnabled(kind, enabled) {
		return
	}
	_ = s.sig.Emit(ws.TypeToggleMedia, ws.ToggleMediaPayload{
		RoomID:  s.roomID(),
		Kind:    kind,
		Enabled: enabled,
	})
}

// --- inbound signaling ---

// HandleInvite reacts to a call-invite from another room member. Busy
// sessions ignore it, except the mutual-invite race, which is settled
// deterministically: the lower connection id keeps its invite and the
// other side yields and auto-accepts.
func (s *CallSession) HandleInvite(ev ws.CallInviteEvent) {
	s.mu.Lock()
	switch s.state {
	case StateRinging, StateActive:
		s.mu.Unlock()
		return
	case StateCalling:
		if s.selfID() < ev.FromSocketID {
			s.mu.Unlock()
			return // we win; the other side yields
		}
		_ = s.sig.Emit(ws.TypeCallCancel, ws.CallSignalPayload{RoomID: s.roomID()})
		s.releaseMediaLocked()
		s.state = StateRinging
		s.incoming = &IncomingCall{FromSocketID: ev.FromSocketID, Alias: ev.Alias, CallType: ev.CallType}
		s.armTimerLocked()
		s.notifyStateLocked()
		s.mu.Unlock()
		s.Accept()
		return
	}

	inc := IncomingCall{FromSocketID: ev.FromSocketID, Alias: ev.Alias, CallType: ev.CallType}
	s.state = StateRinging
	s.incoming = &inc
	s.armTimerLocked()
	s.notifyStateLocked()
	s.mu.Unlock()

	// outside the lock so the handler may call Accept or Decline directly
	if s.events.OnIncomingCall != nil {
		s.events.OnIncomingCall(inc)
	}
}

// HandleAccepted fires on the inviter. The first accept takes the call
// active; each accept gets a direct offer, so in a bigger room later
// acceptors of the same invite keep joining the mesh.
func (s *CallSession) HandleAccepted(ev ws.CallSignalEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateCalling:
		s.clearTimerLocked()
		s.state = StateActive
		s.notifyStateLocked()
	case StateActive:
		if _, ok := s.peers[ev.FromSocketID]; ok {
			return
		}
	default:
		return
	}
	s.offerToLocked(ev.FromSocketID, ev.Alias)
}

// offerToLocked originates the SDP offer toward one acceptor; negotiation
// per pair is always owned by the inviting side.
func (s *CallSession) offerToLocked(remoteID, alias string) {
	p, err := s.newPeerLink(remoteID, alias)
	if err != nil {
		slog.Warn("peer connection create", "peer", remoteID, "err", err)
		return
	}
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		slog.Warn("create offer", "peer", remoteID, "err", err)
		return
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		slog.Warn("set local offer", "peer", remoteID, "err", err)
		return
	}
	p.neg = negHaveLocalOffer

	raw, err := json.Marshal(p.pc.LocalDescription())
	if err != nil {
		return
	}
	_ = s.sig.Emit(ws.TypeOfferDirect, ws.OfferPayload{
		ToSocketID: remoteID,
		Offer:      raw,
	})
}

// HandleDeclined fires on the inviter. If nobody else joined the call the
// session falls back to idle and releases media.
func (s *CallSession) HandleDeclined(ev ws.CallSignalEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alias := ev.Alias
	if alias == "" {
		alias = "User"
	}
	s.surfaceErrorLocked(alias + " declined the call.")

	if s.state == StateCalling && len(s.peers) == 0 {
		s.resetLocked()
	}
}

// HandleCancelled clears an inbound ring the inviter withdrew.
func (s *CallSession) HandleCancelled(ev ws.CallSignalEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRinging || s.incoming == nil || s.incoming.FromSocketID != ev.FromSocketID {
		return
	}
	s.resetLocked()
}

// HandleEnded removes the hanging-up peer; when nobody remains in the
// call (linked or awaited) the whole session returns to idle.
func (s *CallSession) HandleEnded(ev ws.CallSignalEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.FromSocketID == s.pendingFrom {
		s.pendingFrom = ""
	}
	s.closePeerLocked(ev.FromSocketID)
	if s.state == StateActive && len(s.peers) == 0 && s.pendingFrom == "" {
		s.resetLocked()
	}
}

// HandleOffer answers an SDP offer from a call peer. Without local media
// (no call in progress here) the offer is ignored.
func (s *CallSession) HandleOffer(ev ws.OfferEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local == nil {
		return
	}

	var desc webrtc.SessionDescription
	if err := json.Unmarshal(ev.Offer, &desc); err != nil {
		return
	}

	p, err := s.newPeerLink(ev.FromSocketID, ev.FromAlias)
	if err != nil {
		slog.Warn("peer connection create", "peer", ev.FromSocketID, "err", err)
		return
	}
	if err := s.applyRemoteDescription(p, desc); err != nil {
		slog.Warn("apply remote offer", "peer", ev.FromSocketID, "err", err)
		return
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		slog.Warn("create answer", "peer", ev.FromSocketID, "err", err)
		return
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		slog.Warn("set local answer", "peer", ev.FromSocketID, "err", err)
		return
	}
	p.neg = negStable

	raw, err := json.Marshal(p.pc.LocalDescription())
	if err != nil {
		return
	}
	_ = s.sig.Emit(ws.TypeAnswer, ws.AnswerPayload{
		ToSocketID: ev.FromSocketID,
		Answer:     raw,
	})
}

func (s *CallSession) HandleAnswer(ev ws.AnswerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[ev.FromSocketID]
	if !ok {
		return
	}
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(ev.Answer, &desc); err != nil {
		return
	}
	if err := s.applyRemoteDescription(p, desc); err != nil {
		slog.Warn("apply remote answer", "peer", ev.FromSocketID, "err", err)
	}
}

// HandleCandidate applies a trickled candidate, or queues it when it beat
// the remote description (or even the transport) here.
func (s *CallSession) HandleCandidate(ev ws.ICECandidateEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cand webrtc.ICECandidateInit
	if err := json.Unmarshal(ev.Candidate, &cand); err != nil {
		return
	}

	p, ok := s.peers[ev.FromSocketID]
	if ok && p.remoteApplied {
		if err := p.pc.AddICECandidate(cand); err != nil {
			slog.Debug("add ice candidate", "peer", ev.FromSocketID, "err", err)
		}
		return
	}
	s.pending[ev.FromSocketID] = append(s.pending[ev.FromSocketID], cand)
}

func (s *CallSession) HandleMediaToggle(ev ws.PeerMediaToggleEvent) {
	s.mu.Lock()
	if p, ok := s.peers[ev.FromSocketID]; ok {
		switch ev.Kind {
		case "audio":
			p.audioEnabled = ev.Enabled
		case "video":
			p.videoEnabled = ev.Enabled
		}
	}
	s.mu.Unlock()
	if s.events.OnMediaToggle != nil {
		s.events.OnMediaToggle(ev.FromSocketID, ev.Kind, ev.Enabled)
	}
}

// HandlePeerDisconnected cleans up one remote after its connection dropped.
func (s *CallSession) HandlePeerDisconnected(fromSocketID string) {
	s.peerLost(fromSocketID)
}

func (s *CallSession) peerLost(remoteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, linked := s.peers[remoteID]
	if !linked && remoteID != s.pendingFrom {
		return
	}
	if remoteID == s.pendingFrom {
		s.pendingFrom = ""
	}
	if linked {
		s.closePeerLocked(remoteID)
	}
	if s.state == StateActive && len(s.peers) == 0 && s.pendingFrom == "" {
		s.resetLocked()
	}
}

// teardown force-resets the session regardless of state. Used when the
// room ends or the connection drops.
func (s *CallSession) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// --- internals (callers hold s.mu) ---

// armTimerLocked schedules the 30s auto-resolve for the current state. At
// most one timer exists; arming bumps the generation so an already-fired
// one becomes a no-op.
func (s *CallSession) armTimerLocked() {
	s.clearTimerLocked()
	gen := s.timerGen
	s.timer = time.AfterFunc(s.timeout, func() { s.onTimeout(gen) })
}

func (s *CallSession) clearTimerLocked() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *CallSession) onTimeout(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen {
		return // the state that armed this timer is gone
	}
	switch s.state {
	case StateCalling:
		_ = s.sig.Emit(ws.TypeCallCancel, ws.CallSignalPayload{RoomID: s.roomID()})
		s.resetLocked()
		s.surfaceErrorLocked("No answer.")
	case StateRinging:
		if s.incoming != nil {
			_ = s.sig.Emit(ws.TypeCallDecline, ws.CallSignalPayload{
				RoomID:     s.roomID(),
				ToSocketID: s.incoming.FromSocketID,
			})
		}
		s.resetLocked()
	}
}

// resetLocked returns the session to idle: timers cleared, all transports
// closed, candidate queues emptied, media released.
func (s *CallSession) resetLocked() {
	s.clearTimerLocked()
	for id := range s.peers {
		s.closePeerLocked(id)
	}
	s.pending = make(map[string][]webrtc.ICECandidateInit)
	s.pendingFrom = ""
	s.releaseMediaLocked()
	s.incoming = nil
	s.callType = ""
	if s.state != StateIdle {
		s.state = StateIdle
		s.notifyStateLocked()
	}
}

func (s *CallSession) releaseMediaLocked() {
	if s.local != nil {
		_ = s.local.Close()
		s.local = nil
	}
}

func (s *CallSession) notifyStateLocked() {
	if s.events.OnCallState != nil {
		s.events.OnCallState(s.state)
	}
}

func (s *CallSession) surfaceErrorLocked(reason string) {
	if s.events.OnCallError != nil {
		s.events.OnCallError(reason)
	}
}
