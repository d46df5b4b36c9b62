package ws

// Call-signaling relay. The server interprets nothing here: every frame is
// forwarded tagged with the sender's connection id (and alias where the
// event carries one), either to one connection or to the rest of the room.
// An unreachable destination means the frame is dropped, never queued, and
// no call state is tracked server-side.

func (s *Server) handleCallInvite(c *wsConn, p CallInvitePayload) {
	if c.roomID == "" || p.RoomID != c.roomID {
		return
	}
	s.hub.BroadcastExcept(c.roomID, c.id, Message{
		Type: TypeCallInvite,
		Payload: CallInviteEvent{
			FromSocketID: c.id,
			Alias:        c.alias,
			CallType:     p.CallType,
		},
	})
}

// handleCallSignal routes accept/decline/cancel/end frames. With a
// toSocketId they go to that one connection, otherwise to the whole room
// minus the sender.
func (s *Server) handleCallSignal(c *wsConn, inType string, p CallSignalPayload) {
	if c.roomID == "" {
		return
	}

	var outType string
	switch inType {
	case TypeCallAccept:
		outType = TypeCallAccepted
	case TypeCallDecline:
		outType = TypeCallDeclined
	case TypeCallCancel:
		outType = TypeCallCancelled
	case TypeCallEnd:
		outType = TypeCallEnd
	default:
		return
	}

	out := Message{Type: outType, Payload: CallSignalEvent{FromSocketID: c.id, Alias: c.alias}}
	if p.ToSocketID != "" {
		s.hub.SendTo(p.ToSocketID, out)
		return
	}
	s.hub.BroadcastExcept(c.roomID, c.id, out)
}

// handleOffer relays an SDP offer. Room-wide and direct offers produce the
// same event shape on the receiving side.
func (s *Server) handleOffer(c *wsConn, inType string, p OfferPayload) {
	if c.roomID == "" {
		return
	}
	out := Message{
		Type: TypeOffer,
		Payload: OfferEvent{
			Offer:        p.Offer,
			FromSocketID: c.id,
			FromAlias:    c.alias,
		},
	}
	if inType == TypeOfferDirect || p.ToSocketID != "" {
		s.hub.SendTo(p.ToSocketID, out)
		return
	}
	s.hub.BroadcastExcept(c.roomID, c.id, out)
}

func (s *Server) handleAnswer(c *wsConn, p AnswerPayload) {
	if c.roomID == "" || p.ToSocketID == "" {
		return
	}
	s.hub.SendTo(p.ToSocketID, Message{
		Type:    TypeAnswer,
		Payload: AnswerEvent{Answer: p.Answer, FromSocketID: c.id},
	})
}

func (s *Server) handleICECandidate(c *wsConn, p ICECandidatePayload) {
	if c.roomID == "" || p.ToSocketID == "" {
		return
	}
	s.hub.SendTo(p.ToSocketID, Message{
		Type:    TypeICECandidate,
		Payload: ICECandidateEvent{Candidate: p.Candidate, FromSocketID: c.id},
	})
}

func (s *Server) handleToggleMedia(c *wsConn, p ToggleMediaPayload) {
	if c.roomID == "" || p.RoomID != c.roomID {
		return
	}
	if p.Kind != "audio" && p.Kind != "video" {
		return
	}
	s.hub.BroadcastExcept(c.roomID, c.id, Message{
		Type: TypePeerMediaToggle,
		Payload: PeerMediaToggleEvent{
			FromSocketID: c.id,
			Kind:         p.Kind,
			Enabled:      p.Enabled,
		},
	})
}
