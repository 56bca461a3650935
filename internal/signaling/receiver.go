package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/padlink/internal/link"
)

// receiver applies inbound signaling messages to the link.
type receiver struct {
	tr     *link.WebRTC
	conn   *websocket.Conn
	sender *sender

	// candidates that arrived before the remote description
	remoteSet bool
	pending   []webrtc.ICECandidateInit
}

// watch reads messages until the WS fails or is closed.
func (r *receiver) watch() error {
	for {
		var msg message
		if err := r.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read WS message: %w", err)
		}
		if err := msg.check(r.tr.MaxFrameSize()); err != nil {
			return err
		}

		switch msg.Type {
		case msgTypeOffer:
			if err := r.setRemote(webrtc.SDPTypeOffer, msg.SDP); err != nil {
				return err
			}
			if err := r.sender.sendAnswer(); err != nil {
				return err
			}

		case msgTypeAnswer:
			if err := r.setRemote(webrtc.SDPTypeAnswer, msg.SDP); err != nil {
				return err
			}

		case msgTypeCandidate:
			var init webrtc.ICECandidateInit
			if err := json.Unmarshal([]byte(msg.Candidate), &init); err != nil {
				return fmt.Errorf("failed to parse ICE candidate: %w", err)
			}
			if !r.remoteSet {
				r.pending = append(r.pending, init)
				continue
			}
			if err := r.tr.AddICECandidate(init); err != nil {
				return err
			}
		}
	}
}

func (r *receiver) setRemote(typ webrtc.SDPType, sdp string) error {
	if err := r.tr.SetRemoteDescription(webrtc.SessionDescription{Type: typ, SDP: sdp}); err != nil {
		return err
	}
	r.remoteSet = true

	for _, c := range r.pending {
		if err := r.tr.AddICECandidate(c); err != nil {
			return err
		}
	}
	r.pending = nil
	return nil
}
