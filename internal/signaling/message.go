// Package signaling runs the WebSocket signaling phase that brings up a
// WebRTC link: SDP offer/answer and ICE candidates as JSON messages, behind
// a PIN-protected endpoint served by the host.
package signaling

import (
	"errors"
	"fmt"
)

// ErrFrameSizeMismatch is returned when the peers disagree on the largest
// frame the link carries. Reassembly needs both ends on the same geometry.
var ErrFrameSizeMismatch = errors.New("peer uses a different frame size")

type messageType string

const (
	msgTypeOffer     messageType = "offer"
	msgTypeAnswer    messageType = "answer"
	msgTypeCandidate messageType = "candidate"
)

// message is one JSON object on the signaling WebSocket. Offers and answers
// announce the sender's frame size next to the SDP.
type message struct {
	Type      messageType `json:"type"`
	SDP       string      `json:"sdp,omitempty"`
	FrameSize int         `json:"frame_size,omitempty"`
	Candidate string      `json:"candidate,omitempty"` // JSON-encoded ICECandidateInit
}

// check rejects a message this side cannot apply. A zero FrameSize is
// accepted so a peer that does not announce one still connects.
func (m message) check(frameSize int) error {
	switch m.Type {
	case msgTypeOffer, msgTypeAnswer:
		if m.SDP == "" {
			return fmt.Errorf("%s without SDP", m.Type)
		}
		if m.FrameSize != 0 && m.FrameSize != frameSize {
			return fmt.Errorf("%w: remote %d, local %d", ErrFrameSizeMismatch, m.FrameSize, frameSize)
		}
	case msgTypeCandidate:
		if m.Candidate == "" {
			return fmt.Errorf("candidate message without candidate")
		}
	default:
		return fmt.Errorf("unknown signaling message type %q", m.Type)
	}
	return nil
}
