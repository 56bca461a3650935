package link

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/padlink/internal/util"
)

const (
	// Frames are tiny, so anything queued beyond this means the path is
	// congested and the frame would arrive stale anyway.
	highWaterMark = 16 * 1024
)

// STUN servers for ICE candidate gathering. No TURN: the link is meant for
// direct P2P connectivity with zero infrastructure cost.
var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// WebRTCOptions configures the PeerConnection.
type WebRTCOptions struct {
	ICEServers   []string // defaults to DefaultSTUNServers when nil
	Loopback     bool     // gather loopback candidates (same-host peers, tests)
	MaxFrameSize int      // default 32
}

// WebRTC wraps a single PeerConnection + DataChannel pair. The DataChannel
// is pre-negotiated, unordered and never retransmits, which gives it the
// same delivery model as the radio.
//
// Its lifecycle is governed by the DataChannel state and the context passed
// at construction time.
type WebRTC struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	maxFrame   int
	inbox      *queue
	openSignal chan struct{}
	open       atomic.Bool
	closed     atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	pcState webrtc.PeerConnectionState
}

// NewWebRTC creates the PeerConnection and DataChannel. The caller performs
// signaling through the exposed methods, then waits on Ready.
func NewWebRTC(ctx context.Context, opts WebRTCOptions) (*WebRTC, error) {
	if opts.ICEServers == nil {
		opts.ICEServers = DefaultSTUNServers
	}
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = 32
	}

	pc, err := newPeerConnection(opts)
	if err != nil {
		return nil, err
	}

	dc, err := newDataChannel(pc)
	if err != nil {
		pc.Close()
		return nil, err
	}

	wCtx, wCancel := context.WithCancel(ctx)

	w := &WebRTC{
		pc:         pc,
		dc:         dc,
		maxFrame:   opts.MaxFrameSize,
		inbox:      newQueue(DefaultQueueSize),
		openSignal: make(chan struct{}),
		ctx:        wCtx,
		cancel:     wCancel,
		pcState:    webrtc.PeerConnectionStateNew,
	}

	// DC open gate.
	var openOnce sync.Once
	dc.OnOpen(func() {
		openOnce.Do(func() {
			w.open.Store(true)
			close(w.openSignal)
		})
	})

	// DC close → cancel link context.
	dc.OnClose(func() {
		util.LogDebug("DataChannel closed")
		w.open.Store(false)
		wCancel()
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if len(msg.Data) > w.maxFrame {
			util.LogDebug("DataChannel message too large (%d bytes), dropped", len(msg.Data))
			return
		}
		w.inbox.push(clone(msg.Data))
	})

	// Record PC state (informational only).
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("PeerConnection state: %s", state.String())
		w.mu.Lock()
		w.pcState = state
		w.mu.Unlock()
	})

	return w, nil
}

func newPeerConnection(opts WebRTCOptions) (*webrtc.PeerConnection, error) {
	config := webrtc.Configuration{}
	if len(opts.ICEServers) > 0 {
		config.ICEServers = []webrtc.ICEServer{{URLs: opts.ICEServers}}
	}

	se := webrtc.SettingEngine{}
	se.SetIncludeLoopbackCandidate(opts.Loopback)
	api := webrtc.NewAPI(webrtc.WithSettingEngine(se))
	return api.NewPeerConnection(config)
}

// newDataChannel creates a pre-negotiated DataChannel (ID 0) so both sides
// can create it independently without relying on OnDataChannel.
func newDataChannel(pc *webrtc.PeerConnection) (*webrtc.DataChannel, error) {
	ordered := false
	negotiated := true
	retransmits := uint16(0)
	id := uint16(0)

	return pc.CreateDataChannel("padlink", &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &retransmits,
		Negotiated:     &negotiated,
		ID:             &id,
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Ready returns a channel that is closed when the DataChannel is open.
func (w *WebRTC) Ready() <-chan struct{} {
	return w.openSignal
}

// Done returns a channel that is closed when the link shuts down
// (DataChannel closed or parent context cancelled).
func (w *WebRTC) Done() <-chan struct{} {
	return w.ctx.Done()
}

// Close shuts down the DataChannel and PeerConnection.
func (w *WebRTC) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	w.cancel()
	return errors.Join(w.dc.Close(), w.pc.Close())
}

// ConnectionState returns the last observed PeerConnection state.
func (w *WebRTC) ConnectionState() webrtc.PeerConnectionState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pcState
}

// ---------------------------------------------------------------------------
// Signaling
// ---------------------------------------------------------------------------

// CreateOffer generates an SDP offer.
func (w *WebRTC) CreateOffer() (webrtc.SessionDescription, error) {
	return w.pc.CreateOffer(nil)
}

// CreateAnswer generates an SDP answer.
func (w *WebRTC) CreateAnswer() (webrtc.SessionDescription, error) {
	return w.pc.CreateAnswer(nil)
}

// SetLocalDescription applies the local SDP.
func (w *WebRTC) SetLocalDescription(sdp webrtc.SessionDescription) error {
	return w.pc.SetLocalDescription(sdp)
}

// SetRemoteDescription applies the remote SDP.
func (w *WebRTC) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	return w.pc.SetRemoteDescription(sdp)
}

// OnICECandidate registers a callback invoked whenever a new local ICE
// candidate is gathered. A nil candidate signals the end of gathering.
func (w *WebRTC) OnICECandidate(fn func(*webrtc.ICECandidate)) {
	w.pc.OnICECandidate(fn)
}

// GatheringComplete is closed once ICE gathering has finished, after which
// LocalDescription carries every candidate (non-trickle signaling).
func (w *WebRTC) GatheringComplete() <-chan struct{} {
	return webrtc.GatheringCompletePromise(w.pc)
}

// LocalDescription returns the current local SDP, nil before SetLocalDescription.
func (w *WebRTC) LocalDescription() *webrtc.SessionDescription {
	return w.pc.LocalDescription()
}

// AddICECandidate adds a remote ICE candidate received through signaling.
func (w *WebRTC) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return w.pc.AddICECandidate(candidate)
}

// ---------------------------------------------------------------------------
// Data
// ---------------------------------------------------------------------------

// Send never blocks: it fails while the channel is not open or while too
// much data is already buffered.
func (w *WebRTC) Send(frame []byte) error {
	if w.closed.Load() {
		return ErrClosed
	}
	if err := checkFrame(frame, w.maxFrame); err != nil {
		return err
	}
	if !w.open.Load() {
		return ErrNotOpen
	}
	if w.dc.BufferedAmount() > highWaterMark {
		return ErrBusy
	}
	return w.dc.Send(frame)
}

func (w *WebRTC) Receive() ([]byte, bool) {
	if w.closed.Load() {
		return nil, false
	}
	return w.inbox.pop()
}

func (w *WebRTC) MaxFrameSize() int { return w.maxFrame }
