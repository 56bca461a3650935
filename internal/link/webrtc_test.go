package link

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
)

func localSDP(t *testing.T, w *WebRTC, create func() (webrtc.SessionDescription, error)) webrtc.SessionDescription {
	t.Helper()
	sdp, err := create()
	if err != nil {
		t.Fatalf("create SDP: %v", err)
	}
	gathered := w.GatheringComplete()
	if err := w.SetLocalDescription(sdp); err != nil {
		t.Fatalf("SetLocalDescription: %v", err)
	}
	select {
	case <-gathered:
	case <-time.After(10 * time.Second):
		t.Fatalf("ICE gathering did not complete")
	}
	return *w.LocalDescription()
}

// connectWebRTC wires two in-process peers directly, without a signaling server.
func connectWebRTC(t *testing.T) (*WebRTC, *WebRTC) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	opts := WebRTCOptions{ICEServers: []string{}, Loopback: true}
	offerer, err := NewWebRTC(ctx, opts)
	if err != nil {
		t.Fatalf("NewWebRTC: %v", err)
	}
	answerer, err := NewWebRTC(ctx, opts)
	if err != nil {
		offerer.Close()
		t.Fatalf("NewWebRTC: %v", err)
	}
	t.Cleanup(func() {
		offerer.Close()
		answerer.Close()
	})

	// full SDP exchange after gathering keeps the test free of trickle races
	offerSDP := localSDP(t, offerer, offerer.CreateOffer)
	if err := answerer.SetRemoteDescription(offerSDP); err != nil {
		t.Fatalf("SetRemoteDescription: %v", err)
	}
	answerSDP := localSDP(t, answerer, answerer.CreateAnswer)
	if err := offerer.SetRemoteDescription(answerSDP); err != nil {
		t.Fatalf("SetRemoteDescription: %v", err)
	}

	for _, w := range []*WebRTC{offerer, answerer} {
		select {
		case <-w.Ready():
		case <-time.After(10 * time.Second):
			t.Fatalf("DataChannel did not open")
		}
	}
	return offerer, answerer
}

func TestWebRTCNotOpen(t *testing.T) {
	w, err := NewWebRTC(context.Background(), WebRTCOptions{ICEServers: []string{}})
	if err != nil {
		t.Fatalf("NewWebRTC: %v", err)
	}
	defer w.Close()

	if err := w.Send([]byte{1}); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("got %v, want ErrNotOpen", err)
	}
	if err := w.Send(make([]byte, 33)); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}
	if w.MaxFrameSize() != 32 {
		t.Errorf("MaxFrameSize: got %d, want 32", w.MaxFrameSize())
	}
	if got := w.ConnectionState(); got != webrtc.PeerConnectionStateNew {
		t.Errorf("ConnectionState: got %s, want new", got)
	}
}

func TestWebRTCRoundTrip(t *testing.T) {
	a, b := connectWebRTC(t)

	deadline := time.Now().Add(5 * time.Second)
	for a.ConnectionState() != webrtc.PeerConnectionStateConnected {
		if time.Now().After(deadline) {
			t.Fatalf("ConnectionState: got %s, want connected", a.ConnectionState())
		}
		time.Sleep(time.Millisecond)
	}

	frame := bytes.Repeat([]byte{0x5C}, 32)
	if err := a.Send(frame); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got := waitReceive(t, b, 5*time.Second); !bytes.Equal(got, frame) {
		t.Fatalf("got % X, want % X", got, frame)
	}

	if err := b.Send([]byte{1, 2}); err != nil {
		t.Fatalf("reverse Send failed: %v", err)
	}
	if got := waitReceive(t, a, 5*time.Second); !bytes.Equal(got, []byte{1, 2}) {
		t.Fatalf("reverse: got % X", got)
	}

	a.Close()
	if err := a.Send(frame); !errors.Is(err, ErrClosed) {
		t.Fatalf("after Close: got %v, want ErrClosed", err)
	}
}
