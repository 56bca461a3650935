package signaling

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/1ureka/padlink/internal/link"
)

var testOpts = link.WebRTCOptions{ICEServers: []string{}, Loopback: true}

func TestGeneratePIN(t *testing.T) {
	for i := 0; i < 20; i++ {
		pin := generatePIN(PINLength)
		if len(pin) != PINLength {
			t.Fatalf("PIN %q: got length %d, want %d", pin, len(pin), PINLength)
		}
		for _, c := range pin {
			if c < '0' || c > '9' {
				t.Fatalf("PIN %q contains non-digit %q", pin, c)
			}
		}
	}
}

func TestRejectsWrongPIN(t *testing.T) {
	h, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer h.Close()

	url := strings.Replace(h.URL(), "pin="+h.PIN(), "pin=wrong", 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = connect(ctx, url)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("got %v, want ErrBadHandshake", err)
	}
	if !errors.Is(err, ErrInvalidPIN) {
		t.Fatalf("got %v, want ErrInvalidPIN", err)
	}
}

func TestMessageCheck(t *testing.T) {
	testCases := []struct {
		name    string
		msg     message
		wantErr bool
	}{
		{"offer", message{Type: msgTypeOffer, SDP: "v=0", FrameSize: 32}, false},
		{"answer without frame size", message{Type: msgTypeAnswer, SDP: "v=0"}, false},
		{"offer without sdp", message{Type: msgTypeOffer, FrameSize: 32}, true},
		{"answer with other frame size", message{Type: msgTypeAnswer, SDP: "v=0", FrameSize: 64}, true},
		{"candidate", message{Type: msgTypeCandidate, Candidate: `{"candidate":""}`}, false},
		{"empty candidate", message{Type: msgTypeCandidate}, true},
		{"unknown type", message{Type: "bye"}, true},
	}
	for _, tc := range testCases {
		err := tc.msg.check(32)
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: got %v, want error %v", tc.name, err, tc.wantErr)
		}
	}

	err := message{Type: msgTypeOffer, SDP: "v=0", FrameSize: 64}.check(32)
	if !errors.Is(err, ErrFrameSizeMismatch) {
		t.Fatalf("got %v, want ErrFrameSizeMismatch", err)
	}
}

func TestEstablishRejectsFrameSizeMismatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	h, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	hostCh := make(chan error, 1)
	go func() {
		tr, err := h.Establish(ctx, testOpts)
		if tr != nil {
			tr.Close()
		}
		hostCh <- err
	}()

	wide := testOpts
	wide.MaxFrameSize = 64
	client, err := EstablishAsClient(ctx, h.URL(), wide)
	if client != nil {
		client.Close()
	}
	if !errors.Is(err, ErrFrameSizeMismatch) {
		t.Fatalf("client: got %v, want ErrFrameSizeMismatch", err)
	}
	if err := <-hostCh; err == nil {
		t.Fatalf("host: expected error after the client left")
	}
}

func TestHostWaitCancelled(t *testing.T) {
	h, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Establish(ctx, testOpts); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestEstablish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	h, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	type result struct {
		tr  *link.WebRTC
		err error
	}
	hostCh := make(chan result, 1)
	go func() {
		tr, err := h.Establish(ctx, testOpts)
		hostCh <- result{tr, err}
	}()

	client, err := EstablishAsClient(ctx, h.URL(), testOpts)
	if err != nil {
		t.Fatalf("EstablishAsClient: %v", err)
	}
	defer client.Close()

	res := <-hostCh
	if res.err != nil {
		t.Fatalf("Establish: %v", res.err)
	}
	host := res.tr
	defer host.Close()

	frame := bytes.Repeat([]byte{0xEE}, 32)
	if err := host.Send(frame); err != nil {
		t.Fatalf("Send: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got, ok := client.Receive(); ok {
			if !bytes.Equal(got, frame) {
				t.Fatalf("got % X, want % X", got, frame)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no frame received over the established link")
}
