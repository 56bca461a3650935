package signaling

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"

	"github.com/1ureka/padlink/internal/link"
	"github.com/1ureka/padlink/internal/util"
)

// Host is a started signaling server waiting for one client.
type Host struct {
	srv *server
}

// Listen starts the WS server on addr with a fresh PIN.
func Listen(addr string) (*Host, error) {
	srv := newServer(generatePIN(PINLength))
	if err := srv.start(addr); err != nil {
		return nil, err
	}
	return &Host{srv: srv}, nil
}

// PIN is the code the client must present.
func (h *Host) PIN() string { return h.srv.pin }

// Port is the TCP port the server listens on.
func (h *Host) Port() int { return h.srv.addr().Port }

// URL is the address a client on the same host would dial.
func (h *Host) URL() string {
	return fmt.Sprintf("ws://%s/ws?pin=%s", h.srv.addr().String(), h.srv.pin)
}

// Close stops accepting clients.
func (h *Host) Close() { h.srv.close() }

// PrintBanner shows the port and PIN to the operator.
func (h *Host) PrintBanner() {
	pterm.DefaultBox.WithTitle("WebSocket Signaling Server").Println(
		fmt.Sprintf("Port : %d\nPIN  : %s\nURL  : %s", h.Port(), h.PIN(), h.URL()),
	)
	pterm.Info.Println("Waiting for client...")
}

// Establish executes the host-side signaling flow:
//  1. Wait for the client to connect
//  2. Create a WebRTC link
//  3. Send the offer and exchange ICE candidates
//  4. Wait for the DataChannel to be ready
//  5. Close the WS server and connection
//  6. Return the ready link
func (h *Host) Establish(ctx context.Context, opts link.WebRTCOptions) (*link.WebRTC, error) {
	defer h.Close()

	wsConn, err := h.srv.waitForClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for client: %w", err)
	}
	defer wsConn.Close()
	util.LogInfo("signaling client connected")

	tr, err := link.NewWebRTC(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC link: %w", err)
	}

	return exchange(ctx, wsConn, tr, true)
}

// EstablishAsHost listens on addr, prints the banner and runs Establish.
func EstablishAsHost(ctx context.Context, addr string, opts link.WebRTCOptions) (*link.WebRTC, error) {
	h, err := Listen(addr)
	if err != nil {
		return nil, err
	}
	h.PrintBanner()
	return h.Establish(ctx, opts)
}

// EstablishAsClient executes the client-side signaling flow:
//  1. Connect to the host's WS server
//  2. Create a WebRTC link
//  3. Answer the offer and exchange ICE candidates
//  4. Wait for the DataChannel to be ready
//  5. Close the WS connection
//  6. Return the ready link
func EstablishAsClient(ctx context.Context, wsURL string, opts link.WebRTCOptions) (*link.WebRTC, error) {
	util.LogInfo("connecting to host...")
	wsConn, err := connect(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	defer wsConn.Close()
	util.LogDebug("WS connected: %s", wsURL)

	tr, err := link.NewWebRTC(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC link: %w", err)
	}

	return exchange(ctx, wsConn, tr, false)
}

// exchange runs the SDP/ICE exchange until the DataChannel opens. The
// offering side sends first; the other side answers from the receiver loop.
func exchange(ctx context.Context, wsConn *websocket.Conn, tr *link.WebRTC, offer bool) (*link.WebRTC, error) {
	s := &sender{tr: tr, conn: wsConn}
	r := &receiver{tr: tr, conn: wsConn, sender: s}
	s.trickle()

	// Exits when wsConn is closed by the caller's defer.
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.watch()
	}()

	if offer {
		if err := s.sendOffer(); err != nil {
			tr.Close()
			return nil, fmt.Errorf("failed to send offer: %w", err)
		}
	}

	select {
	case <-tr.Ready():
		util.LogSuccess("WebRTC DataChannel established, closing WS")
		return tr, nil

	case err := <-errCh:
		// The peer closes its WS as soon as its own DataChannel opens, which
		// can happen just before ours does.
		if r.remoteSet {
			return awaitReady(ctx, tr, err)
		}
		state := tr.ConnectionState()
		tr.Close()
		return nil, fmt.Errorf("signaling failed (peer connection %s): %w", state, err)

	case <-ctx.Done():
		tr.Close()
		return nil, ctx.Err()
	}
}

// readyGrace bounds the wait for the DataChannel after signaling ended.
const readyGrace = 10 * time.Second

func awaitReady(ctx context.Context, tr *link.WebRTC, cause error) (*link.WebRTC, error) {
	timer := time.NewTimer(readyGrace)
	defer timer.Stop()

	select {
	case <-tr.Ready():
		util.LogSuccess("WebRTC DataChannel established")
		return tr, nil
	case <-timer.C:
		state := tr.ConnectionState()
		tr.Close()
		return nil, fmt.Errorf("signaling failed (peer connection %s): %w", state, cause)
	case <-ctx.Done():
		tr.Close()
		return nil, ctx.Err()
	}
}
