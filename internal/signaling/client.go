package signaling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ErrInvalidPIN is returned when the host refuses the PIN in the URL.
var ErrInvalidPIN = errors.New("signaling host rejected the PIN")

const handshakeTimeout = 10 * time.Second

// connect dials the host's signaling URL, PIN included:
//
//	ws://192.168.1.20:7400/ws?pin=1234
func connect(ctx context.Context, url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPIN, err)
		}
		return nil, fmt.Errorf("failed to connect to WS server: %w", err)
	}
	return conn, nil
}
