package link

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/1ureka/padlink/internal/util"
)

// UDP carries one frame per datagram. A reader goroutine feeds a bounded
// queue so Receive never blocks.
type UDP struct {
	conn     *net.UDPConn
	maxFrame int
	inbox    *queue

	mu   sync.RWMutex
	peer *net.UDPAddr // learned from the first datagram when unset, then fixed

	closed atomic.Bool
	done   chan struct{}
}

// NewUDP listens on listen and sends to peer. With an empty peer, Send fails
// with ErrNotOpen until the first datagram arrives; its sender becomes the
// peer for the lifetime of the link.
func NewUDP(listen, peer string, maxFrameSize int) (*UDP, error) {
	laddr, err := net.ResolveUDPAddr("udp", listen)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address %q: %w", listen, err)
	}

	var raddr *net.UDPAddr
	if peer != "" {
		if raddr, err = net.ResolveUDPAddr("udp", peer); err != nil {
			return nil, fmt.Errorf("resolve peer address %q: %w", peer, err)
		}
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", listen, err)
	}

	u := &UDP{
		conn:     conn,
		maxFrame: maxFrameSize,
		inbox:    newQueue(DefaultQueueSize),
		peer:     raddr,
		done:     make(chan struct{}),
	}
	go u.readLoop()

	util.LogDebug("udp link listening on %s", conn.LocalAddr())
	return u, nil
}

func (u *UDP) readLoop() {
	defer close(u.done)

	buf := make([]byte, u.maxFrame+1)
	for {
		n, from, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			if u.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			util.LogWarning("udp read failed: %v", err)
			continue
		}
		if n > u.maxFrame {
			util.LogDebug("udp datagram from %s too large (%d bytes), dropped", from, n)
			continue
		}

		u.mu.Lock()
		if u.peer == nil {
			u.peer = from
		}
		u.mu.Unlock()

		u.inbox.push(clone(buf[:n]))
	}
}

// LocalAddr returns the bound address.
func (u *UDP) LocalAddr() *net.UDPAddr { return u.conn.LocalAddr().(*net.UDPAddr) }

func (u *UDP) Send(frame []byte) error {
	if u.closed.Load() {
		return ErrClosed
	}
	if err := checkFrame(frame, u.maxFrame); err != nil {
		return err
	}

	u.mu.RLock()
	peer := u.peer
	u.mu.RUnlock()
	if peer == nil {
		return fmt.Errorf("%w: no peer address yet", ErrNotOpen)
	}

	if _, err := u.conn.WriteToUDP(frame, peer); err != nil {
		return fmt.Errorf("udp send: %w", err)
	}
	return nil
}

func (u *UDP) Receive() ([]byte, bool) {
	if u.closed.Load() {
		return nil, false
	}
	return u.inbox.pop()
}

func (u *UDP) MaxFrameSize() int { return u.maxFrame }

func (u *UDP) Close() error {
	if u.closed.Swap(true) {
		return nil
	}
	err := u.conn.Close()
	<-u.done
	return err
}
