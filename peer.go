package overlay

import (
	"fmt"
	"net"
	"sync"

	"github.com/mg98/p2p-messenger/wire"
	"github.com/pkg/errors"
)

// Address is a peer's reachable (IP, port) endpoint.
type Address struct {
	IP   string
	Port uint16
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}

// Equal reports whether a and other name the same endpoint.
func (a Address) Equal(other Address) bool {
	return a.IP == other.IP && a.Port == other.Port
}

// peer is one overlay neighbour: an Address bound to a single,
// full-duplex TCP socket. A peer is distinct from the transient,
// untracked sockets handlers open for one-shot replies — see
// dialOneShot() in dispatch.go.
type peer struct {
	addr Address

	mu     sync.Mutex // serializes writes; no interleaving of message bytes on one socket
	conn   net.Conn
	closed bool
}

// newPeer wraps an already-established connection to addr as a durable
// neighbour.
func newPeer(addr Address, conn net.Conn) *peer {
	return &peer{addr: addr, conn: conn}
}

// dialPeer opens a new durable outbound connection to addr and wraps it
// as a neighbour.
func dialPeer(addr Address) (*peer, error) {
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		return nil, errors.Wrapf(err, "dial neighbour %s", addr)
	}
	return newPeer(addr, conn), nil
}

// send serializes and writes msg to the peer's socket. Write failures
// are surfaced to the caller, who decides whether to evict the peer:
// log, remove it from its neighbour set, close its socket.
func (p *peer) send(msg wire.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.Errorf("send to %s: peer already disconnected", p.addr)
	}

	if _, err := p.conn.Write(msg.Encode()); err != nil {
		return errors.Wrapf(err, "write to %s", p.addr)
	}
	return nil
}

// disconnect half-closes for write then closes the socket. It is
// idempotent: calling it on an already-closed peer is a no-op, never an
// error — a peer's socket is closed exactly once.
func (p *peer) disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if tcp, ok := p.conn.(*net.TCPConn); ok {
		tcp.CloseWrite()
	}
	p.conn.Close()
}
