// Package overlay implements the unstructured peer-to-peer chat overlay:
// node identity, neighbour bookkeeping, the PING/PONG/QUERY/QHIT/POST/
// JOIN/JACC/BYE protocol engine, and connection lifecycle over TCP.
//
// Neighbour sets and lookup tables are guarded by per-concern locks (a
// mutex over the neighbour maps, and internal/store's per-table locking
// for the seen-message/recipient tables) rather than a single actor
// goroutine, since per-connection handlers routinely block on dialing
// one-shot reply sockets and shouldn't stall each other.
package overlay

import (
	"fmt"
	"math/big"
	"net"
	"sync"
	"time"

	"github.com/mg98/p2p-messenger/config"
	"github.com/mg98/p2p-messenger/internal/store"
	"github.com/mg98/p2p-messenger/wire"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"crypto/rsa"
)

// Node is one participant in the overlay.
type Node struct {
	cfg config.Config

	privKey *rsa.PrivateKey
	peerID  wire.PeerID
	host    Address

	neighMu  sync.Mutex
	outbound map[Address]*peer
	inbound  []*peer

	recvPings   *store.Store[wire.MessageID, Address]
	recvQueries *store.Store[wire.MessageID, Address]
	sentPings   *store.Store[wire.MessageID, struct{}]
	sentQueries *store.Store[wire.MessageID, struct{}]
	recipients  *store.Store[wire.PeerID, *Address]

	candMu     sync.Mutex
	candidates []Address

	joinMu       sync.Mutex
	pendingJoins map[Address]*peer

	listener net.Listener
	events   chan Event

	quit         chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once

	log *logrus.Entry
}

// New constructs a Node bound to host, generating a fresh identity
// keypair. Call Listen to start accepting connections and Bootstrap or
// Join to enter an overlay.
func New(cfg config.Config, host Address, logger *logrus.Logger) (*Node, error) {
	priv, err := generateIdentity()
	if err != nil {
		return nil, err
	}
	id, err := wire.EncodePeerID(&priv.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "encode node peer id")
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	n := &Node{
		cfg:          cfg,
		privKey:      priv,
		peerID:       id,
		host:         host,
		outbound:     make(map[Address]*peer),
		recvPings:    store.New[wire.MessageID, Address](),
		recvQueries:  store.New[wire.MessageID, Address](),
		sentPings:    store.New[wire.MessageID, struct{}](),
		sentQueries:  store.New[wire.MessageID, struct{}](),
		recipients:   store.New[wire.PeerID, *Address](),
		pendingJoins: make(map[Address]*peer),
		events:       make(chan Event, 64),
		quit:         make(chan struct{}),
		log:          logger.WithField("node", host.String()),
	}
	return n, nil
}

// PeerID returns this node's fixed-length textual identity.
func (n *Node) PeerID() wire.PeerID { return n.peerID }

// PublicKey returns this node's public key.
func (n *Node) PublicKey() *rsa.PublicKey { return &n.privKey.PublicKey }

// Address returns this node's reachable (IP, port).
func (n *Node) Address() Address { return n.host }

// Events returns the channel EventMessage/EventPeerUp/EventPeerDown
// notifications are delivered on, for the local user interface.
func (n *Node) Events() <-chan Event { return n.events }

// Neighbours returns a snapshot of the current outbound and inbound
// neighbour addresses.
func (n *Node) Neighbours() (outbound, inbound []Address) {
	n.neighMu.Lock()
	defer n.neighMu.Unlock()
	for addr := range n.outbound {
		outbound = append(outbound, addr)
	}
	for _, p := range n.inbound {
		inbound = append(inbound, p.addr)
	}
	return outbound, inbound
}

func (n *Node) emit(ev Event) {
	select {
	case n.events <- ev:
	default:
		n.log.Warn("event subscriber too slow, dropping event")
	}
}

func (n *Node) outboundCount() int {
	n.neighMu.Lock()
	defer n.neighMu.Unlock()
	return len(n.outbound)
}

func (n *Node) addOutbound(p *peer) {
	n.neighMu.Lock()
	n.outbound[p.addr] = p
	n.neighMu.Unlock()
	n.emit(Event{Type: EventPeerUp, Peer: p.addr})
}

func (n *Node) addInbound(p *peer) {
	n.neighMu.Lock()
	n.inbound = append(n.inbound, p)
	n.neighMu.Unlock()
}

func (n *Node) removeOutbound(addr Address) {
	n.neighMu.Lock()
	p, ok := n.outbound[addr]
	if ok {
		delete(n.outbound, addr)
	}
	n.neighMu.Unlock()

	if ok {
		p.disconnect()
		n.emit(Event{Type: EventPeerDown, Peer: addr})
	}
}

// outboundExcept returns a snapshot of outbound peers whose address is
// not except. The flood handlers pass the sender address carried in the
// message header (the originator), not the hop that relayed it.
func (n *Node) outboundExcept(except Address) []*peer {
	n.neighMu.Lock()
	defer n.neighMu.Unlock()
	out := make([]*peer, 0, len(n.outbound))
	for addr, p := range n.outbound {
		if addr.Equal(except) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (n *Node) allOutbound() []*peer {
	n.neighMu.Lock()
	defer n.neighMu.Unlock()
	out := make([]*peer, 0, len(n.outbound))
	for _, p := range n.outbound {
		out = append(out, p)
	}
	return out
}

func (n *Node) addCandidate(addr Address) {
	n.candMu.Lock()
	defer n.candMu.Unlock()
	for _, c := range n.candidates {
		if c.Equal(addr) {
			return
		}
	}
	n.candidates = append(n.candidates, addr)
}

func (n *Node) drainCandidates() []Address {
	n.candMu.Lock()
	defer n.candMu.Unlock()
	out := n.candidates
	n.candidates = nil
	return out
}

// newHeader builds a header carrying this node's address as sender, a
// fresh message id, and the given ttl/hop_count.
func (n *Node) newHeader(t wire.MsgType, ttl, hop uint8) wire.Header {
	ipNum, err := wire.IPToNum(n.host.IP)
	if err != nil {
		// Neither New nor Listen checks that host.IP is a dotted-decimal
		// IPv4 address; a host given as a hostname or IPv6 address ends here.
		panic(fmt.Sprintf("overlay: invalid host ip %q: %v", n.host.IP, err))
	}
	return wire.Header{
		Version:  n.cfg.ProtocolConfig.Version,
		Type:     t,
		TTL:      ttl,
		HopCount: hop,
		Port:     n.host.Port,
		IP:       ipNum,
		ID:       wire.NewMessageID(n.host.IP, n.host.Port),
	}
}

// originate builds a header for a message this node originates (as
// opposed to forwards), using the configured default TTL.
func (n *Node) originate(t wire.MsgType) wire.Header {
	return n.newHeader(t, n.cfg.ProtocolConfig.TTL, 0)
}

// senderAddr extracts the originating sender's address carried in a
// header, per the wire format's ip/port fields.
func senderAddr(h wire.Header) Address {
	return Address{IP: wire.NumToIP(h.IP), Port: h.Port}
}

// samePublicKey reports whether pub names the same RSA public key as
// this node's own.
func (n *Node) samePublicKey(pub *rsa.PublicKey) bool {
	if pub == nil {
		return false
	}
	return bigIntEqual(pub.N, n.privKey.PublicKey.N) && pub.E == n.privKey.PublicKey.E
}

func bigIntEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}

// Shutdown sends BYE to every outbound neighbour, closes outbound
// sockets, waits a second for BYEs to be processed on the other end,
// then closes the listening socket and waits for in-flight connection
// handlers to finish.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		close(n.quit)

		for _, p := range n.allOutbound() {
			bye := wire.Message{Header: n.newHeader(wire.Bye, 0, 0)}
			if err := p.send(bye); err != nil {
				n.log.WithError(err).Warn("send bye on shutdown")
			}
			p.disconnect()
		}

		time.Sleep(1 * time.Second)

		if n.listener != nil {
			n.listener.Close()
		}
		n.wg.Wait()
	})
}
