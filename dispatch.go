package overlay

import (
	"io"
	"net"
	"time"

	"github.com/mg98/p2p-messenger/wire"
	"github.com/pkg/errors"
)

// joinTimeout bounds the bootstrap dial, one-shot dials, and JOIN/JACC
// dials, reads and writes. Durable neighbour dials (dialPeer) and writes
// through peer.send have no deadline.
const joinTimeout = 3 * time.Second

// dialOneShot opens a transient connection to addr, writes msg, and
// closes it. It is never tracked in a neighbour set — see peer.go.
func dialOneShot(addr Address, msg wire.Message) error {
	conn, err := net.DialTimeout("tcp", addr.String(), joinTimeout)
	if err != nil {
		return errors.Wrapf(err, "one-shot dial %s", addr)
	}
	defer conn.Close()

	if _, err := conn.Write(msg.Encode()); err != nil {
		return errors.Wrapf(err, "one-shot write %s", addr)
	}
	return nil
}

// handlePing forwards a PING through the bounded flood and answers with
// a correlated PONG, optionally adopting the sender as a neighbour.
func (n *Node) handlePing(msg wire.Message) {
	sender := senderAddr(msg.Header)
	if sender.Equal(n.host) {
		n.log.Debug("dropping self-addressed ping")
		return
	}

	if !n.recvPings.CheckAndSet(msg.Header.ID, sender) {
		n.log.WithField("id", msg.Header.ID).Debug("dropping duplicate ping")
		return
	}

	if msg.Header.TTL > 0 && n.outboundCount() > 0 {
		fwd := msg.Forwarded()
		if fwd.Header.TTL > 0 && fwd.Header.HopCount <= n.cfg.ProtocolConfig.MaxTTL {
			for _, p := range n.outboundExcept(sender) {
				if err := p.send(fwd); err != nil {
					n.log.WithError(err).Warn("forward ping failed, evicting neighbour")
					n.removeOutbound(p.addr)
				}
			}
		}
	}

	if n.outboundCount() < n.cfg.MaxConnections {
		pong := wire.Message{Header: n.originate(wire.Pong)}
		pong.Header.ID = msg.Header.ID // same message_id as the ping, for correlation
		if err := dialOneShot(sender, pong); err != nil {
			n.log.WithError(err).Warn("pong reply failed")
		}
	}

	if n.outboundCount() < n.cfg.Neighbours {
		p, err := dialPeer(sender)
		if err != nil {
			n.log.WithError(err).Warn("failed to connect to ping-inferred neighbour")
		} else {
			n.addOutbound(p)
		}
	}
}

// handlePong records the sender as a neighbour candidate and routes the
// pong back along the ping's recorded reverse path, if any.
func (n *Node) handlePong(msg wire.Message) {
	sender := senderAddr(msg.Header)

	if n.outboundCount() < n.cfg.MaxConnections && !sender.Equal(n.host) {
		n.addCandidate(sender)
	}

	if n.sentPings.Has(msg.Header.ID) {
		return
	}

	origin, ok := n.recvPings.Get(msg.Header.ID)
	if !ok {
		n.log.WithField("id", msg.Header.ID).Debug("dropping pong with unknown correlation")
		return
	}

	if msg.Header.TTL > 0 {
		fwd := msg.Forwarded()
		if fwd.Header.TTL > 0 && fwd.Header.HopCount <= n.cfg.ProtocolConfig.MaxTTL {
			if err := dialOneShot(origin, fwd); err != nil {
				n.log.WithError(err).Warn("reverse-path pong failed")
			}
		}
	}
}

// handleQuery answers a QUERY for this node's own peer id with a QHIT,
// otherwise forwards it through the bounded flood.
func (n *Node) handleQuery(msg wire.Message) {
	sender := senderAddr(msg.Header)
	if sender.Equal(n.host) {
		return
	}

	if !n.recvQueries.CheckAndSet(msg.Header.ID, sender) {
		return
	}

	target := wire.PeerID(msg.Payload)
	pub, err := wire.DecodePeerID(target)
	if err != nil {
		n.log.WithError(err).Warn("query payload is not a valid peer id")
		return
	}

	if n.samePublicKey(pub) {
		hit := wire.Message{Header: n.originate(wire.Qhit), Payload: []byte(n.peerID)}
		if err := dialOneShot(sender, hit); err != nil {
			n.log.WithError(err).Warn("qhit reply failed")
		}
		return
	}

	if msg.Header.TTL > 0 {
		fwd := msg.Forwarded()
		if fwd.Header.TTL > 0 && fwd.Header.HopCount <= n.cfg.ProtocolConfig.MaxTTL {
			for _, p := range n.outboundExcept(sender) {
				if err := p.send(fwd); err != nil {
					n.log.WithError(err).Warn("forward query failed, evicting neighbour")
					n.removeOutbound(p.addr)
				}
			}
		}
	}
}

// handleQhit records a resolved recipient address if this node is
// waiting on it, otherwise routes the hit back along the query's
// recorded reverse path.
func (n *Node) handleQhit(msg wire.Message) {
	sender := senderAddr(msg.Header)
	peerID := wire.PeerID(msg.Payload)

	if _, ok := n.recipients.Get(peerID); ok {
		addr := sender
		n.recipients.Set(peerID, &addr)
		return
	}

	if origin, ok := n.recvQueries.Get(msg.Header.ID); ok {
		if msg.Header.TTL > 0 {
			fwd := msg.Forwarded()
			if fwd.Header.TTL > 0 && fwd.Header.HopCount <= n.cfg.ProtocolConfig.MaxTTL {
				if err := dialOneShot(origin, fwd); err != nil {
					n.log.WithError(err).Warn("reverse-path qhit failed")
				}
			}
		}
		return
	}

	n.log.WithField("id", msg.Header.ID).Debug("dropping qhit with unknown correlation")
}

// handlePost delivers a POST addressed to this node's own peer id as a
// chat event, dropping anything addressed elsewhere.
func (n *Node) handlePost(msg wire.Message) {
	if len(msg.Payload) < wire.PeerIDSize {
		n.log.Warn("post payload shorter than peer id prefix, dropping")
		return
	}

	prefix := wire.PeerID(msg.Payload[:wire.PeerIDSize])
	if prefix != n.peerID {
		n.log.WithField("prefix", prefix).Warn("post addressed to a different peer id, dropping")
		return
	}

	body := msg.Payload[wire.PeerIDSize:]
	n.emit(Event{Type: EventMessage, Peer: senderAddr(msg.Header), Body: body})
}

// handleBye tears down the outbound link to the sender.
func (n *Node) handleBye(msg wire.Message) {
	n.removeOutbound(senderAddr(msg.Header))
}

// Join performs the initiator side of the symmetric neighbour handshake:
// dial target, send JOIN, and read back its echoed peer id. The dialed
// connection is stashed pending the JACC that completes the handshake
// in handleJacc — nothing is committed as an outbound neighbour until
// then.
func (n *Node) Join(target Address) error {
	if target.Equal(n.host) {
		return ErrSelfAddressed
	}

	conn, err := net.DialTimeout("tcp", target.String(), joinTimeout)
	if err != nil {
		return errors.Wrapf(err, "join: dial %s", target)
	}

	join := wire.Message{Header: n.originate(wire.Join), Payload: []byte(n.peerID)}
	conn.SetWriteDeadline(time.Now().Add(joinTimeout))
	if _, err := conn.Write(join.Encode()); err != nil {
		conn.Close()
		return errors.Wrapf(err, "join: send to %s", target)
	}

	conn.SetReadDeadline(time.Now().Add(joinTimeout))
	echoed := make([]byte, wire.PeerIDSize)
	if _, err := io.ReadFull(conn, echoed); err != nil {
		conn.Close()
		return errors.Wrapf(ErrHandshakeTimeout, "join: %s did not echo a peer id: %v", target, err)
	}
	conn.SetReadDeadline(time.Time{})

	n.joinMu.Lock()
	n.pendingJoins[target] = newPeer(target, conn)
	n.joinMu.Unlock()

	return nil
}

// handleJoin is the receiving side of a JOIN, run from the accepting
// connection's reader (listener.go). On success it keeps the connection
// open as an inbound neighbour and opens a second connection back to the
// initiator carrying JACC; on any failure it closes the socket without
// committing any state.
func (n *Node) handleJoin(conn net.Conn, msg wire.Message) {
	if len(msg.Payload) != wire.PeerIDSize {
		n.log.Warn("join payload is not a well-formed peer id, rejecting")
		conn.Close()
		return
	}
	initiator := senderAddr(msg.Header)

	if n.outboundCount() >= n.cfg.MaxConnections {
		n.log.WithField("peer", initiator).Info("declining join, at outbound capacity")
		conn.Close()
		return
	}

	conn.SetWriteDeadline(time.Now().Add(joinTimeout))
	if _, err := conn.Write([]byte(n.peerID)); err != nil {
		n.log.WithError(err).Warn("join: failed to echo peer id back")
		conn.Close()
		return
	}

	jaccConn, err := net.DialTimeout("tcp", initiator.String(), joinTimeout)
	if err != nil {
		n.log.WithError(err).Warn("join: failed to open jacc connection")
		conn.Close()
		return
	}
	jacc := wire.Message{Header: n.originate(wire.Jacc), Payload: []byte(n.peerID)}
	jaccConn.SetWriteDeadline(time.Now().Add(joinTimeout))
	if _, err := jaccConn.Write(jacc.Encode()); err != nil {
		n.log.WithError(err).Warn("join: failed to send jacc")
		jaccConn.Close()
		conn.Close()
		return
	}

	// Both sockets are now committed: the JOIN socket as an inbound
	// neighbour, the JACC socket likewise — this node never writes
	// through either again, matching the observed asymmetry where the
	// accepting side of the handshake only ever accumulates inbound
	// bookkeeping (see DESIGN.md).
	n.addInbound(newPeer(initiator, conn))
	n.addInbound(newPeer(initiator, jaccConn))
}

// handleJacc is the receiving side of a JACC, run from the accepting
// connection's reader. It completes the handshake this node's own Join
// started: writes its peer id back on the jacc socket, then commits the
// originally-dialed JOIN socket as an outbound neighbour.
func (n *Node) handleJacc(conn net.Conn, msg wire.Message) {
	origin := senderAddr(msg.Header)

	n.joinMu.Lock()
	p, ok := n.pendingJoins[origin]
	if ok {
		delete(n.pendingJoins, origin)
	}
	n.joinMu.Unlock()

	if !ok {
		n.log.WithField("peer", origin).Warn("jacc with no matching pending join, dropping")
		conn.Close()
		return
	}

	conn.SetWriteDeadline(time.Now().Add(joinTimeout))
	if _, err := conn.Write([]byte(n.peerID)); err != nil {
		n.log.WithError(err).Warn("jacc: failed to echo peer id back")
		p.disconnect()
		conn.Close()
		return
	}

	n.addOutbound(p)
	// The jacc socket itself is left open and untracked on this side:
	// the remote end holds it as its own inbound bookkeeping connection.
}
