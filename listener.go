package overlay

import (
	"io"
	"net"

	"github.com/mg98/p2p-messenger/wire"
	"github.com/pkg/errors"
)

// Listen binds the node's host address and starts accepting connections
// in a background goroutine. It must be called before Bootstrap or Join
// can usefully receive replies.
func (n *Node) Listen() error {
	ln, err := net.Listen("tcp", n.host.String())
	if err != nil {
		return errors.Wrapf(err, "listen on %s", n.host)
	}
	n.listener = ln

	n.wg.Add(1)
	go n.acceptLoop()
	return nil
}

func (n *Node) acceptLoop() {
	defer n.wg.Done()

	for {
		conn, err := n.listener.Accept()
		if err != nil {
			select {
			case <-n.quit:
				return
			default:
				n.log.WithError(err).Warn("accept failed, listener stopping")
				return
			}
		}

		n.wg.Add(1)
		go n.serveConn(conn)
	}
}

// serveConn decodes exactly one message off conn and dispatches it. Most
// message types are one-shot: the connection is closed once the handler
// returns. JOIN and JACC instead reuse the connection to complete the
// handshake and take over its lifetime themselves (dispatch.go).
func (n *Node) serveConn(conn net.Conn) {
	defer n.wg.Done()

	header := make([]byte, wire.HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		conn.Close()
		return
	}

	h, err := wire.DecodeHeader(header)
	if err != nil {
		n.log.WithError(err).Warn("malformed header, closing connection")
		conn.Close()
		return
	}

	var payload []byte
	if h.Length > 0 {
		payload = make([]byte, h.Length)
		if _, err := io.ReadFull(conn, payload); err != nil {
			n.log.WithError(err).Warn("truncated payload, closing connection")
			conn.Close()
			return
		}
	}

	msg := wire.Message{Header: h, Payload: payload}
	n.log.WithField("type", h.Type).Debug("received message")

	switch h.Type {
	case wire.Ping:
		n.handlePing(msg)
		conn.Close()
	case wire.Pong:
		n.handlePong(msg)
		conn.Close()
	case wire.Query:
		n.handleQuery(msg)
		conn.Close()
	case wire.Qhit:
		n.handleQhit(msg)
		conn.Close()
	case wire.Post:
		n.handlePost(msg)
		conn.Close()
	case wire.Bye:
		n.handleBye(msg)
		conn.Close()
	case wire.Join:
		n.handleJoin(conn, msg)
	case wire.Jacc:
		n.handleJacc(conn, msg)
	}
}
