package overlay

import (
	"time"

	"github.com/mg98/p2p-messenger/wire"
	"github.com/pkg/errors"
)

// Post resolves peerID to an address via QUERY/QHIT if it isn't already
// known, waits the resolution window, then delivers chat directly to the
// resolved address. Returns ErrRecipientUnresolved if the window elapses
// with no QHIT.
func (n *Node) Post(peerID wire.PeerID, chat string) error {
	if _, known := n.recipients.Get(peerID); !known {
		n.recipients.Set(peerID, nil)

		query := wire.Message{Header: n.originate(wire.Query), Payload: []byte(peerID)}
		n.sentQueries.Set(query.Header.ID, struct{}{})

		for _, p := range n.allOutbound() {
			if err := p.send(query); err != nil {
				n.log.WithError(err).Warn("query forward failed, evicting neighbour")
				n.removeOutbound(p.addr)
			}
		}
	}

	time.Sleep(resolutionWindow)

	addr, ok := n.recipients.Get(peerID)
	if !ok || addr == nil {
		return errors.Wrapf(ErrRecipientUnresolved, "peer id %s", peerID)
	}

	payload := append([]byte(peerID), []byte(chat)...)
	msg := wire.Message{Header: n.originate(wire.Post), Payload: payload}
	if err := dialOneShot(*addr, msg); err != nil {
		return errors.Wrapf(err, "post: deliver to %s", *addr)
	}
	return nil
}
