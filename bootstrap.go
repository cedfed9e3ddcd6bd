package overlay

import (
	"math/rand"
	"net"
	"time"

	"github.com/mg98/p2p-messenger/wire"
	"github.com/pkg/errors"
)

// discoveryWindow and resolutionWindow are the two fixed 3-second sleeps
// used as suspension points: one after a bootstrap PING to let PONGs
// populate the candidate pool, one after a QUERY to let a QHIT resolve
// a recipient's address.
const (
	discoveryWindow  = 3 * time.Second
	resolutionWindow = 3 * time.Second
)

// Bootstrap joins the overlay through addr: connect, send a PING, wait
// for the discovery window, then dial a random sample of up to the
// configured neighbour target from whatever candidates arrived.
// A refused connection or an empty candidate pool are not errors — the
// node continues running, detached or under-neighboured.
func (n *Node) Bootstrap(addr Address) error {
	if addr.Equal(n.host) {
		n.log.Warn("aborting bootstrap: cannot bootstrap with self, continuing as detached peer")
		return nil
	}

	conn, err := net.DialTimeout("tcp", addr.String(), joinTimeout)
	if err != nil {
		n.log.WithError(err).Warn("bootstrap failed, continuing as detached peer")
		return nil
	}
	defer conn.Close()

	ping := wire.Message{Header: n.originate(wire.Ping)}
	n.sentPings.Set(ping.Header.ID, struct{}{})

	if _, err := conn.Write(ping.Encode()); err != nil {
		return errors.Wrapf(err, "bootstrap: send ping to %s", addr)
	}

	n.log.WithField("via", addr).Info("bootstrapping, waiting for discovery window")
	time.Sleep(discoveryWindow)

	candidates := n.drainCandidates()
	n.log.WithField("candidates", candidates).Debug("discovery window elapsed")

	for _, c := range sampleAddresses(candidates, n.cfg.Neighbours) {
		p, err := dialPeer(c)
		if err != nil {
			n.log.WithError(err).WithField("peer", c).Warn("failed to connect to neighbour candidate")
			continue
		}
		n.addOutbound(p)
	}

	return nil
}

// sampleAddresses returns up to k distinct addresses chosen uniformly at
// random from pool, without mutating it.
func sampleAddresses(pool []Address, k int) []Address {
	if k > len(pool) {
		k = len(pool)
	}
	shuffled := make([]Address, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:k]
}
