package wire

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Message is a Header followed by its payload bytes. The payload is
// UTF-8 text whose interpretation depends on the header's message type
// (a PeerId for QUERY/QHIT/JOIN/JACC, a peer-id-prefixed chat body for
// POST, empty for PING/PONG/BYE).
type Message struct {
	Header  Header
	Payload []byte
}

// Encode serializes the message into its wire representation: the
// 16-byte header followed by exactly Header.Length payload bytes.
func (m Message) Encode() []byte {
	m.Header.Length = uint16(len(m.Payload))
	out := make([]byte, 0, HeaderSize+len(m.Payload))
	out = append(out, m.Header.Encode()...)
	out = append(out, m.Payload...)
	return out
}

func (m Message) String() string {
	return fmt.Sprintf("%s ttl=%d hop=%d id=%s len=%d", m.Header.Type, m.Header.TTL, m.Header.HopCount, m.Header.ID, len(m.Payload))
}

// Forwarded returns a copy of m with ttl decremented and hop_count
// incremented, as required before relaying a flooded message onward.
func (m Message) Forwarded() Message {
	out := m
	out.Header.TTL--
	out.Header.HopCount++
	return out
}

var (
	msgIDMu  sync.Mutex
	msgIDSeq uint64
)

// NewMessageID derives a MessageID from
// sha1(ip || port || (wallclock_seconds + monotonic_sequence)), keeping
// the first 8 hex characters (4 raw bytes). The package-level sequence
// counter increments on every call so that two ids generated within the
// same wall-clock second never hash the same input; the 4-byte truncation
// can still collide, with low probability.
func NewMessageID(ip string, port uint16) MessageID {
	msgIDMu.Lock()
	msgIDSeq++
	seq := msgIDSeq
	msgIDMu.Unlock()

	tick := time.Now().Unix() + int64(seq)
	seed := fmt.Sprintf("%s%d%d", ip, port, tick)

	sum := sha1.Sum([]byte(seed))
	hexDigest := hex.EncodeToString(sum[:])

	var id MessageID
	raw, err := hex.DecodeString(hexDigest[:8])
	if err != nil {
		// sha1 hex output is always well-formed; this cannot happen.
		panic(err)
	}
	copy(id[:], raw)
	return id
}
