// Package wire implements the byte-exact framing of the overlay
// protocol: the 16-byte header, the message envelope, peer-id encoding,
// and the numeric IP conversions the header depends on.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// MsgType identifies the kind of message carried by a Header.
type MsgType uint8

// Message types, per the wire protocol.
const (
	Ping  MsgType = 0x00
	Pong  MsgType = 0x01
	Bye   MsgType = 0x02
	Join  MsgType = 0x03
	Jacc  MsgType = 0x04
	Query MsgType = 0x10
	Qhit  MsgType = 0x11
	Post  MsgType = 0x12
)

func (t MsgType) String() string {
	switch t {
	case Ping:
		return "PING"
	case Pong:
		return "PONG"
	case Bye:
		return "BYE"
	case Join:
		return "JOIN"
	case Jacc:
		return "JACC"
	case Query:
		return "QUERY"
	case Qhit:
		return "QHIT"
	case Post:
		return "POST"
	default:
		return fmt.Sprintf("MsgType(%#02x)", uint8(t))
	}
}

// Valid reports whether t is one of the known message types.
func (t MsgType) Valid() bool {
	switch t {
	case Ping, Pong, Bye, Join, Jacc, Query, Qhit, Post:
		return true
	default:
		return false
	}
}

// HeaderSize is the fixed, network-byte-order size of a Header in bytes.
const HeaderSize = 16

// MessageIDSize is the size of a MessageID in raw bytes.
const MessageIDSize = 4

// MessageID is the opaque 4-byte identifier used for flood de-duplication
// and as a map key for reverse-path routing.
type MessageID [MessageIDSize]byte

func (id MessageID) String() string {
	return fmt.Sprintf("%x", [MessageIDSize]byte(id))
}

// Header is the 16-byte frame prefix of every message on the wire.
//
//	offset  size  field
//	0       1     version
//	1       1     msg_type
//	2       1     ttl
//	3       1     hop_count
//	4       2     port
//	6       2     length
//	8       4     ip
//	12      4     message_id
type Header struct {
	Version  uint8
	Type     MsgType
	TTL      uint8
	HopCount uint8
	Port     uint16
	Length   uint16
	IP       uint32
	ID       MessageID
}

// Encode packs h into its 16-byte wire representation.
func (h Header) Encode() []byte {
	buf := make([]byte, 0, HeaderSize)
	w := bytes.NewBuffer(buf)

	binary.Write(w, binary.BigEndian, h.Version)
	binary.Write(w, binary.BigEndian, uint8(h.Type))
	binary.Write(w, binary.BigEndian, h.TTL)
	binary.Write(w, binary.BigEndian, h.HopCount)
	binary.Write(w, binary.BigEndian, h.Port)
	binary.Write(w, binary.BigEndian, h.Length)
	binary.Write(w, binary.BigEndian, h.IP)
	w.Write(h.ID[:])

	return w.Bytes()
}

// DecodeHeader unpacks exactly HeaderSize bytes into a Header. It returns
// an error if the frame is short or names an unknown message type.
func DecodeHeader(frame []byte) (Header, error) {
	if len(frame) != HeaderSize {
		return Header{}, fmt.Errorf("wire: short header, got %d want %d bytes", len(frame), HeaderSize)
	}

	var h Header
	r := bytes.NewReader(frame)

	binary.Read(r, binary.BigEndian, &h.Version)

	var typ uint8
	binary.Read(r, binary.BigEndian, &typ)
	h.Type = MsgType(typ)
	if !h.Type.Valid() {
		return Header{}, fmt.Errorf("wire: unknown message type %#02x", typ)
	}

	binary.Read(r, binary.BigEndian, &h.TTL)
	binary.Read(r, binary.BigEndian, &h.HopCount)
	binary.Read(r, binary.BigEndian, &h.Port)
	binary.Read(r, binary.BigEndian, &h.Length)
	binary.Read(r, binary.BigEndian, &h.IP)
	if _, err := r.Read(h.ID[:]); err != nil {
		return Header{}, errors.New("wire: truncated message id")
	}

	return h, nil
}

// IPToNum converts a dotted-decimal IPv4 address into its big-endian
// 32-bit numeric form.
func IPToNum(ip string) (uint32, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return 0, fmt.Errorf("wire: invalid ipv4 address %q", ip)
	}
	v4 := parsed.To4()
	if v4 == nil {
		return 0, fmt.Errorf("wire: not an ipv4 address %q", ip)
	}
	return binary.BigEndian.Uint32(v4), nil
}

// NumToIP converts a big-endian 32-bit numeric IPv4 address back into its
// dotted-decimal form.
func NumToIP(num uint32) string {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, num)
	return net.IP(buf).String()
}
