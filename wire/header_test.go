package wire

import (
	"bytes"
	"testing"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Header{
		{Version: 1, Type: Ping, TTL: 5, HopCount: 0, Port: 1337, Length: 0, IP: 0x7f000001, ID: MessageID{0xde, 0xad, 0xbe, 0xef}},
		{Version: 1, Type: Post, TTL: 0, HopCount: 7, Port: 65535, Length: 255, IP: 0, ID: MessageID{0, 0, 0, 0}},
		{Version: 2, Type: Qhit, TTL: 255, HopCount: 255, Port: 0, Length: 65535, IP: 0xffffffff, ID: MessageID{0xff, 0xff, 0xff, 0xff}},
	}

	for _, want := range cases {
		got, err := DecodeHeader(want.Encode())
		if err != nil {
			t.Fatalf("DecodeHeader: %v", err)
		}
		if got != want {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestHeaderEncodeExactBytes(t *testing.T) {
	h := Header{
		Version:  1,
		Type:     Ping,
		TTL:      5,
		HopCount: 0,
		Port:     1337,
		Length:   0,
		IP:       0x7f000001,
		ID:       MessageID{0xde, 0xad, 0xbe, 0xef},
	}

	want := []byte{0x01, 0x00, 0x05, 0x00, 0x05, 0x39, 0x00, 0x00, 0x7f, 0x00, 0x00, 0x01, 0xde, 0xad, 0xbe, 0xef}
	got := h.Encode()

	if !bytes.Equal(got, want) {
		t.Errorf("Encode() = % x, want % x", got, want)
	}
}

func TestDecodeHeaderShortFrame(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, HeaderSize-1)); err == nil {
		t.Error("expected error decoding a short frame")
	}
}

func TestDecodeHeaderUnknownType(t *testing.T) {
	h := Header{Version: 1, Type: Ping}
	frame := h.Encode()
	frame[1] = 0x7f // not a known msg_type
	if _, err := DecodeHeader(frame); err == nil {
		t.Error("expected error decoding an unknown message type")
	}
}

func TestIPNumRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0x7f000001, 0xc0a80001, 0xffffffff}
	for _, want := range cases {
		ip := NumToIP(want)
		got, err := IPToNum(ip)
		if err != nil {
			t.Fatalf("IPToNum(%q): %v", ip, err)
		}
		if got != want {
			t.Errorf("IPToNum(NumToIP(%d)) = %d, want %d", want, got, want)
		}
	}
}

func TestIPToNumInvalid(t *testing.T) {
	if _, err := IPToNum("not-an-ip"); err == nil {
		t.Error("expected error for invalid ip")
	}
}
