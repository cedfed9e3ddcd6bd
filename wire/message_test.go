package wire

import "testing"

func TestNewMessageIDUnique(t *testing.T) {
	seen := make(map[MessageID]bool)
	for i := 0; i < 100; i++ {
		id := NewMessageID("127.0.0.1", 1337)
		if seen[id] {
			t.Fatalf("duplicate message id generated on iteration %d: %s", i, id)
		}
		seen[id] = true
	}
}

func TestMessageForwarded(t *testing.T) {
	m := Message{Header: Header{TTL: 5, HopCount: 1}}
	f := m.Forwarded()

	if f.Header.TTL != 4 {
		t.Errorf("forwarded ttl = %d, want 4", f.Header.TTL)
	}
	if f.Header.HopCount != 2 {
		t.Errorf("forwarded hop_count = %d, want 2", f.Header.HopCount)
	}
	if m.Header.TTL != 5 {
		t.Error("Forwarded must not mutate the receiver")
	}
}

func TestMessageEncodeSetsLength(t *testing.T) {
	m := Message{Header: Header{Type: Post}, Payload: []byte("hello")}
	encoded := m.Encode()

	h, err := DecodeHeader(encoded[:HeaderSize])
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if int(h.Length) != len(m.Payload) {
		t.Errorf("encoded length = %d, want %d", h.Length, len(m.Payload))
	}
	if string(encoded[HeaderSize:]) != "hello" {
		t.Errorf("encoded payload = %q, want %q", encoded[HeaderSize:], "hello")
	}
}
