package wire

import (
	"crypto/rsa"
	"math/big"
	"testing"
)

func TestPeerIDRoundTrip(t *testing.T) {
	cases := []*rsa.PublicKey{
		{N: big.NewInt(12345), E: 65537},
		{N: big.NewInt(1), E: 3},
		{N: mustBigInt("9999999999999999"), E: 9999999999999999},
	}

	for _, want := range cases {
		id, err := EncodePeerID(want)
		if err != nil {
			t.Fatalf("EncodePeerID: %v", err)
		}
		if len(id) != PeerIDSize {
			t.Fatalf("peer id length = %d, want %d", len(id), PeerIDSize)
		}

		got, err := DecodePeerID(id)
		if err != nil {
			t.Fatalf("DecodePeerID(%q): %v", id, err)
		}
		if got.N.Cmp(want.N) != 0 || got.E != want.E {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestEncodePeerIDTooLarge(t *testing.T) {
	huge := mustBigInt("99999999999999999999999999999999")
	if _, err := EncodePeerID(&rsa.PublicKey{N: huge, E: 65537}); err == nil {
		t.Error("expected error for modulus exceeding 16 digits")
	}
}

func TestDecodePeerIDWrongLength(t *testing.T) {
	if _, err := DecodePeerID("tooshort"); err == nil {
		t.Error("expected error for peer id of wrong length")
	}
}

func mustBigInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test fixture: " + s)
	}
	return n
}
