package overlay

import (
	"crypto/rand"
	"crypto/rsa"

	"github.com/pkg/errors"
)

// keyBits is deliberately small: the modulus must fit the 16-character
// decimal field of the peer-id encoding (wire.PeerIDSize/2), so the node
// identity keypair trades real-world security for a textual identity
// that round-trips through EncodePeerID/DecodePeerID.
const keyBits = 48

// generateIdentity produces a fresh RSA keypair sized for peer-id
// encoding.
func generateIdentity() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, errors.Wrap(err, "generate node identity keypair")
	}
	return key, nil
}
