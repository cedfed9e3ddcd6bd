package overlay

import "errors"

// Sentinel errors surfaced by the protocol engine. Callers that need to
// distinguish a failure mode (rather than just log it) compare against
// these with errors.Is.
var (
	// ErrSelfAddressed is returned by Join when the target is this node's
	// own host address. Bootstrap with its own address and self-addressed
	// traffic are not reported through it: the former logs and returns
	// nil, the latter is dropped silently.
	ErrSelfAddressed = errors.New("overlay: own host address given as peer")

	// ErrHandshakeTimeout is returned by Join when the target does not
	// echo its peer id within the handshake deadline, including when it
	// closes the connection instead.
	ErrHandshakeTimeout = errors.New("overlay: join/jacc handshake timed out")

	// ErrRecipientUnresolved is returned by Post when the resolution
	// window elapses without a QHIT for the target peer id.
	ErrRecipientUnresolved = errors.New("overlay: recipient peer id could not be resolved")
)
