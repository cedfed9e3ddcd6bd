package overlay

// EventType identifies the kind of occurrence surfaced to the local
// user interface over Node's events channel.
type EventType int

// Event types.
const (
	EventMessage  EventType = iota + 1 // chat body delivered by POST
	EventPeerUp                        // an outbound neighbour was added (inbound additions emit no event)
	EventPeerDown                      // a neighbour was removed (BYE or write failure)
)

func (t EventType) String() string {
	switch t {
	case EventMessage:
		return "EventMessage"
	case EventPeerUp:
		return "EventPeerUp"
	case EventPeerDown:
		return "EventPeerDown"
	default:
		return "EventUnknown"
	}
}

// Event is a notification handed to the local user interface (the
// interactive CLI prompt). It only carries a delivered chat body or a
// peer lifecycle change — there's no group/pub-sub concept here.
type Event struct {
	Type EventType
	Peer Address // the neighbour that came up/down, or the POST's declared sender address
	Body []byte  // chat body, set only for EventMessage
}
