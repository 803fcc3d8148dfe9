package room

import "github.com/searchparty-game/searchparty/internal/protocol"

// Effects is what a room operation wants pushed over the wire. The
// events are composed under the room's lock so their order matches the
// state transitions that produced them; the gateway just delivers.
type Effects struct {
	// Reply goes to the invoking connection only
	Reply []protocol.Event
	// Broadcast goes to every member of the room
	Broadcast []protocol.Event
	// RoomEmptied is set when the operation removed the last player and
	// the room was deleted with it; the gateway tears down sessions and
	// the room's hub on seeing it.
	RoomEmptied bool
}

func (e *Effects) reply(evts ...protocol.Event) {
	e.Reply = append(e.Reply, evts...)
}

func (e *Effects) broadcast(evts ...protocol.Event) {
	e.Broadcast = append(e.Broadcast, evts...)
}
