package model

// PlayerID uniquely identifies a seated player within a room.
// It is derived from the connection that joined, so it is stable for
// the lifetime of that connection and no longer.
type PlayerID string

// ConnectionID identifies a live client connection. The room host is a
// connection identity with privileges over a room, not necessarily a
// seated player, so it gets its own type.
type ConnectionID string

// Player represents a seated participant in a room
type Player struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}
