package model

import (
	"strings"
	"time"
)

// RoomID is the short human-enterable code for joining a room
type RoomID string

// RoomState represents where a room is in the game flow
type RoomState string

const (
	RoomStateWaiting RoomState = "WAITING_FOR_PLAYERS" // Lobby, no game running
	RoomStateInGame  RoomState = "IN_GAME"             // Players taking turns
	RoomStateRanking RoomState = "RANKING"             // Everyone ranking the round
	RoomStateGameEnd RoomState = "GAME_END"            // Terminal
)

// NoTurn is the turn index when no turn is active
const NoTurn = -1

// RoomConfig holds per-room settings fixed at creation or host-adjustable
type RoomConfig struct {
	MaxPlayers int `json:"maxPlayers"`
	MaxRounds  int `json:"maxRounds"`
	// AutoAdvance controls whether the next round starts as soon as a
	// round's scores go out, or waits for the host's explicit continue.
	AutoAdvance bool `json:"autoAdvance"`
}

// DefaultRoomConfig returns the default room configuration
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		MaxPlayers:  8,
		MaxRounds:   3,
		AutoAdvance: true,
	}
}

// TermSelection is the revealed result for the current turn
type TermSelection struct {
	Term      string   `json:"term"`
	OwnerID   PlayerID `json:"ownerId"`
	Sentiment string   `json:"sentiment,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Category  string   `json:"category,omitempty"`
}

// Room is one isolated game instance: membership, turn order, round
// submissions, and cumulative scores. It is plain data; all mutation
// goes through the room controller under the room's exclusive lock.
type Room struct {
	ID     RoomID       `json:"id"`
	Name   string       `json:"name"`
	HostID ConnectionID `json:"hostId"`
	Config RoomConfig   `json:"config"`
	State  RoomState    `json:"state"`

	Players map[PlayerID]*Player `json:"players"`
	Scores  map[PlayerID]int     `json:"scores"`

	// PlayerOrder is reshuffled at the start of each round and defines
	// the turn sequence for that round only.
	PlayerOrder      []PlayerID `json:"playerOrder"`
	CurrentTurnIndex int        `json:"currentTurnIndex"` // NoTurn when idle
	CurrentRound     int        `json:"currentRound"`     // 1-based

	SubmittedHistories map[PlayerID][]HistoryEntry `json:"submittedHistories"`
	SubmittedRankings  map[PlayerID][]PlayerID     `json:"submittedRankings"`
	CurrentTerm        *TermSelection              `json:"currentTerm,omitempty"`

	// AwaitingContinue is set after a round's scores are broadcast when
	// AutoAdvance is off; the host's startNextRound clears it.
	AwaitingContinue bool `json:"awaitingContinue"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the room. Storage backends hand out
// clones so no caller ever aliases the stored state; the redis backend
// gets the same property from serialization.
func (r *Room) Clone() *Room {
	out := *r

	out.Players = make(map[PlayerID]*Player, len(r.Players))
	for id, p := range r.Players {
		cp := *p
		out.Players[id] = &cp
	}
	out.Scores = make(map[PlayerID]int, len(r.Scores))
	for id, score := range r.Scores {
		out.Scores[id] = score
	}
	out.PlayerOrder = append([]PlayerID(nil), r.PlayerOrder...)

	out.SubmittedHistories = make(map[PlayerID][]HistoryEntry, len(r.SubmittedHistories))
	for id, entries := range r.SubmittedHistories {
		out.SubmittedHistories[id] = append([]HistoryEntry(nil), entries...)
	}
	out.SubmittedRankings = make(map[PlayerID][]PlayerID, len(r.SubmittedRankings))
	for id, ranking := range r.SubmittedRankings {
		out.SubmittedRankings[id] = append([]PlayerID(nil), ranking...)
	}
	if r.CurrentTerm != nil {
		term := *r.CurrentTerm
		term.Keywords = append([]string(nil), r.CurrentTerm.Keywords...)
		out.CurrentTerm = &term
	}
	return &out
}

// CurrentTurnPlayer returns the id of the player whose turn it is, or
// empty when no turn is active.
func (r *Room) CurrentTurnPlayer() PlayerID {
	if r.CurrentTurnIndex == NoTurn || r.CurrentTurnIndex >= len(r.PlayerOrder) {
		return ""
	}
	return r.PlayerOrder[r.CurrentTurnIndex]
}

// GetPlayer returns the player with the given id, or nil
func (r *Room) GetPlayer(id PlayerID) *Player {
	return r.Players[id]
}

// HasPlayerNamed reports whether a player with the given name is
// already seated. Names are compared case-insensitively.
func (r *Room) HasPlayerNamed(name string) bool {
	for _, p := range r.Players {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// PlayerIDs returns the ids of all seated players
func (r *Room) PlayerIDs() []PlayerID {
	ids := make([]PlayerID, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	return ids
}

// SubmittedPlayerIDs returns the ids of players who have submitted for
// the current phase: histories while in game, rankings while ranking.
func (r *Room) SubmittedPlayerIDs() []PlayerID {
	var m map[PlayerID][]HistoryEntry
	switch r.State {
	case RoomStateRanking:
		ids := make([]PlayerID, 0, len(r.SubmittedRankings))
		for id := range r.SubmittedRankings {
			ids = append(ids, id)
		}
		return ids
	default:
		m = r.SubmittedHistories
	}
	ids := make([]PlayerID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

// AllRankingsIn reports whether every seated player has a stored ranking
func (r *Room) AllRankingsIn() bool {
	return len(r.Players) > 0 && len(r.SubmittedRankings) >= len(r.Players)
}
