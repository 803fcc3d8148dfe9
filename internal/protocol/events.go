package protocol

import (
	"encoding/json"
	"sort"

	"github.com/searchparty-game/searchparty/internal/model"
)

// Event type discriminators (server -> client)
const (
	EvtRoomCreated         = "roomCreated"
	EvtRoomJoined          = "roomJoined"
	EvtPlayerJoined        = "playerJoined"
	EvtPlayerLeft          = "playerLeft"
	EvtGameStarted         = "gameStarted"
	EvtTurnAdvanced        = "turnAdvanced"
	EvtSearchRevealed      = "searchRevealed"
	EvtRankingPhaseStarted = "rankingPhaseStarted"
	EvtRankingsResults     = "rankingsResults"
	EvtNewRoundStarted     = "newRoundStarted"
	EvtGameEnded           = "gameEnded"
	EvtMaxRoundsUpdated    = "maxRoundsUpdated"
	EvtRoomLeft            = "roomLeft"
	EvtRoomClosed          = "roomClosed"
	EvtChatMessage         = "chatMessage"
	EvtError               = "error"
)

// Event is one outbound message. Encode marshals it as a single JSON
// object carrying its type discriminator.
type Event interface {
	EventType() string
}

// Encode marshals an event for the wire
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// RoomSnapshot is the room-level view attached to every room broadcast,
// so each client stays self-consistent without delta reconciliation.
type RoomSnapshot struct {
	RoomID              model.RoomID       `json:"roomId"`
	Players             []model.Player     `json:"players"`
	SubmittedPlayerIDs  []model.PlayerID   `json:"submittedPlayerIds"`
	HostID              model.ConnectionID `json:"hostId"`
	CurrentTurnPlayerID model.PlayerID     `json:"currentTurnPlayerId,omitempty"`
	CurrentRound        int                `json:"currentRound"`
	MaxRounds           int                `json:"maxRounds"`
}

// SnapshotOf builds a snapshot from the room's current state.
// Slices are sorted so clients (and tests) see a stable order.
func SnapshotOf(room *model.Room) RoomSnapshot {
	players := make([]model.Player, 0, len(room.Players))
	for _, p := range room.Players {
		players = append(players, *p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	submitted := room.SubmittedPlayerIDs()
	sort.Slice(submitted, func(i, j int) bool { return submitted[i] < submitted[j] })

	return RoomSnapshot{
		RoomID:              room.ID,
		Players:             players,
		SubmittedPlayerIDs:  submitted,
		HostID:              room.HostID,
		CurrentTurnPlayerID: room.CurrentTurnPlayer(),
		CurrentRound:        room.CurrentRound,
		MaxRounds:           room.Config.MaxRounds,
	}
}

// RoomCreated answers a successful createRoom
type RoomCreated struct {
	Type     string `json:"type"`
	RoomName string `json:"roomName"`
	RoomSnapshot
}

// RoomJoined answers a successful joinRoom with the new player's id
type RoomJoined struct {
	Type     string         `json:"type"`
	PlayerID model.PlayerID `json:"playerId"`
	RoomSnapshot
}

// PlayerEventPayload names the player a membership event is about
type PlayerEventPayload struct {
	PlayerName string `json:"playerName"`
}

// PlayerJoined is broadcast when a player is seated
type PlayerJoined struct {
	Type    string             `json:"type"`
	Payload PlayerEventPayload `json:"payload"`
	RoomSnapshot
}

// PlayerLeft is broadcast when a player is unseated
type PlayerLeft struct {
	Type    string             `json:"type"`
	Payload PlayerEventPayload `json:"payload"`
	RoomSnapshot
}

// GameStarted is broadcast when the host starts round one
type GameStarted struct {
	Type string `json:"type"`
	RoomSnapshot
}

// TurnAdvanced is broadcast when the turn moves to the next player
type TurnAdvanced struct {
	Type string `json:"type"`
	RoomSnapshot
}

// SearchRevealedPayload carries the selected term and its owner
type SearchRevealedPayload struct {
	SearchTerm    string         `json:"searchTerm"`
	OwnerPlayerID model.PlayerID `json:"ownerPlayerId"`
	Sentiment     string         `json:"sentiment,omitempty"`
	Keywords      []string       `json:"keywords,omitempty"`
	Category      string         `json:"category,omitempty"`
}

// SearchRevealed is broadcast once the term-selection service answers
type SearchRevealed struct {
	Type    string                `json:"type"`
	Payload SearchRevealedPayload `json:"payload"`
	RoomSnapshot
}

// RankingPhaseStarted is broadcast when the last turn of a round ends
type RankingPhaseStarted struct {
	Type string `json:"type"`
	RoomSnapshot
}

// ScoresPayload carries cumulative scores keyed by player id
type ScoresPayload struct {
	FinalScores map[model.PlayerID]int `json:"finalScores"`
}

// RankingsResults is broadcast once every ranking is in and scored
type RankingsResults struct {
	Type    string        `json:"type"`
	Payload ScoresPayload `json:"payload"`
	RoomSnapshot
}

// NewRoundStarted is broadcast when the next round's turn order is set
type NewRoundStarted struct {
	Type string `json:"type"`
	RoomSnapshot
}

// GameEnded is broadcast with final scores after the last round
type GameEnded struct {
	Type    string        `json:"type"`
	Payload ScoresPayload `json:"payload"`
	RoomSnapshot
}

// MaxRoundsUpdated is broadcast when the host changes the round cap
type MaxRoundsUpdated struct {
	Type string `json:"type"`
	RoomSnapshot
}

// RoomLeft answers a leaveRoom to the leaver only
type RoomLeft struct {
	Type   string       `json:"type"`
	RoomID model.RoomID `json:"roomId"`
}

// RoomClosed is broadcast to every member when the host disconnects
type RoomClosed struct {
	Type    string       `json:"type"`
	RoomID  model.RoomID `json:"roomId"`
	Message string       `json:"message"`
}

// ChatPayload is a relayed chat line
type ChatPayload struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Chat is broadcast to the whole room
type Chat struct {
	Type    string      `json:"type"`
	Payload ChatPayload `json:"payload"`
	RoomSnapshot
}

// Error is sent to a single sender when their command is rejected
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *RoomCreated) EventType() string         { return e.Type }
func (e *RoomJoined) EventType() string          { return e.Type }
func (e *PlayerJoined) EventType() string        { return e.Type }
func (e *PlayerLeft) EventType() string          { return e.Type }
func (e *GameStarted) EventType() string         { return e.Type }
func (e *TurnAdvanced) EventType() string        { return e.Type }
func (e *SearchRevealed) EventType() string      { return e.Type }
func (e *RankingPhaseStarted) EventType() string { return e.Type }
func (e *RankingsResults) EventType() string     { return e.Type }
func (e *NewRoundStarted) EventType() string     { return e.Type }
func (e *GameEnded) EventType() string           { return e.Type }
func (e *MaxRoundsUpdated) EventType() string    { return e.Type }
func (e *RoomLeft) EventType() string            { return e.Type }
func (e *RoomClosed) EventType() string          { return e.Type }
func (e *Chat) EventType() string                { return e.Type }
func (e *Error) EventType() string               { return e.Type }

// Constructors fill in the type discriminator so callers cannot forget it.

func NewRoomCreated(room *model.Room) *RoomCreated {
	return &RoomCreated{Type: EvtRoomCreated, RoomName: room.Name, RoomSnapshot: SnapshotOf(room)}
}

func NewRoomJoined(room *model.Room, playerID model.PlayerID) *RoomJoined {
	return &RoomJoined{Type: EvtRoomJoined, PlayerID: playerID, RoomSnapshot: SnapshotOf(room)}
}

func NewPlayerJoined(room *model.Room, playerName string) *PlayerJoined {
	return &PlayerJoined{Type: EvtPlayerJoined, Payload: PlayerEventPayload{PlayerName: playerName}, RoomSnapshot: SnapshotOf(room)}
}

func NewPlayerLeft(room *model.Room, playerName string) *PlayerLeft {
	return &PlayerLeft{Type: EvtPlayerLeft, Payload: PlayerEventPayload{PlayerName: playerName}, RoomSnapshot: SnapshotOf(room)}
}

func NewGameStarted(room *model.Room) *GameStarted {
	return &GameStarted{Type: EvtGameStarted, RoomSnapshot: SnapshotOf(room)}
}

func NewTurnAdvanced(room *model.Room) *TurnAdvanced {
	return &TurnAdvanced{Type: EvtTurnAdvanced, RoomSnapshot: SnapshotOf(room)}
}

func NewSearchRevealed(room *model.Room, sel model.TermSelection) *SearchRevealed {
	return &SearchRevealed{
		Type: EvtSearchRevealed,
		Payload: SearchRevealedPayload{
			SearchTerm:    sel.Term,
			OwnerPlayerID: sel.OwnerID,
			Sentiment:     sel.Sentiment,
			Keywords:      sel.Keywords,
			Category:      sel.Category,
		},
		RoomSnapshot: SnapshotOf(room),
	}
}

func NewRankingPhaseStarted(room *model.Room) *RankingPhaseStarted {
	return &RankingPhaseStarted{Type: EvtRankingPhaseStarted, RoomSnapshot: SnapshotOf(room)}
}

func NewRankingsResults(room *model.Room, scores map[model.PlayerID]int) *RankingsResults {
	return &RankingsResults{Type: EvtRankingsResults, Payload: ScoresPayload{FinalScores: scores}, RoomSnapshot: SnapshotOf(room)}
}

func NewNewRoundStarted(room *model.Room) *NewRoundStarted {
	return &NewRoundStarted{Type: EvtNewRoundStarted, RoomSnapshot: SnapshotOf(room)}
}

func NewGameEnded(room *model.Room, scores map[model.PlayerID]int) *GameEnded {
	return &GameEnded{Type: EvtGameEnded, Payload: ScoresPayload{FinalScores: scores}, RoomSnapshot: SnapshotOf(room)}
}

func NewMaxRoundsUpdated(room *model.Room) *MaxRoundsUpdated {
	return &MaxRoundsUpdated{Type: EvtMaxRoundsUpdated, RoomSnapshot: SnapshotOf(room)}
}

func NewRoomLeft(roomID model.RoomID) *RoomLeft {
	return &RoomLeft{Type: EvtRoomLeft, RoomID: roomID}
}

func NewRoomClosed(roomID model.RoomID, message string) *RoomClosed {
	return &RoomClosed{Type: EvtRoomClosed, RoomID: roomID, Message: message}
}

func NewChat(room *model.Room, sender, text string) *Chat {
	return &Chat{Type: EvtChatMessage, Payload: ChatPayload{Sender: sender, Text: text}, RoomSnapshot: SnapshotOf(room)}
}

func NewError(message string) *Error {
	return &Error{Type: EvtError, Message: message}
}
