package room

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/searchparty-game/searchparty/internal/dependencies/random"
	"github.com/searchparty-game/searchparty/internal/model"
	"github.com/searchparty-game/searchparty/internal/protocol"
	"github.com/searchparty-game/searchparty/internal/services/registry"
	"github.com/searchparty-game/searchparty/internal/services/scoring"
	"github.com/searchparty-game/searchparty/internal/services/termselect"
)

// MinPlayers is the smallest roster a game can start with; a round of
// ranking needs at least one player besides the voter.
const MinPlayers = 2

// Controller drives the per-room state machine. Every mutating call
// runs inside the registry's per-room exclusive section; the one
// exception is the term-selection call, which deliberately happens
// between two exclusive sections so ranking submissions and departures
// keep flowing while the external service thinks.
type Controller struct {
	registry *registry.Manager
	scoring  *scoring.Service
	selector termselect.Selector
	random   random.Random
	logger   *slog.Logger
}

// NewController creates a new room controller
func NewController(
	reg *registry.Manager,
	scoringService *scoring.Service,
	selector termselect.Selector,
	rnd random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		registry: reg,
		scoring:  scoringService,
		selector: selector,
		random:   rnd,
		logger:   logger.With(slog.String("component", "room")),
	}
}

// Create makes a new room with the sender as host
func (c *Controller) Create(ctx context.Context, name string, hostID model.ConnectionID, cfg model.RoomConfig) (Effects, error) {
	def := model.DefaultRoomConfig()
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = def.MaxPlayers
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = def.MaxRounds
	}

	room, err := c.registry.CreateRoom(ctx, name, hostID, cfg)
	if err != nil {
		return Effects{}, err
	}

	var fx Effects
	fx.reply(protocol.NewRoomCreated(room))
	return fx, nil
}

// Join seats a connection as a player. Joining is allowed mid-game
// (the newcomer gets a turn from the next round's shuffle) but not
// after the game has ended.
func (c *Controller) Join(ctx context.Context, roomID model.RoomID, connID model.ConnectionID, name string) (Effects, error) {
	if name == "" {
		name = guestName(connID)
	}
	playerID := model.PlayerID(connID)

	var fx Effects
	_, err := c.registry.Update(ctx, roomID, func(room *model.Room) error {
		if room.State == model.RoomStateGameEnd {
			return model.ErrGameOver
		}
		if room.GetPlayer(playerID) != nil {
			return model.ErrAlreadyInRoom
		}
		if len(room.Players) >= room.Config.MaxPlayers {
			return model.ErrRoomFull
		}
		if room.HasPlayerNamed(name) {
			return model.ErrNameTaken
		}

		room.Players[playerID] = &model.Player{ID: playerID, Name: name}
		room.Scores[playerID] = 0

		fx.reply(protocol.NewRoomJoined(room, playerID))
		fx.broadcast(protocol.NewPlayerJoined(room, name))
		return nil
	})
	if err != nil {
		return Effects{}, err
	}

	c.logger.Info("player joined",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)),
		slog.String("player_name", name),
	)
	return fx, nil
}

// Leave unseats a player. A departure never stalls the round: if the
// leaver held the active turn the turn advances, and if their vote was
// the last one missing the ranking phase completes.
func (c *Controller) Leave(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (Effects, error) {
	var fx Effects
	_, err := c.registry.Update(ctx, roomID, func(room *model.Room) error {
		player := room.GetPlayer(playerID)
		if player == nil {
			return model.ErrNotInRoom
		}

		delete(room.Players, playerID)
		delete(room.Scores, playerID)
		delete(room.SubmittedHistories, playerID)
		delete(room.SubmittedRankings, playerID)

		// Already-submitted rankings included the leaver; stripping
		// them keeps each one an exact permutation of the remaining
		// other players.
		for voter, ranking := range room.SubmittedRankings {
			room.SubmittedRankings[voter] = removeID(ranking, playerID)
		}

		turnEvents := c.removeFromOrder(room, playerID)

		fx.broadcast(protocol.NewPlayerLeft(room, player.Name))
		fx.broadcast(turnEvents...)

		if len(room.Players) == 0 {
			// Registry deletes the emptied room on save
			fx.RoomEmptied = true
			return nil
		}

		if (room.State == model.RoomStateInGame || room.State == model.RoomStateRanking) &&
			len(room.Players) < MinPlayers {
			fx.broadcast(c.endGame(room)...)
			return nil
		}

		if room.State == model.RoomStateRanking && !room.AwaitingContinue && room.AllRankingsIn() {
			fx.broadcast(c.finishRanking(room)...)
		}
		return nil
	})
	if err != nil {
		return Effects{}, err
	}

	fx.reply(protocol.NewRoomLeft(roomID))
	c.logger.Info("player left",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)),
	)
	return fx, nil
}

// StartGame begins round one. Host only, lobby only.
func (c *Controller) StartGame(ctx context.Context, roomID model.RoomID, sender model.ConnectionID) (Effects, error) {
	var fx Effects
	_, err := c.registry.Update(ctx, roomID, func(room *model.Room) error {
		if room.HostID != sender {
			return model.ErrNotHost
		}
		if room.State != model.RoomStateWaiting {
			return model.ErrWrongState
		}
		if len(room.Players) < MinPlayers {
			return model.ErrInsufficientPlayers
		}

		events := c.startNewRound(room)
		// Round one announces itself as the game starting
		if room.State == model.RoomStateInGame {
			events = []protocol.Event{protocol.NewGameStarted(room)}
		}
		fx.broadcast(events...)
		return nil
	})
	if err != nil {
		return Effects{}, err
	}

	c.logger.Info("game started", slog.String("room_id", string(roomID)))
	return fx, nil
}

// SubmitHistory handles the current turn player's batch. The record
// happens under the room lock, the term-selection call happens outside
// it, and the reveal re-validates the room before touching anything.
func (c *Controller) SubmitHistory(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, history []model.HistoryEntry) (Effects, error) {
	_, err := c.registry.Update(ctx, roomID, func(room *model.Room) error {
		if room.State != model.RoomStateInGame {
			return model.ErrWrongState
		}
		if room.CurrentTurnPlayer() != playerID {
			return model.ErrNotYourTurn
		}
		if _, done := room.SubmittedHistories[playerID]; done {
			return model.ErrAlreadySubmitted
		}
		room.SubmittedHistories[playerID] = history
		return nil
	})
	if err != nil {
		return Effects{}, err
	}

	// The one true suspension point: bounded by the selector's own
	// timeout and degraded to a sentinel term on failure, so a slow or
	// dead analysis service cannot stall the room.
	result, err := c.selector.SelectTerm(ctx, history)
	if err != nil {
		c.logger.Warn("term selection failed",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()),
		)
		result = termselect.Sentinel()
	}

	var fx Effects
	_, err = c.registry.Update(ctx, roomID, func(room *model.Room) error {
		// The room may have moved on while the selector ran (the
		// submitter left and the turn advanced past them). A late
		// reveal for a finished phase is dropped; nobody is waiting
		// on it.
		if room.State != model.RoomStateInGame {
			return nil
		}

		sel := model.TermSelection{
			Term:      result.SelectedSearchTerm,
			OwnerID:   playerID,
			Sentiment: result.Sentiment,
			Keywords:  result.Keywords,
			Category:  result.Category,
		}
		room.CurrentTerm = &sel
		fx.broadcast(protocol.NewSearchRevealed(room, sel))

		// Only advance if the submitter still holds the turn; their
		// disconnect mid-selection already advanced it.
		if room.CurrentTurnPlayer() == playerID {
			fx.broadcast(c.advanceTurn(room)...)
		}
		return nil
	})
	if err != nil {
		return Effects{}, err
	}

	c.logger.Info("search term revealed",
		slog.String("room_id", string(roomID)),
		slog.String("owner_id", string(playerID)),
	)
	return fx, nil
}

// SubmitRankings stores one voter's ordering. An invalid ranking is
// answered with an error so the voter can retry instead of silently
// stalling the phase.
func (c *Controller) SubmitRankings(ctx context.Context, roomID model.RoomID, voterID model.PlayerID, ranking []model.PlayerID) (Effects, error) {
	var fx Effects
	_, err := c.registry.Update(ctx, roomID, func(room *model.Room) error {
		if room.State != model.RoomStateRanking || room.AwaitingContinue {
			return model.ErrWrongState
		}
		if room.GetPlayer(voterID) == nil {
			return model.ErrNotInRoom
		}
		if _, done := room.SubmittedRankings[voterID]; done {
			return model.ErrAlreadySubmitted
		}
		if !c.scoring.ValidateRanking(room, voterID, ranking) {
			c.logger.Warn("invalid ranking rejected",
				slog.String("room_id", string(roomID)),
				slog.String("voter_id", string(voterID)),
				slog.Int("size", len(ranking)),
			)
			return model.ErrInvalidRanking
		}

		room.SubmittedRankings[voterID] = ranking
		if room.AllRankingsIn() {
			fx.broadcast(c.finishRanking(room)...)
		}
		return nil
	})
	if err != nil {
		return Effects{}, err
	}
	return fx, nil
}

// SetMaxRounds changes the round cap. Host only, any time before the
// game ends. Mid-game the cap can grow or shrink, but never below the
// round already being played.
func (c *Controller) SetMaxRounds(ctx context.Context, roomID model.RoomID, sender model.ConnectionID, maxRounds int) (Effects, error) {
	var fx Effects
	_, err := c.registry.Update(ctx, roomID, func(room *model.Room) error {
		if room.HostID != sender {
			return model.ErrNotHost
		}
		if room.State == model.RoomStateGameEnd {
			return model.ErrGameOver
		}
		if maxRounds <= 0 || maxRounds < room.CurrentRound {
			return model.ErrInvalidMaxRounds
		}
		room.Config.MaxRounds = maxRounds
		fx.broadcast(protocol.NewMaxRoundsUpdated(room))
		return nil
	})
	if err != nil {
		return Effects{}, err
	}
	return fx, nil
}

// StartNextRound is the host's explicit continue when auto-advance is
// off and a round's scores have been broadcast.
func (c *Controller) StartNextRound(ctx context.Context, roomID model.RoomID, sender model.ConnectionID) (Effects, error) {
	var fx Effects
	_, err := c.registry.Update(ctx, roomID, func(room *model.Room) error {
		if room.HostID != sender {
			return model.ErrNotHost
		}
		if !room.AwaitingContinue {
			return model.ErrNotAwaitingContinue
		}
		fx.broadcast(c.startNewRound(room)...)
		return nil
	})
	if err != nil {
		return Effects{}, err
	}
	return fx, nil
}

// Snapshot returns the stored state of a room for read-only use, such
// as checking whether a session still refers to a live room.
func (c *Controller) Snapshot(ctx context.Context, roomID model.RoomID) (*model.Room, error) {
	return c.registry.GetRoom(ctx, roomID)
}

// Chat relays a line to the whole room
func (c *Controller) Chat(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, text string) (Effects, error) {
	var fx Effects
	_, err := c.registry.Update(ctx, roomID, func(room *model.Room) error {
		player := room.GetPlayer(playerID)
		if player == nil {
			return model.ErrNotInRoom
		}
		fx.broadcast(protocol.NewChat(room, player.Name, text))
		return nil
	})
	if err != nil {
		return Effects{}, err
	}
	return fx, nil
}

// Close tears the room down (host disconnect). Members are told the
// room is closing before it disappears from the registry.
func (c *Controller) Close(ctx context.Context, roomID model.RoomID) (Effects, error) {
	var fx Effects
	fx.broadcast(protocol.NewRoomClosed(roomID, "The host has left; the room is closed."))

	if err := c.registry.DeleteRoom(ctx, roomID); err != nil {
		return Effects{}, err
	}
	c.logger.Info("room closed by host disconnect", slog.String("room_id", string(roomID)))
	return fx, nil
}

// startNewRound clears per-round state and either deals the next round
// or ends the game. Callers hold the room lock.
func (c *Controller) startNewRound(room *model.Room) []protocol.Event {
	room.SubmittedHistories = make(map[model.PlayerID][]model.HistoryEntry)
	room.SubmittedRankings = make(map[model.PlayerID][]model.PlayerID)
	room.CurrentTerm = nil
	room.AwaitingContinue = false
	room.CurrentRound++

	if room.CurrentRound > room.Config.MaxRounds {
		return c.endGame(room)
	}

	// Fresh uniformly random turn order every round. The ids are
	// sorted before shuffling so the permutation depends only on the
	// injected randomness, not map iteration order.
	order := room.PlayerIDs()
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	random.Shuffle(c.random, len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	room.PlayerOrder = order
	room.CurrentTurnIndex = 0
	room.State = model.RoomStateInGame

	return []protocol.Event{protocol.NewNewRoundStarted(room)}
}

// advanceTurn moves to the next player or into the ranking phase.
// Callers hold the room lock.
func (c *Controller) advanceTurn(room *model.Room) []protocol.Event {
	room.CurrentTurnIndex++
	if room.CurrentTurnIndex >= len(room.PlayerOrder) {
		return c.beginRanking(room)
	}
	return []protocol.Event{protocol.NewTurnAdvanced(room)}
}

// beginRanking transitions out of the turn loop. Callers hold the room lock.
func (c *Controller) beginRanking(room *model.Room) []protocol.Event {
	room.CurrentTurnIndex = model.NoTurn
	room.State = model.RoomStateRanking
	return []protocol.Event{protocol.NewRankingPhaseStarted(room)}
}

// finishRanking scores the round and either rolls into the next round,
// waits for the host's continue, or ends the game. Callers hold the
// room lock and have checked AllRankingsIn.
func (c *Controller) finishRanking(room *model.Room) []protocol.Event {
	deltas := c.scoring.ScoreRound(room.SubmittedRankings)
	c.scoring.Apply(room.Scores, deltas)

	events := []protocol.Event{protocol.NewRankingsResults(room, copyScores(room.Scores))}

	if !room.Config.AutoAdvance {
		room.AwaitingContinue = true
		return events
	}
	return append(events, c.startNewRound(room)...)
}

// endGame moves the room to its terminal state. Callers hold the room lock.
func (c *Controller) endGame(room *model.Room) []protocol.Event {
	room.State = model.RoomStateGameEnd
	room.PlayerOrder = nil
	room.CurrentTurnIndex = model.NoTurn
	room.AwaitingContinue = false
	return []protocol.Event{protocol.NewGameEnded(room, copyScores(room.Scores))}
}

// removeFromOrder drops a player from the turn order, keeping the
// index pointing at the same logical turn. If the leaver held the
// active turn, the turn passes on immediately so the round cannot
// stall. Callers hold the room lock.
func (c *Controller) removeFromOrder(room *model.Room, playerID model.PlayerID) []protocol.Event {
	idx := -1
	for i, id := range room.PlayerOrder {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	held := room.State == model.RoomStateInGame && idx == room.CurrentTurnIndex

	room.PlayerOrder = append(room.PlayerOrder[:idx], room.PlayerOrder[idx+1:]...)
	if room.CurrentTurnIndex != model.NoTurn && idx < room.CurrentTurnIndex {
		room.CurrentTurnIndex--
	}

	if !held {
		return nil
	}

	// The next player now occupies the leaver's index
	if room.CurrentTurnIndex >= len(room.PlayerOrder) {
		return c.beginRanking(room)
	}
	return []protocol.Event{protocol.NewTurnAdvanced(room)}
}

func guestName(connID model.ConnectionID) string {
	s := string(connID)
	if len(s) > 5 {
		s = s[:5]
	}
	return fmt.Sprintf("Guest-%s", s)
}

func copyScores(scores map[model.PlayerID]int) map[model.PlayerID]int {
	out := make(map[model.PlayerID]int, len(scores))
	for id, s := range scores {
		out[id] = s
	}
	return out
}

func removeID(ids []model.PlayerID, target model.PlayerID) []model.PlayerID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
