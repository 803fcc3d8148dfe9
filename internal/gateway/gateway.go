package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/searchparty-game/searchparty/internal/dependencies/clock"
	"github.com/searchparty-game/searchparty/internal/model"
	"github.com/searchparty-game/searchparty/internal/protocol"
	"github.com/searchparty-game/searchparty/internal/services/room"
)

// dispatchTimeout bounds a single command end to end, including the
// term-selection call inside submitSearchHistory.
const dispatchTimeout = 30 * time.Second

// Gateway owns the WebSocket boundary: it upgrades connections, decodes
// commands, invokes the room controller, and delivers the resulting
// effects. Authorization and state checks live in the controller, where
// they run inside the room's exclusive section; the gateway only
// enforces what it alone knows, which connection is seated where.
type Gateway struct {
	rooms    *room.Controller
	hubs     *HubManager
	clock    clock.Clock
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a new Gateway
func New(rooms *room.Controller, hubs *HubManager, clk clock.Clock, logger *slog.Logger) *Gateway {
	return &Gateway{
		rooms:  rooms,
		hubs:   hubs,
		clock:  clk,
		logger: logger.With(slog.String("component", "gateway")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The game is join-by-code; origin checking adds nothing
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the connection to completion
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(model.ConnectionID(uuid.NewString()), conn, g)
	client.logger.Info("connection opened", slog.String("remote_addr", r.RemoteAddr))

	go client.writePump()
	client.readPump()
}

// dispatch decodes one inbound frame and routes it. It runs on the
// connection's readPump goroutine, so the client's session fields are
// safe to read and write here.
func (g *Gateway) dispatch(c *Client, raw []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	cmd, err := protocol.DecodeCommand(raw)
	if err != nil {
		g.sendError(c, err.Error())
		return
	}

	switch cmd := cmd.(type) {
	case *protocol.CreateRoom:
		g.handleCreate(ctx, c, cmd)
	case *protocol.JoinRoom:
		g.handleJoin(ctx, c, cmd)
	case *protocol.StartGame:
		g.asHost(c, cmd.RoomID, func() (room.Effects, error) {
			return g.rooms.StartGame(ctx, cmd.RoomID, c.id)
		})
	case *protocol.SubmitSearchHistory:
		g.asPlayer(c, cmd.RoomID, func() (room.Effects, error) {
			return g.rooms.SubmitHistory(ctx, cmd.RoomID, c.playerID, cmd.History)
		})
	case *protocol.SubmitRankings:
		g.asPlayer(c, cmd.RoomID, func() (room.Effects, error) {
			return g.rooms.SubmitRankings(ctx, cmd.RoomID, c.playerID, cmd.Rankings)
		})
	case *protocol.SetMaxRounds:
		g.asHost(c, cmd.RoomID, func() (room.Effects, error) {
			return g.rooms.SetMaxRounds(ctx, cmd.RoomID, c.id, cmd.MaxRounds)
		})
	case *protocol.StartNextRound:
		g.asHost(c, cmd.RoomID, func() (room.Effects, error) {
			return g.rooms.StartNextRound(ctx, cmd.RoomID, c.id)
		})
	case *protocol.LeaveRoom:
		g.handleLeave(ctx, c, cmd)
	case *protocol.ChatMessage:
		g.asPlayer(c, cmd.RoomID, func() (room.Effects, error) {
			return g.rooms.Chat(ctx, cmd.RoomID, c.playerID, cmd.Text)
		})
	}
}

func (g *Gateway) handleCreate(ctx context.Context, c *Client, cmd *protocol.CreateRoom) {
	g.reapStaleSession(ctx, c)
	if c.roomID != "" {
		g.sendError(c, "You are already in a room.")
		return
	}

	cfg := model.DefaultRoomConfig()
	if cmd.MaxPlayers > 0 {
		cfg.MaxPlayers = cmd.MaxPlayers
	}
	if cmd.MaxRounds > 0 {
		cfg.MaxRounds = cmd.MaxRounds
	}
	if cmd.AutoAdvance != nil {
		cfg.AutoAdvance = *cmd.AutoAdvance
	}

	fx, err := g.rooms.Create(ctx, cmd.RoomName, c.id, cfg)
	if err != nil {
		g.fail(c, err)
		return
	}

	// The room code is minted by the registry; pull it off the reply
	for _, evt := range fx.Reply {
		if created, ok := evt.(*protocol.RoomCreated); ok {
			c.roomID = created.RoomID
			c.isHost = true
			g.hubs.GetOrCreateHub(created.RoomID).Register(c)
		}
	}
	g.deliver(c, c.roomID, fx)
}

func (g *Gateway) handleJoin(ctx context.Context, c *Client, cmd *protocol.JoinRoom) {
	g.reapStaleSession(ctx, c)
	if c.playerID != "" {
		g.sendError(c, "You are already in a room.")
		return
	}
	if c.roomID != "" && c.roomID != cmd.RoomID {
		g.sendError(c, "You are hosting a different room.")
		return
	}

	fx, err := g.rooms.Join(ctx, cmd.RoomID, c.id, cmd.PlayerName)
	if err != nil {
		g.fail(c, err)
		return
	}

	c.roomID = cmd.RoomID
	c.playerID = model.PlayerID(c.id)
	g.hubs.GetOrCreateHub(cmd.RoomID).Register(c)
	g.deliver(c, cmd.RoomID, fx)
}

func (g *Gateway) handleLeave(ctx context.Context, c *Client, cmd *protocol.LeaveRoom) {
	if c.playerID == "" || c.roomID != cmd.RoomID {
		g.fail(c, model.ErrNotInRoom)
		return
	}

	fx, err := g.rooms.Leave(ctx, cmd.RoomID, c.playerID)
	if err != nil {
		g.fail(c, err)
		return
	}

	// A still-hosting connection stays tied to the room; anyone else
	// drops out of the hub before the departure is broadcast.
	if !c.isHost || fx.RoomEmptied {
		if hub := g.hubs.GetHub(cmd.RoomID); hub != nil {
			hub.Unregister(c)
		}
	}
	g.deliver(c, cmd.RoomID, fx)

	c.playerID = ""
	if fx.RoomEmptied {
		// The room is gone; neither the session nor the hub may outlive
		// it, or a later room reusing the code inherits them.
		c.roomID = ""
		c.isHost = false
		g.hubs.RemoveHub(cmd.RoomID)
		return
	}
	if !c.isHost {
		c.roomID = ""
		if hub := g.hubs.GetHub(cmd.RoomID); hub != nil && hub.ClientCount() == 0 {
			g.hubs.RemoveHub(cmd.RoomID)
		}
	}
}

// reapStaleSession clears session state referring to a room that was
// deleted out from under the connection, which happens when another
// player's departure empties a room its host never joined. Runs on the
// readPump goroutine, like all session access.
func (g *Gateway) reapStaleSession(ctx context.Context, c *Client) {
	if c.roomID == "" {
		return
	}
	room, err := g.rooms.Snapshot(ctx, c.roomID)
	if err == nil {
		if c.isHost && room.HostID == c.id {
			return
		}
		if c.playerID != "" && room.GetPlayer(c.playerID) != nil {
			return
		}
	}

	c.logger.Info("stale session reaped", slog.String("room_id", string(c.roomID)))
	if hub := g.hubs.GetHub(c.roomID); hub != nil {
		hub.Unregister(c)
		if hub.ClientCount() == 0 {
			g.hubs.RemoveHub(c.roomID)
		}
	}
	c.roomID = ""
	c.playerID = ""
	c.isHost = false
}

// asPlayer runs an operation that requires the sender to be seated
func (g *Gateway) asPlayer(c *Client, roomID model.RoomID, op func() (room.Effects, error)) {
	if c.playerID == "" || c.roomID != roomID {
		g.fail(c, model.ErrNotInRoom)
		return
	}
	fx, err := op()
	if err != nil {
		g.fail(c, err)
		return
	}
	g.deliver(c, roomID, fx)
}

// asHost runs an operation addressed to a room the sender must be
// attached to. Host identity itself is verified in the controller
// against the stored room.
func (g *Gateway) asHost(c *Client, roomID model.RoomID, op func() (room.Effects, error)) {
	if c.roomID != roomID {
		g.fail(c, model.ErrNotInRoom)
		return
	}
	fx, err := op()
	if err != nil {
		g.fail(c, err)
		return
	}
	g.deliver(c, roomID, fx)
}

// disconnect tears down a connection's session: host disconnects close
// the room, member disconnects are ordinary departures.
func (g *Gateway) disconnect(c *Client) {
	defer close(c.send)

	if c.roomID == "" {
		c.logger.Info("connection closed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	hub := g.hubs.GetHub(c.roomID)
	if hub != nil {
		hub.Unregister(c)
	}

	if c.isHost {
		room, err := g.rooms.Snapshot(ctx, c.roomID)
		if err != nil || room.HostID != c.id {
			// The room emptied and was deleted while this connection sat
			// idle; if the code has since been reissued it belongs to
			// someone else and must not be torn down.
			c.logger.Info("connection closed", slog.String("room_id", string(c.roomID)))
			return
		}

		fx, err := g.rooms.Close(ctx, c.roomID)
		if err != nil {
			g.logger.Error("room close failed",
				slog.String("room_id", string(c.roomID)),
				slog.String("error", err.Error()))
		}
		g.deliver(c, c.roomID, fx)
		g.hubs.RemoveHub(c.roomID)
		c.logger.Info("host disconnected, room closed", slog.String("room_id", string(c.roomID)))
		return
	}

	if c.playerID != "" {
		fx, err := g.rooms.Leave(ctx, c.roomID, c.playerID)
		if err != nil && !errors.Is(err, model.ErrRoomNotFound) && !errors.Is(err, model.ErrNotInRoom) {
			g.logger.Error("disconnect leave failed",
				slog.String("room_id", string(c.roomID)),
				slog.String("player_id", string(c.playerID)),
				slog.String("error", err.Error()))
		}
		// The reply has nowhere to go; only the departure broadcast matters
		fx.Reply = nil
		g.deliver(c, c.roomID, fx)
		if fx.RoomEmptied {
			g.hubs.RemoveHub(c.roomID)
		}
	}

	if hub != nil && hub.ClientCount() == 0 {
		g.hubs.RemoveHub(c.roomID)
	}
	c.logger.Info("connection closed", slog.String("room_id", string(c.roomID)))
}

// deliver pushes an operation's effects: replies to the sender,
// broadcasts through the room's hub.
func (g *Gateway) deliver(c *Client, roomID model.RoomID, fx room.Effects) {
	for _, evt := range fx.Reply {
		data, err := protocol.Encode(evt)
		if err != nil {
			g.logger.Error("event encode failed", slog.String("event", evt.EventType()))
			continue
		}
		c.enqueue(data)
	}

	if len(fx.Broadcast) == 0 {
		return
	}
	hub := g.hubs.GetHub(roomID)
	if hub == nil {
		return
	}
	for _, evt := range fx.Broadcast {
		data, err := protocol.Encode(evt)
		if err != nil {
			g.logger.Error("event encode failed", slog.String("event", evt.EventType()))
			continue
		}
		hub.Broadcast(data)
	}
}

// fail maps an operation error onto a single error event to the sender
func (g *Gateway) fail(c *Client, err error) {
	g.sendError(c, errorMessage(err))
}

func (g *Gateway) sendError(c *Client, message string) {
	data, err := protocol.Encode(protocol.NewError(message))
	if err != nil {
		return
	}
	c.enqueue(data)
	c.logger.Debug("command rejected", slog.String("reason", message))
}

// errorMessage translates sentinel errors into client-facing text.
// Anything unrecognized is an internal failure the client shouldn't
// see the details of.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return "Room not found."
	case errors.Is(err, model.ErrRoomFull):
		return "The room is full."
	case errors.Is(err, model.ErrNameTaken):
		return "That name is already taken."
	case errors.Is(err, model.ErrAlreadyInRoom):
		return "You are already in this room."
	case errors.Is(err, model.ErrNotInRoom):
		return "You are not in this room."
	case errors.Is(err, model.ErrNotHost):
		return "Only the host can do that."
	case errors.Is(err, model.ErrWrongState):
		return "That action is not allowed right now."
	case errors.Is(err, model.ErrGameOver):
		return "The game has already ended."
	case errors.Is(err, model.ErrNotYourTurn):
		return "It is not your turn."
	case errors.Is(err, model.ErrAlreadySubmitted):
		return "You have already submitted."
	case errors.Is(err, model.ErrInvalidRanking):
		return "Invalid rankings: rank every other player exactly once."
	case errors.Is(err, model.ErrInvalidMaxRounds):
		return "Max rounds must be a positive number."
	case errors.Is(err, model.ErrInsufficientPlayers):
		return "Not enough players to start."
	case errors.Is(err, model.ErrNotAwaitingContinue):
		return "The room is not waiting to continue."
	case errors.Is(err, protocol.ErrMalformedMessage), errors.Is(err, protocol.ErrUnknownType):
		return err.Error()
	default:
		return "Internal server error."
	}
}
