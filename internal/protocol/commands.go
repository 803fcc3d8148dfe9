package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/searchparty-game/searchparty/internal/model"
)

// Command type discriminators (client -> server)
const (
	CmdCreateRoom          = "createRoom"
	CmdJoinRoom            = "joinRoom"
	CmdStartGame           = "startGame"
	CmdSubmitSearchHistory = "submitSearchHistory"
	CmdSubmitRankings      = "submitRankings"
	CmdSetMaxRounds        = "setMaxRounds"
	CmdStartNextRound      = "startNextRound"
	CmdLeaveRoom           = "leaveRoom"
	CmdChatMessage         = "chatMessage"
)

// Decode errors
var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownType      = errors.New("unknown message type")
)

// Command is one decoded client command. The set of implementations is
// closed; anything off the wire that doesn't match a known variant
// shape is rejected at decode time.
type Command interface {
	CommandType() string
}

// CreateRoom asks for a new room with the sender as host. AutoAdvance
// is a pointer so "absent" and "false" stay distinguishable.
type CreateRoom struct {
	RoomName    string `json:"roomName"`
	MaxPlayers  int    `json:"maxPlayers,omitempty"`
	MaxRounds   int    `json:"maxRounds,omitempty"`
	AutoAdvance *bool  `json:"autoAdvance,omitempty"`
}

// JoinRoom seats the sender in an existing room
type JoinRoom struct {
	RoomID     model.RoomID `json:"roomId"`
	PlayerName string       `json:"playerName"`
}

// StartGame begins the first round (host only)
type StartGame struct {
	RoomID model.RoomID `json:"roomId"`
}

// SubmitSearchHistory is the current turn player's history batch
type SubmitSearchHistory struct {
	RoomID  model.RoomID         `json:"roomId"`
	History []model.HistoryEntry `json:"history"`
}

// SubmitRankings is a voter's ordering of the other players,
// most embarrassing first
type SubmitRankings struct {
	RoomID   model.RoomID     `json:"roomId"`
	Rankings []model.PlayerID `json:"rankings"`
}

// SetMaxRounds changes the round cap (host only)
type SetMaxRounds struct {
	RoomID    model.RoomID `json:"roomId"`
	MaxRounds int          `json:"maxRounds"`
}

// StartNextRound is the host's explicit continue when auto-advance is off
type StartNextRound struct {
	RoomID model.RoomID `json:"roomId"`
}

// LeaveRoom unseats the sender
type LeaveRoom struct {
	RoomID model.RoomID `json:"roomId"`
}

// ChatMessage is relayed to the whole room
type ChatMessage struct {
	RoomID model.RoomID `json:"roomId"`
	Text   string       `json:"text"`
}

func (CreateRoom) CommandType() string          { return CmdCreateRoom }
func (JoinRoom) CommandType() string            { return CmdJoinRoom }
func (StartGame) CommandType() string           { return CmdStartGame }
func (SubmitSearchHistory) CommandType() string { return CmdSubmitSearchHistory }
func (SubmitRankings) CommandType() string      { return CmdSubmitRankings }
func (SetMaxRounds) CommandType() string        { return CmdSetMaxRounds }
func (StartNextRound) CommandType() string      { return CmdStartNextRound }
func (LeaveRoom) CommandType() string           { return CmdLeaveRoom }
func (ChatMessage) CommandType() string         { return CmdChatMessage }

// envelope is the minimal shape every inbound message must have
type envelope struct {
	Type string `json:"type"`
}

// DecodeCommand decodes a single inbound message into its command
// variant. It is the only place raw client JSON is interpreted.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var cmd Command
	switch env.Type {
	case CmdCreateRoom:
		cmd = &CreateRoom{}
	case CmdJoinRoom:
		cmd = &JoinRoom{}
	case CmdStartGame:
		cmd = &StartGame{}
	case CmdSubmitSearchHistory:
		cmd = &SubmitSearchHistory{}
	case CmdSubmitRankings:
		cmd = &SubmitRankings{}
	case CmdSetMaxRounds:
		cmd = &SetMaxRounds{}
	case CmdStartNextRound:
		cmd = &StartNextRound{}
	case CmdLeaveRoom:
		cmd = &LeaveRoom{}
	case CmdChatMessage:
		cmd = &ChatMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// validateCommand enforces required fields per variant
func validateCommand(cmd Command) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s requires %s", ErrMalformedMessage, cmd.CommandType(), field)
	}

	switch c := cmd.(type) {
	case *CreateRoom:
		if c.RoomName == "" {
			return missing("roomName")
		}
	case *JoinRoom:
		if c.RoomID == "" {
			return missing("roomId")
		}
	case *StartGame:
		if c.RoomID == "" {
			return missing("roomId")
		}
	case *SubmitSearchHistory:
		if c.RoomID == "" {
			return missing("roomId")
		}
		if len(c.History) == 0 {
			return missing("history")
		}
	case *SubmitRankings:
		if c.RoomID == "" {
			return missing("roomId")
		}
		if len(c.Rankings) == 0 {
			return missing("rankings")
		}
	case *SetMaxRounds:
		if c.RoomID == "" {
			return missing("roomId")
		}
	case *StartNextRound:
		if c.RoomID == "" {
			return missing("roomId")
		}
	case *LeaveRoom:
		if c.RoomID == "" {
			return missing("roomId")
		}
	case *ChatMessage:
		if c.RoomID == "" {
			return missing("roomId")
		}
		if c.Text == "" {
			return missing("text")
		}
	}
	return nil
}
