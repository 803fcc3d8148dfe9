package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/searchparty-game/searchparty/internal/dependencies/clock"
	"github.com/searchparty-game/searchparty/internal/dependencies/random"
	"github.com/searchparty-game/searchparty/internal/model"
	"github.com/searchparty-game/searchparty/internal/storage"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet keeps codes human-enterable on any keyboard
	RoomCodeAlphabet = "0123456789"
	// maxCodeAttempts bounds code generation before giving up; at game
	// scale the digit space is effectively inexhaustible.
	maxCodeAttempts = 1000
)

// Manager is the room registry: it generates codes, creates and looks
// up rooms, and owns the one lock per room that serializes every
// command touching that room's state. Different rooms proceed in
// parallel; only the registry map itself is shared.
type Manager struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[model.RoomID]*sync.Mutex
}

// NewManager creates a new room registry
func NewManager(store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Manager {
	return &Manager{
		storage: store,
		clock:   clk,
		random:  rnd,
		logger:  logger.With(slog.String("component", "registry")),
		locks:   make(map[model.RoomID]*sync.Mutex),
	}
}

// CreateRoom generates an unused code and stores a fresh room in
// WaitingForPlayers with the given connection as host.
func (m *Manager) CreateRoom(ctx context.Context, name string, hostID model.ConnectionID, cfg model.RoomConfig) (*model.Room, error) {
	var id model.RoomID
	for attempt := 0; ; attempt++ {
		if attempt >= maxCodeAttempts {
			return nil, model.ErrCodeSpaceExhausted
		}
		id = model.RoomID(m.random.String(RoomCodeLength, RoomCodeAlphabet))
		exists, err := m.storage.RoomExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	now := m.clock.Now()
	room := &model.Room{
		ID:                 id,
		Name:               name,
		HostID:             hostID,
		Config:             cfg,
		State:              model.RoomStateWaiting,
		Players:            make(map[model.PlayerID]*model.Player),
		Scores:             make(map[model.PlayerID]int),
		PlayerOrder:        nil,
		CurrentTurnIndex:   model.NoTurn,
		CurrentRound:       0,
		SubmittedHistories: make(map[model.PlayerID][]model.HistoryEntry),
		SubmittedRankings:  make(map[model.PlayerID][]model.PlayerID),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := m.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	m.logger.Info("room created",
		slog.String("room_id", string(id)),
		slog.String("room_name", name),
		slog.String("host_id", string(hostID)),
	)
	return room, nil
}

// GetRoom retrieves a room by code
func (m *Manager) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return m.storage.GetRoom(ctx, id)
}

// Update runs fn against the room under its exclusive lock: state
// check, mutation, and broadcast composition inside fn are atomic with
// respect to every other command for the same room. If fn leaves the
// room with no players, the room is deleted instead of saved.
func (m *Manager) Update(ctx context.Context, id model.RoomID, fn func(room *model.Room) error) (*model.Room, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	room, err := m.storage.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(room); err != nil {
		return nil, err
	}

	room.UpdatedAt = m.clock.Now()

	if len(room.Players) == 0 {
		if err := m.remove(ctx, id); err != nil {
			return nil, err
		}
		return room, nil
	}

	if err := m.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteRoom removes a room outright (host disconnect teardown)
func (m *Manager) DeleteRoom(ctx context.Context, id model.RoomID) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return m.remove(ctx, id)
}

// remove deletes the room and drops its lock entry. Callers hold the
// room lock; dropping the map entry is safe because later lockFor
// calls simply mint a fresh mutex for a code that no longer resolves.
func (m *Manager) remove(ctx context.Context, id model.RoomID) error {
	if err := m.storage.DeleteRoom(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.locks, id)
	m.mu.Unlock()
	m.logger.Info("room removed", slog.String("room_id", string(id)))
	return nil
}

// lockFor returns the room's serialization lock, creating it on demand
func (m *Manager) lockFor(id model.RoomID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

// Interface for dependency injection
type ManagerInterface interface {
	CreateRoom(ctx context.Context, name string, hostID model.ConnectionID, cfg model.RoomConfig) (*model.Room, error)
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	Update(ctx context.Context, id model.RoomID, fn func(room *model.Room) error) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
}

var _ ManagerInterface = (*Manager)(nil)
