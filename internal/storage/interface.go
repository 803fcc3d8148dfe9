package storage

import (
	"context"

	"github.com/searchparty-game/searchparty/internal/model"
)

// Storage defines the persistence seam under the room registry.
// The default backend is in-memory; redis exists for deployments that
// want rooms to outlive connection churn on a single process.
type Storage interface {
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	RoomExists(ctx context.Context, id model.RoomID) (bool, error)
}
