package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/searchparty-game/searchparty/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) room(id model.RoomID) *model.Room {
	return &model.Room{
		ID:      id,
		Name:    "Test Room",
		State:   model.RoomStateWaiting,
		Players: make(map[model.PlayerID]*model.Player),
		Scores:  make(map[model.PlayerID]int),
	}
}

func (s *StorageSuite) TestSaveAndGetRoom() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("123456")))

	room, err := s.storage.GetRoom(s.ctx, "123456")
	s.Require().NoError(err)
	s.Equal("Test Room", room.Name)
}

func (s *StorageSuite) TestGetUnknownRoom() {
	_, err := s.storage.GetRoom(s.ctx, "000000")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestRoomExists() {
	exists, err := s.storage.RoomExists(s.ctx, "123456")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("123456")))

	exists, err = s.storage.RoomExists(s.ctx, "123456")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestDeleteRoom() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("123456")))
	s.Require().NoError(s.storage.DeleteRoom(s.ctx, "123456"))

	_, err := s.storage.GetRoom(s.ctx, "123456")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestDeleteUnknownRoomIsNoop() {
	s.NoError(s.storage.DeleteRoom(s.ctx, "000000"))
}

func (s *StorageSuite) TestSaveRoomStoresACopy() {
	room := s.room("123456")
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	// Mutations after the save must not leak into the stored room
	room.Name = "Renamed"
	room.Players["p1"] = &model.Player{ID: "p1", Name: "Late"}

	got, err := s.storage.GetRoom(s.ctx, "123456")
	s.Require().NoError(err)
	s.Equal("Test Room", got.Name)
	s.Nil(got.GetPlayer("p1"))
}

func (s *StorageSuite) TestGetRoomReturnsACopy() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("123456")))

	first, err := s.storage.GetRoom(s.ctx, "123456")
	s.Require().NoError(err)
	first.Players["p1"] = &model.Player{ID: "p1", Name: "Intruder"}

	second, err := s.storage.GetRoom(s.ctx, "123456")
	s.Require().NoError(err)
	s.Nil(second.GetPlayer("p1"))
}

func (s *StorageSuite) TestSaveOverwrites() {
	room := s.room("123456")
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	room.Name = "Renamed"
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	got, err := s.storage.GetRoom(s.ctx, "123456")
	s.Require().NoError(err)
	s.Equal("Renamed", got.Name)
}
