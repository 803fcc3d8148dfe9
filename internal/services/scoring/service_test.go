package scoring

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/searchparty-game/searchparty/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New()
}

func (s *ServiceSuite) roomWith(ids ...model.PlayerID) *model.Room {
	room := &model.Room{
		Players: make(map[model.PlayerID]*model.Player),
		Scores:  make(map[model.PlayerID]int),
	}
	for _, id := range ids {
		room.Players[id] = &model.Player{ID: id, Name: string(id)}
		room.Scores[id] = 0
	}
	return room
}

// ScoreRound tests

func (s *ServiceSuite) TestScoreRoundSingleVoter() {
	// Voter ranks three others: position 0 earns 3, position 1 earns 2,
	// position 2 earns 1
	deltas := s.service.ScoreRound(map[model.PlayerID][]model.PlayerID{
		"a": {"b", "c", "d"},
	})

	s.Equal(map[model.PlayerID]int{"b": 3, "c": 2, "d": 1}, deltas)
}

func (s *ServiceSuite) TestScoreRoundSumsAcrossVoters() {
	deltas := s.service.ScoreRound(map[model.PlayerID][]model.PlayerID{
		"a": {"b", "c"},
		"b": {"c", "a"},
		"c": {"a", "b"},
	})

	// b: 2 (from a) + 1 (from c) = 3
	// c: 1 (from a) + 2 (from b) = 3
	// a: 1 (from b) + 2 (from c) = 3
	s.Equal(map[model.PlayerID]int{"a": 3, "b": 3, "c": 3}, deltas)
}

func (s *ServiceSuite) TestScoreRoundTwoPlayers() {
	// With two players each ranking consists of one entry worth 1 point
	deltas := s.service.ScoreRound(map[model.PlayerID][]model.PlayerID{
		"a": {"b"},
		"b": {"a"},
	})

	s.Equal(map[model.PlayerID]int{"a": 1, "b": 1}, deltas)
}

func (s *ServiceSuite) TestScoreRoundEmpty() {
	deltas := s.service.ScoreRound(map[model.PlayerID][]model.PlayerID{})
	s.Empty(deltas)
}

func (s *ServiceSuite) TestApplyAccumulates() {
	scores := map[model.PlayerID]int{"a": 5, "b": 2}

	s.service.Apply(scores, map[model.PlayerID]int{"a": 1, "b": 3})
	s.Equal(map[model.PlayerID]int{"a": 6, "b": 5}, scores)

	s.service.Apply(scores, map[model.PlayerID]int{"b": 2})
	s.Equal(map[model.PlayerID]int{"a": 6, "b": 7}, scores)
}

// ValidateRanking tests

func (s *ServiceSuite) TestValidateRankingAccepts() {
	room := s.roomWith("a", "b", "c", "d")
	s.True(s.service.ValidateRanking(room, "a", []model.PlayerID{"d", "b", "c"}))
}

func (s *ServiceSuite) TestValidateRankingRejectsSelfVote() {
	room := s.roomWith("a", "b", "c")
	s.False(s.service.ValidateRanking(room, "a", []model.PlayerID{"a", "b"}))
}

func (s *ServiceSuite) TestValidateRankingRejectsDuplicate() {
	room := s.roomWith("a", "b", "c")
	s.False(s.service.ValidateRanking(room, "a", []model.PlayerID{"b", "b"}))
}

func (s *ServiceSuite) TestValidateRankingRejectsUnknownPlayer() {
	room := s.roomWith("a", "b", "c")
	s.False(s.service.ValidateRanking(room, "a", []model.PlayerID{"b", "x"}))
}

func (s *ServiceSuite) TestValidateRankingRejectsWrongSize() {
	room := s.roomWith("a", "b", "c")
	s.False(s.service.ValidateRanking(room, "a", []model.PlayerID{"b"}))
	s.False(s.service.ValidateRanking(room, "a", []model.PlayerID{"b", "c", "b"}))
	s.False(s.service.ValidateRanking(room, "a", nil))
}
