package scoring

import (
	"github.com/searchparty-game/searchparty/internal/model"
)

// Service converts a completed set of per-voter rankings into score
// deltas. It is a Borda-count variant: in a ranking of k other players,
// the player placed at position i (most embarrassing first, 0-based)
// earns k-i points from that voter.
type Service struct{}

// New creates a new scoring Service
func New() *Service {
	return &Service{}
}

// ScoreRound sums every voter's contribution for one round.
// Rankings are assumed to already be validated permutations; a voter
// never appears in their own ranking so never scores from it.
func (s *Service) ScoreRound(rankings map[model.PlayerID][]model.PlayerID) map[model.PlayerID]int {
	deltas := make(map[model.PlayerID]int)
	for _, ranking := range rankings {
		k := len(ranking)
		for i, ranked := range ranking {
			deltas[ranked] += k - i
		}
	}
	return deltas
}

// Apply adds round deltas onto cumulative scores in place
func (s *Service) Apply(scores map[model.PlayerID]int, deltas map[model.PlayerID]int) {
	for id, d := range deltas {
		scores[id] += d
	}
}

// ValidateRanking reports whether ranking is exactly a permutation of
// every current player other than the voter: no self-vote, no
// duplicates, no omissions.
func (s *Service) ValidateRanking(room *model.Room, voter model.PlayerID, ranking []model.PlayerID) bool {
	if len(ranking) != len(room.Players)-1 {
		return false
	}
	seen := make(map[model.PlayerID]bool, len(ranking))
	for _, id := range ranking {
		if id == voter || seen[id] || room.GetPlayer(id) == nil {
			return false
		}
		seen[id] = true
	}
	return true
}

// Interface for dependency injection
type ServiceInterface interface {
	ScoreRound(rankings map[model.PlayerID][]model.PlayerID) map[model.PlayerID]int
	Apply(scores map[model.PlayerID]int, deltas map[model.PlayerID]int)
	ValidateRanking(room *model.Room, voter model.PlayerID, ranking []model.PlayerID) bool
}

var _ ServiceInterface = (*Service)(nil)
