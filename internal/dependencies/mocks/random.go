package mocks

import (
	"github.com/searchparty-game/searchparty/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Intn results drive random.Shuffle deterministically: an empty queue
// returns 0 for every draw, which leaves a Fisher-Yates shuffle cycling
// the slice rather than holding it fixed, so tests that care about
// order should queue identity swaps (i for each index i descending).
type MockRandom struct {
	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// String returns the next queued result, or empty string if none remaining
func (r *MockRandom) String(length int, alphabet string) string {
	if r.stringIndex >= len(r.StringResults) {
		return ""
	}
	result := r.StringResults[r.stringIndex]
	r.stringIndex++
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.StringResults = append(r.StringResults, values...)
}

// QueueIdentityShuffle queues Intn results that make random.Shuffle
// over n elements a no-op.
func (r *MockRandom) QueueIdentityShuffle(n int) {
	for i := n - 1; i >= 1; i-- {
		r.QueueIntn(i)
	}
}
