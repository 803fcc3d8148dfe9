package factory

import (
	"context"
	"time"

	"github.com/searchparty-game/searchparty/internal/dependencies/mocks"
	"github.com/searchparty-game/searchparty/internal/model"
	"github.com/searchparty-game/searchparty/internal/services/termselect"
	"github.com/searchparty-game/searchparty/internal/storage/memory"
	"github.com/searchparty-game/searchparty/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing: in-memory storage,
// mocked clock and randomness, and a selector that just echoes the
// first entry's title so tests see a predictable term.
func NewTestApp() *TestApp {
	selector := termselect.FuncSelector(func(_ context.Context, history []model.HistoryEntry) (termselect.Result, error) {
		if len(history) == 0 {
			return termselect.Sentinel(), nil
		}
		return termselect.Result{SelectedSearchTerm: history[0].Title, Sentiment: "neutral"}, nil
	})
	return NewTestAppWithSelector(selector)
}

// NewTestAppWithSelector is NewTestApp with a caller-chosen selector,
// for tests that exercise the term-selection seam itself.
func NewTestAppWithSelector(selector termselect.Selector) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, selector, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
