package termselect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchparty-game/searchparty/internal/dependencies/mocks"
	"github.com/searchparty-game/searchparty/internal/model"
	"github.com/searchparty-game/searchparty/internal/testutil"
)

func sampleHistory() []model.HistoryEntry {
	return []model.HistoryEntry{
		{Title: "how do magnets work", URL: "https://example.com/1"},
		{Title: "cheap flights to anywhere", URL: "https://example.com/2"},
	}
}

func TestHTTPSelectorSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"selectedSearchTerm":"how do magnets work","sentiment":"curious","keywords":["magnets"],"category":"science"}`))
	}))
	defer server.Close()

	selector := NewHTTP(Config{Endpoint: server.URL, APIKey: "secret", Timeout: 5 * time.Second}, testutil.NopLogger())

	result, err := selector.SelectTerm(context.Background(), sampleHistory())
	require.NoError(t, err)
	assert.Equal(t, "how do magnets work", result.SelectedSearchTerm)
	assert.Equal(t, "curious", result.Sentiment)
	assert.Equal(t, []string{"magnets"}, result.Keywords)
	assert.Equal(t, "science", result.Category)
}

func TestHTTPSelectorNon200DegradesToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	selector := NewHTTP(Config{Endpoint: server.URL, Timeout: 5 * time.Second}, testutil.NopLogger())

	result, err := selector.SelectTerm(context.Background(), sampleHistory())
	require.NoError(t, err)
	assert.Equal(t, SentinelTerm, result.SelectedSearchTerm)
}

func TestHTTPSelectorBadJSONDegradesToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	selector := NewHTTP(Config{Endpoint: server.URL, Timeout: 5 * time.Second}, testutil.NopLogger())

	result, err := selector.SelectTerm(context.Background(), sampleHistory())
	require.NoError(t, err)
	assert.Equal(t, SentinelTerm, result.SelectedSearchTerm)
}

func TestHTTPSelectorEmptyTermDegradesToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"selectedSearchTerm":""}`))
	}))
	defer server.Close()

	selector := NewHTTP(Config{Endpoint: server.URL, Timeout: 5 * time.Second}, testutil.NopLogger())

	result, err := selector.SelectTerm(context.Background(), sampleHistory())
	require.NoError(t, err)
	assert.Equal(t, SentinelTerm, result.SelectedSearchTerm)
}

func TestHTTPSelectorTimeoutDegradesToSentinel(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		server.Close()
	}()

	selector := NewHTTP(Config{Endpoint: server.URL, Timeout: 50 * time.Millisecond}, testutil.NopLogger())

	start := time.Now()
	result, err := selector.SelectTerm(context.Background(), sampleHistory())
	require.NoError(t, err)
	assert.Equal(t, SentinelTerm, result.SelectedSearchTerm)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHeuristicSelectorPicksEntry(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(1)
	selector := NewHeuristic(rnd)

	result, err := selector.SelectTerm(context.Background(), sampleHistory())
	require.NoError(t, err)
	assert.Equal(t, "cheap flights to anywhere", result.SelectedSearchTerm)
}

func TestHeuristicSelectorFallsBackToURL(t *testing.T) {
	selector := NewHeuristic(mocks.NewMockRandom())

	result, err := selector.SelectTerm(context.Background(), []model.HistoryEntry{{URL: "https://example.com/untitled"}})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/untitled", result.SelectedSearchTerm)
}

func TestHeuristicSelectorEmptyHistory(t *testing.T) {
	selector := NewHeuristic(mocks.NewMockRandom())

	result, err := selector.SelectTerm(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, SentinelTerm, result.SelectedSearchTerm)
}
