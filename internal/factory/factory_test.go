package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithDefaults(t *testing.T) {
	app, err := New(Config{})
	require.NoError(t, err)

	assert.NotNil(t, app.Storage)
	assert.NotNil(t, app.Registry)
	assert.NotNil(t, app.RoomController)
	assert.NotNil(t, app.HubManager)
	assert.NotNil(t, app.Gateway)
	assert.NotNil(t, app.Selector)
}

func TestNewRejectsUnknownStorageType(t *testing.T) {
	_, err := New(Config{StorageType: "papyrus"})
	require.Error(t, err)
}

func TestNewRequiresRedisConfig(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeRedis})
	require.Error(t, err)
}

func TestNewTestAppWiresMocks(t *testing.T) {
	app := NewTestApp()

	require.NotNil(t, app.MockClock)
	require.NotNil(t, app.MockRandom)
	assert.Same(t, app.Clock, app.MockClock)
}
