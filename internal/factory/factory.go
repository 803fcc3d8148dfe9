package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/searchparty-game/searchparty/internal/dependencies/clock"
	"github.com/searchparty-game/searchparty/internal/dependencies/random"
	"github.com/searchparty-game/searchparty/internal/gateway"
	"github.com/searchparty-game/searchparty/internal/services/registry"
	"github.com/searchparty-game/searchparty/internal/services/room"
	"github.com/searchparty-game/searchparty/internal/services/scoring"
	"github.com/searchparty-game/searchparty/internal/services/termselect"
	"github.com/searchparty-game/searchparty/internal/storage"
	"github.com/searchparty-game/searchparty/internal/storage/memory"
	redisstorage "github.com/searchparty-game/searchparty/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	ScoringService *scoring.Service
	Selector       termselect.Selector
	Registry       *registry.Manager
	RoomController *room.Controller
	HubManager     *gateway.HubManager
	Gateway        *gateway.Gateway
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// TermSelect configures the search term analysis call. With no
	// endpoint set, a local heuristic selector is used instead.
	TermSelect termselect.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	var selector termselect.Selector
	if cfg.TermSelect.Endpoint != "" {
		selectCfg := cfg.TermSelect
		if selectCfg.Timeout == 0 {
			selectCfg.Timeout = termselect.DefaultConfig().Timeout
		}
		selector = termselect.NewHTTP(selectCfg, logger)
	} else {
		selector = termselect.NewHeuristic(rnd)
	}

	return newWithDependencies(store, clk, rnd, selector, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, selector termselect.Selector, logger *slog.Logger) *App {
	scoringService := scoring.New()
	reg := registry.NewManager(store, clk, rnd, logger)
	roomController := room.NewController(reg, scoringService, selector, rnd, logger)
	hubManager := gateway.NewHubManager(logger)
	gw := gateway.New(roomController, hubManager, clk, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		ScoringService: scoringService,
		Selector:       selector,
		Registry:       reg,
		RoomController: roomController,
		HubManager:     hubManager,
		Gateway:        gw,
	}
}
