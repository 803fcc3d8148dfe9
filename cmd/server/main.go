package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/searchparty-game/searchparty/internal/api"
	"github.com/searchparty-game/searchparty/internal/factory"
	"github.com/searchparty-game/searchparty/internal/services/termselect"
	redisstorage "github.com/searchparty-game/searchparty/internal/storage/redis"
)

type config struct {
	bind         string
	port         int
	storageType  string
	redisURL     string
	termEndpoint string
	termAPIKey   string
	termTimeout  time.Duration
	verbose      bool
}

func (c *config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.storageType != factory.StorageTypeMemory && c.storageType != factory.StorageTypeRedis {
		return fmt.Errorf("invalid storage type: %q", c.storageType)
	}
	if c.storageType == factory.StorageTypeRedis && c.redisURL == "" {
		return fmt.Errorf("--redis-url required with --storage %s", factory.StorageTypeRedis)
	}
	return nil
}

func newCmd(cfg *config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SEARCHPARTY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "searchparty-server",
		Short:         "Session coordination server for the search party game",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "", "address to bind to (env: SEARCHPARTY_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SEARCHPARTY_PORT)")
	fs.StringVar(&cfg.storageType, "storage", factory.StorageTypeMemory, "room storage backend, memory or redis (env: SEARCHPARTY_STORAGE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection URL (env: SEARCHPARTY_REDIS_URL)")
	fs.StringVar(&cfg.termEndpoint, "term-endpoint", "", "search term analysis endpoint; local heuristic if unset (env: SEARCHPARTY_TERM_ENDPOINT)")
	fs.StringVar(&cfg.termAPIKey, "term-api-key", "", "bearer token for the analysis endpoint (env: SEARCHPARTY_TERM_API_KEY)")
	fs.DurationVar(&cfg.termTimeout, "term-timeout", 10*time.Second, "per-call analysis timeout (env: SEARCHPARTY_TERM_TIMEOUT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "debug-level logging (env: SEARCHPARTY_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func run(ctx context.Context, cfg *config) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.storageType,
		TermSelect: termselect.Config{
			Endpoint: cfg.termEndpoint,
			APIKey:   cfg.termAPIKey,
			Timeout:  cfg.termTimeout,
		},
	}

	if cfg.storageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.redisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:  logger,
		Gateway: app.Gateway,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.bind
	serverConfig.Port = cfg.port
	server := api.NewServer(router, serverConfig, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.storageType),
		slog.String("term_selection", factoryCfg.TermSelect.String()),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

func main() {
	cfg := &config{}
	if err := newCmd(cfg).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
