package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"floria-quiz-service/internal/app"
	"floria-quiz-service/internal/auth"
	"floria-quiz-service/internal/config"
	"floria-quiz-service/internal/infra/httpapi"
	"floria-quiz-service/internal/infra/memory"
	"floria-quiz-service/internal/infra/postgres"
	redisinfra "floria-quiz-service/internal/infra/redis"
	"floria-quiz-service/internal/infra/sqlite"
	"floria-quiz-service/internal/random"
	"floria-quiz-service/internal/telemetry"
	transport "floria-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, redisClient)
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	loader, err := entityLoader(cfg, pool)
	if err != nil {
		return err
	}

	entityTTL := config.TTLDuration(cfg.Entities.TTL, 10*time.Minute)
	var entities entityCache
	if redisClient != nil {
		entities = redisinfra.NewEntityRepository(redisClient, loader, entityTTL)
	} else {
		entities = memory.NewEntityRepository(loader, entityTTL)
	}

	var registry app.ClientRegistry
	if redisClient != nil {
		redisRegistry := redisinfra.NewClientRegistry(redisClient, redisTTL)
		go keepAlive(ctx, redisRegistry, redisTTL/2, logger)
		registry = redisRegistry
	} else {
		registry = memory.NewClientRegistry()
	}

	favorites, err := favoriteStore(cfg, redisClient, &closers)
	if err != nil {
		return err
	}

	var verifier auth.Verifier = auth.PlainVerifier{}
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience)
	} else {
		logger.Warn("auth.jwt_secret not set, accepting raw user IDs as tokens")
	}

	metrics := telemetry.NewMetrics()
	service := app.NewService(registry, entities, favorites,
		app.WithLogger(logger),
		app.WithRecorder(metrics),
		app.WithClientSettleDelay(config.TTLDuration(cfg.Quiz.SettleDelay, app.DefaultSettleDelay)),
		app.WithFavoriteRollback(cfg.Favorites.RollbackOnFailure),
		app.WithRandSource(seededRand),
	)

	router := transport.NewRouter(
		transport.NewWSHandler(service, verifier, logger),
		transport.NewRESTHandler(service, verifier, logger),
		metrics,
	)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting floria service", "port", finalPort, "entities", cfg.Entities.Source, "favorites", cfg.Favorites.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)
	go invalidateOnSignal(ctx, entities, reload, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// entityCache is an entity source whose cached list can be dropped at runtime.
type entityCache interface {
	app.EntitySource
	Invalidate(ctx context.Context) error
}

// invalidateOnSignal drops the entity cache on every signal until ctx ends or signals is closed.
func invalidateOnSignal(ctx context.Context, cache entityCache, signals <-chan os.Signal, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			if err := cache.Invalidate(ctx); err != nil {
				logger.Warn("invalidate entity cache", "error", err)
				continue
			}
			logger.Info("entity cache invalidated")
		}
	}
}

func entityLoader(cfg config.Config, pool *pgxpool.Pool) (memory.EntityLoader, error) {
	switch cfg.Entities.Source {
	case "http":
		timeout := config.TTLDuration(cfg.Entities.Timeout, httpapi.DefaultTimeout)
		return httpapi.NewEntityLoader(cfg.Entities.URL, timeout), nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("entities.source postgres requires postgres.url")
		}
		return postgres.NewEntityLoader(pool), nil
	default:
		return memory.NewStaticEntityLoader(sampleCountries()), nil
	}
}

func favoriteStore(cfg config.Config, redisClient *redis.Client, closers *[]io.Closer) (app.FavoriteStore, error) {
	switch cfg.Favorites.Store {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("favorites.store redis requires redis.addr")
		}
		return redisinfra.NewFavoriteStore(redisClient), nil
	case "postgres":
		db := openBun(cfg.Postgres.URL)
		*closers = append(*closers, db)
		return postgres.NewFavoriteStore(db), nil
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, store)
		return store, nil
	default:
		return memory.NewFavoriteStore(), nil
	}
}

func keepAlive(ctx context.Context, registry *redisinfra.ClientRegistry, every time.Duration, logger *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := registry.TouchAll(ctx); err != nil {
				logger.Warn("refresh client liveness", "error", err)
			}
		}
	}
}

func seededRand() *rand.Rand {
	rnd, err := random.NewRand()
	if err != nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rnd
}
