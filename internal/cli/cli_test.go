package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"floria-quiz-service/internal/config"
	"floria-quiz-service/internal/domain"
	"floria-quiz-service/internal/infra/httpapi"
	"floria-quiz-service/internal/infra/memory"
)

func TestSampleCountriesAreQuizReady(t *testing.T) {
	countries := sampleCountries()
	if len(countries) < 10 {
		t.Fatalf("expected a playable sample set, got %d", len(countries))
	}
	seen := make(map[string]bool)
	for i, c := range countries {
		if c.ID != i+1 || !c.HasUsableMedia() || c.FavoriteCode == "" {
			t.Fatalf("sample country %d not usable: %+v", i, c)
		}
		if seen[c.FavoriteCode] {
			t.Fatalf("duplicate code %s", c.FavoriteCode)
		}
		seen[c.FavoriteCode] = true
	}
}

func TestEntityLoaderSelection(t *testing.T) {
	var cfg config.Config
	loader, err := entityLoader(cfg, nil)
	if err != nil {
		t.Fatalf("static loader: %v", err)
	}
	if _, ok := loader.(*memory.StaticEntityLoader); !ok {
		t.Fatalf("expected static loader, got %T", loader)
	}

	cfg.Entities.Source = "http"
	cfg.Entities.URL = "http://localhost/countries"
	loader, _ = entityLoader(cfg, nil)
	if _, ok := loader.(*httpapi.EntityLoader); !ok {
		t.Fatalf("expected http loader, got %T", loader)
	}

	cfg.Entities.Source = "postgres"
	if _, err := entityLoader(cfg, nil); err == nil {
		t.Fatalf("expected error without a pool")
	}
}

func TestFavoriteStoreSelection(t *testing.T) {
	var cfg config.Config
	store, err := favoriteStore(cfg, nil, nil)
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, ok := store.(*memory.FavoriteStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}

	cfg.Favorites.Store = "redis"
	if _, err := favoriteStore(cfg, nil, nil); err == nil {
		t.Fatalf("expected error without redis client")
	}
}

func TestFavoriteStoreSQLite(t *testing.T) {
	var cfg config.Config
	cfg.Favorites.Store = "sqlite"
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "favorites.db")

	var closers []io.Closer
	store, err := favoriteStore(cfg, nil, &closers)
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	if err := store.Insert(context.Background(), "u1", "BE"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(closers) != 1 {
		t.Fatalf("expected sqlite store registered for close")
	}
	for _, c := range closers {
		_ = c.Close()
	}
}

func TestMigrateRequiresPostgres(t *testing.T) {
	if err := runMigrationsWithConfig(context.Background(), config.Config{}, slog.Default()); err == nil {
		t.Fatalf("expected error without postgres url")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	logger := newLogger("debug")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("expected debug enabled")
	}
	if newLogger("warn").Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("expected info disabled at warn")
	}
}

func TestInvalidateOnSignalDropsEntityCache(t *testing.T) {
	ctx := context.Background()
	loader := &countingEntityLoader{entities: sampleCountries()}
	cache := memory.NewEntityRepository(loader, time.Hour)
	if _, err := cache.Entities(ctx); err != nil {
		t.Fatalf("entities: %v", err)
	}

	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGHUP
	close(signals)
	invalidateOnSignal(ctx, cache, signals, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := cache.Entities(ctx); err != nil {
		t.Fatalf("entities after reload: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after signal, got %d loads", loader.calls)
	}
}

type countingEntityLoader struct {
	entities []domain.Entity
	calls    int
}

func (l *countingEntityLoader) LoadEntities(context.Context) ([]domain.Entity, error) {
	l.calls++
	return l.entities, nil
}
