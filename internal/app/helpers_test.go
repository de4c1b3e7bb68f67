package app

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"floria-quiz-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)))
}

// samplePool returns n flagged entities with distinct IDs and codes.
func samplePool(n int) []domain.Entity {
	pool := make([]domain.Entity, 0, n)
	for i := 1; i <= n; i++ {
		pool = append(pool, domain.Entity{
			ID:           i,
			Name:         fmt.Sprintf("Country %02d", i),
			MediaRef:     fmt.Sprintf("https://flagcdn.com/c%d.svg", i),
			FavoriteCode: fmt.Sprintf("C%d", i),
		})
	}
	return pool
}

// manualScheduler captures settle callbacks so tests decide when they run.
type manualScheduler struct {
	mu      sync.Mutex
	next    int
	pending map[int]func()
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{pending: make(map[int]func())}
}

func (m *manualScheduler) schedule(_ time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.pending[id] = f
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.pending[id]; !ok {
			return false
		}
		delete(m.pending, id)
		return true
	}
}

// fire runs every pending callback and reports how many ran.
func (m *manualScheduler) fire() int {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.pending))
	for id, f := range m.pending {
		fns = append(fns, f)
		delete(m.pending, id)
	}
	m.mu.Unlock()
	for _, f := range fns {
		f()
	}
	return len(fns)
}
