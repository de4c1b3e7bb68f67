package app

import (
	"math/rand"
	"sync"

	"floria-quiz-service/internal/domain"
)

// Generator builds randomized multiple choice questions from an entity pool.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator uses rnd for every draw; pass a seeded source for deterministic tests.
func NewGenerator(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// CreateQuestion picks a target uniformly and three distinct distractors without replacement.
// Pools with fewer than four distinct entities yield domain.ErrInsufficientPool.
func (g *Generator) CreateQuestion(pool []domain.Entity) (domain.Question, error) {
	if len(pool) < domain.OptionsPerQuestion {
		return domain.Question{}, domain.ErrInsufficientPool
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	target := pool[g.rnd.Intn(len(pool))]

	seen := map[int]struct{}{target.ID: {}}
	others := make([]domain.Entity, 0, len(pool)-1)
	for _, e := range pool {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		others = append(others, e)
	}
	if len(others) < domain.OptionsPerQuestion-1 {
		return domain.Question{}, domain.ErrInsufficientPool
	}

	g.rnd.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })

	options := make([]domain.Entity, 0, domain.OptionsPerQuestion)
	options = append(options, target)
	options = append(options, others[:domain.OptionsPerQuestion-1]...)
	g.rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return domain.Question{Target: target, Options: options}, nil
}
