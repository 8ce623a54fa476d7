package games

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	games map[string]Game
}

// NewMemoryRepository builds an in-memory catalog for tests.
func NewMemoryRepository() *memoryRepository {
	return &memoryRepository{games: make(map[string]Game)}
}

// Add seeds the catalog with a game and its variants.
func (r *memoryRepository) Add(game Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[game.ID] = game
}

func (r *memoryRepository) ListActive(_ context.Context) ([]Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Game
	for _, g := range r.games {
		if g.Status != StatusActive {
			continue
		}
		game := g
		game.Variants = nil
		for _, v := range g.Variants {
			if v.Status == StatusActive {
				game.Variants = append(game.Variants, v)
			}
		}
		out = append(out, game)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepository) GetVariant(_ context.Context, variantID string) (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.games {
		if g.Status != StatusActive {
			continue
		}
		for _, v := range g.Variants {
			if v.ID == variantID && v.Status == StatusActive {
				return v, nil
			}
		}
	}
	return Variant{}, ErrVariantNotFound
}
