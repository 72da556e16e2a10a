// Package session keeps crossword games that are in progress.
//
// A game is only letters and a cursor over the shared board, so sessions
// live in process memory and are gone after a restart. A settled award
// submission deletes its session.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/crossword/internal/game"
)

var ErrNotFound = errors.New("game not found")

// Store holds games by game.Game.ID.
type Store interface {
	Save(ctx context.Context, g *game.Game) error
	Get(ctx context.Context, id string) (*game.Game, error)
	// Delete ends a session; unknown IDs are ignored.
	Delete(ctx context.Context, id string) error
}

type memory struct {
	mu    sync.RWMutex
	games map[string]*game.Game
}

// NewMemoryStore returns an empty process-local Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[string]*game.Game)}
}

func (m *memory) Save(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	m.games[g.ID()] = g
	m.mu.Unlock()
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	g, ok := m.games[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.games, id)
	m.mu.Unlock()
	return nil
}
