// internal/game/engine.go
//
// Game session for one player working on the crossword.
// Responsibilities:
//   - Hold the player's overlay and cursor for a shared, immutable Board.
//   - Route key presses, clicks and clue selection through the pure
//     navigation functions.
//   - Check answers (per-cell feedback + score) and reveal the active clue.
//
// Notes:
//   - The score shown to the player only changes on Check/RevealClue,
//     not on every keystroke.
//   - Revealed clues still show as solved but never count toward FinalScore.
//   - A Game is safe for concurrent use; handlers may share one pointer.
package game

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUnknownClue  = errors.New("unknown clue")
	ErrNoActiveClue = errors.New("no clue selected")
)

// Board is a built puzzle: its placements and the grid derived from them.
type Board struct {
	Placements []Placement
	Grid       *Grid
}

// NewBoard builds the grid for placements.
func NewBoard(placements []Placement, size int) *Board {
	return &Board{Placements: placements, Grid: Build(placements, size)}
}

// Placement looks up a placement by its clue number.
func (b *Board) Placement(id int) (Placement, bool) {
	for _, p := range b.Placements {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// Game holds the state of a single crossword session.
type Game struct {
	mu      sync.Mutex
	board   *Board
	id      string
	overlay Overlay
	cursor  Cursor
	checked bool
	score   int
	// revealed holds the IDs of clues filled in by RevealClue.
	revealed map[int]bool
}

// Snapshot is a read-only copy of a Game's state.
type Snapshot struct {
	ID       string         `json:"id"`
	Overlay  Overlay        `json:"overlay"`
	Cursor   Cursor         `json:"cursor"`
	Checked  bool           `json:"checked"`
	Score    int            `json:"score"`
	Revealed []int          `json:"revealed,omitempty"`
	Statuses [][]CellStatus `json:"statuses,omitempty"`
}

// New starts a game with an empty overlay, typing across.
func New(b *Board) *Game {
	return &Game{
		board:    b,
		id:       uuid.NewString(),
		overlay:  NewOverlay(b.Grid.Size),
		cursor:   Cursor{Direction: Across},
		revealed: make(map[int]bool),
	}
}

// ID returns the game identifier.
func (g *Game) ID() string { return g.id }

// Board returns the puzzle the game is played on.
func (g *Game) Board() *Board { return g.board }

// Key applies a key press at the cursor.
func (g *Game) Key(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.overlay, g.cursor = OnKey(g.board.Grid, g.overlay, g.cursor, key)
}

// Click selects a cell or flips direction on a re-click.
func (g *Game) Click(p Position) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor = OnCellClick(g.board.Grid, g.cursor, p)
}

// SelectClue moves the cursor to the start of clue id.
func (g *Game) SelectClue(id int) error {
	p, ok := g.board.Placement(id)
	if !ok {
		return ErrUnknownClue
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor = SelectClue(g.cursor, p)
	return nil
}

// Check turns on per-cell feedback and recomputes the score.
func (g *Game) Check() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checked = true
	g.score = ComputeScore(g.board.Placements, g.overlay)
	return g.score
}

// RevealClue fills in the answer of the active clue and rescores.
func (g *Game) RevealClue() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.board.Placement(g.cursor.ActiveClue)
	if !ok {
		return ErrNoActiveClue
	}
	o := g.overlay.Clone()
	for i, ch := range []rune(p.Text) {
		at := p.CellAt(i)
		if g.board.Grid.InBounds(at) {
			o[at.Row][at.Col] = string(ch)
		}
	}
	g.overlay = o
	g.revealed[p.ID] = true
	g.score = ComputeScore(g.board.Placements, g.overlay)
	return nil
}

// Reset clears every letter and the selection.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.overlay = NewOverlay(g.board.Grid.Size)
	g.cursor = Cursor{Direction: Across}
	g.checked = false
	g.score = 0
	g.revealed = make(map[int]bool)
}

// FinalScore scores the current overlay without touching the displayed score.
// Clues the player had revealed earn nothing.
func (g *Game) FinalScore() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	earned := make([]Placement, 0, len(g.board.Placements))
	for _, p := range g.board.Placements {
		if !g.revealed[p.ID] {
			earned = append(earned, p)
		}
	}
	return ComputeScore(earned, g.overlay)
}

// Snapshot copies the current state. Statuses are only filled after Check.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Snapshot{
		ID:      g.id,
		Overlay: g.overlay.Clone(),
		Cursor:  g.cursor,
		Checked: g.checked,
		Score:   g.score,
	}
	for _, p := range g.board.Placements {
		if g.revealed[p.ID] {
			s.Revealed = append(s.Revealed, p.ID)
		}
	}
	if s.Cursor.Selected != nil {
		sel := *s.Cursor.Selected
		s.Cursor.Selected = &sel
	}
	if g.checked {
		s.Statuses = CellStatuses(g.board.Grid, g.overlay)
	}
	return s
}
