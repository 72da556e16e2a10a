// internal/game/types.go
//
// Core type definitions for the crossword engine.
// Defines:
//   - Direction: across or down.
//   - Placement: one answer's text, clue and start cell.
//   - Cell / Grid: the immutable solution grid derived from placements.
//   - Overlay: the mutable grid of letters a player has typed.
//   - Position / Cursor: selection state threaded through navigation.
//   - CellStatus: per-cell feedback shown after a check.

package game

// Direction is the orientation of a placement or of cursor movement.
type Direction string

const (
	Across Direction = "across"
	Down   Direction = "down"
)

// Toggle returns the other direction.
func (d Direction) Toggle() Direction {
	if d == Across {
		return Down
	}
	return Across
}

// step returns the row/col delta for one move along d.
func (d Direction) step() (dr, dc int) {
	if d == Down {
		return 1, 0
	}
	return 0, 1
}

// Placement is one answer in the grid.
type Placement struct {
	ID        int       `json:"id" yaml:"id" validate:"gt=0"`
	Text      string    `json:"-" yaml:"text" validate:"required,answer"`
	Clue      string    `json:"clue" yaml:"clue"`
	Direction Direction `json:"direction" yaml:"direction" validate:"oneof=across down"`
	Row       int       `json:"row" yaml:"row" validate:"gte=0"`
	Col       int       `json:"col" yaml:"col" validate:"gte=0"`
}

// Len is the answer length in letters (runes, not bytes).
func (p Placement) Len() int { return len([]rune(p.Text)) }

// CellAt returns the grid position of the i-th letter.
func (p Placement) CellAt(i int) Position {
	dr, dc := p.Direction.step()
	return Position{Row: p.Row + dr*i, Col: p.Col + dc*i}
}

// Position addresses one grid cell.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell is one square of the solution grid.
// Solution is never sent to clients.
type Cell struct {
	Black    bool   `json:"black"`
	Solution string `json:"-"`
	Number   int    `json:"number,omitempty"`
}

// Grid is the square solution grid built from placements.
type Grid struct {
	Size  int      `json:"size"`
	Cells [][]Cell `json:"cells"`
}

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.Size && p.Col >= 0 && p.Col < g.Size
}

// IsBlack reports whether p is outside the grid or not part of any answer.
func (g *Grid) IsBlack(p Position) bool {
	if !g.InBounds(p) {
		return true
	}
	return g.Cells[p.Row][p.Col].Black
}

// Overlay holds the player's letters, one (possibly empty) string per cell.
type Overlay [][]string

// NewOverlay returns an all-empty overlay of the given size.
func NewOverlay(size int) Overlay {
	o := make(Overlay, size)
	for i := range o {
		o[i] = make([]string, size)
	}
	return o
}

// At returns the letter at p, or "" when p is out of range.
func (o Overlay) At(p Position) string {
	if p.Row < 0 || p.Row >= len(o) || p.Col < 0 || p.Col >= len(o[p.Row]) {
		return ""
	}
	return o[p.Row][p.Col]
}

// With returns a copy of o with p set to letter. o itself is left untouched.
func (o Overlay) With(p Position, letter string) Overlay {
	cp := o.Clone()
	if p.Row >= 0 && p.Row < len(cp) && p.Col >= 0 && p.Col < len(cp[p.Row]) {
		cp[p.Row][p.Col] = letter
	}
	return cp
}

// Clone deep-copies the overlay.
func (o Overlay) Clone() Overlay {
	cp := make(Overlay, len(o))
	for i, row := range o {
		cp[i] = make([]string, len(row))
		copy(cp[i], row)
	}
	return cp
}

// Cursor is the selection state: selected cell, typing direction and the
// clue chosen from the clue list (0 when none).
type Cursor struct {
	Selected   *Position `json:"selected,omitempty"`
	Direction  Direction `json:"direction"`
	ActiveClue int       `json:"activeClue,omitempty"`
}

// moveTo returns c with the selection set to p.
func (c Cursor) moveTo(p Position) Cursor {
	c.Selected = &Position{Row: p.Row, Col: p.Col}
	return c
}

// CellStatus is the feedback for one cell after a check.
type CellStatus string

const (
	StatusNeutral   CellStatus = ""
	StatusCorrect   CellStatus = "correct"
	StatusIncorrect CellStatus = "incorrect"
)
