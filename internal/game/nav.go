// internal/game/nav.go
//
// Cursor navigation over the solution grid.
// All functions are pure: they take the current overlay/cursor values and
// return new ones, leaving their inputs untouched.
//
// Key names follow the browser's KeyboardEvent.key values.

package game

import (
	"regexp"
	"strings"
)

// Key names handled by OnKey besides letters.
const (
	KeyBackspace  = "Backspace"
	KeyArrowRight = "ArrowRight"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowDown  = "ArrowDown"
	KeyArrowUp    = "ArrowUp"
)

// letterKey matches one Latin or Cyrillic letter, including the Mongolian Ү and Ө.
var letterKey = regexp.MustCompile(`^[A-Za-zА-Яа-яЁёҮүӨө]$`)

// NextCell scans forward from p along d, skipping black cells.
// It stops at the grid edge without wrapping.
func NextCell(g *Grid, p Position, d Direction) (Position, bool) {
	dr, dc := d.step()
	return scan(g, p, dr, dc)
}

// PrevCell scans backward from p along d, skipping black cells.
func PrevCell(g *Grid, p Position, d Direction) (Position, bool) {
	dr, dc := d.step()
	return scan(g, p, -dr, -dc)
}

func scan(g *Grid, p Position, dr, dc int) (Position, bool) {
	next := Position{Row: p.Row + dr, Col: p.Col + dc}
	for g.InBounds(next) {
		if !g.Cells[next.Row][next.Col].Black {
			return next, true
		}
		next = Position{Row: next.Row + dr, Col: next.Col + dc}
	}
	return Position{}, false
}

// OnKey applies one key press at the selected cell.
// Without a selection, or for keys it does not handle, both values are
// returned unchanged.
func OnKey(g *Grid, o Overlay, c Cursor, key string) (Overlay, Cursor) {
	if c.Selected == nil {
		return o, c
	}
	at := *c.Selected

	switch key {
	case KeyBackspace:
		o = o.With(at, "")
		if prev, ok := PrevCell(g, at, c.Direction); ok {
			c = c.moveTo(prev)
		}
	case KeyArrowRight, KeyArrowLeft:
		c.Direction = Across
		c = moveAlong(g, c, at, key == KeyArrowRight)
	case KeyArrowDown, KeyArrowUp:
		c.Direction = Down
		c = moveAlong(g, c, at, key == KeyArrowDown)
	default:
		if !letterKey.MatchString(key) {
			return o, c
		}
		o = o.With(at, strings.ToUpper(key))
		if next, ok := NextCell(g, at, c.Direction); ok {
			c = c.moveTo(next)
		}
	}
	return o, c
}

func moveAlong(g *Grid, c Cursor, at Position, forward bool) Cursor {
	var (
		p  Position
		ok bool
	)
	if forward {
		p, ok = NextCell(g, at, c.Direction)
	} else {
		p, ok = PrevCell(g, at, c.Direction)
	}
	if ok {
		return c.moveTo(p)
	}
	return c
}

// OnCellClick selects p. Clicking the already selected cell flips the typing
// direction, whether or not a word runs that way. Black cells are ignored.
func OnCellClick(g *Grid, c Cursor, p Position) Cursor {
	if g.IsBlack(p) {
		return c
	}
	if c.Selected != nil && *c.Selected == p {
		c.Direction = c.Direction.Toggle()
		return c
	}
	return c.moveTo(p)
}

// SelectClue jumps to the first cell of a clue and types along it.
func SelectClue(c Cursor, p Placement) Cursor {
	c.ActiveClue = p.ID
	c.Direction = p.Direction
	return c.moveTo(Position{Row: p.Row, Col: p.Col})
}
