package game

// DefaultSize is the side length of the published puzzle.
const DefaultSize = 25

// Build derives the solution grid from placements.
// Every cell starts black; each letter of each placement opens its cell and
// the first letter carries the clue number. Letters that would land outside
// the grid are skipped.
func Build(placements []Placement, size int) *Grid {
	if size < 0 {
		size = 0
	}
	cells := make([][]Cell, size)
	for r := range cells {
		cells[r] = make([]Cell, size)
		for c := range cells[r] {
			cells[r][c] = Cell{Black: true}
		}
	}
	g := &Grid{Size: size, Cells: cells}

	for _, p := range placements {
		for i, ch := range []rune(p.Text) {
			pos := p.CellAt(i)
			if !g.InBounds(pos) {
				continue
			}
			cell := &g.Cells[pos.Row][pos.Col]
			cell.Black = false
			cell.Solution = string(ch)
			if i == 0 {
				cell.Number = p.ID
			}
		}
	}
	return g
}
