package game

import "strings"

// PointsPerAnswer is awarded for every fully correct answer.
const PointsPerAnswer = 2

// Formed returns the letters the player has entered along p, in order.
// Empty cells add nothing, so a half-filled answer is simply shorter.
func Formed(p Placement, o Overlay) string {
	var b strings.Builder
	for i := 0; i < p.Len(); i++ {
		b.WriteString(o.At(p.CellAt(i)))
	}
	return b.String()
}

// CorrectCount is the number of placements whose formed string equals the
// answer exactly.
func CorrectCount(placements []Placement, o Overlay) int {
	n := 0
	for _, p := range placements {
		if Formed(p, o) == p.Text {
			n++
		}
	}
	return n
}

// ComputeScore returns CorrectCount × PointsPerAnswer.
func ComputeScore(placements []Placement, o Overlay) int {
	return CorrectCount(placements, o) * PointsPerAnswer
}

// CellStatuses grades every open cell that has a letter, ignoring case.
func CellStatuses(g *Grid, o Overlay) [][]CellStatus {
	out := make([][]CellStatus, g.Size)
	for r := range out {
		out[r] = make([]CellStatus, g.Size)
		for c := range out[r] {
			cell := g.Cells[r][c]
			got := o.At(Position{Row: r, Col: c})
			switch {
			case cell.Black || got == "":
				out[r][c] = StatusNeutral
			case strings.EqualFold(got, cell.Solution):
				out[r][c] = StatusCorrect
			default:
				out[r][c] = StatusIncorrect
			}
		}
	}
	return out
}
