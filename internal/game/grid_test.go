package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSize = 10

// testPlacements is a small, overlap-consistent puzzle:
//
//	АВЛИГА across from (1,0), ВАН down through its В,
//	CAT across at (5,3), TOP down through its T.
func testPlacements() []Placement {
	return []Placement{
		{ID: 1, Text: "АВЛИГА", Direction: Across, Row: 1, Col: 0},
		{ID: 2, Text: "ВАН", Direction: Down, Row: 1, Col: 1},
		{ID: 3, Text: "CAT", Direction: Across, Row: 5, Col: 3},
		{ID: 4, Text: "TOP", Direction: Down, Row: 5, Col: 5},
	}
}

func TestBuildOpensEveryPlacementCell(t *testing.T) {
	ps := testPlacements()
	g := Build(ps, testSize)
	require.Equal(t, testSize, g.Size)
	require.Len(t, g.Cells, testSize)

	for _, p := range ps {
		for i, ch := range []rune(p.Text) {
			at := p.CellAt(i)
			cell := g.Cells[at.Row][at.Col]
			assert.False(t, cell.Black, "placement %d letter %d should be open", p.ID, i)
			assert.Equal(t, string(ch), cell.Solution, "placement %d letter %d", p.ID, i)
		}
	}
}

func TestBuildNumbersOnlyFirstCells(t *testing.T) {
	g := Build(testPlacements(), testSize)

	assert.Equal(t, 1, g.Cells[1][0].Number)
	assert.Equal(t, 2, g.Cells[1][1].Number, "start of ВАН inside АВЛИГА")
	assert.Equal(t, 0, g.Cells[1][2].Number)
	assert.Equal(t, 0, g.Cells[2][1].Number)
	assert.Equal(t, 3, g.Cells[5][3].Number)
	assert.Equal(t, 4, g.Cells[5][5].Number)
	assert.Equal(t, 0, g.Cells[6][5].Number)
}

func TestBuildLeavesOtherCellsBlack(t *testing.T) {
	g := Build(testPlacements(), testSize)
	open := 0
	for r := range g.Cells {
		for c := range g.Cells[r] {
			cell := g.Cells[r][c]
			if cell.Black {
				assert.Empty(t, cell.Solution)
				assert.Zero(t, cell.Number)
				continue
			}
			open++
		}
	}
	// 6 + 3 + 3 + 3 letters, minus the two shared cells.
	assert.Equal(t, 13, open)
}

func TestBuildSkipsOutOfBoundsLetters(t *testing.T) {
	ps := []Placement{
		{ID: 1, Text: "EDGE", Direction: Across, Row: 9, Col: 8},
		{ID: 2, Text: "NEG", Direction: Down, Row: -1, Col: 0},
	}
	g := Build(ps, testSize)

	assert.Equal(t, "E", g.Cells[9][8].Solution)
	assert.Equal(t, "D", g.Cells[9][9].Solution)
	assert.Equal(t, 1, g.Cells[9][8].Number)

	// NEG starts above the grid: its first letter (and number) are dropped.
	assert.Equal(t, "E", g.Cells[0][0].Solution)
	assert.Equal(t, "G", g.Cells[1][0].Solution)
	assert.Zero(t, g.Cells[0][0].Number)
}

func TestBuildEmpty(t *testing.T) {
	g := Build(nil, 3)
	for r := range g.Cells {
		for c := range g.Cells[r] {
			assert.True(t, g.Cells[r][c].Black)
		}
	}
	assert.Equal(t, 0, Build(nil, -1).Size)
}
