package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame() *Game {
	return New(NewBoard(testPlacements(), testSize))
}

func TestNewGame(t *testing.T) {
	g := newTestGame()
	s := g.Snapshot()

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, g.ID(), s.ID)
	assert.Len(t, s.Overlay, testSize)
	assert.Nil(t, s.Cursor.Selected)
	assert.Equal(t, Across, s.Cursor.Direction)
	assert.False(t, s.Checked)
	assert.Nil(t, s.Statuses)
	assert.NotEqual(t, s.ID, newTestGame().ID())
}

func TestGameTypingAndCheck(t *testing.T) {
	g := newTestGame()
	require.NoError(t, g.SelectClue(3))
	for _, k := range []string{"c", "a", "t"} {
		g.Key(k)
	}

	s := g.Snapshot()
	assert.Equal(t, "C", s.Overlay[5][3])
	assert.Equal(t, "T", s.Overlay[5][5])
	assert.Zero(t, s.Score, "score only moves on check")

	assert.Equal(t, PointsPerAnswer, g.Check())
	s = g.Snapshot()
	assert.True(t, s.Checked)
	assert.Equal(t, PointsPerAnswer, s.Score)
	require.NotNil(t, s.Statuses)
	assert.Equal(t, StatusCorrect, s.Statuses[5][4])
}

func TestGameClick(t *testing.T) {
	g := newTestGame()
	g.Click(Position{Row: 1, Col: 1})
	g.Click(Position{Row: 1, Col: 1})
	s := g.Snapshot()
	assert.Equal(t, at(1, 1), s.Cursor.Selected)
	assert.Equal(t, Down, s.Cursor.Direction)

	// Snapshot must not alias the live cursor.
	s.Cursor.Selected.Row = 7
	assert.Equal(t, at(1, 1), g.Snapshot().Cursor.Selected)
}

func TestGameSelectUnknownClue(t *testing.T) {
	assert.ErrorIs(t, newTestGame().SelectClue(99), ErrUnknownClue)
}

func TestGameRevealClue(t *testing.T) {
	g := newTestGame()
	assert.ErrorIs(t, g.RevealClue(), ErrNoActiveClue)

	require.NoError(t, g.SelectClue(1))
	require.NoError(t, g.RevealClue())
	s := g.Snapshot()
	assert.Equal(t, "АВЛИГА", Formed(testPlacements()[0], s.Overlay))
	assert.Equal(t, PointsPerAnswer, s.Score)
}

func TestGameReset(t *testing.T) {
	g := newTestGame()
	require.NoError(t, g.SelectClue(1))
	require.NoError(t, g.RevealClue())
	g.Check()

	g.Reset()
	s := g.Snapshot()
	assert.Empty(t, s.Overlay[1][0])
	assert.Nil(t, s.Cursor.Selected)
	assert.False(t, s.Checked)
	assert.Zero(t, s.Score)
}

func TestGameFinalScore(t *testing.T) {
	g := newTestGame()
	require.NoError(t, g.SelectClue(3))
	for _, k := range []string{"C", "A", "T"} {
		g.Key(k)
	}
	assert.Equal(t, PointsPerAnswer, g.FinalScore())
}

func TestGameFinalScoreIgnoresRevealedClues(t *testing.T) {
	g := newTestGame()
	for _, p := range testPlacements() {
		require.NoError(t, g.SelectClue(p.ID))
		require.NoError(t, g.RevealClue())
	}
	s := g.Snapshot()
	assert.Equal(t, len(testPlacements())*PointsPerAnswer, s.Score, "revealed clues still show as solved")
	assert.Equal(t, []int{1, 2, 3, 4}, s.Revealed)
	assert.Zero(t, g.FinalScore())

	// Typing over a revealed answer does not earn it back.
	require.NoError(t, g.SelectClue(3))
	for _, k := range []string{"C", "A", "T"} {
		g.Key(k)
	}
	assert.Zero(t, g.FinalScore())

	g.Reset()
	assert.Nil(t, g.Snapshot().Revealed)
	require.NoError(t, g.SelectClue(3))
	for _, k := range []string{"C", "A", "T"} {
		g.Key(k)
	}
	assert.Equal(t, PointsPerAnswer, g.FinalScore())
}
