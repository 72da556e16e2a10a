// internal/httpserver/routes_game.go
//
// Game session routes. One session holds a player's letters and cursor
// for the shared board; the solution never leaves the server.
//   - POST /game/new            → start a session
//   - GET  /game/{id}           → current view
//   - POST /game/{id}/key       → {key}: letter, Backspace or arrow
//   - POST /game/{id}/click     → {row, col}
//   - POST /game/{id}/clue      → {clueId}: jump to a clue
//   - POST /game/{id}/check     → per-cell feedback + score
//   - POST /game/{id}/reveal    → fill the selected clue
//   - POST /game/{id}/reset     → clear everything
//   - POST /game/{id}/submit    → report the score (requires login), then end the session

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/auth"
	"github.com/robalobadob/crossword/internal/award"
	"github.com/robalobadob/crossword/internal/game"
	"github.com/robalobadob/crossword/internal/session"
)

// clueView is a clue as listed to the player: where it starts, how long it is.
type clueView struct {
	ID        int            `json:"id"`
	Clue      string         `json:"clue"`
	Direction game.Direction `json:"direction"`
	Row       int            `json:"row"`
	Col       int            `json:"col"`
	Length    int            `json:"length"`
}

type puzzleView struct {
	Size            int           `json:"size"`
	Cells           [][]game.Cell `json:"cells"`
	Across          []clueView    `json:"across"`
	Down            []clueView    `json:"down"`
	PointsPerAnswer int           `json:"pointsPerAnswer"`
	MaxScore        int           `json:"maxScore"`
}

func newPuzzleView(b *game.Board) puzzleView {
	v := puzzleView{
		Size:            b.Grid.Size,
		Cells:           b.Grid.Cells,
		Across:          []clueView{},
		Down:            []clueView{},
		PointsPerAnswer: game.PointsPerAnswer,
		MaxScore:        len(b.Placements) * game.PointsPerAnswer,
	}
	for _, p := range b.Placements {
		c := clueView{ID: p.ID, Clue: p.Clue, Direction: p.Direction, Row: p.Row, Col: p.Col, Length: p.Len()}
		if p.Direction == game.Down {
			v.Down = append(v.Down, c)
		} else {
			v.Across = append(v.Across, c)
		}
	}
	return v
}

type keyReq struct {
	Key string `json:"key" validate:"required"`
}

type clickReq struct {
	Row *int `json:"row" validate:"required"`
	Col *int `json:"col" validate:"required"`
}

type clueReq struct {
	ClueID int `json:"clueId" validate:"gt=0"`
}

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withGame(func(w http.ResponseWriter, r *http.Request, g *game.Game) {
				s.writeGame(w, g)
			}))
			r.Post("/key", s.withGame(s.handleKey))
			r.Post("/click", s.withGame(s.handleClick))
			r.Post("/clue", s.withGame(s.handleClue))
			r.Post("/check", s.withGame(func(w http.ResponseWriter, r *http.Request, g *game.Game) {
				g.Check()
				s.writeGame(w, g)
			}))
			r.Post("/reveal", s.withGame(s.handleReveal))
			r.Post("/reset", s.withGame(func(w http.ResponseWriter, r *http.Request, g *game.Game) {
				g.Reset()
				s.writeGame(w, g)
			}))
			r.With(s.deps.Auth.RequireAuth).Post("/submit", s.withGame(s.handleSubmit))
		})
	})
}

type gameHandler func(w http.ResponseWriter, r *http.Request, g *game.Game)

// withGame resolves {id} to a session or answers 404.
func (s *Server) withGame(h gameHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := s.deps.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("get game")
			writeError(w, http.StatusInternalServerError, "load_failed")
			return
		}
		h(w, r, g)
	}
}

func (s *Server) writeGame(w http.ResponseWriter, g *game.Game) {
	writeJSON(w, http.StatusOK, g.Snapshot())
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	g := game.New(s.deps.Board)
	if err := s.deps.Sessions.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Debug().Str("game", g.ID()).Msg("new game")
	s.writeGame(w, g)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request, g *game.Game) {
	var req keyReq
	if !s.decode(w, r, &req) {
		return
	}
	g.Key(req.Key)
	s.writeGame(w, g)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request, g *game.Game) {
	var req clickReq
	if !s.decode(w, r, &req) {
		return
	}
	g.Click(game.Position{Row: *req.Row, Col: *req.Col})
	s.writeGame(w, g)
}

func (s *Server) handleClue(w http.ResponseWriter, r *http.Request, g *game.Game) {
	var req clueReq
	if !s.decode(w, r, &req) {
		return
	}
	if err := g.SelectClue(req.ClueID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeGame(w, g)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request, g *game.Game) {
	if err := g.RevealClue(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeGame(w, g)
}

// handleSubmit scores the board server-side and reports it for the caller.
// Once the award is settled the session is over.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, g *game.Game) {
	me, _ := auth.FromContext(r.Context())
	res := s.submitAward(w, r, me.UserID, g.FinalScore())
	if res == nil || res.Outcome == award.Failed {
		return
	}
	if err := s.deps.Sessions.Delete(r.Context(), g.ID()); err != nil {
		log.Warn().Err(err).Str("game", g.ID()).Msg("end game")
	}
}
