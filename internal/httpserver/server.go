// internal/httpserver/server.go
//
// HTTP server wiring for the crossword backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, CORS, timeouts, panic recovery).
//   - Public endpoints: "/", "/health", "/puzzle".
//   - Persisted state endpoints: GET /users-state, POST /update-user, POST /send-award.
//   - Token login: /auth/login, /auth/logout, /auth/me.
//   - Game session endpoints under /game (see routes_game.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every response is JSON; errors are {"error": "..."}.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/auth"
	"github.com/robalobadob/crossword/internal/award"
	"github.com/robalobadob/crossword/internal/game"
	"github.com/robalobadob/crossword/internal/session"
	"github.com/robalobadob/crossword/internal/store"
)

// Awarder runs the award submission flow.
type Awarder interface {
	Submit(ctx context.Context, userID, score int) (*award.Result, error)
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Board        *game.Board
	Sessions     session.Store
	State        store.Store
	Awards       Awarder
	Auth         *auth.Service
	ClientOrigin string
	// RequestTimeout bounds each handler, the award call included.
	RequestTimeout time.Duration
}

type Server struct {
	r        *chi.Mux
	deps     Deps
	puzzle   puzzleView
	validate *validator.Validate
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.ClientOrigin == "" {
		d.ClientOrigin = "http://localhost:5173"
	}
	s := &Server{
		r:        chi.NewRouter(),
		deps:     d,
		puzzle:   newPuzzleView(d.Board),
		validate: validator.New(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(d.RequestTimeout))
	s.r.Use(jsonContentType)
	s.r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{d.ClientOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"crossword","endpoints":["/health","/puzzle","/users-state","POST /update-user","POST /send-award","/auth/*","/game/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Get("/puzzle", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.puzzle)
	})

	s.r.Get("/users-state", s.handleUsersState)
	s.r.Post("/update-user", s.handleUpdateUsers)
	s.r.Post("/send-award", s.handleSendAward)

	s.mountAuthRoutes()
	s.mountGame(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, dur time.Duration) {
	hlog.FromRequest(r).Info().
		Str("req_id", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("dur", dur).
		Msg("request")
}

// ------------------------------ STATE --------------------------------------

func (s *Server) handleUsersState(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.State.Load(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load state")
		writeError(w, http.StatusInternalServerError, "Failed to read user data")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type updateUsersReq struct {
	Users []store.User `json:"users" validate:"required"`
}

// handleUpdateUsers replaces the user list. The submission log is kept.
func (s *Server) handleUpdateUsers(w http.ResponseWriter, r *http.Request) {
	var req updateUsersReq
	if !s.decode(w, r, &req) {
		return
	}
	err := s.deps.State.Update(r.Context(), func(st *store.State) error {
		st.Users = req.Users
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("update users")
		writeError(w, http.StatusInternalServerError, "Failed to update user data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type sendAwardReq struct {
	UserID int  `json:"userId" validate:"gt=0"`
	Score  *int `json:"score" validate:"required"`
}

func (s *Server) handleSendAward(w http.ResponseWriter, r *http.Request) {
	var req sendAwardReq
	if !s.decode(w, r, &req) {
		return
	}
	s.submitAward(w, r, req.UserID, *req.Score)
}

// submitAward runs the award flow and writes its outcome. The result is nil
// when an error response was written.
func (s *Server) submitAward(w http.ResponseWriter, r *http.Request, userID, score int) *award.Result {
	res, err := s.deps.Awards.Submit(r.Context(), userID, score)
	switch {
	case err == nil:
	case errors.Is(err, award.ErrInvalidScore):
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	case errors.Is(err, store.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return nil
	default:
		log.Error().Err(err).Int("user", userID).Msg("send award")
		writeError(w, http.StatusInternalServerError, "Failed to send award")
		return nil
	}

	if res.Outcome == award.AlreadySent {
		writeJSON(w, http.StatusOK, map[string]any{"message": res.Message, "alreadySent": true})
		return res
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    res.Outcome == award.Succeeded,
		"status":     res.Status,
		"message":    res.Message,
		"submission": res.Submission,
	})
	return res
}

// ------------------------------- AUTH --------------------------------------

type loginReq struct {
	Token string `json:"token" validate:"required"`
}

// userView is what clients see of a user; the access token stays server-side.
type userView struct {
	UserID         int    `json:"user_id"`
	Name           string `json:"name,omitempty"`
	LastFinalScore int    `json:"last_final_score"`
	AwardSent      bool   `json:"award_sent"`
}

func viewUser(u *store.User) userView {
	return userView{UserID: u.UserID, Name: u.Name, LastFinalScore: u.LastFinalScore, AwardSent: u.AwardSent}
}

func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		s.deps.Auth.ClearCookie(w)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.With(s.deps.Auth.RequireAuth).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := auth.FromContext(r.Context())
		st, err := s.deps.State.Load(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read user data")
			return
		}
		u, err := st.User(me.UserID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, viewUser(u))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.deps.Auth.Login(r.Context(), req.Token)
	switch {
	case errors.Is(err, auth.ErrBadToken):
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	case errors.Is(err, auth.ErrAlreadyLoggedIn):
		writeError(w, http.StatusConflict, "User already logged in")
		return
	case err != nil:
		log.Error().Err(err).Msg("login")
		writeError(w, http.StatusInternalServerError, "login_failed")
		return
	}
	tok, exp, err := s.deps.Auth.Sign(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.deps.Auth.SetCookie(w, tok, exp)
	writeJSON(w, http.StatusOK, map[string]any{"user": viewUser(u), "token": tok})
}

// ------------------------------- helpers -----------------------------------

// decode reads a JSON body into dst and validates it; on failure it has
// already answered 400.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, "invalid "+verrs[0].Field())
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_request")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
