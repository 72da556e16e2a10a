// internal/auth/auth.go
//
// Player login and session tokens.
// Responsibilities:
//   - Login by access token (the token handed to each player out of band),
//     accepting plain or bcrypt-hashed stored tokens.
//   - Single-login gate: a user whose logged_status is set cannot log in again.
//   - HS256 JWT issue/parse, carried in an HttpOnly cookie or a Bearer header.
//   - requireAuth-style middleware that puts the caller's Identity in context.

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/crossword/internal/store"
)

var (
	ErrBadToken        = errors.New("invalid token")
	ErrAlreadyLoggedIn = errors.New("user already logged in")
	ErrUnauthorized    = errors.New("unauthorized")
)

// Identity is placed into request context by the middleware.
type Identity struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

type Options struct {
	Secret      string
	ExpiresDays int
	CookieName  string
	Production  bool
}

type Service struct {
	store      store.Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

func NewService(st store.Store, opts Options) *Service {
	days := opts.ExpiresDays
	if days <= 0 {
		days = 14
	}
	name := opts.CookieName
	if name == "" {
		name = "crossword_token"
	}
	return &Service{
		store:      st,
		secret:     []byte(opts.Secret),
		ttl:        time.Duration(days) * 24 * time.Hour,
		cookieName: name,
		secure:     opts.Production,
	}
}

// Login finds the user owning token and marks them logged in.
func (s *Service) Login(ctx context.Context, token string) (*store.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrBadToken
	}
	var out store.User
	err := s.store.Update(ctx, func(st *store.State) error {
		for i := range st.Users {
			u := &st.Users[i]
			if !matchToken(u.Token, token) {
				continue
			}
			if u.LoggedStatus {
				return ErrAlreadyLoggedIn
			}
			u.LoggedStatus = true
			out = *u
			return nil
		}
		return ErrBadToken
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int("user", out.UserID).Msg("login")
	return &out, nil
}

// matchToken compares a stored token (plain or bcrypt hash) with a given one.
func matchToken(stored, given string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// HashToken returns the bcrypt form of an access token for seeding user files.
func HashToken(token string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	return string(b), err
}

// Sign creates a JWT for u and returns it with its expiry.
func (s *Service) Sign(u *store.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   u.UserID,
		"name": u.Name,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// Parse validates a JWT and returns the identity it carries.
func (s *Service) Parse(tokenStr string) (*Identity, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	id, _ := claims["id"].(float64)
	if id <= 0 {
		return nil, ErrUnauthorized
	}
	name, _ := claims["name"].(string)
	return &Identity{UserID: int(id), Name: name}, nil
}

// SetCookie writes the auth cookie.
func (s *Service) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, s.cookie(token, exp, 0))
}

// ClearCookie deletes the auth cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", time.Time{}, -1))
}

func (s *Service) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.secure {
		sameSite = http.SameSiteNoneMode // required for cross-site use when Secure
	}
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}

// bearerOrCookie extracts a bearer token from the Authorization header or
// the auth cookie.
func (s *Service) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cookieName); err == nil {
		return c.Value
	}
	return ""
}

type ctxKey struct{}

// RequireAuth rejects requests without a valid token for an existing user.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := s.bearerOrCookie(r)
		if tokenStr == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		id, err := s.Parse(tokenStr)
		if err != nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		// Ensure user still exists
		st, err := s.store.Load(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("load state for auth")
			http.Error(w, `{"error":"state_unavailable"}`, http.StatusInternalServerError)
			return
		}
		if _, err := st.User(id.UserID); err != nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity set by RequireAuth.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id, id != nil
}
