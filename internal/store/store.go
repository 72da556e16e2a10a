// internal/store/store.go
//
// Persisted application state: the user list and the award submission log.
// Every backend stores the same single JSON document:
//
//	{ "users": [...], "submissions": [...] }
//
// Backends:
//   - file:   one JSON file on disk (default; the format of the seed user.json).
//   - sqlite: the document in a one-row table.
//   - redis:  the document under a single key.
//
// Update is the serialized read-modify-write entry point; callers that need to
// change state go through it rather than pairing Load and Save themselves.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// User is one player account. Accounts are seeded out of band.
type User struct {
	UserID              int    `json:"user_id"`
	Name                string `json:"name,omitempty"`
	Token               string `json:"token"`
	LoggedStatus        bool   `json:"logged_status"`
	LastFinalScore      int    `json:"last_final_score"`
	AwardSent           bool   `json:"award_sent"`
	AwardResponseStatus int    `json:"award_response_status"`
}

// Submission is one award attempt. Entries are only ever appended.
type Submission struct {
	ID        string         `json:"id"`
	UserID    int            `json:"user_id"`
	Timestamp time.Time      `json:"timestamp"`
	Success   bool           `json:"success"`
	Data      SubmissionData `json:"data"`
}

// SubmissionData holds either a request/response pair or an error.
type SubmissionData struct {
	Request  *RequestSnapshot  `json:"request,omitempty"`
	Response *ResponseSnapshot `json:"response,omitempty"`
	Error    *ErrorSnapshot    `json:"error,omitempty"`
}

type RequestSnapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Body      json.RawMessage   `json:"body"`
}

type ResponseSnapshot struct {
	Timestamp  time.Time         `json:"timestamp"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type ErrorSnapshot struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// State is the whole persisted document.
type State struct {
	Users       []User       `json:"users"`
	Submissions []Submission `json:"submissions"`
}

// User returns a pointer into s.Users for id, so callers can edit in place.
func (s *State) User(id int) (*User, error) {
	for i := range s.Users {
		if s.Users[i].UserID == id {
			return &s.Users[i], nil
		}
	}
	return nil, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
}

// normalize replaces nil lists so the document always has both arrays.
func (s *State) normalize() *State {
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Submissions == nil {
		s.Submissions = []Submission{}
	}
	return s
}

// Store persists State.
type Store interface {
	// Load returns the current document; a missing document is empty state.
	Load(ctx context.Context) (*State, error)

	// Save replaces the document.
	Save(ctx context.Context, s *State) error

	// Update loads the document, applies fn and saves the result as one
	// serialized step. When fn returns an error nothing is written.
	Update(ctx context.Context, fn func(*State) error) error

	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend  string // file | sqlite | redis
	Path     string // file path for file, database path for sqlite
	RedisURL string
	RedisKey string
}

// Open constructs the backend named in opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "file":
		return NewFile(opts.Path), nil
	case "sqlite":
		return OpenSQLite(ctx, opts.Path)
	case "redis":
		return OpenRedis(ctx, opts.RedisURL, opts.RedisKey)
	default:
		return nil, fmt.Errorf("unknown state backend %q", opts.Backend)
	}
}

func decode(raw []byte) (*State, error) {
	var s State
	if len(raw) == 0 {
		return s.normalize(), nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return s.normalize(), nil
}

func encode(s *State) ([]byte, error) {
	raw, err := json.MarshalIndent(s.normalize(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return raw, nil
}
