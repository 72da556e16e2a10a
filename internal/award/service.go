// internal/award/service.go
//
// Award submission: report a player's final score to the award endpoint
// at most once.
//
// Flow:
//   - Reject negative scores.
//   - Look the user up; if a 200 was already recorded, stop (AlreadySent).
//   - POST the award once, no retries.
//   - Record the outcome on the user and append an audit entry in one
//     serialized store update.
//
// Notes:
//   - Submissions for the same user are serialized in-process, so a double
//     click sees AlreadySent instead of granting twice.
//   - The credential never reaches the audit log.

package award

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/config"
	"github.com/robalobadob/crossword/internal/store"
)

type Outcome string

const (
	Succeeded   Outcome = "succeeded"
	AlreadySent Outcome = "already_sent"
	Failed      Outcome = "failed"
)

const redacted = "[REDACTED]"

// recordTimeout bounds the state write that follows an award call. That write
// runs detached from the request: once the POST has gone out its outcome must
// be stored even if the caller has hung up.
const recordTimeout = 10 * time.Second

// Result describes a finished submission. Submission is nil for AlreadySent.
type Result struct {
	Outcome    Outcome
	Status     int
	Message    string
	Submission *store.Submission
}

// payload is the body the awards API expects.
type payload struct {
	UserID      int    `json:"user_id"`
	ChallengeID int    `json:"challenge_id"`
	TeamID      *int   `json:"team_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       int    `json:"value"`
	Category    string `json:"category"`
}

type Service struct {
	store  store.Store
	client Poster
	cfg    config.Award
	now    func() time.Time

	mu    sync.Mutex
	users map[int]*sync.Mutex
}

func NewService(st store.Store, client Poster, cfg config.Award) *Service {
	return &Service{
		store:  st,
		client: client,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		users:  make(map[int]*sync.Mutex),
	}
}

// Submit reports score for userID. See the package comment for the flow.
func (s *Service) Submit(ctx context.Context, userID, score int) (*Result, error) {
	if score < 0 {
		return nil, ErrInvalidScore
	}

	unlock := s.lockUser(userID)
	defer unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	u, err := st.User(userID)
	if err != nil {
		return nil, err
	}
	if u.AwardSent && u.AwardResponseStatus == http.StatusOK {
		log.Info().Int("user", userID).Msg("award already sent")
		return &Result{Outcome: AlreadySent, Status: u.AwardResponseStatus, Message: "Award already sent"}, nil
	}

	body, err := json.Marshal(payload{
		UserID:      userID,
		ChallengeID: s.cfg.ChallengeID,
		Name:        s.cfg.Name,
		Description: s.cfg.Description,
		Value:       score,
		Category:    s.cfg.Category,
	})
	if err != nil {
		return nil, err
	}
	headers := map[string]string{"Content-Type": "application/json"}
	shown := map[string]string{"Content-Type": "application/json"}
	if s.cfg.Token != "" {
		headers["Authorization"] = s.cfg.AuthScheme + " " + s.cfg.Token
		shown["Authorization"] = s.cfg.AuthScheme + " " + redacted
	}
	reqSnap := &store.RequestSnapshot{
		Timestamp: s.now(),
		URL:       s.cfg.URL,
		Method:    http.MethodPost,
		Headers:   shown,
		Body:      body,
	}

	log.Info().Int("user", userID).Int("score", score).Str("url", s.cfg.URL).Msg("sending award")
	resp, err := s.client.PostJSON(ctx, s.cfg.URL, headers, body)

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err != nil {
		s.recordFailure(rctx, userID, err)
		return nil, &TransportError{UserID: userID, Err: err}
	}

	success := resp.Status == http.StatusOK
	entry := store.Submission{
		ID:        uuid.NewString(),
		UserID:    userID,
		Timestamp: s.now(),
		Success:   success,
		Data: store.SubmissionData{
			Request: reqSnap,
			Response: &store.ResponseSnapshot{
				Timestamp:  s.now(),
				Status:     resp.Status,
				StatusText: resp.StatusText,
				Headers:    resp.Headers,
				Body:       resp.Body,
			},
		},
	}

	err = s.store.Update(rctx, func(st *store.State) error {
		u, err := st.User(userID)
		if err != nil {
			return err
		}
		u.LastFinalScore = score
		u.AwardSent = success
		u.AwardResponseStatus = resp.Status
		st.Submissions = append(st.Submissions, entry)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int("user", userID).Int("status", resp.Status).Msg("award sent but not recorded")
		return nil, &PersistenceError{Op: "save", Err: err}
	}

	res := &Result{Outcome: Succeeded, Status: resp.Status, Message: "Award sent successfully", Submission: &entry}
	if !success {
		res.Outcome = Failed
		res.Message = "Failed to send award"
		log.Warn().Int("user", userID).Int("status", resp.Status).Msg("award rejected")
	} else {
		log.Info().Int("user", userID).Int("score", score).Msg("award sent")
	}
	return res, nil
}

// recordFailure appends an error entry. A failure here is logged and dropped.
func (s *Service) recordFailure(ctx context.Context, userID int, cause error) {
	log.Error().Err(cause).Int("user", userID).Msg("award transport failure")
	entry := store.Submission{
		ID:        uuid.NewString(),
		UserID:    userID,
		Timestamp: s.now(),
		Data: store.SubmissionData{
			Error: &store.ErrorSnapshot{Message: cause.Error(), Stack: string(debug.Stack())},
		},
	}
	err := s.store.Update(ctx, func(st *store.State) error {
		if _, err := st.User(userID); err != nil {
			return err
		}
		st.Submissions = append(st.Submissions, entry)
		return nil
	})
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		log.Error().Err(err).Int("user", userID).Msg("record award failure")
	}
}

func (s *Service) lockUser(id int) func() {
	s.mu.Lock()
	m, ok := s.users[id]
	if !ok {
		m = &sync.Mutex{}
		s.users[id] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}
