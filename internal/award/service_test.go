package award

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword/internal/config"
	"github.com/robalobadob/crossword/internal/store"
)

const secret = "ctfd_secret_token"

// fakeAwards records every call and answers with status.
type fakeAwards struct {
	calls  atomic.Int32
	status int
	auth   atomic.Value
	body   atomic.Value
}

func (f *fakeAwards) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	f.auth.Store(r.Header.Get("Authorization"))
	raw, _ := io.ReadAll(r.Body)
	f.body.Store(raw)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(`{"success":true}`))
}

func newFixture(t *testing.T, status int) (*Service, store.Store, *fakeAwards) {
	t.Helper()
	fake := &fakeAwards{status: status}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	st := store.NewFile(filepath.Join(t.TempDir(), "user.json"))
	require.NoError(t, st.Save(context.Background(), &store.State{Users: []store.User{
		{UserID: 7, Name: "Bat", Token: "abc", LoggedStatus: true},
	}}))

	cfg := config.Award{
		URL:         srv.URL + "/api/v1/awards",
		Token:       secret,
		AuthScheme:  "Token",
		ChallengeID: 1,
		Name:        "Bonus: Crossword",
		Description: "Ugiin suljee onoo",
		Category:    "bonus",
	}
	return NewService(st, NewClient(WithTimeout(5*time.Second)), cfg), st, fake
}

func loadUser(t *testing.T, st store.Store, id int) (store.User, []store.Submission) {
	t.Helper()
	s, err := st.Load(context.Background())
	require.NoError(t, err)
	u, err := s.User(id)
	require.NoError(t, err)
	return *u, s.Submissions
}

func TestSubmitSuccess(t *testing.T) {
	svc, st, fake := newFixture(t, http.StatusOK)

	res, err := svc.Submit(context.Background(), 7, 24)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, res.Outcome)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, "Award sent successfully", res.Message)
	require.NotNil(t, res.Submission)

	assert.EqualValues(t, 1, fake.calls.Load())
	assert.Equal(t, "Token "+secret, fake.auth.Load())
	assert.JSONEq(t, `{"user_id":7,"challenge_id":1,"team_id":null,"name":"Bonus: Crossword",
		"description":"Ugiin suljee onoo","value":24,"category":"bonus"}`, string(fake.body.Load().([]byte)))

	u, subs := loadUser(t, st, 7)
	assert.True(t, u.AwardSent)
	assert.Equal(t, 200, u.AwardResponseStatus)
	assert.Equal(t, 24, u.LastFinalScore)
	require.Len(t, subs, 1)
	assert.True(t, subs[0].Success)
	assert.NotEmpty(t, subs[0].ID)
	assert.Equal(t, 200, subs[0].Data.Response.Status)
	assert.Equal(t, "OK", subs[0].Data.Response.StatusText)
	assert.Equal(t, `{"success":true}`, subs[0].Data.Response.Body)
	assert.NotContains(t, subs[0].Data.Request.Headers["Authorization"], secret)
}

func TestSubmitAlreadySentMakesNoCall(t *testing.T) {
	svc, st, fake := newFixture(t, http.StatusOK)
	_, err := svc.Submit(context.Background(), 7, 10)
	require.NoError(t, err)

	res, err := svc.Submit(context.Background(), 7, 30)
	require.NoError(t, err)
	assert.Equal(t, AlreadySent, res.Outcome)
	assert.Equal(t, "Award already sent", res.Message)
	assert.Nil(t, res.Submission)
	assert.EqualValues(t, 1, fake.calls.Load())

	u, subs := loadUser(t, st, 7)
	assert.Equal(t, 10, u.LastFinalScore)
	assert.Len(t, subs, 1)
}

func TestSubmitConcurrentGrantsOnce(t *testing.T) {
	svc, _, fake := newFixture(t, http.StatusOK)

	var wg sync.WaitGroup
	var sent, already atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Submit(context.Background(), 7, 12)
			if !assert.NoError(t, err) {
				return
			}
			switch res.Outcome {
			case Succeeded:
				sent.Add(1)
			case AlreadySent:
				already.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, sent.Load())
	assert.EqualValues(t, 4, already.Load())
	assert.EqualValues(t, 1, fake.calls.Load())
}

func TestSubmitRejectedAllowsRetry(t *testing.T) {
	svc, st, fake := newFixture(t, http.StatusForbidden)

	res, err := svc.Submit(context.Background(), 7, 8)
	require.NoError(t, err)
	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, 403, res.Status)
	assert.Equal(t, "Failed to send award", res.Message)

	u, subs := loadUser(t, st, 7)
	assert.False(t, u.AwardSent)
	assert.Equal(t, 403, u.AwardResponseStatus)
	assert.Equal(t, 8, u.LastFinalScore)
	require.Len(t, subs, 1)
	assert.False(t, subs[0].Success)

	// Not recorded as sent, so a later attempt goes out again.
	_, err = svc.Submit(context.Background(), 7, 8)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fake.calls.Load())
}

func TestSubmitNegativeScore(t *testing.T) {
	svc, st, fake := newFixture(t, http.StatusOK)

	_, err := svc.Submit(context.Background(), 7, -1)
	assert.ErrorIs(t, err, ErrInvalidScore)
	assert.Zero(t, fake.calls.Load())

	u, subs := loadUser(t, st, 7)
	assert.Zero(t, u.LastFinalScore)
	assert.Empty(t, subs)
}

func TestSubmitUnknownUser(t *testing.T) {
	svc, st, fake := newFixture(t, http.StatusOK)

	_, err := svc.Submit(context.Background(), 99, 4)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.Zero(t, fake.calls.Load())

	_, subs := loadUser(t, st, 7)
	assert.Empty(t, subs)
}

func TestSubmitTransportFailure(t *testing.T) {
	svc, st, _ := newFixture(t, http.StatusOK)
	dead := httptest.NewServer(http.NotFoundHandler())
	svc.cfg.URL = dead.URL + "/api/v1/awards"
	dead.Close()

	_, err := svc.Submit(context.Background(), 7, 6)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 7, te.UserID)

	u, subs := loadUser(t, st, 7)
	assert.False(t, u.AwardSent)
	assert.Zero(t, u.AwardResponseStatus)
	assert.Zero(t, u.LastFinalScore)
	require.Len(t, subs, 1)
	assert.False(t, subs[0].Success)
	require.NotNil(t, subs[0].Data.Error)
	assert.NotEmpty(t, subs[0].Data.Error.Message)
	assert.NotEmpty(t, subs[0].Data.Error.Stack)
	assert.Nil(t, subs[0].Data.Response)
}

// failingStore loads fine but refuses every write.
type failingStore struct{ store.Store }

func (failingStore) Update(context.Context, func(*store.State) error) error {
	return errors.New("disk full")
}

func TestSubmitPersistenceFailure(t *testing.T) {
	svc, st, fake := newFixture(t, http.StatusOK)
	svc.store = failingStore{st}

	_, err := svc.Submit(context.Background(), 7, 6)
	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "save", pe.Op)
	assert.EqualValues(t, 1, fake.calls.Load())
}

func TestSubmitWithoutTokenSendsNoAuthorization(t *testing.T) {
	svc, _, fake := newFixture(t, http.StatusOK)
	svc.cfg.Token = ""

	_, err := svc.Submit(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, "", fake.auth.Load())
}

// hangUpPoster cancels the caller's context while the award call is in
// flight, then answers with resp or err.
type hangUpPoster struct {
	cancel context.CancelFunc
	calls  atomic.Int32
	resp   *Response
	err    error
}

func (p *hangUpPoster) PostJSON(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	p.calls.Add(1)
	p.cancel()
	return p.resp, p.err
}

func newSQLiteState(t *testing.T) store.Store {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Save(context.Background(), &store.State{Users: []store.User{{UserID: 7, Token: "abc"}}}))
	return st
}

func TestSubmitRecordsGrantAfterCallerHangsUp(t *testing.T) {
	st := newSQLiteState(t)
	ctx, cancel := context.WithCancel(context.Background())
	poster := &hangUpPoster{cancel: cancel, resp: &Response{Status: http.StatusOK, StatusText: "OK"}}
	svc := NewService(st, poster, config.Award{URL: "http://awards.test", AuthScheme: "Token"})

	res, err := svc.Submit(ctx, 7, 12)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, res.Outcome)

	u, subs := loadUser(t, st, 7)
	assert.True(t, u.AwardSent)
	assert.Equal(t, 12, u.LastFinalScore)
	assert.Len(t, subs, 1)

	res, err = svc.Submit(context.Background(), 7, 12)
	require.NoError(t, err)
	assert.Equal(t, AlreadySent, res.Outcome)
	assert.EqualValues(t, 1, poster.calls.Load())
}

func TestSubmitRecordsTransportFailureAfterCallerHangsUp(t *testing.T) {
	st := newSQLiteState(t)
	ctx, cancel := context.WithCancel(context.Background())
	poster := &hangUpPoster{cancel: cancel, err: errors.New("connection reset")}
	svc := NewService(st, poster, config.Award{URL: "http://awards.test", AuthScheme: "Token"})

	_, err := svc.Submit(ctx, 7, 12)
	var te *TransportError
	require.ErrorAs(t, err, &te)

	_, subs := loadUser(t, st, 7)
	require.Len(t, subs, 1)
	require.NotNil(t, subs[0].Data.Error)
	assert.Equal(t, "connection reset", subs[0].Data.Error.Message)
}
