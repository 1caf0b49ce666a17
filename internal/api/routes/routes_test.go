package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/careermentor/internal/api/handlers"
	"github.com/yoockh/careermentor/internal/api/middleware"
	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/services"
	"github.com/yoockh/careermentor/internal/session"
	"github.com/yoockh/careermentor/internal/utils"
)

type fakeInterviews struct {
	mu       sync.Mutex
	sessions map[string]session.Snapshot
	started  models.SessionSettings
	drafts   []string
	submits  []string
}

func newFakeInterviews() *fakeInterviews {
	return &fakeInterviews{sessions: map[string]session.Snapshot{}}
}

func (f *fakeInterviews) Start(_ context.Context, userID string, overrides models.SessionSettings) (session.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = overrides
	snap := session.Snapshot{
		ID:        "s1",
		UserID:    userID,
		State:     session.StateAwaitingAnswer,
		Settings:  overrides.WithDefaults(),
		Questions: []models.Question{{Text: "q0"}},
	}
	f.sessions[snap.ID] = snap
	return snap, nil
}

func (f *fakeInterviews) lookup(userID, sessionID string) (session.Snapshot, error) {
	snap, ok := f.sessions[sessionID]
	if !ok {
		return session.Snapshot{}, utils.E(utils.CodeNotFound, "fake", "interview not found", nil)
	}
	if snap.UserID != userID {
		return session.Snapshot{}, utils.E(utils.CodeForbidden, "fake", "forbidden", nil)
	}
	return snap, nil
}

func (f *fakeInterviews) Get(_ context.Context, userID, sessionID string) (session.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookup(userID, sessionID)
}

func (f *fakeInterviews) Draft(_ context.Context, userID, sessionID, text string) (session.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, err := f.lookup(userID, sessionID)
	if err != nil {
		return snap, err
	}
	f.drafts = append(f.drafts, text)
	snap.Draft = text
	return snap, nil
}

func (f *fakeInterviews) Submit(_ context.Context, userID, sessionID, text string) (session.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, err := f.lookup(userID, sessionID)
	if err != nil {
		return snap, err
	}
	f.submits = append(f.submits, text)
	snap.State = session.StateShowingFeedback
	f.sessions[sessionID] = snap
	return snap, nil
}

func (f *fakeInterviews) Skip(_ context.Context, userID, sessionID string) (session.Snapshot, error) {
	return f.Get(context.Background(), userID, sessionID)
}

func (f *fakeInterviews) Next(context.Context, string, string) (session.Snapshot, error) {
	return session.Snapshot{}, utils.E(utils.CodeConflict, "fake", "invalid transition", nil)
}

func (f *fakeInterviews) Abandon(_ context.Context, userID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.lookup(userID, sessionID); err != nil {
		return err
	}
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeInterviews) Active() []services.ActiveSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []services.ActiveSession{}
	for _, s := range f.sessions {
		out = append(out, services.ActiveSession{ID: s.ID, UserID: s.UserID, State: s.State})
	}
	return out
}

func (f *fakeInterviews) Reap(time.Time) int                       { return 0 }
func (f *fakeInterviews) RunReaper(context.Context, time.Duration) {}

type fakeSettings struct{ stored models.SessionSettings }

func (f *fakeSettings) Get(context.Context, string) (models.SessionSettings, error) {
	return f.stored.WithDefaults(), nil
}

func (f *fakeSettings) Update(_ context.Context, _ string, patch models.SessionSettings) (models.SessionSettings, error) {
	f.stored = f.stored.Merge(patch)
	return f.stored.WithDefaults(), nil
}

type fakeHistory struct{}

func (fakeHistory) Append(context.Context, models.SessionSummary) error { return nil }

func (fakeHistory) List(_ context.Context, userID string) ([]models.SessionSummary, error) {
	return []models.SessionSummary{{SessionID: "old", UserID: userID, FinalScorePercent: 72}}, nil
}

func (fakeHistory) Get(context.Context, string, string) (*models.SessionSummary, error) {
	return nil, utils.E(utils.CodeNotFound, "fake", "not found", nil)
}

type fakeTranscripts struct{}

func (fakeTranscripts) Record(context.Context, session.Snapshot) error { return nil }

func (fakeTranscripts) Get(context.Context, string, string) (*services.Transcript, error) {
	return nil, utils.E(utils.CodeNotFound, "fake", "transcript not found", nil)
}

type fakeVoice struct{ text string }

func (f fakeVoice) Transcribe(_ context.Context, in services.VoiceAnswer) (*models.AnswerAudio, error) {
	return &models.AnswerAudio{SessionID: in.SessionID, QuestionIndex: in.QuestionIndex, Transcript: f.text, Confidence: 0.8}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeInterviews) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	interviews := newFakeInterviews()
	r := gin.New()
	RegisterRoutes(r, Deps{
		Auth:      middleware.HeaderAuth(),
		Interview: handlers.NewInterviewHandler(interviews),
		Settings:  handlers.NewSettingsHandler(&fakeSettings{}),
		History:   handlers.NewHistoryHandler(fakeHistory{}, fakeTranscripts{}),
		Voice:     handlers.NewVoiceHandler(interviews, fakeVoice{text: "spoken answer"}),
		Admin:     handlers.NewAdminHandler(interviews),
	})
	return r, interviews
}

func do(r http.Handler, method, path, userID string, body []byte, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestInterviewLifecycle(t *testing.T) {
	r, fake := newTestRouter(t)

	w := do(r, http.MethodPost, "/interviews", "u1", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "s1", snap.ID)
	assert.Equal(t, models.DefaultJobTitle, snap.Settings.JobTitle)

	w = do(r, http.MethodPost, "/interviews", "u1", []byte(`{"job_title":"Data Engineer"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Data Engineer", fake.started.JobTitle)

	w = do(r, http.MethodPut, "/interviews/s1/draft", "u1", []byte(`{"text":"partial"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"partial"}, fake.drafts)

	w = do(r, http.MethodPost, "/interviews/s1/submit", "u1", []byte(`{"text":"final"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"final"}, fake.submits)

	w = do(r, http.MethodPost, "/interviews/s1/next", "u1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodDelete, "/interviews/s1", "u1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/interviews/s1", "u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":"NOT_FOUND","message":"interview not found"}`, w.Body.String())
}

func TestInterviewErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/interviews", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/interviews", "owner", nil).Code)

	w = do(r, http.MethodGet, "/interviews/s1", "intruder", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/interviews/s1/submit", "owner", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/history/missing/transcript", "owner", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsAndHistory(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPut, "/settings", "u1", []byte(`{"job_title":"SRE","skills":["Go"]}`))
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/settings", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var s models.SessionSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, "SRE", s.JobTitle)
	assert.Equal(t, []string{"Go"}, s.Skills)
	assert.Equal(t, models.DefaultExperienceLevel, s.ExperienceLevel)

	w = do(r, http.MethodGet, "/history", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session_id":"old"`)
}

func TestVoiceAnswer(t *testing.T) {
	r, fake := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/interviews", "u1", nil).Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "answer.webm")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-opus"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("submit", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/interviews/s1/voice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-Id", "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"transcript":"spoken answer"`)
	assert.Equal(t, []string{"spoken answer"}, fake.submits)
	assert.Empty(t, fake.drafts)

	// feedback is showing now, a second recording is rejected
	w = do(r, http.MethodPost, "/interviews/s1/voice", "u1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminRequiresRole(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/interviews", "u1", nil).Code)

	w := do(r, http.MethodGet, "/admin/interviews", "u1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/admin/interviews", "ops", nil, "X-User-Role", "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}
