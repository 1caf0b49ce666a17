package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/session"
	"github.com/yoockh/careermentor/internal/utils"
)

type fakeSettingsRepo struct {
	mu      sync.Mutex
	rows    map[string]models.InterviewSettingsRow
	getErr  error
	gets    int
	upserts int
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{rows: map[string]models.InterviewSettingsRow{}}
}

func (f *fakeSettingsRepo) GetByUserID(_ context.Context, userID string) (*models.InterviewSettingsRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	row, ok := f.rows[userID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &row, nil
}

func (f *fakeSettingsRepo) Upsert(_ context.Context, row *models.InterviewSettingsRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.rows[row.UserID] = *row
	return nil
}

type memHistoryRepo struct {
	mu   sync.Mutex
	rows []models.SessionSummary
}

func (m *memHistoryRepo) Append(_ context.Context, s *models.SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *s)
	return nil
}

func (m *memHistoryRepo) ListByUser(_ context.Context, userID string) ([]models.SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SessionSummary{}
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memHistoryRepo) GetBySessionID(_ context.Context, sessionID string) (*models.SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.SessionID == sessionID {
			r := r
			return &r, nil
		}
	}
	return nil, utils.ErrNotFound
}

type fakeRecordRepo struct {
	mu   sync.Mutex
	rows []models.InterviewRecord
}

func (f *fakeRecordRepo) InsertBatch(_ context.Context, rows []models.InterviewRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeRecordRepo) ListBySession(_ context.Context, userID, sessionID string) ([]models.InterviewRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.InterviewRecord
	for _, r := range f.rows {
		if r.UserID == userID && r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAudioRepo struct {
	mu   sync.Mutex
	rows []models.AnswerAudio
}

func (f *fakeAudioRepo) Insert(_ context.Context, a *models.AnswerAudio) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *a)
	return nil
}

func (f *fakeAudioRepo) ListBySession(_ context.Context, sessionID string) ([]models.AnswerAudio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AnswerAudio
	for _, a := range f.rows {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []session.Event
}

func (f *fakePublisher) Publish(_ context.Context, e session.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) count(t session.EventType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// idleTimer never fires.
type idleTimer struct{}

func (idleTimer) Start(int, func(int), func()) {}
func (idleTimer) Cancel()                       {}

type fakeSpeech struct {
	text string
	conf float64
	err  error
}

func (f *fakeSpeech) Transcribe(context.Context, []byte, string, string) (string, float64, error) {
	return f.text, f.conf, f.err
}

func (f *fakeSpeech) Close() error { return nil }

type fakeUploader struct {
	objects map[string][]byte
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[objectName] = b
	return "gs://test/" + objectName, nil
}

type fakeSigner struct{}

func (fakeSigner) SignedGetURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://signed.example/" + objectName, nil
}
