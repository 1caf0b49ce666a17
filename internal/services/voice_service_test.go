package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/providers/stt"
	"github.com/yoockh/careermentor/internal/session"
	"github.com/yoockh/careermentor/internal/utils"
)

func TestVoiceService_Transcribe(t *testing.T) {
	up := &fakeUploader{}
	repo := &fakeAudioRepo{}
	svc := NewVoiceService(&fakeSpeech{text: "I would use a hook", conf: 0.91}, up, repo)

	row, err := svc.Transcribe(context.Background(), VoiceAnswer{
		UserID:        "u1",
		SessionID:     "s1",
		QuestionIndex: 3,
		MimeType:      "audio/webm;codecs=opus",
		Audio:         []byte("opus-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "I would use a hook", row.Transcript)
	assert.InDelta(t, 0.91, row.Confidence, 1e-9)
	assert.True(t, strings.HasPrefix(row.FilePath, "answers/u1/s1/03-"))
	assert.True(t, strings.HasSuffix(row.FilePath, ".webm"))
	assert.Equal(t, []byte("opus-bytes"), up.objects[row.FilePath])
	require.Len(t, repo.rows, 1)
}

func TestVoiceService_Errors(t *testing.T) {
	ctx := context.Background()
	in := VoiceAnswer{UserID: "u1", SessionID: "s1", MimeType: "audio/ogg", Audio: []byte("x")}

	_, err := NewVoiceService(nil, nil, nil).Transcribe(ctx, in)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))

	_, err = NewVoiceService(&fakeSpeech{err: stt.ErrUnsupportedFormat}, nil, nil).Transcribe(ctx, in)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = NewVoiceService(&fakeSpeech{err: errors.New("deadline exceeded")}, nil, nil).Transcribe(ctx, in)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))

	empty := in
	empty.Audio = nil
	_, err = NewVoiceService(&fakeSpeech{}, nil, nil).Transcribe(ctx, empty)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = NewVoiceService(&fakeSpeech{text: "ok"}, &fakeUploader{err: errors.New("403")}, nil).Transcribe(ctx, in)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}

func TestTranscriptService_RecordAndGet(t *testing.T) {
	ctx := context.Background()
	historyRepo := &memHistoryRepo{}
	records := &fakeRecordRepo{}
	audio := &fakeAudioRepo{}
	history := NewHistoryService(historyRepo)
	svc := NewTranscriptService(records, audio, history, fakeSigner{}, nil)

	snap := session.Snapshot{
		ID:     "s1",
		UserID: "u1",
		State:  session.StateCompleted,
		Questions: []models.Question{
			{Text: "q0", Category: models.CategoryTechnical, Difficulty: models.DifficultyEasy},
			{Text: "q1", Category: models.CategoryBehavioral, Difficulty: models.DifficultyHard},
		},
		Answers: map[int]models.Answer{
			0: {QuestionIndex: 0, Text: "a0"},
			1: {QuestionIndex: 1, Skipped: true},
		},
		Feedbacks: map[int]models.Feedback{
			0: {Score: 8, Commentary: "good", Strengths: []string{"clear"}},
		},
	}
	require.NoError(t, svc.Record(ctx, snap))
	require.NoError(t, history.Append(ctx, models.SessionSummary{SessionID: "s1", UserID: "u1", FinalScorePercent: 40, QuestionsCount: 2}))
	require.NoError(t, audio.Insert(ctx, &models.AnswerAudio{SessionID: "s1", QuestionIndex: 0, FilePath: "answers/u1/s1/00-x.webm", Transcript: "a0"}))

	tr, err := svc.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, tr.Records, 2)
	require.NotNil(t, tr.Records[0].Score)
	assert.Equal(t, 8, *tr.Records[0].Score)
	assert.JSONEq(t, `["clear"]`, string(tr.Records[0].Strengths))
	assert.JSONEq(t, `[]`, string(tr.Records[0].Improvements))
	assert.Nil(t, tr.Records[1].Score)
	assert.True(t, tr.Records[1].Skipped)
	assert.Contains(t, tr.Overall.Improvements, "Practice structuring answers more clearly")
	require.Len(t, tr.Audio, 1)
	assert.Equal(t, "https://signed.example/answers/u1/s1/00-x.webm", tr.Audio[0].URL)

	_, err = svc.Get(ctx, "u2", "s1")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	err = svc.Record(ctx, session.Snapshot{State: session.StateAwaitingAnswer})
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}
