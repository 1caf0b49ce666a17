package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/careermentor/internal/llmjson"
)

func TestGeminiREST_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k-123", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"[{\"question\":"},{"text":"\"q\"}]"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGeminiREST("k-123", "gemini-test", srv.URL+"/")
	text, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `[{"question":"q"}]`, text)
}

func TestGeminiREST_MissingKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewGeminiREST("", "", srv.URL).Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.False(t, called)
}

func TestGeminiREST_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewGeminiREST("k", "", srv.URL).Generate(context.Background(), "hello")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Contains(t, se.Body, "quota exceeded")
}

func TestGeminiREST_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	text, err := NewGeminiREST("k", "", srv.URL).Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGeminiREST_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := NewGeminiREST("k", "", srv.URL).Generate(context.Background(), "hello")
	var pe *llmjson.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, llmjson.KindMalformed, pe.Kind)
}
