package persona

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiResponse(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func TestGeneratePersona(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "generateContent")
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		_, _ = w.Write([]byte(geminiResponse("Quantum Explorer ")))
	}))
	defer srv.Close()

	g := NewGemini("test-key", "gemini-3-flash-preview", time.Second, nil, WithBaseURL(srv.URL))
	got := g.GeneratePersona(context.Background(), "Jane Doe", "Engineer", "VIP")
	assert.Equal(t, "Quantum Explorer", got)
}

func TestGeneratePersonaFallsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGemini("test-key", "gemini-3-flash-preview", time.Second, nil, WithBaseURL(srv.URL))
	got := g.GeneratePersona(context.Background(), "Jane Doe", "Engineer", "VIP")
	assert.Equal(t, FallbackPersona, got)
}

func TestGeneratePersonaFallsBackOnEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := NewGemini("test-key", "gemini-3-flash-preview", time.Second, nil, WithBaseURL(srv.URL))
	got := g.GeneratePersona(context.Background(), "Jane Doe", "Engineer", "VIP")
	assert.Equal(t, FallbackPersona, got)
}

func TestGeneratePersonaTimeBounded(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(geminiResponse("Too Late")))
	}))
	defer srv.Close()
	defer close(release)

	g := NewGemini("test-key", "gemini-3-flash-preview", 50*time.Millisecond, nil, WithBaseURL(srv.URL))
	start := time.Now()
	got := g.GeneratePersona(context.Background(), "Jane Doe", "Engineer", "VIP")
	assert.Equal(t, FallbackPersona, got)
	assert.Less(t, time.Since(start), time.Second, "a slow upstream must not stall the caller")
}

func TestNoCredentialFallbacks(t *testing.T) {
	g := NewGemini("", "gemini-3-flash-preview", time.Second, nil)
	require.False(t, g.HasCredential())

	assert.Equal(t, FallbackNoCredential, g.GeneratePersona(context.Background(), "Jane", "Engineer", "VIP"))
	assert.Equal(t, "Welcome, Jane! Ready for the event?", g.GenerateWelcome(context.Background(), "Jane", "Code Ninja"))
}

func TestGenerateWelcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geminiResponse("Jack in, Jane!")))
	}))
	defer srv.Close()

	g := NewGemini("test-key", "gemini-3-flash-preview", time.Second, nil, WithBaseURL(srv.URL))
	assert.Equal(t, "Jack in, Jane!", g.GenerateWelcome(context.Background(), "Jane", "Code Ninja"))
}

func TestGenerateWelcomeFallsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGemini("test-key", "gemini-3-flash-preview", time.Second, nil, WithBaseURL(srv.URL))
	assert.Equal(t, "Welcome to the future, Jane.", g.GenerateWelcome(context.Background(), "Jane", "Code Ninja"))
}
