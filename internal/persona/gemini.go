// Package persona generates cosmetic badge personas and welcome messages
// via the Gemini generateContent API. Generation is best-effort enrichment:
// every call is time-bounded and degrades to a fixed fallback string, never
// an error, so a slow or unreachable upstream cannot stall registration.
package persona

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Fallback strings, surfaced when the credential is missing or the API call
// fails. The persona fallbacks double as sentinels: a stored persona equal
// to FallbackPersona marks a degraded generation eligible for backfill.
const (
	FallbackNoCredential = "Tech Enthusiast"
	FallbackPersona      = "Future Walker"
)

// FallbackWelcome returns the fixed welcome line used when generation is
// unavailable for the given attendee name.
func FallbackWelcome(name string) string {
	return fmt.Sprintf("Welcome to the future, %s.", name)
}

// NoCredentialWelcome is the welcome line used when no API key is configured.
func NoCredentialWelcome(name string) string {
	return fmt.Sprintf("Welcome, %s! Ready for the event?", name)
}

// Generator produces attendee-facing display strings. Implementations must
// complete within the caller's context and never return an error.
type Generator interface {
	GeneratePersona(ctx context.Context, name, role, ticketType string) string
	GenerateWelcome(ctx context.Context, name, persona string) string
}

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Gemini calls the generateContent endpoint over REST.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// Option configures a Gemini generator.
type Option func(*Gemini)

// WithBaseURL overrides the API base URL (tests point this at a local server).
func WithBaseURL(u string) Option {
	return func(g *Gemini) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gemini) { g.client = c }
}

// NewGemini creates a Gemini-backed generator. An empty apiKey is valid:
// every call returns the no-credential fallback.
func NewGemini(apiKey, model string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HasCredential reports whether an API key is configured.
func (g *Gemini) HasCredential() bool {
	return g.apiKey != ""
}

// GeneratePersona returns a short badge persona for the attendee.
func (g *Gemini) GeneratePersona(ctx context.Context, name, role, ticketType string) string {
	if g.apiKey == "" {
		return FallbackNoCredential
	}
	prompt := fmt.Sprintf(`Create a short, cool, and slightly futuristic "Badge Persona" or "Callsign" (max 3-4 words) for an event attendee.
Attendee Name: %s
Job Role: %s
Ticket Type: %s

Examples:
- "Code Ninja"
- "Visionary Architect"
- "Quantum Explorer"
- "VIP Neural Linker"

Return ONLY the persona string. No quotes.`, name, role, ticketType)

	text, err := g.generate(ctx, prompt)
	if err != nil || text == "" {
		if err != nil {
			g.logger.Warn("persona generation failed", zap.Error(err))
		}
		return FallbackPersona
	}
	return text
}

// GenerateWelcome returns a one-line welcome message for the ticket view.
func (g *Gemini) GenerateWelcome(ctx context.Context, name, persona string) string {
	if g.apiKey == "" {
		return NoCredentialWelcome(name)
	}
	prompt := fmt.Sprintf(`Write a very short (one sentence), high-energy welcome message for an event app dashboard.
User: %s
Persona: %s
Tone: Cyberpunk, excitement, professional but fun.`, name, persona)

	text, err := g.generate(ctx, prompt)
	if err != nil || text == "" {
		if err != nil {
			g.logger.Warn("welcome generation failed", zap.Error(err))
		}
		return FallbackWelcome(name)
	}
	return text
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini status: %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text), nil
}
