package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/adjutantlabs/adjutant/internal/log"
	"github.com/adjutantlabs/adjutant/internal/session"
)

// geminiPrefix is stripped from catalog IDs before hitting the API:
// the catalog names Gemini models "gemini/<model>".
const geminiPrefix = "gemini/"

// GeminiConfig configures a Gemini client.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // override for tests
	Timeout time.Duration
	Logger  log.Logger
}

// Gemini is a text-only Completer for gemini/* catalog entries.
// Tool declarations are ignored on this path; the tool cycle is an
// OpenRouter concern.
type Gemini struct {
	client  *genai.Client
	timeout time.Duration
	logger  log.Logger
}

// NewGemini creates a Gemini completion client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, timeout: timeout, logger: logger}, nil
}

// Complete performs one generateContent call.
func (g *Gemini) Complete(ctx context.Context, modelID string, turns []session.Turn, tools []Tool) (*Reply, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var config genai.GenerateContentConfig
	var contents []*genai.Content
	for _, t := range turns {
		switch t.Role {
		case session.RoleSystem:
			config.SystemInstruction = genai.NewContentFromText(t.Content, genai.RoleUser)
		case session.RoleUser:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleUser))
		case session.RoleAssistant:
			// Tool-call descriptor turns have no text of their own;
			// the tool turn that follows carries the context.
			if t.Content == "" {
				continue
			}
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleModel))
		case session.RoleTool:
			// Sessions started on an OpenRouter model may carry tool
			// turns. Gemini has no tool role here, so fold the result
			// in as user-visible context instead of losing it.
			contents = append(contents, genai.NewContentFromText("Tool result: "+t.Content, genai.RoleUser))
		}
	}
	if len(tools) > 0 {
		g.logger.Debug("tool declarations dropped for gemini model", "model", modelID)
	}

	resp, err := g.client.Models.GenerateContent(callCtx, strings.TrimPrefix(modelID, geminiPrefix), contents, &config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty gemini response", ErrUpstream)
	}
	return &Reply{Content: text}, nil
}
