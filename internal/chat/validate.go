package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adjutantlabs/adjutant/internal/model"
)

// MaxPromptLen is the maximum prompt length in characters; longer
// prompts are truncated, not rejected.
const MaxPromptLen = 2000

// Validation errors, surfaced to callers as 400s. All are detected
// before any session mutation or network call.
var (
	// ErrInvalidRequest indicates a missing required field.
	ErrInvalidRequest = errors.New("prompt, model and sessionId are required")

	// ErrInvalidModel indicates a model outside the allow-list.
	ErrInvalidModel = errors.New("model is not supported")

	// ErrEmptyPrompt indicates a prompt that sanitizes to nothing.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// Request is one chat turn submitted by a caller.
type Request struct {
	Prompt    string `json:"prompt"`
	Model     string `json:"model"`
	SessionID string `json:"sessionId"`
}

// validate checks presence, allow-list membership and length bounds,
// returning the resolved model and the sanitized prompt. Side-effect
// free; must run to completion before any state mutation.
func validate(catalog *model.Catalog, req Request) (model.Model, string, error) {
	if req.Prompt == "" || req.Model == "" || req.SessionID == "" {
		return model.Model{}, "", ErrInvalidRequest
	}

	m, err := catalog.Lookup(req.Model)
	if err != nil {
		return model.Model{}, "", fmt.Errorf("%w: %q", ErrInvalidModel, req.Model)
	}

	prompt := strings.TrimSpace(req.Prompt)
	if runes := []rune(prompt); len(runes) > MaxPromptLen {
		prompt = string(runes[:MaxPromptLen])
	}
	if prompt == "" {
		return model.Model{}, "", ErrEmptyPrompt
	}

	return m, prompt, nil
}
