// Package model defines the model allow-list served to clients and
// consulted before any request reaches a provider.
package model

import "errors"

// Provider identifies which completion backend serves a model.
type Provider string

const (
	// ProviderOpenRouter routes through the OpenRouter chat-completions API.
	ProviderOpenRouter Provider = "openrouter"

	// ProviderGemini routes through the Gemini API.
	ProviderGemini Provider = "gemini"
)

// ErrUnknownModel indicates a model ID outside the allow-list.
var ErrUnknownModel = errors.New("unknown model")

// Model describes one allow-listed model.
type Model struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Provider Provider `json:"-"`

	// Reasoning marks models whose prompts are wrapped in the
	// step-by-step template before submission.
	Reasoning bool `json:"-"`
}

// Catalog is a fixed allow-list of models, known at startup.
// The zero value is an empty catalog that rejects everything.
type Catalog struct {
	models []Model
	byID   map[string]Model
}

// NewCatalog builds a catalog from the given models.
// Later entries with a duplicate ID override earlier ones for lookup,
// but listing order is preserved.
func NewCatalog(models []Model) *Catalog {
	byID := make(map[string]Model, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	return &Catalog{models: models, byID: byID}
}

// Default returns the built-in allow-list.
func Default() *Catalog {
	return NewCatalog([]Model{
		{ID: "mistralai/mistral-7b-instruct", Name: "Mistral 7B Instruct", Provider: ProviderOpenRouter},
		{ID: "openai/gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: ProviderOpenRouter},
		{ID: "meta-llama/llama-3.1-8b-instruct", Name: "Llama 3.1 8B Instruct", Provider: ProviderOpenRouter},
		{ID: "deepseek/deepseek-r1", Name: "DeepSeek R1", Provider: ProviderOpenRouter, Reasoning: true},
		{ID: "qwen/qwq-32b", Name: "QwQ 32B", Provider: ProviderOpenRouter, Reasoning: true},
		{ID: "gemini/gemini-2.0-flash", Name: "Gemini 2.0 Flash", Provider: ProviderGemini},
	})
}

// Lookup returns the model for id, or ErrUnknownModel.
func (c *Catalog) Lookup(id string) (Model, error) {
	if c == nil {
		return Model{}, ErrUnknownModel
	}
	m, ok := c.byID[id]
	if !ok {
		return Model{}, ErrUnknownModel
	}
	return m, nil
}

// Contains reports whether id is allow-listed.
func (c *Catalog) Contains(id string) bool {
	_, err := c.Lookup(id)
	return err == nil
}

// List returns the models in declaration order.
// The caller must not mutate the returned slice.
func (c *Catalog) List() []Model {
	if c == nil {
		return nil
	}
	return c.models
}
