package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adjutantlabs/adjutant/internal/llm"
	"github.com/adjutantlabs/adjutant/internal/log"
	"github.com/adjutantlabs/adjutant/internal/search"
)

// SearchWebName is the tool name advertised to the provider.
const SearchWebName = "searchWeb"

// searchUnavailableResult is returned as a valid tool result when the
// search backend cannot be reached or is not configured. Degrading to
// a placeholder keeps the conversation going instead of failing the
// whole request.
const searchUnavailableResult = "Web search is currently unavailable. Answer from your own knowledge and say that you could not search the web."

// Searcher is the search backend consumed by the searchWeb tool.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// SearchWeb executes web searches on the model's behalf.
type SearchWeb struct {
	searcher Searcher
	logger   log.Logger
}

// NewSearchWeb creates the searchWeb tool.
func NewSearchWeb(searcher Searcher, logger log.Logger) *SearchWeb {
	if logger == nil {
		logger = log.NewNop()
	}
	return &SearchWeb{searcher: searcher, logger: logger}
}

// Descriptor implements Tool.
func (s *SearchWeb) Descriptor() llm.Tool {
	return llm.Tool{
		Name:        SearchWebName,
		Description: "Search the web for current information. Use this when the user asks about recent events or facts you are unsure about.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
	}
}

// searchArgs is the expected argument payload shape.
type searchArgs struct {
	Query string `json:"query"`
}

// Execute implements Tool. Malformed arguments abort the cycle with
// ErrBadArguments; backend failures degrade to a placeholder result.
func (s *SearchWeb) Execute(ctx context.Context, arguments string) (string, error) {
	var args searchArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadArguments, err)
	}
	if args.Query == "" {
		return "", fmt.Errorf("%w: query is required", ErrBadArguments)
	}

	results, err := s.searcher.Search(ctx, args.Query)
	if err != nil {
		s.logger.Warn("web search failed, degrading to placeholder", "error", err)
		return searchUnavailableResult, nil
	}

	out, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("encoding search results: %w", err)
	}
	return string(out), nil
}
