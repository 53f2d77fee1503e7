package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"github.com/adjutantlabs/adjutant/internal/log"
	"github.com/adjutantlabs/adjutant/internal/session"
)

const (
	// DefaultOpenRouterBaseURL is the OpenRouter chat-completions API root.
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// defaultCallTimeout bounds a single upstream call.
	defaultCallTimeout = 60 * time.Second

	// maxAttempts allows exactly one retry on transient failure.
	maxAttempts = 2

	retryDelay = 500 * time.Millisecond
)

// OpenRouterConfig configures an OpenRouter client.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string // override for tests; default DefaultOpenRouterBaseURL

	// AppTitle is sent as the X-Title header OpenRouter uses for
	// dashboard attribution.
	AppTitle string

	Timeout time.Duration
	Limiter *rate.Limiter // optional upstream pacing
	Logger  log.Logger
}

// OpenRouter is a Completer backed by the OpenRouter
// chat-completions endpoint.
type OpenRouter struct {
	client  openai.Client
	timeout time.Duration
	limiter *rate.Limiter
	logger  log.Logger
}

// NewOpenRouter creates an OpenRouter completion client.
func NewOpenRouter(cfg OpenRouterConfig) *OpenRouter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
		// The SDK's built-in retries would hide our single-retry
		// policy, so they are disabled.
		option.WithMaxRetries(0),
	}
	if cfg.AppTitle != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.AppTitle))
	}

	return &OpenRouter{
		client:  openai.NewClient(opts...),
		timeout: timeout,
		limiter: cfg.Limiter,
		logger:  logger,
	}
}

// Complete performs one chat-completion call, with a bounded timeout
// and at most one retry on transient failure. Client errors (4xx) are
// never retried.
func (o *OpenRouter) Complete(ctx context.Context, modelID string, turns []session.Turn, tools []Tool) (*Reply, error) {
	params := openai.ChatCompletionNewParams{
		Model:    modelID,
		Messages: toMessageParams(turns),
	}
	if len(tools) > 0 {
		params.Tools = toToolParams(tools)
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("auto"),
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: rate limit wait: %w", ErrUpstream, err)
			}
		}

		reply, err := o.completeOnce(ctx, params)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxAttempts {
			break
		}

		o.logger.Debug("retrying upstream call",
			"model", modelID,
			"attempt", attempt,
			"error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrUpstream, ctx.Err())
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

func (o *OpenRouter) completeOnce(ctx context.Context, params openai.ChatCompletionNewParams) (*Reply, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	completion, err := o.client.Chat.Completions.New(callCtx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", ErrUpstream)
	}

	msg := completion.Choices[0].Message
	reply := &Reply{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, session.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return reply, nil
}

// retryable reports whether err is worth one retry: network-level
// failures and 5xx server errors. API errors below 500 are terminal.
func retryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Transport-level failure (connection reset, timeout, bad JSON
	// envelope) with no HTTP status attached.
	return true
}

// toMessageParams converts transcript turns to the wire format.
func toMessageParams(turns []session.Turn) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case session.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(t.Content))
		case session.RoleUser:
			msgs = append(msgs, openai.UserMessage(t.Content))
		case session.RoleAssistant:
			m := openai.AssistantMessage(t.Content)
			m.OfAssistant.ToolCalls = toToolCallParams(t.ToolCalls)
			msgs = append(msgs, m)
		case session.RoleTool:
			msgs = append(msgs, openai.ToolMessage(t.Content, t.ToolCallID))
		}
	}
	return msgs
}

func toToolCallParams(calls []session.ToolCall) []openai.ChatCompletionMessageToolCallUnionParam {
	var out []openai.ChatCompletionMessageToolCallUnionParam
	for _, c := range calls {
		out = append(out, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: c.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      c.Name,
					Arguments: c.Arguments,
				},
			},
		})
	}
	return out
}

func toToolParams(tools []Tool) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  openai.FunctionParameters(t.Parameters),
				},
			},
		})
	}
	return out
}
