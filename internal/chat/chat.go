// Package chat implements the conversational turn cycle: validate the
// request, compose the prompt, call the provider, run at most one
// tool round trip, postprocess, and archive the exchange.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adjutantlabs/adjutant/internal/llm"
	"github.com/adjutantlabs/adjutant/internal/log"
	"github.com/adjutantlabs/adjutant/internal/model"
	"github.com/adjutantlabs/adjutant/internal/session"
	"github.com/adjutantlabs/adjutant/internal/tools"
)

// fallbackReply is returned when the model produces an empty reply.
const fallbackReply = "I couldn't come up with a response to that. Please try rephrasing."

// Config contains the Service dependencies.
type Config struct {
	Store     *session.Store
	Completer llm.Completer
	Catalog   *model.Catalog
	Tools     *tools.Registry
	Logger    log.Logger
	Post      *Postprocessor
}

func (cfg Config) validate() error {
	if cfg.Store == nil {
		return errors.New("session store is required")
	}
	if cfg.Completer == nil {
		return errors.New("completer is required")
	}
	if cfg.Catalog == nil {
		return errors.New("model catalog is required")
	}
	if cfg.Tools == nil {
		return errors.New("tool registry is required")
	}
	return nil
}

// Service runs chat turns. It is stateless apart from its injected
// dependencies and safe for concurrent use.
type Service struct {
	store     *session.Store
	completer llm.Completer
	catalog   *model.Catalog
	tools     *tools.Registry
	logger    log.Logger
	post      *Postprocessor
}

// New creates a chat service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{
		store:     cfg.Store,
		completer: cfg.Completer,
		catalog:   cfg.Catalog,
		tools:     cfg.Tools,
		logger:    logger,
		post:      cfg.Post,
	}, nil
}

// Send runs one full turn and returns the final reply text.
//
// Validation happens before any session or network side effect. The
// whole turn holds the session guard so concurrent requests for the
// same session cannot interleave transcript writes.
func (s *Service) Send(ctx context.Context, req Request) (string, error) {
	m, prompt, err := validate(s.catalog, req)
	if err != nil {
		return "", err
	}

	s.store.GetOrCreate(req.SessionID)
	release := s.store.Guard(req.SessionID)
	defer release()

	userTurn := session.Turn{
		Role:    session.RoleUser,
		Content: composeUserTurn(prompt, m.Reasoning),
	}
	if err := s.store.Append(req.SessionID, userTurn); err != nil {
		return "", fmt.Errorf("appending user turn: %w", err)
	}

	transcript := s.store.GetOrCreate(req.SessionID)
	reply, err := s.completer.Complete(ctx, m.ID, transcript.Turns(), s.tools.Declarations())
	if err != nil {
		return "", err
	}

	final := reply.Content
	if len(reply.ToolCalls) > 0 {
		final, err = s.runToolCycle(ctx, req.SessionID, m.ID, reply)
		if err != nil {
			return "", err
		}
	}

	if m.Reasoning {
		final = ExtractFinal(final)
	}
	if strings.TrimSpace(final) == "" {
		s.logger.Warn("model returned empty reply", "model", m.ID, "sessionId", req.SessionID)
		final = fallbackReply
	}
	final = s.post.Apply(final)

	if err := s.store.Append(req.SessionID, session.Turn{Role: session.RoleAssistant, Content: final}); err != nil {
		// Best effort: the caller still gets the reply.
		s.logger.Warn("archiving assistant turn", "error", err, "sessionId", req.SessionID)
	}
	return final, nil
}

// runToolCycle executes the first requested tool call and performs
// the follow-up completion. Further simultaneous calls are ignored.
func (s *Service) runToolCycle(ctx context.Context, sessionID, modelID string, reply *llm.Reply) (string, error) {
	call := reply.ToolCalls[0]
	if len(reply.ToolCalls) > 1 {
		s.logger.Warn("multiple tool calls requested, executing first only",
			"count", len(reply.ToolCalls), "tool", call.Name)
	}

	result, err := s.tools.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		return "", fmt.Errorf("executing tool %q: %w", call.Name, err)
	}

	assistant := session.Turn{
		Role:      session.RoleAssistant,
		Content:   reply.Content,
		ToolCalls: []session.ToolCall{call},
	}
	if err := s.store.Append(sessionID, assistant); err != nil {
		return "", fmt.Errorf("appending tool-call turn: %w", err)
	}
	toolTurn := session.Turn{
		Role:       session.RoleTool,
		Content:    result,
		ToolCallID: call.ID,
	}
	if err := s.store.Append(sessionID, toolTurn); err != nil {
		return "", fmt.Errorf("appending tool result turn: %w", err)
	}

	// Second call folds the tool result back in; no tool declarations
	// this time, the provider should answer in natural language.
	transcript := s.store.GetOrCreate(sessionID)
	second, err := s.completer.Complete(ctx, modelID, transcript.Turns(), nil)
	if err != nil {
		return "", err
	}
	return second.Content, nil
}

// Reset removes the session, reporting whether it existed.
func (s *Service) Reset(sessionID string) bool {
	return s.store.Reset(sessionID)
}
