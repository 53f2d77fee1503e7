package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/adjutantlabs/adjutant/internal/llm"
	"github.com/adjutantlabs/adjutant/internal/log"
	"github.com/adjutantlabs/adjutant/internal/model"
	"github.com/adjutantlabs/adjutant/internal/search"
	"github.com/adjutantlabs/adjutant/internal/session"
	"github.com/adjutantlabs/adjutant/internal/tools"
)

// scriptedCompleter returns queued replies and records every call.
type scriptedCompleter struct {
	replies []*llm.Reply
	err     error

	sentTurns [][]session.Turn
	sentTools [][]llm.Tool
}

func (c *scriptedCompleter) Complete(_ context.Context, _ string, turns []session.Turn, decls []llm.Tool) (*llm.Reply, error) {
	c.sentTurns = append(c.sentTurns, turns)
	c.sentTools = append(c.sentTools, decls)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.replies) == 0 {
		return &llm.Reply{Content: "default"}, nil
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r, nil
}

type fixedSearcher struct{ results []search.Result }

func (f fixedSearcher) Search(context.Context, string) ([]search.Result, error) {
	return f.results, nil
}

func testCatalog() *model.Catalog {
	return model.NewCatalog([]model.Model{
		{ID: "mistralai/mistral-7b-instruct", Name: "Mistral 7B Instruct", Provider: model.ProviderOpenRouter},
		{ID: "deepseek/deepseek-r1", Name: "DeepSeek R1", Provider: model.ProviderOpenRouter, Reasoning: true},
	})
}

type fixture struct {
	svc       *Service
	store     *session.Store
	completer *scriptedCompleter
}

func newFixture(t *testing.T, completer *scriptedCompleter, post *Postprocessor) *fixture {
	t.Helper()
	store := session.NewStore(session.StoreConfig{Persona: "You are the adjutant."})
	registry := tools.NewRegistry(tools.NewSearchWeb(fixedSearcher{
		results: []search.Result{{Title: "t", Snippet: "s", Link: "l"}},
	}, log.NewNop()))

	svc, err := New(Config{
		Store:     store,
		Completer: completer,
		Catalog:   testCatalog(),
		Tools:     registry,
		Logger:    log.NewNop(),
		Post:      post,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{svc: svc, store: store, completer: completer}
}

func TestSend_SimpleTurn(t *testing.T) {
	f := newFixture(t, &scriptedCompleter{replies: []*llm.Reply{{Content: "Hi there!"}}}, nil)

	reply, err := f.svc.Send(context.Background(), Request{
		Prompt: "Hello", Model: "mistralai/mistral-7b-instruct", SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply != "Hi there!" {
		t.Errorf("reply = %q", reply)
	}

	turns := f.store.GetOrCreate("s1").Turns()
	if len(turns) != 3 {
		t.Fatalf("session has %d turns, want 3", len(turns))
	}
	if turns[0].Role != session.RoleSystem {
		t.Errorf("turn 0 role = %q", turns[0].Role)
	}
	if turns[1].Role != session.RoleUser || turns[1].Content != "Hello" {
		t.Errorf("turn 1 = %+v", turns[1])
	}
	if turns[2].Role != session.RoleAssistant || turns[2].Content != "Hi there!" {
		t.Errorf("turn 2 = %+v", turns[2])
	}
}

func TestSend_RejectsBeforeMutation(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"missing prompt", Request{Model: "mistralai/mistral-7b-instruct", SessionID: "s1"}, ErrInvalidRequest},
		{"missing model", Request{Prompt: "hi", SessionID: "s1"}, ErrInvalidRequest},
		{"missing session", Request{Prompt: "hi", Model: "mistralai/mistral-7b-instruct"}, ErrInvalidRequest},
		{"unknown model", Request{Prompt: "hi", Model: "evil/model", SessionID: "s1"}, ErrInvalidModel},
		{"whitespace prompt", Request{Prompt: "   \n\t  ", Model: "mistralai/mistral-7b-instruct", SessionID: "s1"}, ErrEmptyPrompt},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, &scriptedCompleter{}, nil)
			_, err := f.svc.Send(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if f.store.Len() != 0 {
				t.Errorf("store has %d sessions, want 0 (no mutation before validation)", f.store.Len())
			}
			if len(f.completer.sentTurns) != 0 {
				t.Error("provider must not be called for invalid requests")
			}
		})
	}
}

func TestSend_TruncatesLongPrompt(t *testing.T) {
	f := newFixture(t, &scriptedCompleter{replies: []*llm.Reply{{Content: "ok"}}}, nil)

	long := strings.Repeat("a", MaxPromptLen+1)
	_, err := f.svc.Send(context.Background(), Request{
		Prompt: long, Model: "mistralai/mistral-7b-instruct", SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	turns := f.store.GetOrCreate("s1").Turns()
	if got := len([]rune(turns[1].Content)); got != MaxPromptLen {
		t.Errorf("archived prompt length = %d, want %d", got, MaxPromptLen)
	}
}

func TestSend_ToolCycle(t *testing.T) {
	completer := &scriptedCompleter{replies: []*llm.Reply{
		{ToolCalls: []session.ToolCall{{ID: "call_1", Name: tools.SearchWebName, Arguments: `{"query":"X"}`}}},
		{Content: "Here is what I found."},
	}}
	f := newFixture(t, completer, nil)

	reply, err := f.svc.Send(context.Background(), Request{
		Prompt: "what is X", Model: "mistralai/mistral-7b-instruct", SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply != "Here is what I found." {
		t.Errorf("reply = %q", reply)
	}

	if len(completer.sentTurns) != 2 {
		t.Fatalf("provider called %d times, want 2", len(completer.sentTurns))
	}

	// First call declares tools; second must not.
	if len(completer.sentTools[0]) == 0 {
		t.Error("first call missing tool declarations")
	}
	if len(completer.sentTools[1]) != 0 {
		t.Error("second call must not declare tools")
	}

	// Second call's transcript: history, assistant descriptor, tool result.
	second := completer.sentTurns[1]
	n := len(second)
	if n < 4 {
		t.Fatalf("second call has %d turns", n)
	}
	assistant, toolTurn := second[n-2], second[n-1]
	if assistant.Role != session.RoleAssistant || len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID != "call_1" {
		t.Errorf("assistant turn = %+v", assistant)
	}
	if toolTurn.Role != session.RoleTool || toolTurn.ToolCallID != "call_1" {
		t.Errorf("tool turn = %+v", toolTurn)
	}
	if !strings.Contains(toolTurn.Content, `"title":"t"`) {
		t.Errorf("tool result = %q", toolTurn.Content)
	}

	// Final archive: user ... assistant, with the cycle in between.
	turns := f.store.GetOrCreate("s1").Turns()
	if len(turns) != 5 {
		t.Fatalf("session has %d turns, want 5", len(turns))
	}
	if turns[len(turns)-1].Content != "Here is what I found." {
		t.Errorf("archived reply = %q", turns[len(turns)-1].Content)
	}
}

func TestSend_ToolCycleAbortsOnBadArguments(t *testing.T) {
	completer := &scriptedCompleter{replies: []*llm.Reply{
		{ToolCalls: []session.ToolCall{{ID: "call_1", Name: tools.SearchWebName, Arguments: `{broken`}}},
	}}
	f := newFixture(t, completer, nil)

	_, err := f.svc.Send(context.Background(), Request{
		Prompt: "hi", Model: "mistralai/mistral-7b-instruct", SessionID: "s1",
	})
	if !errors.Is(err, tools.ErrBadArguments) {
		t.Fatalf("err = %v, want ErrBadArguments", err)
	}
	if len(completer.sentTurns) != 1 {
		t.Errorf("provider called %d times, want 1 (cycle aborted)", len(completer.sentTurns))
	}
}

func TestSend_UnknownToolRejected(t *testing.T) {
	completer := &scriptedCompleter{replies: []*llm.Reply{
		{ToolCalls: []session.ToolCall{{ID: "call_1", Name: "formatDisk", Arguments: `{}`}}},
	}}
	f := newFixture(t, completer, nil)

	_, err := f.svc.Send(context.Background(), Request{
		Prompt: "hi", Model: "mistralai/mistral-7b-instruct", SessionID: "s1",
	})
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Errorf("err = %v, want ErrUnknownTool", err)
	}
}

func TestSend_ReasoningModel(t *testing.T) {
	completer := &scriptedCompleter{replies: []*llm.Reply{
		{Content: "Step 1: think.\nStep 2: conclude.\n---FINAL---\nThe answer is 42."},
	}}
	f := newFixture(t, completer, nil)

	reply, err := f.svc.Send(context.Background(), Request{
		Prompt: "meaning of life?", Model: "deepseek/deepseek-r1", SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply != "The answer is 42." {
		t.Errorf("reply = %q, want sentinel-extracted answer", reply)
	}

	// The composed user turn carries the wrapper, not the bare prompt.
	turns := f.store.GetOrCreate("s1").Turns()
	if !strings.Contains(turns[1].Content, FinalSentinel) {
		t.Errorf("user turn not wrapped: %q", turns[1].Content)
	}
	if !strings.Contains(turns[1].Content, "meaning of life?") {
		t.Errorf("user turn lost the prompt: %q", turns[1].Content)
	}
}

func TestSend_EmptyReplyFallback(t *testing.T) {
	f := newFixture(t, &scriptedCompleter{replies: []*llm.Reply{{Content: "   "}}}, nil)

	reply, err := f.svc.Send(context.Background(), Request{
		Prompt: "hi", Model: "mistralai/mistral-7b-instruct", SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply != fallbackReply {
		t.Errorf("reply = %q, want fallback", reply)
	}
}

func TestSend_PostprocessorRunsBeforeArchive(t *testing.T) {
	post := NewPostprocessor(PostprocessorConfig{
		Enabled: true,
		Words:   []string{"innit"},
		Chance:  1.0,
		Seed:    7,
	})
	f := newFixture(t, &scriptedCompleter{replies: []*llm.Reply{{Content: "Alright"}}}, post)

	reply, err := f.svc.Send(context.Background(), Request{
		Prompt: "hi", Model: "mistralai/mistral-7b-instruct", SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply != "Alright innit" {
		t.Errorf("reply = %q", reply)
	}

	turns := f.store.GetOrCreate("s1").Turns()
	if got := turns[len(turns)-1].Content; got != reply {
		t.Errorf("archived %q but returned %q; history must match what the caller saw", got, reply)
	}
}

func TestSend_UpstreamFailure(t *testing.T) {
	f := newFixture(t, &scriptedCompleter{err: llm.ErrUpstream}, nil)

	_, err := f.svc.Send(context.Background(), Request{
		Prompt: "hi", Model: "mistralai/mistral-7b-instruct", SessionID: "s1",
	})
	if !errors.Is(err, llm.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestReset_Idempotence(t *testing.T) {
	f := newFixture(t, &scriptedCompleter{replies: []*llm.Reply{{Content: "ok"}}}, nil)
	_, err := f.svc.Send(context.Background(), Request{
		Prompt: "hi", Model: "mistralai/mistral-7b-instruct", SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if !f.svc.Reset("s1") {
		t.Error("first Reset should find the session")
	}
	if f.svc.Reset("s1") {
		t.Error("second Reset should not find the session")
	}
}
