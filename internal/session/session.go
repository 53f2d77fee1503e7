// Package session provides the in-memory conversation store.
//
// A session owns an ordered transcript of turns exchanged between the
// user and the model. Sessions are created lazily on first use, seeded
// with the persona system turn, and live only for the process lifetime.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// Turn roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Sentinel errors for store operations, checked with errors.Is().
var (
	// ErrNotFound indicates the session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrOrphanToolTurn indicates a tool turn whose call ID has no
	// matching descriptor on the immediately preceding assistant turn.
	// Such turns must never be sent upstream.
	ErrOrphanToolTurn = errors.New("tool turn without matching tool call")
)

// ToolCall is a structured tool-call descriptor emitted by an
// assistant turn. Arguments is the raw JSON argument payload.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Turn is one message unit in a transcript.
type Turn struct {
	Role    string
	Content string

	// ToolCalls is set on assistant turns that request tool use.
	ToolCalls []ToolCall

	// ToolCallID links a tool turn to the descriptor it answers.
	ToolCallID string
}

// Transcript is one session's ordered turn sequence.
// Methods are safe for concurrent use; callers that need a whole
// request turn serialized use [Store.Guard].
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

func newTranscript(persona string) *Transcript {
	return &Transcript{turns: []Turn{{Role: RoleSystem, Content: persona}}}
}

// Turns returns a copy of the transcript for safe external use.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Last returns the final turn, or false if the transcript is empty.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// append adds a turn, enforcing the tool-turn linkage invariant.
func (t *Transcript) append(turn Turn) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if turn.Role == RoleTool {
		if err := t.checkToolLinkage(turn); err != nil {
			return err
		}
	}
	t.turns = append(t.turns, turn)
	return nil
}

// checkToolLinkage verifies that a tool turn answers a descriptor on
// the immediately preceding assistant turn. Caller holds t.mu.
func (t *Transcript) checkToolLinkage(turn Turn) error {
	if len(t.turns) == 0 {
		return fmt.Errorf("%w: empty transcript", ErrOrphanToolTurn)
	}

	// Walk back over earlier tool turns so that multiple results for
	// one assistant turn remain valid, then require the anchor to be
	// an assistant turn declaring this call ID.
	i := len(t.turns) - 1
	for i >= 0 && t.turns[i].Role == RoleTool {
		i--
	}
	if i < 0 || t.turns[i].Role != RoleAssistant {
		return fmt.Errorf("%w: no preceding assistant turn", ErrOrphanToolTurn)
	}
	for _, tc := range t.turns[i].ToolCalls {
		if tc.ID == turn.ToolCallID {
			return nil
		}
	}
	return fmt.Errorf("%w: call id %q", ErrOrphanToolTurn, turn.ToolCallID)
}
