package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestGetOrCreate_SeedsPersona(t *testing.T) {
	s := NewStore(StoreConfig{Persona: "You are a drill sergeant."})

	tr := s.GetOrCreate("s1")
	if tr.Len() != 1 {
		t.Fatalf("new transcript has %d turns, want 1", tr.Len())
	}
	turns := tr.Turns()
	if turns[0].Role != RoleSystem || turns[0].Content != "You are a drill sergeant." {
		t.Errorf("seed turn = %+v", turns[0])
	}
}

func TestGetOrCreate_ReturnsExisting(t *testing.T) {
	s := NewStore(StoreConfig{})
	tr := s.GetOrCreate("s1")
	if err := s.Append("s1", Turn{Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	again := s.GetOrCreate("s1")
	if again != tr {
		t.Error("GetOrCreate returned a different transcript for the same id")
	}
	if again.Len() != 2 {
		t.Errorf("transcript has %d turns, want 2", again.Len())
	}
}

func TestAppend_UnknownSession(t *testing.T) {
	s := NewStore(StoreConfig{})
	err := s.Append("ghost", Turn{Role: RoleUser, Content: "hi"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReset_Idempotence(t *testing.T) {
	s := NewStore(StoreConfig{})
	s.GetOrCreate("s1")

	if !s.Reset("s1") {
		t.Error("first Reset should report the session existed")
	}
	if s.Reset("s1") {
		t.Error("second Reset should report the session was gone")
	}
}

func TestAppend_ToolTurnLinkage(t *testing.T) {
	s := NewStore(StoreConfig{})
	s.GetOrCreate("s1")

	// Orphan tool turn: no preceding assistant descriptor.
	err := s.Append("s1", Turn{Role: RoleTool, Content: "result", ToolCallID: "call_1"})
	if !errors.Is(err, ErrOrphanToolTurn) {
		t.Fatalf("err = %v, want ErrOrphanToolTurn", err)
	}

	// Assistant turn declaring the call, then a matching tool turn.
	assistant := Turn{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{ID: "call_1", Name: "searchWeb", Arguments: `{"query":"x"}`}},
	}
	if err := s.Append("s1", assistant); err != nil {
		t.Fatalf("Append assistant: %v", err)
	}
	if err := s.Append("s1", Turn{Role: RoleTool, Content: "result", ToolCallID: "call_1"}); err != nil {
		t.Fatalf("Append tool: %v", err)
	}

	// Mismatched call id is still rejected.
	err = s.Append("s1", Turn{Role: RoleTool, Content: "result", ToolCallID: "call_2"})
	if !errors.Is(err, ErrOrphanToolTurn) {
		t.Errorf("err = %v, want ErrOrphanToolTurn", err)
	}
}

func TestStore_LRUEviction(t *testing.T) {
	base := time.Now()
	clock := base
	s := NewStore(StoreConfig{MaxSessions: 2, Now: func() time.Time { return clock }})

	s.GetOrCreate("old")
	clock = clock.Add(time.Second)
	s.GetOrCreate("mid")
	clock = clock.Add(time.Second)

	// Touch "old" so "mid" becomes the LRU candidate.
	s.GetOrCreate("old")
	clock = clock.Add(time.Second)

	s.GetOrCreate("new")
	if s.Len() != 2 {
		t.Fatalf("store has %d sessions, want 2", s.Len())
	}
	if s.Reset("mid") {
		t.Error("mid should have been evicted as least recently used")
	}
	if !s.Reset("old") {
		t.Error("old should have survived")
	}
}

func TestStore_TTLSweep(t *testing.T) {
	base := time.Now()
	clock := base
	s := NewStore(StoreConfig{IdleTTL: time.Minute, Now: func() time.Time { return clock }})

	s.GetOrCreate("stale")

	// Past both the TTL and the sweep interval.
	clock = base.Add(10 * time.Minute)
	s.GetOrCreate("fresh")

	if s.Reset("stale") {
		t.Error("stale session should have been swept")
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := NewStore(StoreConfig{})
	s.GetOrCreate("s1")

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append("s1", Turn{Role: RoleUser, Content: fmt.Sprintf("msg %d", i)})
		}()
	}
	wg.Wait()

	// 1 seed turn + 50 appends.
	if got := s.GetOrCreate("s1").Len(); got != 51 {
		t.Errorf("transcript has %d turns, want 51", got)
	}
}

func TestGuard_SerializesAccess(t *testing.T) {
	s := NewStore(StoreConfig{})
	s.GetOrCreate("s1")

	release := s.Guard("s1")
	acquired := make(chan struct{})
	go func() {
		r := s.Guard("s1")
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second Guard acquired while first was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Guard never acquired after release")
	}
}
