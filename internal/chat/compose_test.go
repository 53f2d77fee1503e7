package chat

import (
	"strings"
	"testing"
)

func TestComposeUserTurn(t *testing.T) {
	if got := composeUserTurn("hello", false); got != "hello" {
		t.Errorf("non-reasoning prompt altered: %q", got)
	}

	wrapped := composeUserTurn("hello", true)
	if !strings.Contains(wrapped, "hello") {
		t.Errorf("wrapper lost the prompt: %q", wrapped)
	}
	if !strings.Contains(wrapped, FinalSentinel) {
		t.Errorf("wrapper missing sentinel: %q", wrapped)
	}
}

func TestExtractFinal(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  string
	}{
		{"with sentinel", "thinking...\n---FINAL---\nthe answer", "the answer"},
		{"no sentinel", "  just an answer  ", "just an answer"},
		{"multiple sentinels", "a ---FINAL--- b ---FINAL--- c", "c"},
		{"sentinel at end", "thinking ---FINAL---", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractFinal(tc.reply); got != tc.want {
				t.Errorf("ExtractFinal(%q) = %q, want %q", tc.reply, got, tc.want)
			}
		})
	}
}

func TestBuildPersona(t *testing.T) {
	persona := "You are the adjutant."

	if got := BuildPersona(persona, nil, 3); got != persona {
		t.Errorf("no excerpts: %q", got)
	}
	if got := BuildPersona(persona, []string{"fact"}, 0); got != persona {
		t.Errorf("zero budget: %q", got)
	}

	got := BuildPersona(persona, []string{"one", "two", "three"}, 2)
	if !strings.HasPrefix(got, persona) {
		t.Errorf("persona not first: %q", got)
	}
	if !strings.Contains(got, "one") || !strings.Contains(got, "two") {
		t.Errorf("missing excerpts: %q", got)
	}
	if strings.Contains(got, "three") {
		t.Errorf("excerpt over budget included: %q", got)
	}
}
