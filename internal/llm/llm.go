// Package llm provides completion clients for the supported model
// providers. The chat layer speaks [Completer]; provider specifics
// stay behind it.
package llm

import (
	"context"
	"errors"

	"github.com/adjutantlabs/adjutant/internal/session"
)

// ErrUpstream indicates the provider returned a non-2xx status, an
// unparseable body, or an otherwise unusable response. Diagnostic
// detail is wrapped for logging but must never be echoed to callers.
var ErrUpstream = errors.New("upstream completion failed")

// Tool is a static tool declaration advertised to the provider.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Reply is a normalized assistant message from a provider.
type Reply struct {
	Content   string
	ToolCalls []session.ToolCall
}

// Completer performs one chat-completion call.
// When tools is non-empty the provider is asked to choose tools
// automatically; the reply may then carry tool-call descriptors.
type Completer interface {
	Complete(ctx context.Context, modelID string, turns []session.Turn, tools []Tool) (*Reply, error)
}
