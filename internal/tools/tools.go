// Package tools defines the capabilities the model may invoke and the
// registry that executes them. A tool call is executed only when its
// name matches a registered descriptor; anything else is rejected.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/adjutantlabs/adjutant/internal/llm"
)

// Sentinel errors, checked with errors.Is().
var (
	// ErrUnknownTool indicates a tool call naming no registered tool.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrBadArguments indicates a tool-call argument payload that
	// could not be parsed. The invocation cycle aborts on this.
	ErrBadArguments = errors.New("malformed tool arguments")
)

// Tool is one executable capability.
type Tool interface {
	// Descriptor is the static declaration advertised to the provider.
	Descriptor() llm.Tool

	// Execute runs the tool with the raw JSON argument payload and
	// returns the tool result text.
	Execute(ctx context.Context, arguments string) (string, error)
}

// Registry holds the registered tools.
type Registry struct {
	tools []Tool
	byName map[string]Tool
}

// NewRegistry creates a registry over the given tools.
func NewRegistry(tools ...Tool) *Registry {
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Descriptor().Name] = t
	}
	return &Registry{tools: tools, byName: byName}
}

// Declarations returns the descriptors to advertise on the first
// completion call of a turn.
func (r *Registry) Declarations() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Descriptor())
	}
	return out
}

// Execute runs the named tool. Unknown names fail with ErrUnknownTool
// rather than being silently executed.
func (r *Registry) Execute(ctx context.Context, name, arguments string) (string, error) {
	t, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t.Execute(ctx, arguments)
}
