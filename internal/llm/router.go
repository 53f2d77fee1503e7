package llm

import (
	"context"
	"fmt"

	"github.com/adjutantlabs/adjutant/internal/model"
	"github.com/adjutantlabs/adjutant/internal/session"
)

// Router dispatches completion calls to the provider a model belongs
// to. This is a plain conditional dispatch, not a routing abstraction.
type Router struct {
	catalog    *model.Catalog
	openRouter Completer
	gemini     Completer
}

// NewRouter creates a router over the given provider clients.
// gemini may be nil when no Gemini credential is configured; gemini/*
// models then fail with ErrUpstream.
func NewRouter(catalog *model.Catalog, openRouter, gemini Completer) *Router {
	return &Router{catalog: catalog, openRouter: openRouter, gemini: gemini}
}

// Complete dispatches to the model's provider.
func (r *Router) Complete(ctx context.Context, modelID string, turns []session.Turn, tools []Tool) (*Reply, error) {
	m, err := r.catalog.Lookup(modelID)
	if err != nil {
		return nil, err
	}

	switch m.Provider {
	case model.ProviderGemini:
		if r.gemini == nil {
			return nil, fmt.Errorf("%w: gemini provider not configured", ErrUpstream)
		}
		return r.gemini.Complete(ctx, modelID, turns, tools)
	default:
		return r.openRouter.Complete(ctx, modelID, turns, tools)
	}
}
