package embedding

import (
	"context"
	"fmt"
	"sync"
)

// Factory builds the embedder. It runs at most once per Handle.
type Factory func(ctx context.Context) (Embedder, error)

// Handle lazily creates and probes the process-wide embedder. The first Get
// pays for the creation; every later call reuses its outcome, error included.
type Handle struct {
	factory Factory

	once     sync.Once
	embedder Embedder
	err      error
}

func NewHandle(factory Factory) *Handle {
	return &Handle{factory: factory}
}

// Get returns the shared embedder, creating it on first use.
func (h *Handle) Get(ctx context.Context) (Embedder, error) {
	if h == nil || h.factory == nil {
		return nil, ErrDisabled
	}

	h.once.Do(func() {
		h.embedder, h.err = h.factory(ctx)
		if h.err == nil && h.embedder == nil {
			h.err = ErrDisabled
		}
	})
	return h.embedder, h.err
}

// Probed wraps factory so that the created embedder must answer one request
// before it is accepted.
func Probed(factory Factory) Factory {
	return func(ctx context.Context) (Embedder, error) {
		embedder, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := embedder.Embed(ctx, []string{"probe"}); err != nil {
			return nil, fmt.Errorf("probe %s: %w", embedder.Name(), err)
		}
		return embedder, nil
	}
}
