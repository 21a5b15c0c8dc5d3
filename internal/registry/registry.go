// Package registry generalizes the teacher's provider registry
// (src/chainadapter/provider/registry.go) from a free-form provider-type
// string keyed cache to a process-wide dictionary keyed by the closed
// domain.Chain enum (spec.md §4.2).
package registry

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/domain"
	"github.com/swapcore/swapcore/internal/errs"
)

// Registry is a unique-per-chain dictionary of adapter instances. No
// adapter is used before its Initialize has completed successfully
// (enforced by initialized tracking, not just convention).
type Registry struct {
	mu          sync.RWMutex
	adapters    map[domain.Chain]chainadapter.Adapter
	initialized map[domain.Chain]bool
	log         *zap.Logger
}

// New constructs an empty registry. logger may be zap.NewNop() in tests.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		adapters:    make(map[domain.Chain]chainadapter.Adapter),
		initialized: make(map[domain.Chain]bool),
		log:         logger,
	}
}

// Register binds an adapter instance to its chain. Registering the same
// chain twice overwrites the previous binding — useful for tests that
// swap in a mock adapter.
func (r *Registry) Register(adapter chainadapter.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Chain()] = adapter
	delete(r.initialized, adapter.Chain())
}

// Lookup returns the adapter bound to chain, failing with
// errs.AdapterNotFound if none was registered, or errs.AdapterNotInitialized
// if it was registered but InitializeAll has not yet succeeded for it.
func (r *Registry) Lookup(chain domain.Chain) (chainadapter.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[chain]
	if !ok {
		return nil, errs.AdapterNotFound(string(chain))
	}
	if !r.initialized[chain] {
		return nil, errs.AdapterNotInitialized(string(chain))
	}
	return a, nil
}

// InitializeAll runs Initialize on every registered adapter concurrently
// and collects per-chain errors, matching spec.md §4.2 ("initialize-all:
// parallel initialize; collects per-chain errors").
func (r *Registry) InitializeAll(ctx context.Context, configs map[domain.Chain]chainadapter.Config) map[domain.Chain]error {
	r.mu.RLock()
	chains := make([]domain.Chain, 0, len(r.adapters))
	for c := range r.adapters {
		chains = append(chains, c)
	}
	r.mu.RUnlock()

	results := make(map[domain.Chain]error, len(chains))
	var resultsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range chains {
		c := c
		g.Go(func() error {
			r.mu.RLock()
			a := r.adapters[c]
			r.mu.RUnlock()

			cfg, ok := configs[c]
			if !ok {
				resultsMu.Lock()
				results[c] = fmt.Errorf("registry: no config supplied for chain %s", c)
				resultsMu.Unlock()
				return nil
			}

			err := a.Initialize(gctx, cfg)
			resultsMu.Lock()
			results[c] = err
			resultsMu.Unlock()

			if err == nil {
				r.mu.Lock()
				r.initialized[c] = true
				r.mu.Unlock()
				r.log.Info("adapter initialized", zap.String("chain", string(c)))
			} else {
				r.log.Warn("adapter init failed", zap.String("chain", string(c)), zap.Error(err))
			}
			return nil // per-chain errors are collected, not propagated as a group failure
		})
	}
	_ = g.Wait()

	return results
}

// Chains returns the set of registered chains.
func (r *Registry) Chains() []domain.Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Chain, 0, len(r.adapters))
	for c := range r.adapters {
		out = append(out, c)
	}
	return out
}
