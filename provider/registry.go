package provider

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Registry is the set of providers known to one process, in registration order.
type Registry struct {
	providers []Provider
	byName    map[string]Provider
}

func NewRegistry(providers ...Provider) (*Registry, error) {
	registry := &Registry{byName: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (r *Registry) Register(p Provider) error {
	name := strings.ToLower(strings.TrimSpace(p.Name()))
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.byName[name] = p
	r.providers = append(r.providers, p)
	return nil
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

func (r *Registry) All() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}

// Outcome is one provider's share of a fan-out sync.
type Outcome struct {
	Name   string
	Result SyncResult
	Err    error
}

// SyncAll runs every configured provider concurrently. A failing provider never
// cancels or hides its siblings; outcomes keep registration order.
func (r *Registry) SyncAll(ctx context.Context, options SyncOptions) []Outcome {
	configured := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Configured() {
			configured = append(configured, p)
		}
	}

	outcomes := make([]Outcome, len(configured))
	var group errgroup.Group
	for i, p := range configured {
		group.Go(func() error {
			result, err := p.Sync(ctx, options)
			outcomes[i] = Outcome{Name: p.Name(), Result: result, Err: err}
			return nil
		})
	}
	_ = group.Wait()
	return outcomes
}
