// file: internal/providers/registry.go
// version: 1.0.0
// guid: 3d7f0a5c-8e2b-4c6d-9f1a-4b8e0d3c7a5f

package providers

import "sort"

// Registry holds the configured providers. It is built once during
// startup and treated as read-only afterwards; components that need
// provider lookup receive the registry value explicitly instead of
// reaching for package state.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry holding the given providers.
func NewRegistry(list ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(list))}
	for _, p := range list {
		r.providers[p.Config().Name] = p
	}
	return r
}

// Get returns the provider registered under name, or nil.
func (r *Registry) Get(name string) Provider {
	return r.providers[name]
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered providers ordered by name.
func (r *Registry) All() []Provider {
	all := make([]Provider, 0, len(r.providers))
	for _, name := range r.Names() {
		all = append(all, r.providers[name])
	}
	return all
}
