// Package policy resolves opaque category identifiers into process-name
// patterns. The core treats categories as opaque values; only the shield
// adapter consults this registry.
package policy

import (
	"sort"

	"github.com/eliteGoblin/frickd/internal/domain"
)

// Category groups process-name patterns under one blockable identifier.
type Category struct {
	ID       domain.CategoryID
	Name     string
	Patterns []string // matched case-insensitively against process names
}

// Registry holds the known categories. In-memory for now; profiles only
// reference categories by ID so the registry can be swapped later.
type Registry struct {
	categories map[domain.CategoryID]Category
}

// NewRegistry creates a registry with the built-in categories.
func NewRegistry() *Registry {
	return NewRegistryWithCategories(builtinCategories()...)
}

// NewRegistryWithCategories creates a registry with custom categories (for testing).
func NewRegistryWithCategories(categories ...Category) *Registry {
	r := &Registry{categories: make(map[domain.CategoryID]Category)}
	for _, c := range categories {
		r.categories[c.ID] = c
	}
	return r
}

// Patterns returns the process patterns for a category, or nil if the
// category is unknown. Unknown categories block nothing rather than fail:
// profiles may carry identifiers this host has no mapping for.
func (r *Registry) Patterns(id domain.CategoryID) []string {
	c, ok := r.categories[id]
	if !ok {
		return nil
	}
	return c.Patterns
}

// Get returns a category by ID.
func (r *Registry) Get(id domain.CategoryID) (Category, bool) {
	c, ok := r.categories[id]
	return c, ok
}

// List returns all category IDs in stable order.
func (r *Registry) List() []domain.CategoryID {
	ids := make([]domain.CategoryID, 0, len(r.categories))
	for id := range r.categories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
