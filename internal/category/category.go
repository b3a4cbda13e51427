// Package category exposes the fixed document taxonomy. Nothing here is
// persisted remotely; the set is known at build time.
package category

import "dokubox/internal/model"

// Uncategorized is the display name resolved for unknown category ids.
const Uncategorized = "Uncategorized"

// Provider looks up categories.
type Provider interface {
	ListAll() []model.Category
	ResolveName(id string) string
	Exists(id string) bool
}

// Static is an immutable, ordered category list.
type Static struct {
	list  []model.Category
	names map[string]string
}

// NewStatic builds a provider over categories, keeping their order.
func NewStatic(categories ...model.Category) *Static {
	s := &Static{
		list:  make([]model.Category, len(categories)),
		names: make(map[string]string, len(categories)),
	}
	copy(s.list, categories)
	for _, c := range categories {
		s.names[c.ID] = c.Name
	}
	return s
}

// Default returns the vault's built-in taxonomy.
func Default() *Static {
	return NewStatic(
		model.Category{ID: "electronics", Name: "Electronics"},
		model.Category{ID: "appliances", Name: "Appliances"},
		model.Category{ID: "furniture", Name: "Furniture"},
		model.Category{ID: "clothing", Name: "Clothing"},
		model.Category{ID: "documents", Name: "Documents"},
	)
}

// ListAll returns a copy of the categories in insertion order.
func (s *Static) ListAll() []model.Category {
	out := make([]model.Category, len(s.list))
	copy(out, s.list)
	return out
}

// ResolveName returns the display name for id, or Uncategorized.
func (s *Static) ResolveName(id string) string {
	if name, ok := s.names[id]; ok {
		return name
	}
	return Uncategorized
}

func (s *Static) Exists(id string) bool {
	_, ok := s.names[id]
	return ok
}
