// Package template holds the static catalog of page skeletons and the pure
// resolution of a website record against its referenced template.
package template

import (
	"sort"

	"sitebuilder/internal/domain"
)

// DefaultTemplateID is the fallback when a record references an unknown
// template.
const DefaultTemplateID = "gas-industri-1"

// Catalog is a registry of templates: the built-in set, optionally overlaid
// with user-stored ones. Lookups never fail, an unknown id resolves to the
// default template.
type Catalog struct {
	templates map[string]domain.Template
}

// NewCatalog builds a catalog from the built-in templates plus any custom
// ones, which shadow built-ins with the same id.
func NewCatalog(custom ...domain.Template) *Catalog {
	c := &Catalog{templates: make(map[string]domain.Template)}
	for _, t := range builtins {
		c.templates[t.ID] = t
	}
	for _, t := range custom {
		if t.ID != "" {
			c.templates[t.ID] = t
		}
	}
	return c
}

// Resolve returns the template with the given id, falling back to the
// default template when the id is unknown or empty.
func (c *Catalog) Resolve(id string) domain.Template {
	if t, ok := c.templates[id]; ok {
		return t
	}
	return c.templates[DefaultTemplateID]
}

// All returns every template in the catalog, sorted by id.
func (c *Catalog) All() []domain.Template {
	out := make([]domain.Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ResolveContent returns a copy of the record with empty content fields
// filled in from the referenced template. The store only ever persists the
// unresolved record; this materialization happens on read.
func (c *Catalog) ResolveContent(w domain.Website) domain.Website {
	if w.TemplateID == "" {
		return w
	}
	t := c.Resolve(w.TemplateID)
	if w.Content == "" {
		w.Content = t.Content
	}
	if w.Styles == "" {
		w.Styles = t.Styles
	}
	if w.Scripts == "" {
		w.Scripts = t.Scripts
	}
	return w
}
