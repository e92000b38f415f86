// Package catalog holds the model descriptors relay knows about and the
// pricing used to estimate request cost.
package catalog

import (
	"slices"
	"strings"
	"sync/atomic"

	"github.com/papercomputeco/relay/pkg/llm/family"
)

// Pricing is the USD price per million tokens.
type Pricing struct {
	InputPerMillion  float64 `json:"inputPerMillionTokens" toml:"input"`
	OutputPerMillion float64 `json:"outputPerMillionTokens" toml:"output"`
}

// Model describes a chat model.
type Model struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Provider     string        `json:"provider"`
	Family       family.Family `json:"family"`
	Description  string        `json:"description"`
	Capabilities []string      `json:"capabilities"`
	Pricing      *Pricing      `json:"pricing,omitempty"`
}

// HasCapability reports whether m lists capability.
func (m Model) HasCapability(capability string) bool {
	return slices.Contains(m.Capabilities, capability)
}

// Catalog is a read-mostly set of models. Price overrides are swapped in
// atomically so readers never observe a partial table.
type Catalog struct {
	models    []Model
	overrides atomic.Pointer[PricingTable]
}

// New creates a catalog over models.
func New(models []Model) *Catalog {
	c := &Catalog{models: slices.Clone(models)}
	empty := PricingTable{}
	c.overrides.Store(&empty)
	return c
}

// Default returns a catalog of the built-in models.
func Default() *Catalog {
	return New(builtin)
}

// SetOverrides replaces the active price overrides.
func (c *Catalog) SetOverrides(table PricingTable) {
	if table == nil {
		table = PricingTable{}
	}
	c.overrides.Store(&table)
}

// Overrides returns the active price overrides.
func (c *Catalog) Overrides() PricingTable {
	return *c.overrides.Load()
}

func (c *Catalog) resolve(m Model) Model {
	m.Capabilities = slices.Clone(m.Capabilities)
	if p, ok := c.Overrides().Lookup(m.ID); ok {
		m.Pricing = &p
	} else if m.Pricing != nil {
		p := *m.Pricing
		m.Pricing = &p
	}
	return m
}

// All returns every model in catalog order.
func (c *Catalog) All() []Model {
	out := make([]Model, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, c.resolve(m))
	}
	return out
}

// ByID finds a model by id. Region prefixed Bedrock ids such as
// "us.anthropic.claude-..." match their base model.
func (c *Catalog) ByID(id string) (Model, bool) {
	key := canonicalID(id)
	for _, m := range c.models {
		if canonicalID(m.ID) == key {
			return c.resolve(m), true
		}
	}
	return Model{}, false
}

// ByProvider returns the models sold by provider, compared case-insensitively.
func (c *Catalog) ByProvider(provider string) []Model {
	var out []Model
	for _, m := range c.models {
		if strings.EqualFold(m.Provider, provider) {
			out = append(out, c.resolve(m))
		}
	}
	return out
}

// ByFamily returns the models whose request shape is f.
func (c *Catalog) ByFamily(f family.Family) []Model {
	var out []Model
	for _, m := range c.models {
		if m.Family == f {
			out = append(out, c.resolve(m))
		}
	}
	return out
}

// Providers returns the distinct providers in first-seen order.
func (c *Catalog) Providers() []string {
	var out []string
	for _, m := range c.models {
		if !slices.Contains(out, m.Provider) {
			out = append(out, m.Provider)
		}
	}
	return out
}

// ByCapability returns the models listing capability.
func (c *Catalog) ByCapability(capability string) []Model {
	var out []Model
	for _, m := range c.models {
		if m.HasCapability(capability) {
			out = append(out, c.resolve(m))
		}
	}
	return out
}

// PricingFor returns the effective pricing for a model id.
func (c *Catalog) PricingFor(id string) (Pricing, bool) {
	if p, ok := c.Overrides().Lookup(id); ok {
		return p, true
	}

	m, ok := c.ByID(id)
	if !ok || m.Pricing == nil {
		return Pricing{}, false
	}
	return *m.Pricing, true
}
