package catalog

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// PricingTable maps model ids to prices.
type PricingTable map[string]Pricing

// Lookup finds the price for id, falling back to its canonical form.
func (t PricingTable) Lookup(id string) (Pricing, bool) {
	if p, ok := t[id]; ok {
		return p, true
	}

	key := canonicalID(id)
	for k, p := range t {
		if canonicalID(k) == key {
			return p, true
		}
	}
	return Pricing{}, false
}

// LoadPricing reads a TOML override file:
//
//	["anthropic.claude-3-haiku-20240307-v1:0"]
//	input = 0.25
//	output = 1.25
//
// An empty path yields an empty table.
func LoadPricing(path string) (PricingTable, error) {
	table := PricingTable{}
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}

	var overrides map[string]Pricing
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}

	for id, p := range overrides {
		if p.InputPerMillion < 0 || p.OutputPerMillion < 0 {
			return nil, fmt.Errorf("parse pricing file: negative price for %q", id)
		}
	}

	maps.Copy(table, overrides)
	return table, nil
}

// canonicalID lowercases id and strips a Bedrock cross-region prefix.
func canonicalID(id string) string {
	normalized := strings.ToLower(strings.TrimSpace(id))
	for _, prefix := range []string{"us-gov.", "us.", "eu.", "apac."} {
		if strings.HasPrefix(normalized, prefix) {
			return strings.TrimPrefix(normalized, prefix)
		}
	}
	return normalized
}

// DefaultWithPricing returns the built-in catalog with the overrides in path
// applied. An empty path applies none.
func DefaultWithPricing(path string) (*Catalog, error) {
	table, err := LoadPricing(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	c.SetOverrides(table)
	return c, nil
}
