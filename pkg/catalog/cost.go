package catalog

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CostEstimate is a USD cost split by direction.
type CostEstimate struct {
	InputCost  decimal.Decimal
	OutputCost decimal.Decimal
	TotalCost  decimal.Decimal
}

// MarshalJSON renders costs as JSON numbers.
func (e CostEstimate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		InputCost  float64 `json:"inputCost"`
		OutputCost float64 `json:"outputCost"`
		TotalCost  float64 `json:"totalCost"`
	}{
		InputCost:  e.InputCost.InexactFloat64(),
		OutputCost: e.OutputCost.InexactFloat64(),
		TotalCost:  e.TotalCost.InexactFloat64(),
	})
}

// CostForTokens prices token counts with p.
func CostForTokens(p Pricing, inputTokens, outputTokens int) CostEstimate {
	in := decimal.NewFromInt(int64(inputTokens)).Mul(decimal.NewFromFloat(p.InputPerMillion)).Shift(-6)
	out := decimal.NewFromInt(int64(outputTokens)).Mul(decimal.NewFromFloat(p.OutputPerMillion)).Shift(-6)

	return CostEstimate{
		InputCost:  in,
		OutputCost: out,
		TotalCost:  in.Add(out),
	}
}

// EstimateCost prices a call to modelID. Models without pricing cost zero.
func (c *Catalog) EstimateCost(modelID string, inputTokens, outputTokens int) CostEstimate {
	p, ok := c.PricingFor(modelID)
	if !ok {
		return CostEstimate{}
	}
	return CostForTokens(p, inputTokens, outputTokens)
}

// CountTokens approximates a token count at four characters per token.
func CountTokens(text string) int {
	return (len(text) + 3) / 4
}
