package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageRecord is the token usage and cost of one call.
type UsageRecord struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId,omitempty"`
	ModelID        string          `json:"modelId"`
	InputTokens    int             `json:"inputTokens"`
	OutputTokens   int             `json:"outputTokens"`
	TotalCost      decimal.Decimal `json:"totalCost"`
	Timestamp      time.Time       `json:"timestamp"`
}

// UsageSummary aggregates usage records.
type UsageSummary struct {
	Records      int                        `json:"records"`
	InputTokens  int                        `json:"inputTokens"`
	OutputTokens int                        `json:"outputTokens"`
	TotalCost    decimal.Decimal            `json:"totalCost"`
	ByModel      map[string]decimal.Decimal `json:"byModel"`
}

// TotalCost sums the cost of records.
func TotalCost(records []*UsageRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.TotalCost)
	}
	return total
}

// CostByModel sums the cost of records per model id.
func CostByModel(records []*UsageRecord) map[string]decimal.Decimal {
	byModel := make(map[string]decimal.Decimal)
	for _, r := range records {
		byModel[r.ModelID] = byModel[r.ModelID].Add(r.TotalCost)
	}
	return byModel
}

// Summarize aggregates records.
func Summarize(records []*UsageRecord) UsageSummary {
	s := UsageSummary{
		Records:   len(records),
		TotalCost: TotalCost(records),
		ByModel:   CostByModel(records),
	}
	for _, r := range records {
		s.InputTokens += r.InputTokens
		s.OutputTokens += r.OutputTokens
	}
	return s
}
