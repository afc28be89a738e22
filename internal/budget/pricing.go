package budget

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/armatrix/claude-agent-runtime/message"
)

// ModelPricing holds per-model token prices in USD per million tokens.
type ModelPricing struct {
	InputPerMTok         decimal.Decimal `json:"inputPerMTok"`
	OutputPerMTok        decimal.Decimal `json:"outputPerMTok"`
	LongInputPerMTok     decimal.Decimal `json:"longInputPerMTok"` // Premium rate when total input > LongContextThreshold
	LongOutputPerMTok    decimal.Decimal `json:"longOutputPerMTok"`
	CacheWritePerMTok    decimal.Decimal `json:"cacheWritePerMTok"`
	CacheReadPerMTok     decimal.Decimal `json:"cacheReadPerMTok"`
	LongContextThreshold int64           `json:"longContextThreshold"` // 0 = no long context pricing
}

var million = decimal.NewFromInt(1_000_000)

// CostForInput calculates the input cost considering long context threshold and cache tokens.
// totalInputTokens decides whether long context pricing applies.
func (p ModelPricing) CostForInput(inputTokens, cacheReadTokens, cacheWriteTokens, totalInputTokens int64) decimal.Decimal {
	rate := p.InputPerMTok
	if p.LongContextThreshold > 0 && totalInputTokens > p.LongContextThreshold {
		rate = p.LongInputPerMTok
	}

	cost := decimal.NewFromInt(inputTokens).Mul(rate).Div(million)
	cost = cost.Add(decimal.NewFromInt(cacheReadTokens).Mul(p.CacheReadPerMTok).Div(million))
	cost = cost.Add(decimal.NewFromInt(cacheWriteTokens).Mul(p.CacheWritePerMTok).Div(million))

	return cost
}

// CostForOutput calculates the output cost considering long context threshold.
func (p ModelPricing) CostForOutput(outputTokens, totalInputTokens int64) decimal.Decimal {
	rate := p.OutputPerMTok
	if p.LongContextThreshold > 0 && totalInputTokens > p.LongContextThreshold {
		rate = p.LongOutputPerMTok
	}

	return decimal.NewFromInt(outputTokens).Mul(rate).Div(million)
}

// Cost prices one model call.
func (p ModelPricing) Cost(u message.TokenUsage) decimal.Decimal {
	totalInput := u.InputTokens + u.CacheReadInputTokens + u.CacheCreationInputTokens
	return p.CostForInput(u.InputTokens, u.CacheReadInputTokens, u.CacheCreationInputTokens, totalInput).
		Add(p.CostForOutput(u.OutputTokens, totalInput))
}

// Table maps model identifiers to pricing.
type Table map[string]ModelPricing

// Lookup finds pricing for model. Dated identifiers such as
// "claude-sonnet-4-5-20250929" fall back to the longest matching prefix.
func (t Table) Lookup(model string) (ModelPricing, bool) {
	if p, ok := t[model]; ok {
		return p, true
	}
	best := ""
	for k := range t {
		if strings.HasPrefix(model, k+"-") && len(k) > len(best) {
			best = k
		}
	}
	if best == "" {
		return ModelPricing{}, false
	}
	return t[best], true
}

// Cost prices one call to model. Unknown models cost zero.
func (t Table) Cost(model string, u message.TokenUsage) decimal.Decimal {
	p, ok := t.Lookup(model)
	if !ok {
		return decimal.Zero
	}
	return p.Cost(u)
}

// DefaultPricing contains built-in pricing for Claude models (USD per million tokens).
// Can be overridden via WithPricing().
var DefaultPricing = Table{
	"claude-opus-4-6": {
		InputPerMTok:         decimal.NewFromFloat(5),
		OutputPerMTok:        decimal.NewFromFloat(25),
		LongInputPerMTok:     decimal.NewFromFloat(10),
		LongOutputPerMTok:    decimal.NewFromFloat(37.5),
		CacheWritePerMTok:    decimal.NewFromFloat(6.25),
		CacheReadPerMTok:     decimal.NewFromFloat(0.5),
		LongContextThreshold: 200_000,
	},
	"claude-sonnet-4-5": {
		InputPerMTok:         decimal.NewFromFloat(3),
		OutputPerMTok:        decimal.NewFromFloat(15),
		LongInputPerMTok:     decimal.NewFromFloat(6),
		LongOutputPerMTok:    decimal.NewFromFloat(22.5),
		CacheWritePerMTok:    decimal.NewFromFloat(3.75),
		CacheReadPerMTok:     decimal.NewFromFloat(0.3),
		LongContextThreshold: 200_000,
	},
	"claude-haiku-4-5": {
		InputPerMTok:      decimal.NewFromFloat(1),
		OutputPerMTok:     decimal.NewFromFloat(5),
		CacheWritePerMTok: decimal.NewFromFloat(1.25),
		CacheReadPerMTok:  decimal.NewFromFloat(0.1),
	},
}
