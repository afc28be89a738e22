// Package budget prices model calls and enforces an optional USD limit per run.
package budget

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/armatrix/claude-agent-runtime/message"
)

// unlimited stands in for the remaining amount of a budget without a limit.
var unlimited = decimal.New(1, 18)

// Tracker tracks the cumulative cost of model calls against a limit.
// It is safe for concurrent use.
type Tracker struct {
	maxBudget decimal.Decimal // 0 = unlimited
	totalCost decimal.Decimal
	pricing   Table
	mu        sync.Mutex
}

// NewTracker creates a new tracker. maxBudget of 0 means unlimited. A nil
// table uses DefaultPricing.
func NewTracker(maxBudget decimal.Decimal, pricing Table) *Tracker {
	if pricing == nil {
		pricing = DefaultPricing
	}
	return &Tracker{
		maxBudget: maxBudget,
		totalCost: decimal.Zero,
		pricing:   pricing,
	}
}

// RecordUsage prices the usage of a single call and returns its cost.
// Calls to models without pricing add no cost.
func (b *Tracker) RecordUsage(model string, usage message.TokenUsage) decimal.Decimal {
	cost := b.pricing.Cost(model, usage)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.totalCost = b.totalCost.Add(cost)
	return cost
}

// TotalCost returns the cumulative cost across all recorded usage.
func (b *Tracker) TotalCost() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalCost
}

// Remaining returns what is left of the budget, or a very large amount
// when unlimited.
func (b *Tracker) Remaining() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxBudget.IsZero() {
		return unlimited
	}
	return b.maxBudget.Sub(b.totalCost)
}

// Exhausted reports whether the total cost has reached maxBudget.
// Always false when unlimited.
func (b *Tracker) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxBudget.IsZero() {
		return false
	}
	return b.totalCost.GreaterThanOrEqual(b.maxBudget)
}
