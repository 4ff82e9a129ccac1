// Package cost tracks token usage reported by the classification service and
// turns it into an estimated spend for the run summary.
package cost

import (
	"sync"

	"backlog/internal/config"
)

// Pricing holds per-million-token prices.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// PricingFromConfig maps the [pricing] section onto Pricing.
func PricingFromConfig(cfg config.Pricing) Pricing {
	return Pricing{
		InputPerMillion:  cfg.InputPerMillion,
		OutputPerMillion: cfg.OutputPerMillion,
	}
}

// Summary is a point-in-time view of the accumulated usage.
type Summary struct {
	Requests      int
	InputTokens   int64
	OutputTokens  int64
	InputCost     float64
	OutputCost    float64
	EstimatedCost float64
}

// Accountant accumulates token usage. It is safe for concurrent use.
type Accountant struct {
	mu       sync.Mutex
	requests int
	input    int64
	output   int64
}

// NewAccountant returns an empty accountant.
func NewAccountant() *Accountant {
	return &Accountant{}
}

// Add records one request. Negative counts are treated as zero.
func (a *Accountant) Add(inputTokens, outputTokens int) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests++
	a.input += int64(max(inputTokens, 0))
	a.output += int64(max(outputTokens, 0))
}

// Summary prices the accumulated usage.
func (a *Accountant) Summary(p Pricing) Summary {
	if a == nil {
		return Summary{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		Requests:     a.requests,
		InputTokens:  a.input,
		OutputTokens: a.output,
		InputCost:    float64(a.input) / 1_000_000 * p.InputPerMillion,
		OutputCost:   float64(a.output) / 1_000_000 * p.OutputPerMillion,
	}
	s.EstimatedCost = s.InputCost + s.OutputCost
	return s
}
