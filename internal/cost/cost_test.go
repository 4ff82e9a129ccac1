package cost

import (
	"math"
	"sync"
	"testing"

	"backlog/internal/config"
)

func TestAccountantSummary(t *testing.T) {
	a := NewAccountant()
	a.Add(1_000_000, 200_000)
	a.Add(500_000, 0)
	a.Add(-10, -5)

	s := a.Summary(Pricing{InputPerMillion: 0.5, OutputPerMillion: 3})
	if s.Requests != 3 {
		t.Fatalf("Requests = %d, want 3", s.Requests)
	}
	if s.InputTokens != 1_500_000 || s.OutputTokens != 200_000 {
		t.Fatalf("unexpected tokens: %+v", s)
	}
	if math.Abs(s.InputCost-0.75) > 1e-9 || math.Abs(s.OutputCost-0.6) > 1e-9 {
		t.Fatalf("unexpected costs: %+v", s)
	}
	if math.Abs(s.EstimatedCost-1.35) > 1e-9 {
		t.Fatalf("EstimatedCost = %v, want 1.35", s.EstimatedCost)
	}
}

func TestAccountantEmpty(t *testing.T) {
	s := NewAccountant().Summary(Pricing{InputPerMillion: 1, OutputPerMillion: 1})
	if s != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
	var nilAccountant *Accountant
	nilAccountant.Add(1, 1)
	if nilAccountant.Summary(Pricing{}) != (Summary{}) {
		t.Fatal("nil accountant should report zero")
	}
}

func TestAccountantConcurrentAdds(t *testing.T) {
	a := NewAccountant()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Add(10, 2)
		}()
	}
	wg.Wait()
	s := a.Summary(Pricing{})
	if s.Requests != 50 || s.InputTokens != 500 || s.OutputTokens != 100 {
		t.Fatalf("unexpected summary after concurrent adds: %+v", s)
	}
}

func TestPricingFromConfig(t *testing.T) {
	p := PricingFromConfig(config.Pricing{InputPerMillion: 0.25, OutputPerMillion: 1.5})
	if p.InputPerMillion != 0.25 || p.OutputPerMillion != 1.5 {
		t.Fatalf("unexpected pricing %+v", p)
	}
}
