package logging

import (
	"slices"
	"testing"
)

func TestProgressSamplerDefaultsStep(t *testing.T) {
	for _, step := range []float64{0, -5} {
		if s := NewProgressSampler(step); s.step != 10 {
			t.Errorf("NewProgressSampler(%v).step = %v, want 10", step, s.step)
		}
	}
}

func TestProgressSamplerLogsEachStep(t *testing.T) {
	s := NewProgressSampler(25)
	var logged []int
	for done := 1; done <= 8; done++ {
		if s.ShouldLog(done, 8) {
			logged = append(logged, done)
		}
	}
	// 12.5%, 25%, 50%, 75%, then the last item.
	if want := []int{1, 2, 4, 6, 8}; !slices.Equal(logged, want) {
		t.Fatalf("logged = %v, want %v", logged, want)
	}
}

func TestProgressSamplerLastItemOnce(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLog(3, 3) {
		t.Fatal("last item should log")
	}
	if s.ShouldLog(3, 3) {
		t.Fatal("last item should log only once")
	}
}

func TestProgressSamplerEdgeCases(t *testing.T) {
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(1, 10) {
		t.Error("nil sampler should always log")
	}
	if !NewProgressSampler(10).ShouldLog(0, 0) {
		t.Error("zero total should log")
	}
}
