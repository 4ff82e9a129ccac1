package logging

import "math"

// ProgressSampler thins "processed i/n" lines to one per percentage step.
// It is not safe for concurrent use.
type ProgressSampler struct {
	step     float64
	next     float64
	finished bool
}

// NewProgressSampler logs every step percent; non-positive steps mean 10.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	return &ProgressSampler{step: step}
}

// ShouldLog reports whether done/total reached the next step. The last item
// logs exactly once. A nil sampler logs everything.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil || total <= 0 {
		return true
	}
	if done >= total {
		logged := !s.finished
		s.finished = true
		return logged
	}
	percent := float64(done) * 100 / float64(total)
	if percent < s.next {
		return false
	}
	s.next = (math.Floor(percent/s.step) + 1) * s.step
	return true
}
