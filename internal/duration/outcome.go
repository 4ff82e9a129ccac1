package duration

import "backlog/internal/services/hltb"

// Kind classifies how a record's lookup ended.
type Kind int

const (
	KindSkipped Kind = iota
	KindCacheHit
	KindFound
	KindNotFound
	KindLowSimilarity
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindSkipped:
		return "skipped"
	case KindCacheHit:
		return "cache_hit"
	case KindFound:
		return "found"
	case KindNotFound:
		return "not_found"
	case KindLowSimilarity:
		return "low_similarity"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of resolving one record. Candidate is set for Found
// and LowSimilarity; Err only for Failed.
type Outcome struct {
	Kind      Kind
	Reason    string
	Candidate *hltb.Candidate
	Err       error
}

// Tally counts outcomes by kind.
type Tally map[Kind]int

// Add records one outcome.
func (t Tally) Add(o Outcome) {
	t[o.Kind]++
}

// ExternalCalls returns the number of outcomes that reached the lookup service.
func (t Tally) ExternalCalls() int {
	return t[KindFound] + t[KindNotFound] + t[KindLowSimilarity] + t[KindFailed]
}
