package enrich

import "backlog/internal/catalog"

// selectQueue returns the indices of records missing any enrichable field, in
// record order, truncated to limit when limit is positive.
func selectQueue(records []catalog.Record, limit int) []int {
	queue := make([]int, 0, len(records))
	for i := range records {
		if !records[i].NeedsEnrichment() {
			continue
		}
		queue = append(queue, i)
		if limit > 0 && len(queue) == limit {
			break
		}
	}
	return queue
}
