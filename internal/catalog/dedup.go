package catalog

// Deduplicate drops every record whose composite key was already seen. The
// first occurrence wins and later duplicates are discarded without merging,
// even when they carry more data. It returns the kept records in input order
// and the number removed.
func Deduplicate(records []Record) ([]Record, int) {
	seen := make(map[Key]struct{}, len(records))
	kept := make([]Record, 0, len(records))
	for _, rec := range records {
		key := KeyOf(rec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, rec)
	}
	return kept, len(records) - len(kept)
}
