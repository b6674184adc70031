package tipparse

// Dedupe collapses records to a unique set keyed by the full field tuple
// (key, period label, percentage, value), keeping first-seen order.
// Repeated hover passes over the same data point produce identical
// records, so duplicates are the norm, not a defect. Idempotent.
func Dedupe(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := r.identity()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
