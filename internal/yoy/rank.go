package yoy

import "sort"

// Rank keeps rows on the requested side of zero, orders them by descending
// priority and truncates to limit. Ties keep their input order and rows with
// a zero delta never appear. A non-positive limit yields an empty result.
func Rank(rows []ScoredRow, dir Direction, limit int) []ScoredRow {
	out := make([]ScoredRow, 0)
	if limit <= 0 {
		return out
	}
	for _, row := range rows {
		if dir.matches(row) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})
	if len(out) > limit {
		out = out[:limit:limit]
	}
	return out
}
