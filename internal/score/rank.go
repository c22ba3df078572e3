// Package score ranks evidence and summarises verification runs.
package score

import (
	"sort"

	"github.com/ppiankov/checkmate/internal/model"
)

// Truncate keeps at most limit entries. A non-positive limit keeps none.
func Truncate(evidence []model.EvidenceSource, limit int) []model.EvidenceSource {
	if limit <= 0 {
		return []model.EvidenceSource{}
	}
	if len(evidence) > limit {
		return evidence[:limit]
	}
	return evidence
}

// Rank orders evidence by similarity, highest first, and truncates to
// limit. Entries with equal similarity keep their input order and entries
// without a similarity score sort as zero. The input is not modified.
func Rank(evidence []model.EvidenceSource, limit int) []model.EvidenceSource {
	ranked := make([]model.EvidenceSource, len(evidence))
	copy(ranked, evidence)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})

	return Truncate(ranked, limit)
}
