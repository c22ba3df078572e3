package score

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/checkmate/internal/model"
)

func evidenceWith(texts []string, scores []float64) []model.EvidenceSource {
	out := make([]model.EvidenceSource, len(texts))
	for i, t := range texts {
		out[i] = model.EvidenceSource{MatchedText: t}
		if scores != nil {
			out[i].Similarity = model.Similarity(scores[i])
		}
	}
	return out
}

func matched(evidence []model.EvidenceSource) []string {
	out := make([]string, len(evidence))
	for i, e := range evidence {
		out[i] = e.MatchedText
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name   string
		texts  []string
		scores []float64
		limit  int
		want   []string
	}{
		{
			name:   "descending and truncated",
			texts:  []string{"a", "b", "c", "d", "e"},
			scores: []float64{10, 90, 50, 70, 30},
			limit:  3,
			want:   []string{"b", "d", "c"},
		},
		{
			name:   "ties keep input order",
			texts:  []string{"a", "b", "c"},
			scores: []float64{50, 80, 50},
			limit:  3,
			want:   []string{"b", "a", "c"},
		},
		{
			name:  "unscored keeps input order",
			texts: []string{"a", "b", "c", "d"},
			limit: 3,
			want:  []string{"a", "b", "c"},
		},
		{
			name:   "fewer than limit",
			texts:  []string{"a"},
			scores: []float64{12},
			limit:  3,
			want:   []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := evidenceWith(tt.texts, tt.scores)
			got := Rank(in, tt.limit)

			if diff := cmp.Diff(tt.want, matched(got)); diff != "" {
				t.Errorf("Rank mismatch (-want +got):\n%s", diff)
			}
			if len(got) > model.MaxEvidence {
				t.Errorf("Rank returned %d entries", len(got))
			}
			if matched(in)[0] != tt.texts[0] {
				t.Error("Rank modified its input")
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	in := evidenceWith([]string{"a", "b", "c", "d"}, nil)

	if got := Truncate(in, 3); len(got) != 3 {
		t.Errorf("Truncate(4, 3) = %d entries", len(got))
	}
	if got := Truncate(in, 0); got == nil || len(got) != 0 {
		t.Errorf("Truncate(4, 0) = %v", got)
	}
}

func TestSummarize(t *testing.T) {
	review := func(rating string) []model.Review { return []model.Review{{Rating: rating}} }

	results := []model.VerificationResult{
		model.Placeholder("Yes."),
		{Claim: model.NewClaim("a"), Evidence: []model.EvidenceSource{{Method: model.MethodClaimDatabase, Review: review("False")}}},
		{Claim: model.NewClaim("b"), Evidence: []model.EvidenceSource{{Method: model.MethodFactCheckRegistry, Review: review("False")}}},
		{Claim: model.NewClaim("c"), Evidence: []model.EvidenceSource{{Method: model.MethodWebSearchReview, Review: review("")}}},
		{Claim: model.NewClaim("d"), Evidence: []model.EvidenceSource{}},
	}

	got := Summarize(results)

	want := Summary{
		Results:      5,
		Claims:       4,
		Verified:     3,
		Unverifiable: 1,
		ByMethod: map[model.Method]int{
			model.MethodClaimDatabase:     1,
			model.MethodFactCheckRegistry: 1,
			model.MethodWebSearchReview:   1,
		},
		Ratings: []RatingCount{{Rating: "False", Count: 2}, {Rating: model.None, Count: 1}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}
