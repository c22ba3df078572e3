package score

import (
	"sort"

	"github.com/ppiankov/checkmate/internal/model"
)

// Summary aggregates a batch of verification results
type Summary struct {
	Results      int                  `json:"results"`      // Entries in the dataset, placeholders included
	Claims       int                  `json:"claims"`       // Entries carrying a claim
	Verified     int                  `json:"verified"`     // Claims with at least one evidence source
	Unverifiable int                  `json:"unverifiable"` // Claims nothing matched
	ByMethod     map[model.Method]int `json:"by_method"`    // Claims resolved per method
	Ratings      []RatingCount        `json:"ratings"`      // Ratings of the top evidence review, most common first
}

// RatingCount counts how often a rating was the top verdict
type RatingCount struct {
	Rating string `json:"rating"`
	Count  int    `json:"count"`
}

// Summarize counts outcomes across results. A claim is attributed to the
// method of its first evidence source since resolvers never mix methods.
func Summarize(results []model.VerificationResult) Summary {
	s := Summary{
		Results:  len(results),
		ByMethod: make(map[model.Method]int),
		Ratings:  []RatingCount{},
	}
	ratings := make(map[string]int)

	for _, r := range results {
		if r.Claim.Text == "" {
			continue
		}
		s.Claims++

		if !r.Verified() {
			s.Unverifiable++
			continue
		}
		s.Verified++

		top := r.Evidence[0]
		s.ByMethod[top.Method]++
		if len(top.Review) > 0 {
			ratings[model.OrNone(top.Review[0].Rating)]++
		}
	}

	for rating, n := range ratings {
		s.Ratings = append(s.Ratings, RatingCount{Rating: rating, Count: n})
	}
	sort.Slice(s.Ratings, func(i, j int) bool {
		if s.Ratings[i].Count != s.Ratings[j].Count {
			return s.Ratings[i].Count > s.Ratings[j].Count
		}
		return s.Ratings[i].Rating < s.Ratings[j].Rating
	})

	return s
}
