package model

import (
	"fmt"
	"strings"
)

const (
	// None marks an absent rating, extract or speaker
	None = "None"

	// UnknownSpeaker is used when a source does not attribute the claim
	UnknownSpeaker = "unknown"

	// MaxEvidence is the number of evidence entries kept per claim
	MaxEvidence = 3
)

// Method identifies which resolver produced a piece of evidence
type Method string

const (
	MethodClaimDatabase     Method = "claim_database"      // Embedding-indexed store of checked claims
	MethodFactCheckRegistry Method = "fact_check_registry" // Structured claim-review registry
	MethodWebSearchReview   Method = "web_search_review"   // Open web search plus generative review
)

func (m Method) String() string {
	return string(m)
}

// EvidenceSource is one matched external item with its reviews
type EvidenceSource struct {
	Method         Method   `json:"method"`
	MatchedText    string   `json:"matched_text"`
	Speaker        string   `json:"speaker"`
	Similarity     *float64 `json:"similarity,omitempty"` // nil when not computed
	PublishingDate string   `json:"publishing_date,omitempty"`
	Review         []Review `json:"review"`
}

// HasSimilarity reports whether a similarity score was computed
func (e EvidenceSource) HasSimilarity() bool {
	return e.Similarity != nil
}

// Score returns the similarity score, or 0 when not computed
func (e EvidenceSource) Score() float64 {
	if e.Similarity == nil {
		return 0
	}
	return *e.Similarity
}

// Publisher identifies who published a review
type Publisher struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Review is a single verdict on a matched claim or article
type Review struct {
	Publisher    Publisher `json:"publisher"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Rating       string    `json:"rating"`
	LanguageCode string    `json:"language_code"`
	Extract      string    `json:"extract"`
}

// Similarity wraps a score so it can be attached to an EvidenceSource
func Similarity(score float64) *float64 {
	return &score
}

// OrNone returns s trimmed, or None when s is blank
func OrNone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return None
	}
	return s
}

// IsNone reports whether s is blank or the None sentinel
func IsNone(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, None)
}

// Speaker normalises an attributed speaker, falling back to UnknownSpeaker
func Speaker(s string) string {
	if IsNone(s) {
		return UnknownSpeaker
	}
	return strings.TrimSpace(s)
}

// NormalizeReview enforces the sentinel on rating and extract
func NormalizeReview(r Review) Review {
	r.Rating = OrNone(r.Rating)
	r.Extract = OrNone(r.Extract)
	return r
}

// Status tags the outcome of a single resolver call
type Status int

const (
	StatusNotFound Status = iota // Resolver ran and found nothing
	StatusFound                  // Resolver produced evidence
	StatusFailed                 // Resolver could not complete
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one resolver call. It is collapsed to
// plain evidence at the orchestrator boundary.
type Outcome struct {
	Status   Status
	Evidence []EvidenceSource
	Err      error
}

// Found builds a successful outcome; empty evidence yields NotFound
func Found(evidence []EvidenceSource) Outcome {
	if len(evidence) == 0 {
		return NotFound()
	}
	return Outcome{Status: StatusFound, Evidence: evidence}
}

// NotFound builds an outcome for a resolver that ran and matched nothing
func NotFound() Outcome {
	return Outcome{Status: StatusNotFound}
}

// Failed builds an outcome for a resolver that could not complete
func Failed(err error) Outcome {
	if err == nil {
		err = fmt.Errorf("resolver failed")
	}
	return Outcome{Status: StatusFailed, Err: err}
}

// EvidenceOrEmpty collapses the outcome to a non-nil evidence slice
func (o Outcome) EvidenceOrEmpty() []EvidenceSource {
	if o.Status != StatusFound || o.Evidence == nil {
		return []EvidenceSource{}
	}
	return o.Evidence
}
