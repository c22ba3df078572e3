package model

// Claim is a checkable assertion quoted from a transcript
type Claim struct {
	Text           string `json:"text"`                      // Exact excerpt from the transcript
	Context        string `json:"context,omitempty"`         // Preceding sentences, if known
	OriginSentence string `json:"origin_sentence,omitempty"` // Sentence the claim was detected in
}

// NewClaim creates a bare claim with no context
func NewClaim(text string) Claim {
	return Claim{Text: text}
}

// VerificationResult is the unit returned per claim
type VerificationResult struct {
	Claim    Claim            `json:"claim"`
	Evidence []EvidenceSource `json:"evidence"`
}

// Verified reports whether any source corroborated or refuted the claim
func (r VerificationResult) Verified() bool {
	return len(r.Evidence) > 0
}

// Placeholder returns the empty result emitted for sentences that carry no claim
func Placeholder(sentence string) VerificationResult {
	return VerificationResult{
		Claim:    Claim{Text: "", OriginSentence: sentence},
		Evidence: []EvidenceSource{},
	}
}
