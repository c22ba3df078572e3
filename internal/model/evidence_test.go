package model

import (
	"errors"
	"testing"
)

func TestNormalizeReview(t *testing.T) {
	tests := []struct {
		name        string
		in          Review
		wantRating  string
		wantExtract string
	}{
		{"empty fields", Review{}, None, None},
		{"whitespace", Review{Rating: "  ", Extract: "\n"}, None, None},
		{"kept", Review{Rating: "False", Extract: "quote"}, "False", "quote"},
		{"trimmed", Review{Rating: " True ", Extract: " quote "}, "True", "quote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeReview(tt.in)
			if got.Rating != tt.wantRating {
				t.Errorf("Rating = %q, want %q", got.Rating, tt.wantRating)
			}
			if got.Extract != tt.wantExtract {
				t.Errorf("Extract = %q, want %q", got.Extract, tt.wantExtract)
			}
		})
	}
}

func TestSpeaker(t *testing.T) {
	cases := map[string]string{
		"":            UnknownSpeaker,
		"None":        UnknownSpeaker,
		"none":        UnknownSpeaker,
		" Joe Bloggs": "Joe Bloggs",
	}
	for in, want := range cases {
		if got := Speaker(in); got != want {
			t.Errorf("Speaker(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOutcome(t *testing.T) {
	if o := Found(nil); o.Status != StatusNotFound {
		t.Errorf("Found(nil) status = %v, want not_found", o.Status)
	}

	ev := []EvidenceSource{{Method: MethodClaimDatabase}}
	if o := Found(ev); o.Status != StatusFound || len(o.EvidenceOrEmpty()) != 1 {
		t.Errorf("Found(ev) = %+v", o)
	}

	failed := Failed(errors.New("boom"))
	if failed.Status != StatusFailed {
		t.Errorf("Failed status = %v", failed.Status)
	}
	if got := failed.EvidenceOrEmpty(); got == nil || len(got) != 0 {
		t.Errorf("Failed evidence = %v, want empty non-nil", got)
	}
	if Failed(nil).Err == nil {
		t.Error("Failed(nil) should carry an error")
	}
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder("Yes.")
	if p.Claim.Text != "" || p.Claim.OriginSentence != "Yes." {
		t.Errorf("unexpected claim: %+v", p.Claim)
	}
	if p.Evidence == nil || len(p.Evidence) != 0 {
		t.Errorf("expected empty evidence, got %v", p.Evidence)
	}
	if p.Verified() {
		t.Error("placeholder should not be verified")
	}
}
