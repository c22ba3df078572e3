package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ppiankov/checkmate/internal/logging"
)

const sentenceDetectionPrompt = `I will provide you with a single sentence from a transcript. Identify whether the sentence contains any factual claims, and extract them.

A claim is a checkable part of a sentence that can be determined to be true or false by gathering evidence from an external source. Claims can be about quantities (e.g. "GDP has risen by 5%"), about cause and effect (e.g. "this policy leads to economic growth"), or predictions about the future (e.g. "the economy will grow by 10%").

Identified claims should be an exact quote from the transcript. Only include relevant and substantial claims that are verifiable, not opinion or sarcasm.

I will also provide the sentences preceding the input sentence as context. If the claim refers to someone or something (e.g. "he said"), search backwards in the context to identify the subject being referenced (e.g. "Rishi Sunak") and replace the reference within the claim with the named subject.

Respond with an array of the claims extracted from the input sentence only. If no claims are found, return an empty array.

Example 1:
 * Input sentence: "I tell you Stephen, this year alone 10,000 people have crossed on boats, that's a record number, so again, he's made a promise and he's completely failed to keep it."
 * Output claims: ["this year alone, 10,000 people have crossed on boats"]

Example 2:
 * Input sentence: "We need to smash the gangs that are running this vile trade making a huge amount of money."
 * Output claims: []

Example 3:
 * Input sentence: "Donald Trump is unburdened by the truth. He said the neo nazi rally in Charlottesville was fabricated."
 * Output claims: ["Donald Trump said the neo nazi rally in Charlottesville was fabricated"]`

const transcriptDetectionPrompt = `I will provide you with a transcript. Extract the key factual claims from this transcript.

A claim is a factual statement and must be an exact quote from the transcript with no rewriting or summarisation. Only include relevant and substantial claims that are verifiable, not opinion or sarcasm.

Return the extracted claims in an array. If no claims are found, return an empty array.

Example output claims:
[
    "More Americans will die from drugs this year than were killed in the entire Vietnam war.",
    "We have now settled pay rises with everyone in the NHS except for the junior doctors.",
    "This year alone, 10,000 people have crossed on boats. That's a record number."
]`

var claimsSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"claims": {
			Type:  jsonschema.Array,
			Items: &jsonschema.Definition{Type: jsonschema.String},
		},
	},
	Required:             []string{"claims"},
	AdditionalProperties: false,
}

type detectedClaims struct {
	Claims []string `json:"claims"`
}

// ClaimDetector extracts checkable claims from transcript text
type ClaimDetector struct {
	provider Provider
	logger   *log.Logger
}

// NewClaimDetector creates a new claim detector
func NewClaimDetector(provider Provider, logger *log.Logger) *ClaimDetector {
	return &ClaimDetector{
		provider: provider,
		logger:   logging.OrDiscard(logger).WithPrefix("detect"),
	}
}

// DetectTranscript returns the claims found in a whole transcript.
// Any failure or refusal yields no claims.
func (d *ClaimDetector) DetectTranscript(ctx context.Context, transcript string) []string {
	return d.run(ctx, StructuredRequest{
		System:     transcriptDetectionPrompt,
		Prompt:     "This is the input transcript to extract claims from:\n" + transcript,
		SchemaName: "claims",
		Schema:     claimsSchema,
	})
}

// DetectSentence returns the claims found in one sentence, resolving
// references against the preceding sentences
func (d *ClaimDetector) DetectSentence(ctx context.Context, sentence, preceding string) []string {
	return d.run(ctx, StructuredRequest{
		System:     sentenceDetectionPrompt,
		Prompt:     fmt.Sprintf("This is the input sentence from a transcript to extract claims from:\n%s\n\nThis is the context of preceding sentences:\n%s", sentence, preceding),
		SchemaName: "claims",
		Schema:     claimsSchema,
	})
}

func (d *ClaimDetector) run(ctx context.Context, req StructuredRequest) []string {
	resp, err := d.provider.Generate(ctx, req)
	if err != nil {
		d.logger.Warn("claim detection failed", "provider", d.provider.Name(), "err", err)
		return []string{}
	}
	if resp.Refused {
		d.logger.Debug("claim detection refused", "provider", d.provider.Name())
		return []string{}
	}

	var out detectedClaims
	if err := resp.Decode(&out); err != nil {
		if errors.Is(err, ErrTruncated) {
			d.logger.Error("claim detection cut off, raise llm.max_tokens or use sentence mode",
				"provider", d.provider.Name(), "tokens", resp.TokensUsed)
			return []string{}
		}
		d.logger.Warn("claim detection unusable", "provider", d.provider.Name(), "err", err)
		return []string{}
	}

	claims := make([]string, 0, len(out.Claims))
	for _, c := range out.Claims {
		if c = strings.TrimSpace(c); c != "" {
			claims = append(claims, c)
		}
	}
	return claims
}
