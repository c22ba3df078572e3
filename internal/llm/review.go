package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ppiankov/checkmate/internal/logging"
	"github.com/ppiankov/checkmate/internal/model"
)

const reviewSystemPrompt = `I will provide you with a news article and a statement. The statement may or may not be discussed in the article. Use the article to fact-check the statement.

First, find the passage of the article that relates to the statement and copy it exactly into "extract". The article may be irrelevant to the statement. If no relevant passage exists, set "extract" to "None".

Second, if a relevant passage was found, write one neutral sentence in "summary" describing what the passage says about whether the statement is true. Do not add information that is not in the article. If no relevant passage was found, set "summary" to "None".

Third, if the article attributes the statement to a named person or organisation, put that name in "speaker". Otherwise set "speaker" to "None".`

var reviewSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"extract": {Type: jsonschema.String, Description: "Exact quote from the article relevant to the statement, or None"},
		"summary": {Type: jsonschema.String, Description: "One neutral sentence on what the extract says about the statement, or None"},
		"speaker": {Type: jsonschema.String, Description: "Who the article says made the statement, or None"},
	},
	Required:             []string{"extract", "summary", "speaker"},
	AdditionalProperties: false,
}

// ArticleReview is the generative review of one article against one claim.
// Every field holds text or the None sentinel.
type ArticleReview struct {
	Extract string `json:"extract"`
	Summary string `json:"summary"`
	Speaker string `json:"speaker"`
}

// NoneReview is the review used when nothing relevant was found
func NoneReview() ArticleReview {
	return ArticleReview{Extract: model.None, Summary: model.None, Speaker: model.None}
}

// Empty reports whether the review found neither an extract nor a summary
func (r ArticleReview) Empty() bool {
	return model.IsNone(r.Extract) && model.IsNone(r.Summary)
}

func (r ArticleReview) normalize() ArticleReview {
	return ArticleReview{
		Extract: model.OrNone(r.Extract),
		Summary: model.OrNone(r.Summary),
		Speaker: model.OrNone(r.Speaker),
	}
}

// Reviewer asks a provider to judge articles against claims
type Reviewer struct {
	provider Provider
	logger   *log.Logger
}

// NewReviewer creates a new article reviewer
func NewReviewer(provider Provider, logger *log.Logger) *Reviewer {
	return &Reviewer{
		provider: provider,
		logger:   logging.OrDiscard(logger).WithPrefix("review"),
	}
}

// Review judges articleText against claim. It always returns a usable review:
// empty text, a refusal or an unusable answer all give NoneReview. The error
// is set only for transport and decoding failures so callers can log them.
func (r *Reviewer) Review(ctx context.Context, claim, articleText string) (ArticleReview, error) {
	if strings.TrimSpace(articleText) == "" {
		return NoneReview(), nil
	}

	resp, err := r.provider.Generate(ctx, StructuredRequest{
		System:     reviewSystemPrompt,
		Prompt:     fmt.Sprintf("Here is the input statement: %q\n\nHere is the input article:\n%s", claim, articleText),
		SchemaName: "article_review",
		Schema:     reviewSchema,
	})
	if err != nil {
		return NoneReview(), err
	}
	if resp.Refused {
		r.logger.Debug("review refused", "provider", r.provider.Name())
		return NoneReview(), nil
	}

	var review ArticleReview
	if err := resp.Decode(&review); err != nil {
		return NoneReview(), err
	}
	return review.normalize(), nil
}
