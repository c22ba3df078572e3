// Package pipeline turns a transcript into a dataset of verification results.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ppiankov/checkmate/internal/logging"
	"github.com/ppiankov/checkmate/internal/model"
	"github.com/ppiankov/checkmate/internal/verify"
	"github.com/ppiankov/checkmate/internal/worker"
)

const (
	// MinSentenceWords is the word count at or below which a sentence is
	// not sent to the detector
	MinSentenceWords = 3

	// ContextSentences is how many preceding sentences accompany a sentence
	ContextSentences = 5

	// DefaultWorkers bounds concurrent claim verifications
	DefaultWorkers = 4
)

// Mode selects how a transcript is split before detection
type Mode int

const (
	WholeTranscript Mode = iota // Detect over the full text at once
	PerSentence                 // Detect sentence by sentence with context
)

func (m Mode) String() string {
	if m == PerSentence {
		return "sentence"
	}
	return "whole"
}

// ParseMode reads a mode name; blank means WholeTranscript
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "whole", "transcript", "whole_transcript":
		return WholeTranscript, nil
	case "sentence", "sentences", "per_sentence":
		return PerSentence, nil
	default:
		return WholeTranscript, fmt.Errorf("unknown mode %q (supported: whole, sentence)", s)
	}
}

// Detector extracts checkable claims from text
type Detector interface {
	DetectTranscript(ctx context.Context, transcript string) []string
	DetectSentence(ctx context.Context, sentence, preceding string) []string
}

// Segmenter splits a transcript into sentences
type Segmenter interface {
	Segment(transcript string) []string
	WordCount(sentence string) int
}

// ClaimVerifier resolves one claim under a strategy
type ClaimVerifier interface {
	Verify(ctx context.Context, claim model.Claim, strategy verify.Strategy) model.VerificationResult
}

// Pipeline orchestrates detection and verification of a transcript
type Pipeline struct {
	detector  Detector
	segmenter Segmenter
	verifier  ClaimVerifier
	workers   int
	logger    *log.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithWorkers sets the number of claims verified concurrently
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.OrDiscard(l).WithPrefix("pipeline")
	}
}

// New creates a pipeline
func New(detector Detector, segmenter Segmenter, verifier ClaimVerifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		detector:  detector,
		segmenter: segmenter,
		verifier:  verifier,
		workers:   DefaultWorkers,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// slot is one entry of the output dataset: either a placeholder or a
// claim waiting for verification
type slot struct {
	placeholder *model.VerificationResult
	claim       model.Claim
}

// Run detects claims in transcript and verifies each one. The dataset is
// ordered by detection order, or by sentence order in PerSentence mode.
func (p *Pipeline) Run(ctx context.Context, transcript string, mode Mode, strategy verify.Strategy) []model.VerificationResult {
	logger := p.logger.With("run", uuid.NewString(), "mode", mode, "strategy", strategy)
	start := time.Now()

	var slots []slot
	if mode == PerSentence {
		slots = p.sentenceSlots(ctx, transcript)
	} else {
		for _, text := range p.detector.DetectTranscript(ctx, transcript) {
			slots = append(slots, slot{claim: model.NewClaim(text)})
		}
	}

	var claims []model.Claim
	for _, s := range slots {
		if s.placeholder == nil {
			claims = append(claims, s.claim)
		}
	}
	logger.Info("claims detected", "entries", len(slots), "claims", len(claims))

	verified := p.verify(ctx, claims, strategy, logger)

	results := make([]model.VerificationResult, 0, len(slots))
	next := 0
	for _, s := range slots {
		if s.placeholder != nil {
			results = append(results, *s.placeholder)
			continue
		}
		results = append(results, verified[next])
		next++
	}

	logger.Info("run finished", "results", len(results), "took", time.Since(start).Round(time.Millisecond))
	return results
}

// VerifyClaims verifies an explicit list of claims, preserving input order
func (p *Pipeline) VerifyClaims(ctx context.Context, claims []model.Claim, strategy verify.Strategy) []model.VerificationResult {
	logger := p.logger.With("run", uuid.NewString(), "strategy", strategy)
	return p.verify(ctx, claims, strategy, logger)
}

func (p *Pipeline) sentenceSlots(ctx context.Context, transcript string) []slot {
	sentences := p.segmenter.Segment(transcript)

	var slots []slot
	for i, sentence := range sentences {
		if p.segmenter.WordCount(sentence) <= MinSentenceWords {
			placeholder := model.Placeholder(sentence)
			slots = append(slots, slot{placeholder: &placeholder})
			continue
		}

		preceding := strings.Join(sentences[max(0, i-ContextSentences):i], " ")
		found := p.detector.DetectSentence(ctx, sentence, preceding)
		if len(found) == 0 {
			placeholder := model.Placeholder(sentence)
			slots = append(slots, slot{placeholder: &placeholder})
			continue
		}

		for _, text := range found {
			slots = append(slots, slot{claim: model.Claim{
				Text:           text,
				Context:        preceding,
				OriginSentence: sentence,
			}})
		}
	}
	return slots
}

func (p *Pipeline) verify(ctx context.Context, claims []model.Claim, strategy verify.Strategy, logger *log.Logger) []model.VerificationResult {
	processor := worker.NewBatchProcessor(boundVerifier{verifier: p.verifier, strategy: strategy}, p.workers)

	out := make([]model.VerificationResult, len(claims))
	for i, r := range processor.ProcessClaims(ctx, claims) {
		if r.Error != nil {
			logger.Warn("claim skipped", "claim", claims[i].Text, "err", r.Error)
		}
		out[i] = r.Result
	}
	return out
}

// boundVerifier fixes the strategy so the claim verifier fits the worker pool
type boundVerifier struct {
	verifier ClaimVerifier
	strategy verify.Strategy
}

func (b boundVerifier) Verify(ctx context.Context, claim model.Claim) model.VerificationResult {
	return b.verifier.Verify(ctx, claim, b.strategy)
}
