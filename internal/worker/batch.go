package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/checkmate/internal/model"
)

// Verifier resolves evidence for a single claim
type Verifier interface {
	Verify(ctx context.Context, claim model.Claim) model.VerificationResult
}

// VerifyJob represents one claim verification
type VerifyJob struct {
	Claim    model.Claim
	Verifier Verifier
}

// Execute executes the verification job. A cancelled context skips the
// claim and yields empty evidence.
func (j *VerifyJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &VerifyResult{
			Result: model.VerificationResult{Claim: j.Claim, Evidence: []model.EvidenceSource{}},
			Error:  err,
		}
	}
	return &VerifyResult{Result: j.Verifier.Verify(ctx, j.Claim)}
}

// VerifyResult represents the result of a verification job
type VerifyResult struct {
	Result model.VerificationResult
	Error  error
}

// GetError returns the error from the verification result
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many claims concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessClaims verifies claims concurrently. The output has the same
// length and order as the input.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []model.Claim) []*VerifyResult {
	if len(claims) == 0 {
		return []*VerifyResult{}
	}

	jobs := make([]Job, len(claims))
	for i, claim := range claims {
		jobs[i] = &VerifyJob{Claim: claim, Verifier: b.verifier}
	}

	results := NewPool(b.concurrency).Run(ctx, jobs)

	out := make([]*VerifyResult, len(results))
	for i, result := range results {
		out[i] = result.(*VerifyResult)
	}
	return out
}

// ReadLinesFromFile reads one entry per line, skipping blanks and # comments
// and dropping duplicates while keeping first-seen order
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
