// Package verify runs a claim through the resolvers a strategy selects.
package verify

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ppiankov/checkmate/internal/logging"
	"github.com/ppiankov/checkmate/internal/model"
)

// DefaultTimeout bounds a single resolver call
const DefaultTimeout = 45 * time.Second

// Resolver looks up evidence for a claim in one source
type Resolver interface {
	Method() model.Method
	Resolve(ctx context.Context, claim model.Claim) model.Outcome
}

// Orchestrator applies a strategy over the three resolvers
type Orchestrator struct {
	database Resolver
	registry Resolver
	web      Resolver
	timeout  time.Duration
	logger   *log.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithTimeout sets the per-resolver deadline
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.OrDiscard(l).WithPrefix("verify")
	}
}

// NewOrchestrator creates an orchestrator. A nil resolver is treated as
// one that never finds anything; pass an untyped nil, not a nil pointer.
func NewOrchestrator(database, registry, web Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		database: database,
		registry: registry,
		web:      web,
		timeout:  DefaultTimeout,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Verify resolves claim under strategy. It never fails: resolver errors and
// timeouts yield empty evidence.
func (o *Orchestrator) Verify(ctx context.Context, claim model.Claim, strategy Strategy) model.VerificationResult {
	result := model.VerificationResult{Claim: claim, Evidence: []model.EvidenceSource{}}

	var chain []Resolver
	switch strategy {
	case ClaimDatabaseOnly:
		chain = []Resolver{o.database}
	case RegistryOnly:
		chain = []Resolver{o.registry}
	case WebSearchOnly:
		chain = []Resolver{o.web}
	default:
		chain = []Resolver{o.database, o.registry, o.web}
	}

	for _, r := range chain {
		if evidence := o.run(ctx, r, claim).EvidenceOrEmpty(); len(evidence) > 0 {
			result.Evidence = evidence
			return result
		}
	}

	return result
}

// run calls one resolver under the per-resolver deadline. A resolver that
// overruns is abandoned and counted as failed.
func (o *Orchestrator) run(ctx context.Context, r Resolver, claim model.Claim) model.Outcome {
	if r == nil {
		return model.NotFound()
	}
	if err := ctx.Err(); err != nil {
		return model.Failed(err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan model.Outcome, 1)
	start := time.Now()
	go func() { done <- r.Resolve(ctx, claim) }()

	var outcome model.Outcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		outcome = model.Failed(ctx.Err())
	}

	fields := []any{
		"method", r.Method(),
		"status", outcome.Status,
		"evidence", len(outcome.Evidence),
		"took", time.Since(start).Round(time.Millisecond),
	}
	if outcome.Status == model.StatusFailed {
		o.logger.Warn("resolver failed", append(fields, "err", outcome.Err)...)
	} else {
		o.logger.Debug("resolver finished", fields...)
	}

	return outcome
}
