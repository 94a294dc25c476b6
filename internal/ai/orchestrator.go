package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codescope/internal/analysis"
	"codescope/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Result is the product of one orchestration run: the payload from the first
// candidate that succeeded, tagged with that candidate.
type Result struct {
	Candidate Candidate
	Text      string           // raw model output
	Report    *analysis.Report // parsed record, set for structured tasks
	Attempts  []Outcome        // one entry per candidate tried, in order
}

// Orchestrator walks an injected, ordered roster of model candidates and
// returns the first usable result. Candidates are tried strictly one at a
// time; the walk runs to completion or exhaustion. There is no deadline
// across the whole walk - each generation call carries only its own
// transport timeout.
type Orchestrator struct {
	gen      Generator
	roster   []Candidate
	limiters []*rate.Limiter // parallel to roster; nil entries mean unlimited
	logger   *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithRateLimit installs a local token-bucket limiter in front of every
// candidate. An exhausted local bucket counts as a rate-limited attempt and
// advances the roster without calling the generation service.
func WithRateLimit(perMinute int, burst int) Option {
	return func(o *Orchestrator) {
		o.limiters = make([]*rate.Limiter, len(o.roster))
		for i := range o.roster {
			o.limiters[i] = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
		}
	}
}

// NewOrchestrator builds an orchestrator over a generation service and a
// non-empty candidate roster. The roster is copied; it is read-only for the
// orchestrator's lifetime.
func NewOrchestrator(gen Generator, roster []Candidate, opts ...Option) (*Orchestrator, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if len(roster) == 0 {
		return nil, errors.New("candidate roster must not be empty")
	}

	o := &Orchestrator{
		gen:    gen,
		roster: append([]Candidate(nil), roster...),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Roster returns a copy of the configured candidate list.
func (o *Orchestrator) Roster() []Candidate {
	return append([]Candidate(nil), o.roster...)
}

// Run executes one orchestration: candidates are tried in roster order and
// the first success wins - no quality comparison across candidates, no
// further calls once one succeeds. Every failure kind advances the roster;
// when all candidates fail the returned error wraps ErrRosterExhausted and
// carries the last failure observed.
func (o *Orchestrator) Run(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("request prompt must not be empty")
	}

	runID := req.ID
	if runID == "" {
		runID = uuid.New().String()
	}

	start := time.Now()
	defer func() {
		metrics.Get().AIWalkDuration.WithLabelValues(string(req.Shape)).Observe(time.Since(start).Seconds())
	}()

	attempts := make([]Outcome, 0, len(o.roster))
	var lastErr error

	for i, model := range o.roster {
		if i > 0 {
			metrics.Get().AIFallbacksTotal.WithLabelValues(string(o.roster[i-1])).Inc()
		}

		outcome, text, report := o.attempt(ctx, i, model, req)
		attempts = append(attempts, outcome)
		metrics.Get().AIAttemptsTotal.WithLabelValues(string(model), string(outcome.Kind)).Inc()

		switch outcome.Kind {
		case OutcomeSuccess:
			o.logger.Info("candidate succeeded",
				zap.String("run_id", runID),
				zap.String("model", string(model)),
				zap.Int("attempt", i+1),
				zap.Duration("duration", outcome.Duration))
			return &Result{
				Candidate: model,
				Text:      text,
				Report:    report,
				Attempts:  attempts,
			}, nil

		case OutcomeRateLimited:
			o.logger.Warn("candidate rate limited, advancing roster",
				zap.String("run_id", runID),
				zap.String("model", string(model)),
				zap.Error(outcome.Err))
			lastErr = outcome.Err

		case OutcomeSchemaInvalid:
			o.logger.Warn("candidate response failed schema, advancing roster",
				zap.String("run_id", runID),
				zap.String("model", string(model)),
				zap.Error(outcome.Err))
			lastErr = outcome.Err

		default:
			o.logger.Warn("candidate failed, advancing roster",
				zap.String("run_id", runID),
				zap.String("model", string(model)),
				zap.Error(outcome.Err))
			lastErr = outcome.Err
		}
	}

	metrics.Get().AIExhaustedTotal.Inc()
	o.logger.Error("roster exhausted",
		zap.String("run_id", runID),
		zap.Int("candidates", len(o.roster)),
		zap.Error(lastErr))
	return nil, fmt.Errorf("%w: last error: %v", ErrRosterExhausted, lastErr)
}

// attempt issues one generation call against a single candidate and
// classifies its outcome. For structured tasks a transport success that fails
// the schema contract is reported as OutcomeSchemaInvalid; the caller treats
// it exactly like a transport failure.
func (o *Orchestrator) attempt(ctx context.Context, idx int, model Candidate, req *Request) (Outcome, string, *analysis.Report) {
	start := time.Now()

	if o.limiters != nil && o.limiters[idx] != nil && !o.limiters[idx].Allow() {
		return Outcome{
			Candidate: model,
			Kind:      OutcomeRateLimited,
			Err:       fmt.Errorf("%w: local limiter for %s", ErrRateLimited, model),
			Duration:  time.Since(start),
		}, "", nil
	}

	text, err := o.gen.Generate(ctx, model, req.Prompt)
	if err != nil {
		kind := OutcomeTransportError
		if errors.Is(err, ErrRateLimited) {
			kind = OutcomeRateLimited
		}
		return Outcome{
			Candidate: model,
			Kind:      kind,
			Err:       err,
			Duration:  time.Since(start),
		}, "", nil
	}

	if req.Shape == ShapeStructured {
		report, parseErr := analysis.Parse(text)
		if parseErr != nil {
			return Outcome{
				Candidate: model,
				Kind:      OutcomeSchemaInvalid,
				Err:       fmt.Errorf("model %s: %w", model, parseErr),
				Duration:  time.Since(start),
			}, "", nil
		}
		return Outcome{
			Candidate: model,
			Kind:      OutcomeSuccess,
			Duration:  time.Since(start),
		}, text, report
	}

	return Outcome{
		Candidate: model,
		Kind:      OutcomeSuccess,
		Duration:  time.Since(start),
	}, text, nil
}
