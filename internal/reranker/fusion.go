package reranker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultJudgeTimeout bounds each individual judge call.
	DefaultJudgeTimeout = 20 * time.Second

	// DefaultMaxConcurrency is the default number of in-flight judge calls
	// per Rerank invocation.
	DefaultMaxConcurrency = 4
)

// ErrInvalidAlpha is returned when the fusion weight is outside [0,1].
// Alpha is caller-controlled configuration, so this is reported rather than
// silently clamped.
var ErrInvalidAlpha = errors.New("fusion weight alpha must be in [0,1]")

// FusionReranker orders candidates by a weighted blend of the retrieval
// score and an LLM relevance judgment. It is stateless across calls; the
// only shared resource is the injected Judge.
type FusionReranker struct {
	judge          Judge
	judgeTimeout   time.Duration
	maxConcurrency int
	logger         *slog.Logger
}

// Option is a functional option for configuring FusionReranker.
type Option func(*FusionReranker)

// WithJudgeTimeout sets the per-candidate judge call timeout.
func WithJudgeTimeout(d time.Duration) Option {
	return func(r *FusionReranker) {
		r.judgeTimeout = d
	}
}

// WithMaxConcurrency sets the maximum number of concurrent judge calls per
// Rerank invocation.
func WithMaxConcurrency(n int) Option {
	return func(r *FusionReranker) {
		r.maxConcurrency = n
	}
}

// WithLogger sets the logger used for degraded-path reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *FusionReranker) {
		r.logger = logger
	}
}

// New creates a FusionReranker around the given judge.
func New(judge Judge, opts ...Option) (*FusionReranker, error) {
	if judge == nil {
		return nil, errors.New("reranker: judge is required")
	}

	r := &FusionReranker{
		judge:          judge,
		judgeTimeout:   DefaultJudgeTimeout,
		maxConcurrency: DefaultMaxConcurrency,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.judgeTimeout <= 0 {
		return nil, fmt.Errorf("reranker: judge timeout must be positive, got %v", r.judgeTimeout)
	}
	if r.maxConcurrency <= 0 {
		return nil, fmt.Errorf("reranker: max concurrency must be positive, got %d", r.maxConcurrency)
	}

	return r, nil
}

// Rerank scores every candidate against the query and returns the full set
// reordered by fused score. Judge calls run concurrently up to the
// configured limit; scores are collected positionally before sorting, so
// the output ordering never depends on call completion order.
func (r *FusionReranker) Rerank(ctx context.Context, query string, candidates []Candidate, alpha float64) ([]RankedCandidate, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidAlpha, alpha)
	}
	if len(candidates) == 0 {
		return []RankedCandidate{}, nil
	}

	relevance := make([]float64, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrency)
	for i, cand := range candidates {
		g.Go(func() error {
			score, err := r.judgeCandidate(gctx, query, cand)
			if err != nil {
				return err
			}
			relevance[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Only caller cancellation reaches here; judge failures are
		// absorbed per candidate.
		return nil, err
	}

	ranked := make([]RankedCandidate, len(candidates))
	for i, cand := range candidates {
		relevanceNorm, err := Normalize(relevance[i], JudgeScaleMin, JudgeScaleMax)
		if err != nil {
			return nil, err
		}
		// The retrieval score arrives normalized already; running it
		// through the identity domain clamps strays into [0,1].
		retrievalNorm, err := Normalize(cand.RetrievalScore, 0, 1)
		if err != nil {
			return nil, err
		}
		final, err := Fuse(relevanceNorm, retrievalNorm, alpha)
		if err != nil {
			return nil, err
		}

		ranked[i] = RankedCandidate{
			ID:             cand.ID,
			Text:           cand.Text,
			Metadata:       copyMetadata(cand.Metadata),
			RetrievalScore: cand.RetrievalScore,
			RelevanceScore: relevance[i],
			FinalScore:     final,
		}
	}

	// Stable sort: equal fused scores keep their retrieval-stage order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	return ranked, nil
}

// RerankBatch reranks each (query, candidates) item in order. Items are
// independent: a judge meltdown while scoring one item degrades only that
// item's ordering.
func (r *FusionReranker) RerankBatch(ctx context.Context, items []BatchItem, alpha float64) ([][]RankedCandidate, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidAlpha, alpha)
	}

	results := make([][]RankedCandidate, len(items))
	for i, item := range items {
		ranked, err := r.Rerank(ctx, item.Query, item.Candidates, alpha)
		if err != nil {
			return nil, err
		}
		results[i] = ranked
	}

	return results, nil
}

// judgeCandidate obtains a relevance score for one candidate under the
// per-call timeout. Any judge failure or out-of-range value yields
// NeutralScore. The returned error is non-nil only when the caller's
// context is done, which aborts the whole Rerank call.
func (r *FusionReranker) judgeCandidate(ctx context.Context, query string, cand Candidate) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.judgeTimeout)
	defer cancel()

	score, err := r.judge.Score(callCtx, query, cand.Text)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		r.logger.Warn("judge call failed, using neutral score",
			"candidate_id", cand.ID,
			"error", err,
		)
		return NeutralScore, nil
	}

	if score < JudgeScaleMin || score > JudgeScaleMax {
		r.logger.Warn("judge score out of range, using neutral score",
			"candidate_id", cand.ID,
			"score", score,
		)
		return NeutralScore, nil
	}

	return score, nil
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Ensure FusionReranker implements Reranker.
var _ Reranker = (*FusionReranker)(nil)
