// Package service orchestrates retrieval, reranking, and document management.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/embedder"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/reranker"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/vectorstore"
)

const (
	// retrievalOversample fetches extra retrieval candidates so the
	// reranker has headroom to reorder beyond the requested top-k.
	retrievalOversample = 3
)

// SearchOptions overrides per-request search behavior. Zero values fall back
// to the service defaults.
type SearchOptions struct {
	TopK     int
	MinScore float32
	Alpha    *float64
}

// SearchService answers queries against the indexed legal corpus: embed the
// query, retrieve nearest passages, then rerank them with the judge-fused
// ordering. Top-N selection happens here, after reranking.
type SearchService struct {
	embed    embedder.Embedder
	vectors  vectorstore.VectorStore
	reranker reranker.Reranker

	defaultTopK     int
	defaultMinScore float32
	defaultAlpha    float64
	logger          *slog.Logger
}

// SearchServiceConfig holds the service defaults.
type SearchServiceConfig struct {
	TopK     int
	MinScore float32
	Alpha    float64
	Logger   *slog.Logger
}

// NewSearchService creates a search service.
func NewSearchService(embed embedder.Embedder, vectors vectorstore.VectorStore, rr reranker.Reranker, cfg SearchServiceConfig) (*SearchService, error) {
	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		return nil, fmt.Errorf("%w: got %g", reranker.ErrInvalidAlpha, cfg.Alpha)
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 8
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &SearchService{
		embed:           embed,
		vectors:         vectors,
		reranker:        rr,
		defaultTopK:     cfg.TopK,
		defaultMinScore: cfg.MinScore,
		defaultAlpha:    cfg.Alpha,
		logger:          cfg.Logger,
	}, nil
}

// Search retrieves and reranks passages for one query.
func (s *SearchService) Search(ctx context.Context, query string, opts SearchOptions) ([]reranker.RankedCandidate, error) {
	topK, minScore, alpha := s.resolve(opts)

	start := time.Now()
	candidates, err := s.retrieve(ctx, query, topK, minScore)
	if err != nil {
		return nil, err
	}

	ranked, err := s.reranker.Rerank(ctx, query, candidates, alpha)
	if err != nil {
		return nil, fmt.Errorf("reranking: %w", err)
	}

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	s.logger.Debug("search complete",
		"query_len", len(query),
		"retrieved", len(candidates),
		"returned", len(ranked),
		"alpha", alpha,
		"duration", time.Since(start),
	)
	return ranked, nil
}

// SearchBatch answers several independent queries, preserving order. Each
// query retrieves its own candidates; the batch shares one rerank pass.
func (s *SearchService) SearchBatch(ctx context.Context, queries []string, opts SearchOptions) ([][]reranker.RankedCandidate, error) {
	topK, minScore, alpha := s.resolve(opts)

	items := make([]reranker.BatchItem, len(queries))
	for i, query := range queries {
		candidates, err := s.retrieve(ctx, query, topK, minScore)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		items[i] = reranker.BatchItem{Query: query, Candidates: candidates}
	}

	results, err := s.reranker.RerankBatch(ctx, items, alpha)
	if err != nil {
		return nil, fmt.Errorf("reranking batch: %w", err)
	}

	for i := range results {
		if len(results[i]) > topK {
			results[i] = results[i][:topK]
		}
	}
	return results, nil
}

// retrieve embeds the query and fetches first-pass candidates.
func (s *SearchService) retrieve(ctx context.Context, query string, topK int, minScore float32) ([]reranker.Candidate, error) {
	vector, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.vectors.Search(ctx, vector, topK*retrievalOversample, minScore)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}

	candidates := make([]reranker.Candidate, len(results))
	for i, result := range results {
		metadata := result.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["document_id"] = result.DocumentID

		candidates[i] = reranker.Candidate{
			ID:             result.ID,
			Text:           result.Content,
			RetrievalScore: float64(result.Score),
			Metadata:       metadata,
		}
	}
	return candidates, nil
}

func (s *SearchService) resolve(opts SearchOptions) (topK int, minScore float32, alpha float64) {
	topK = s.defaultTopK
	minScore = s.defaultMinScore
	alpha = s.defaultAlpha

	if opts.TopK > 0 {
		topK = opts.TopK
	}
	if opts.MinScore > 0 {
		minScore = opts.MinScore
	}
	if opts.Alpha != nil {
		alpha = *opts.Alpha
	}
	return topK, minScore, alpha
}
