// Package reranker orders retrieved legal passages by fusing the retrieval
// engine's similarity score with an independent relevance judgment from an
// LLM judge.
//
// The retrieval stage scores a passage against the query embedding alone;
// the judge sees query and passage together, which catches passages that are
// lexically close but legally irrelevant (a common failure mode when many
// regulations share boilerplate wording). The final ordering blends both
// signals with a caller-chosen weight alpha.
//
// # Degradation
//
// Judge calls are remote and unreliable. A call that fails, times out, or
// returns an unusable value contributes the neutral midpoint score instead,
// so a broken judge degrades the ordering toward pure retrieval order rather
// than failing the request.
package reranker

import (
	"context"
)

// Candidate is one retrieved passage as handed over by the retrieval stage.
// RetrievalScore is expected to already be normalized to [0,1]; the reranker
// only reads candidates, never mutates them.
type Candidate struct {
	ID             string
	Text           string
	RetrievalScore float64
	Metadata       map[string]string
}

// RankedCandidate is the reranker's output for one candidate. It carries the
// original retrieval score, the raw judge score on the judge scale, and the
// fused final score used for ordering. Metadata is a copy; the caller owns
// the result.
type RankedCandidate struct {
	ID             string
	Text           string
	Metadata       map[string]string
	RetrievalScore float64
	RelevanceScore float64
	FinalScore     float64
}

// BatchItem pairs a query with its retrieved candidates for batch reranking.
type BatchItem struct {
	Query      string
	Candidates []Candidate
}

// Reranker defines the re-ranking contract.
type Reranker interface {
	// Rerank returns exactly one RankedCandidate per input candidate,
	// sorted by final score descending. Ties preserve input order.
	// alpha in [0,1] weights the judge score against the retrieval score;
	// values outside that range are rejected.
	Rerank(ctx context.Context, query string, candidates []Candidate, alpha float64) ([]RankedCandidate, error)

	// RerankBatch reranks each item independently and returns results in
	// the same order as the input. Judge failures in one item never affect
	// another.
	RerankBatch(ctx context.Context, items []BatchItem, alpha float64) ([][]RankedCandidate, error)
}
