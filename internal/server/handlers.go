package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/repository"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/reranker"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/service"
)

// Searcher is the query-side service consumed by the API.
type Searcher interface {
	Search(ctx context.Context, query string, opts service.SearchOptions) ([]reranker.RankedCandidate, error)
	SearchBatch(ctx context.Context, queries []string, opts service.SearchOptions) ([][]reranker.RankedCandidate, error)
}

// DocumentManager is the registry-side service consumed by the API.
type DocumentManager interface {
	Ingest(ctx context.Context, req service.IngestRequest) (*repository.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*repository.Document, error)
	List(ctx context.Context, status string, limit, offset int) ([]*repository.Document, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handlers holds the HTTP handlers for all API endpoints. The rerank
// endpoints expose the reranker directly over caller-supplied candidates;
// the search endpoints run the full retrieve-then-rerank path.
type Handlers struct {
	search       Searcher
	documents    DocumentManager
	reranker     reranker.Reranker
	defaultAlpha float64
}

// NewHandlers creates the handler set.
func NewHandlers(search Searcher, documents DocumentManager, rr reranker.Reranker, defaultAlpha float64) *Handlers {
	return &Handlers{
		search:       search,
		documents:    documents,
		reranker:     rr,
		defaultAlpha: defaultAlpha,
	}
}

type searchRequest struct {
	Query    string   `json:"query"`
	TopK     int      `json:"top_k,omitempty"`
	MinScore float32  `json:"min_score,omitempty"`
	Alpha    *float64 `json:"alpha,omitempty"`
}

type searchBatchRequest struct {
	Queries  []string `json:"queries"`
	TopK     int      `json:"top_k,omitempty"`
	MinScore float32  `json:"min_score,omitempty"`
	Alpha    *float64 `json:"alpha,omitempty"`
}

type candidatePayload struct {
	ID             string            `json:"id"`
	Text           string            `json:"text"`
	RetrievalScore float64           `json:"retrieval_score"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type rerankRequest struct {
	Query      string             `json:"query"`
	Candidates []candidatePayload `json:"candidates"`
	Alpha      *float64           `json:"alpha,omitempty"`
}

type rerankBatchRequest struct {
	Items []rerankRequest `json:"items"`
	Alpha *float64        `json:"alpha,omitempty"`
}

type rankedPayload struct {
	ID             string            `json:"id"`
	Text           string            `json:"text"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	RetrievalScore float64           `json:"retrieval_score"`
	RelevanceScore float64           `json:"relevance_score"`
	FinalScore     float64           `json:"final_score"`
}

type resultsResponse struct {
	Results []rankedPayload `json:"results"`
}

type batchResultsResponse struct {
	Results [][]rankedPayload `json:"results"`
}

// Search handles POST /v1/search.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	ranked, err := h.search.Search(r.Context(), req.Query, service.SearchOptions{
		TopK:     req.TopK,
		MinScore: req.MinScore,
		Alpha:    req.Alpha,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resultsResponse{Results: toRankedPayloads(ranked)})
}

// SearchBatch handles POST /v1/search/batch.
func (h *Handlers) SearchBatch(w http.ResponseWriter, r *http.Request) {
	var req searchBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Queries) == 0 {
		respondError(w, http.StatusBadRequest, "queries is required")
		return
	}

	results, err := h.search.SearchBatch(r.Context(), req.Queries, service.SearchOptions{
		TopK:     req.TopK,
		MinScore: req.MinScore,
		Alpha:    req.Alpha,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([][]rankedPayload, len(results))
	for i, ranked := range results {
		out[i] = toRankedPayloads(ranked)
	}
	respondJSON(w, http.StatusOK, batchResultsResponse{Results: out})
}

// Rerank handles POST /v1/rerank: rerank caller-supplied candidates without
// touching the retrieval index.
func (h *Handlers) Rerank(w http.ResponseWriter, r *http.Request) {
	var req rerankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	alpha := h.defaultAlpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}

	ranked, err := h.reranker.Rerank(r.Context(), req.Query, toCandidates(req.Candidates), alpha)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resultsResponse{Results: toRankedPayloads(ranked)})
}

// RerankBatch handles POST /v1/rerank/batch.
func (h *Handlers) RerankBatch(w http.ResponseWriter, r *http.Request) {
	var req rerankBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "items is required")
		return
	}

	alpha := h.defaultAlpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}

	items := make([]reranker.BatchItem, len(req.Items))
	for i, item := range req.Items {
		if item.Query == "" {
			respondError(w, http.StatusBadRequest, "every item needs a query")
			return
		}
		items[i] = reranker.BatchItem{
			Query:      item.Query,
			Candidates: toCandidates(item.Candidates),
		}
	}

	results, err := h.reranker.RerankBatch(r.Context(), items, alpha)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([][]rankedPayload, len(results))
	for i, ranked := range results {
		out[i] = toRankedPayloads(ranked)
	}
	respondJSON(w, http.StatusOK, batchResultsResponse{Results: out})
}

type documentPayload struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	LawNumber    string            `json:"law_number,omitempty"`
	Year         int               `json:"year,omitempty"`
	Source       string            `json:"source,omitempty"`
	ChunkCount   int               `json:"chunk_count"`
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type ingestDocumentRequest struct {
	Title     string            `json:"title"`
	LawNumber string            `json:"law_number,omitempty"`
	Year      int               `json:"year,omitempty"`
	Source    string            `json:"source,omitempty"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type listDocumentsResponse struct {
	Documents []documentPayload `json:"documents"`
	Total     int               `json:"total"`
}

// IngestDocument handles POST /v1/documents.
func (h *Handlers) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	doc, err := h.documents.Ingest(r.Context(), service.IngestRequest{
		Title:     req.Title,
		LawNumber: req.LawNumber,
		Year:      req.Year,
		Source:    req.Source,
		Content:   req.Content,
		Metadata:  req.Metadata,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toDocumentPayload(doc))
}

// GetDocument handles GET /v1/documents/{id}.
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := h.documents.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toDocumentPayload(doc))
}

// ListDocuments handles GET /v1/documents.
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := r.URL.Query().Get("status")

	docs, total, err := h.documents.List(r.Context(), status, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	payloads := make([]documentPayload, len(docs))
	for i, doc := range docs {
		payloads[i] = toDocumentPayload(doc)
	}
	respondJSON(w, http.StatusOK, listDocumentsResponse{Documents: payloads, Total: total})
}

// DeleteDocument handles DELETE /v1/documents/{id}.
func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.documents.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toCandidates(payloads []candidatePayload) []reranker.Candidate {
	candidates := make([]reranker.Candidate, len(payloads))
	for i, p := range payloads {
		candidates[i] = reranker.Candidate{
			ID:             p.ID,
			Text:           p.Text,
			RetrievalScore: p.RetrievalScore,
			Metadata:       p.Metadata,
		}
	}
	return candidates
}

func toRankedPayloads(ranked []reranker.RankedCandidate) []rankedPayload {
	payloads := make([]rankedPayload, len(ranked))
	for i, rc := range ranked {
		payloads[i] = rankedPayload{
			ID:             rc.ID,
			Text:           rc.Text,
			Metadata:       rc.Metadata,
			RetrievalScore: rc.RetrievalScore,
			RelevanceScore: rc.RelevanceScore,
			FinalScore:     rc.FinalScore,
		}
	}
	return payloads
}

func toDocumentPayload(doc *repository.Document) documentPayload {
	return documentPayload{
		ID:           doc.ID.String(),
		Title:        doc.Title,
		LawNumber:    doc.LawNumber,
		Year:         doc.Year,
		Source:       doc.Source,
		ChunkCount:   doc.ChunkCount,
		Status:       doc.Status,
		ErrorMessage: doc.ErrorMessage,
		Metadata:     doc.Metadata,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors to HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reranker.ErrInvalidAlpha):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, "document not found")
	case errors.Is(err, context.Canceled):
		// Client went away; 499 in nginx terms, 408 is the closest standard.
		respondError(w, http.StatusRequestTimeout, "request canceled")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
