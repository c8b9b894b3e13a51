package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/ingest"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/repository"
)

// DocumentService manages the legal document registry and its index.
type DocumentService struct {
	docs     repository.DocumentRepository
	pipeline *ingest.Pipeline
}

// NewDocumentService creates a document service.
func NewDocumentService(docs repository.DocumentRepository, pipeline *ingest.Pipeline) *DocumentService {
	return &DocumentService{docs: docs, pipeline: pipeline}
}

// IngestRequest describes a document to register and index.
type IngestRequest struct {
	Title     string
	LawNumber string
	Year      int
	Source    string
	Content   string
	Metadata  map[string]string
}

// Ingest registers and indexes a new document.
func (s *DocumentService) Ingest(ctx context.Context, req IngestRequest) (*repository.Document, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if req.Content == "" {
		return nil, fmt.Errorf("content is required")
	}

	doc := &repository.Document{
		Title:     req.Title,
		LawNumber: req.LawNumber,
		Year:      req.Year,
		Source:    req.Source,
		Metadata:  req.Metadata,
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]string{}
	}

	if err := s.pipeline.Ingest(ctx, doc, req.Content); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get returns one document by ID.
func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (*repository.Document, error) {
	return s.docs.GetByID(ctx, id)
}

// List returns documents with pagination and an optional status filter.
func (s *DocumentService) List(ctx context.Context, status string, limit, offset int) ([]*repository.Document, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.docs.List(ctx, status, limit, offset)
}

// Delete removes a document and its indexed passages.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.docs.GetByID(ctx, id); err != nil {
		return err
	}
	return s.pipeline.Remove(ctx, id)
}
