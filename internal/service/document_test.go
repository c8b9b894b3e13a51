package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/ingest"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/repository"
)

// memoryDocRepo is an in-memory DocumentRepository for service tests.
type memoryDocRepo struct {
	docs map[uuid.UUID]*repository.Document
}

func newMemoryDocRepo() *memoryDocRepo {
	return &memoryDocRepo{docs: map[uuid.UUID]*repository.Document{}}
}

func (r *memoryDocRepo) Create(_ context.Context, doc *repository.Document) error {
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *memoryDocRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doc, nil
}

func (r *memoryDocRepo) GetByHash(_ context.Context, hash string) (*repository.Document, error) {
	for _, doc := range r.docs {
		if doc.ContentHash == hash {
			return doc, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryDocRepo) List(_ context.Context, status string, limit, offset int) ([]*repository.Document, int, error) {
	out := make([]*repository.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		if status == "" || doc.Status == status {
			out = append(out, doc)
		}
	}
	return out, len(out), nil
}

func (r *memoryDocRepo) Update(_ context.Context, doc *repository.Document) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *memoryDocRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

func newTestDocumentService() (*DocumentService, *memoryDocRepo) {
	repo := newMemoryDocRepo()
	pipeline := ingest.NewPipeline(repo, &fakeEmbedder{}, &fakeVectorStore{}, ingest.NewChunker(ingest.ChunkerConfig{}), nil)
	return NewDocumentService(repo, pipeline), repo
}

func TestDocumentService_Ingest(t *testing.T) {
	svc, repo := newTestDocumentService()

	doc, err := svc.Ingest(context.Background(), IngestRequest{
		Title:     "UU Ketenagakerjaan",
		LawNumber: "UU 13/2003",
		Year:      2003,
		Content:   "Pasal 1\nKetentuan umum mengenai tenaga kerja.",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if doc.Status != repository.StatusIndexed {
		t.Errorf("status = %q, expected %q", doc.Status, repository.StatusIndexed)
	}
	if _, err := repo.GetByID(context.Background(), doc.ID); err != nil {
		t.Errorf("document not in registry: %v", err)
	}
}

func TestDocumentService_IngestValidation(t *testing.T) {
	svc, _ := newTestDocumentService()

	if _, err := svc.Ingest(context.Background(), IngestRequest{Content: "Pasal 1"}); err == nil {
		t.Error("expected error for missing title")
	}
	if _, err := svc.Ingest(context.Background(), IngestRequest{Title: "UU"}); err == nil {
		t.Error("expected error for missing content")
	}
}

func TestDocumentService_GetMissing(t *testing.T) {
	svc, _ := newTestDocumentService()

	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentService_Delete(t *testing.T) {
	svc, repo := newTestDocumentService()

	doc, err := svc.Ingest(context.Background(), IngestRequest{
		Title:   "UU Ketenagakerjaan",
		Content: "Pasal 1\nKetentuan umum.",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if err := svc.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), doc.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected record gone, got %v", err)
	}

	if err := svc.Delete(context.Background(), doc.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("deleting a missing document: expected ErrNotFound, got %v", err)
	}
}
