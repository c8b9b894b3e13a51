package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/embedder"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/repository"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/vectorstore"
)

// Pipeline indexes legal documents: chunk, embed, upsert vectors, and record
// the document in the registry.
type Pipeline struct {
	docs    repository.DocumentRepository
	embed   embedder.Embedder
	vectors vectorstore.VectorStore
	chunker *Chunker
	logger  *slog.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(docs repository.DocumentRepository, embed embedder.Embedder, vectors vectorstore.VectorStore, chunker *Chunker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		docs:    docs,
		embed:   embed,
		vectors: vectors,
		chunker: chunker,
		logger:  logger,
	}
}

// Ingest registers and indexes one document. The document record is created
// as pending up front so failures stay visible in the registry; on success
// it flips to indexed with the final chunk count.
func (p *Pipeline) Ingest(ctx context.Context, doc *repository.Document, content string) error {
	hash := sha256.Sum256([]byte(content))
	doc.ContentHash = hex.EncodeToString(hash[:])

	if existing, err := p.docs.GetByHash(ctx, doc.ContentHash); err == nil {
		return fmt.Errorf("document already indexed as %s (%s)", existing.ID, existing.Title)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("checking content hash: %w", err)
	}

	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.Status = repository.StatusPending
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if err := p.docs.Create(ctx, doc); err != nil {
		return fmt.Errorf("creating document record: %w", err)
	}

	if err := p.index(ctx, doc, content); err != nil {
		doc.Status = repository.StatusFailed
		doc.ErrorMessage = err.Error()
		if updateErr := p.docs.Update(ctx, doc); updateErr != nil {
			p.logger.Error("failed to record indexing failure",
				"document_id", doc.ID, "error", updateErr)
		}
		return err
	}

	doc.Status = repository.StatusIndexed
	doc.ErrorMessage = ""
	if err := p.docs.Update(ctx, doc); err != nil {
		return fmt.Errorf("updating document record: %w", err)
	}

	p.logger.Info("document indexed",
		"document_id", doc.ID,
		"law_number", doc.LawNumber,
		"chunks", doc.ChunkCount,
	)
	return nil
}

func (p *Pipeline) index(ctx context.Context, doc *repository.Document, content string) error {
	chunks := p.chunker.Chunk(content)
	if len(chunks) == 0 {
		return fmt.Errorf("document produced no chunks")
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := p.embed.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}

	points := make([]vectorstore.Chunk, len(chunks))
	for i, chunk := range chunks {
		metadata := map[string]string{
			"title":       doc.Title,
			"law_number":  doc.LawNumber,
			"year":        strconv.Itoa(doc.Year),
			"source":      doc.Source,
			"chunk_index": strconv.Itoa(chunk.Index),
		}
		for k, v := range chunk.Metadata {
			metadata[k] = v
		}

		points[i] = vectorstore.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID.String(),
			Content:    chunk.Content,
			Vector:     vectors[i],
			Metadata:   metadata,
		}
	}

	if err := p.vectors.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upserting vectors: %w", err)
	}

	doc.ChunkCount = len(chunks)
	return nil
}

// Remove deletes a document's vectors and its registry record.
func (p *Pipeline) Remove(ctx context.Context, id uuid.UUID) error {
	if err := p.vectors.DeleteByDocument(ctx, id.String()); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	if err := p.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting document record: %w", err)
	}
	return nil
}
