// Package repository defines the domain model and data access interface for
// the legal document registry.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Document statuses.
const (
	StatusPending = "pending"
	StatusIndexed = "indexed"
	StatusFailed  = "failed"
)

// Document represents one legal document registered in the corpus
// (undang-undang, peraturan pemerintah, peraturan menteri, and similar).
type Document struct {
	ID           uuid.UUID
	Title        string
	LawNumber    string // e.g. "UU 13/2003"
	Year         int
	Source       string // URL or archive reference of the official text
	ContentHash  string
	ChunkCount   int
	Status       string
	ErrorMessage string
	Metadata     map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DocumentRepository defines operations for document persistence
type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	GetByHash(ctx context.Context, hash string) (*Document, error)
	List(ctx context.Context, status string, limit, offset int) ([]*Document, int, error)
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id uuid.UUID) error
}
