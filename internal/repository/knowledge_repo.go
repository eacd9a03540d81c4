package repository

import (
	"context"

	"github.com/Asterovim/jina-reader-crawler/internal/entity"
)

// KnowledgeBaseRepository defines the contract for the downstream
// knowledge-base service that crawled documents are imported into.
type KnowledgeBaseRepository interface {
	// CreateDataset creates a knowledge base using the configured
	// embedding and retrieval settings and returns its ID.
	CreateDataset(ctx context.Context) (string, error)
	// UseDataset points subsequent document operations at a dataset.
	UseDataset(datasetID string)
	// EnsureMetadataFields creates any missing metadata fields and
	// returns the full name-to-ID mapping.
	EnsureMetadataFields(ctx context.Context, fields []entity.MetadataField) (map[string]string, error)
	// FindDocumentByName returns the ID of an existing document with
	// the given name, or an empty string when none exists.
	FindDocumentByName(ctx context.Context, name string) (string, error)
	// DeleteDocument removes an existing document.
	DeleteDocument(ctx context.Context, documentID string) error
	// CreateDocumentByText uploads a document body and returns its ID.
	CreateDocumentByText(ctx context.Context, name, text string) (string, error)
	// AssignMetadata attaches metadata values to an uploaded document.
	AssignMetadata(ctx context.Context, documentID string, values []entity.MetadataValue) error
}
