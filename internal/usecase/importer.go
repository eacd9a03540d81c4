package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Asterovim/jina-reader-crawler/internal/entity"
	"github.com/Asterovim/jina-reader-crawler/internal/repository"
)

// Importer drives the downstream bulk import of crawled documents into
// the knowledge-base service. Existing documents with the same name are
// replaced; individual failures are recorded and never halt the batch.
type Importer struct {
	kb           repository.KnowledgeBaseRepository
	results      repository.CrawlResultRepository
	datasetID    string
	euCompliance bool
	pause        time.Duration
}

// NewImporter creates an import orchestrator. An empty datasetID means
// a new knowledge base is created at the start of the run. When
// euCompliance is set, the language metadata field is skipped: the EU
// extraction endpoint does not return it.
func NewImporter(
	kb repository.KnowledgeBaseRepository,
	results repository.CrawlResultRepository,
	datasetID string,
	euCompliance bool,
	pause time.Duration,
) *Importer {
	return &Importer{
		kb:           kb,
		results:      results,
		datasetID:    datasetID,
		euCompliance: euCompliance,
		pause:        pause,
	}
}

// metadataFields returns the fields ensured before importing.
func (i *Importer) metadataFields() []entity.MetadataField {
	fields := []entity.MetadataField{
		{Name: "source_url", Type: "string"},
		{Name: "domain", Type: "string"},
		{Name: "crawl_date", Type: "time"},
		{Name: "description", Type: "string"},
	}
	if !i.euCompliance {
		fields = append(fields, entity.MetadataField{Name: "language", Type: "string"})
	}
	return fields
}

// Run imports every primary crawled document and returns the batch
// summary. It fails outright only when the dataset cannot be prepared
// or the crawl results cannot be read.
func (i *Importer) Run(ctx context.Context) (*entity.ImportSummary, error) {
	datasetID := i.datasetID
	if datasetID == "" {
		created, err := i.kb.CreateDataset(ctx)
		if err != nil {
			return nil, fmt.Errorf("create knowledge base: %w", err)
		}
		datasetID = created
		slog.Info("knowledge base created, set DIFY_DATASET_ID to reuse it",
			"dataset_id", datasetID)
	}
	i.kb.UseDataset(datasetID)

	fieldIDs, err := i.kb.EnsureMetadataFields(ctx, i.metadataFields())
	if err != nil {
		return nil, fmt.Errorf("ensure metadata fields: %w", err)
	}

	docs, err := i.results.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list crawl results: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no markdown documents found to import")
	}
	slog.Info("importing crawl results", "documents", len(docs), "dataset_id", datasetID)

	summary := &entity.ImportSummary{DatasetID: datasetID}

	for n := range docs {
		doc := &docs[n]
		if err := i.importDocument(ctx, doc, fieldIDs); err != nil {
			slog.Error("import failed", "path", doc.Path, "error", err)
			summary.Failed++
			summary.FailedPaths = append(summary.FailedPaths, doc.Path)
		} else {
			summary.Imported++
		}

		if n < len(docs)-1 {
			if err := sleepCtx(ctx, i.pause); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

// importDocument replaces any existing document of the same name, then
// uploads the body and assigns its metadata.
func (i *Importer) importDocument(ctx context.Context, doc *entity.StoredDocument, fieldIDs map[string]string) error {
	if doc.Body == "" {
		return fmt.Errorf("empty document body")
	}

	name := doc.Name()

	existingID, err := i.kb.FindDocumentByName(ctx, name)
	if err != nil {
		return fmt.Errorf("find existing document: %w", err)
	}
	if existingID != "" {
		slog.Info("replacing existing document", "name", name, "document_id", existingID)
		if err := i.kb.DeleteDocument(ctx, existingID); err != nil {
			return fmt.Errorf("delete existing document: %w", err)
		}
	}

	documentID, err := i.kb.CreateDocumentByText(ctx, name, doc.Body)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	values := metadataValues(doc, fieldIDs)
	if len(values) > 0 {
		if err := i.kb.AssignMetadata(ctx, documentID, values); err != nil {
			return fmt.Errorf("assign metadata: %w", err)
		}
	}

	slog.Info("document imported", "name", name, "document_id", documentID, "metadata_fields", len(values))
	return nil
}

// metadataValues maps frontmatter onto the ensured field IDs, skipping
// fields that are empty or were not provisioned.
func metadataValues(doc *entity.StoredDocument, fieldIDs map[string]string) []entity.MetadataValue {
	fm := doc.Frontmatter
	candidates := []struct {
		name  string
		value string
	}{
		{"source_url", fm.SourceURL},
		{"domain", fm.Domain},
		{"crawl_date", fm.CrawlDate},
		{"description", fm.Description},
		{"language", fm.Language},
	}

	var values []entity.MetadataValue
	for _, c := range candidates {
		id, ok := fieldIDs[c.name]
		if !ok || c.value == "" {
			continue
		}
		values = append(values, entity.MetadataValue{FieldID: id, Name: c.name, Value: c.value})
	}
	return values
}
