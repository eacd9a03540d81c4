package repository

import (
	"context"

	"github.com/Asterovim/jina-reader-crawler/internal/entity"
)

// SinkRepository defines the contract for persisting crawl artifacts.
// Every attempted target ends up in exactly one destination: the
// primary document set, the duplicates archive, or the failed-URL list.
type SinkRepository interface {
	// WriteDocument persists a primary document and returns its path.
	WriteDocument(ctx context.Context, doc *entity.Document) (string, error)
	// WriteDuplicate archives a repeated document under the duplicates
	// directory keyed by the slug of its title. The first occurrence is
	// never overwritten.
	WriteDuplicate(ctx context.Context, doc *entity.Document, titleSlug string) (string, error)
	// AppendFailedURL records a terminally failed URL with its reason.
	AppendFailedURL(ctx context.Context, url, reason string) error
	// WriteSummary persists the run-level report.
	WriteSummary(ctx context.Context, summary *entity.RunSummary) error
}

// CrawlResultRepository reads persisted crawl output back for the
// downstream knowledge-base import step.
type CrawlResultRepository interface {
	// ListDocuments returns the primary documents of a crawl-result
	// directory, report files and the duplicates archive excluded.
	ListDocuments(ctx context.Context) ([]entity.StoredDocument, error)
}
