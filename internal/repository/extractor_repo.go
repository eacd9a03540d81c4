package repository

import (
	"context"

	"github.com/Asterovim/jina-reader-crawler/internal/entity"
)

// ExtractorRepository defines the contract for the remote
// content-extraction service that turns a page URL into markdown.
type ExtractorRepository interface {
	// Extract fetches a cleaned markdown rendering of the page.
	// Failures are reported through the sentinel error taxonomy so the
	// fetch executor can classify them as retriable or terminal.
	Extract(ctx context.Context, pageURL string) (*entity.Document, error)
}
