package entity

import (
	"path/filepath"
	"strings"
	"time"
)

// Document is a successfully extracted page: a markdown rendering plus
// the metadata the extraction service detected.
type Document struct {
	Title       string
	SourceURL   string
	Markdown    string
	Description string
	Language    string
	FetchedAt   time.Time
}

// Frontmatter is the YAML header written ahead of each persisted
// markdown document and read back by the knowledge-base importer.
type Frontmatter struct {
	Title       string `yaml:"title"`
	SourceURL   string `yaml:"source_url"`
	Domain      string `yaml:"domain"`
	CrawlDate   string `yaml:"crawl_date"`
	Description string `yaml:"description,omitempty"`
	Language    string `yaml:"language,omitempty"`
}

// StoredDocument is a crawled document as read back from disk.
type StoredDocument struct {
	Path        string
	Frontmatter Frontmatter
	Body        string
}

// Name returns the document name used for knowledge-base upserts:
// the detected title, or the filename stem when the title is empty.
func (d *StoredDocument) Name() string {
	if d.Frontmatter.Title != "" {
		return d.Frontmatter.Title
	}
	return strings.TrimSuffix(filepath.Base(d.Path), ".md")
}
