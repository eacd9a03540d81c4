// Package fs persists crawl artifacts as markdown files with YAML
// frontmatter, plus the run-level report files.
package fs

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Asterovim/jina-reader-crawler/internal/entity"
	"github.com/Asterovim/jina-reader-crawler/pkg/utils"
)

const (
	duplicatesDirName  = "duplicates"
	failedURLsFilename = "failed_urls.txt"
	summaryFilename    = "crawl_summary.txt"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Store writes crawl output under a single result directory and reads
// it back for the import step. It implements repository.SinkRepository
// and repository.CrawlResultRepository.
type Store struct {
	root string
}

// NewStore creates a file store rooted at dir, for example
// "crawl-result/my-site".
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the result directory.
func (s *Store) Root() string {
	return s.root
}

// WriteDocument persists a primary document and returns its path.
func (s *Store) WriteDocument(ctx context.Context, doc *entity.Document) (string, error) {
	path := filepath.Join(s.root, utils.DocumentFilename(doc.SourceURL))
	if err := s.writeMarkdown(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// WriteDuplicate archives a repeated document under
// duplicates/{titleSlug}/ and returns its path.
func (s *Store) WriteDuplicate(ctx context.Context, doc *entity.Document, titleSlug string) (string, error) {
	path := filepath.Join(s.root, duplicatesDirName, titleSlug, utils.DocumentFilename(doc.SourceURL))
	if err := s.writeMarkdown(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// writeMarkdown renders frontmatter plus body and writes the file,
// creating parent directories as needed.
func (s *Store) writeMarkdown(path string, doc *entity.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}

	fm := entity.Frontmatter{
		Title:       doc.Title,
		SourceURL:   doc.SourceURL,
		Domain:      utils.Domain(doc.SourceURL),
		CrawlDate:   doc.FetchedAt.Format(time.RFC3339),
		Description: doc.Description,
		Language:    doc.Language,
	}
	header, err := yaml.Marshal(&fm)
	if err != nil {
		return fmt.Errorf("encode frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(doc.Markdown)
	if !strings.HasSuffix(doc.Markdown, "\n") {
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), filePerm); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	return nil
}

// AppendFailedURL records a terminally failed URL with its reason. The
// file is created with a header on first use.
func (s *Store) AppendFailedURL(ctx context.Context, url, reason string) error {
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}

	path := filepath.Join(s.root, failedURLsFilename)
	_, statErr := os.Stat(path)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("open failed-URL list: %w", err)
	}
	defer f.Close()

	if os.IsNotExist(statErr) {
		if _, err := fmt.Fprintf(f, "# URLs that failed after all retry attempts\n"); err != nil {
			return fmt.Errorf("write failed-URL header: %w", err)
		}
	}

	reason = strings.ReplaceAll(reason, "\n", " ")
	if _, err := fmt.Fprintf(f, "%s\t%s\n", url, reason); err != nil {
		return fmt.Errorf("append failed URL: %w", err)
	}
	return nil
}

// WriteSummary persists the run-level report.
func (s *Store) WriteSummary(ctx context.Context, summary *entity.RunSummary) error {
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Crawl Summary\n")
	fmt.Fprintf(&b, "=============\n\n")
	fmt.Fprintf(&b, "Run ID:        %s\n", summary.RunID)
	fmt.Fprintf(&b, "Started:       %s\n", summary.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Elapsed:       %s\n\n", summary.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "Total targets: %d\n", summary.TotalTargets)
	if summary.StartIndex > 1 {
		fmt.Fprintf(&b, "Start index:   %d (skipped %d)\n", summary.StartIndex, summary.StartIndex-1)
	}
	fmt.Fprintf(&b, "Attempted:     %d\n", summary.Attempted)
	fmt.Fprintf(&b, "Succeeded:     %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "Duplicates:    %d\n", summary.Duplicates)
	fmt.Fprintf(&b, "Failed:        %d\n", summary.Failed)
	if summary.Unprocessed > 0 {
		fmt.Fprintf(&b, "Unprocessed:   %d (time budget reached)\n", summary.Unprocessed)
	}
	fmt.Fprintf(&b, "Success rate:  %.1f%%\n", summary.SuccessRate())

	path := filepath.Join(s.root, summaryFilename)
	if err := os.WriteFile(path, []byte(b.String()), filePerm); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

// ListDocuments reads the primary markdown documents back from the
// result directory. Report files and the duplicates archive are not
// listed.
func (s *Store) ListDocuments(ctx context.Context) ([]entity.StoredDocument, error) {
	matches, err := filepath.Glob(filepath.Join(s.root, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("scan result directory: %w", err)
	}

	docs := make([]entity.StoredDocument, 0, len(matches))
	for _, path := range matches {
		doc, err := readStoredDocument(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// readStoredDocument parses a persisted markdown file back into its
// frontmatter and body. Files without a frontmatter fence are returned
// with an empty header and the full content as body.
func readStoredDocument(path string) (*entity.StoredDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}

	doc := &entity.StoredDocument{Path: path}

	content := string(raw)
	if !strings.HasPrefix(content, "---\n") {
		doc.Body = strings.TrimSpace(content)
		return doc, nil
	}

	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		doc.Body = strings.TrimSpace(content)
		return doc, nil
	}

	if err := yaml.Unmarshal([]byte(rest[:end]), &doc.Frontmatter); err != nil {
		return nil, fmt.Errorf("parse frontmatter of %s: %w", path, err)
	}

	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	doc.Body = strings.TrimSpace(body)
	return doc, nil
}

// ReadFailedURLs returns the URLs recorded as terminally failed, for
// operator inspection. Missing file means no failures.
func (s *Store) ReadFailedURLs() ([]string, error) {
	f, err := os.Open(filepath.Join(s.root, failedURLsFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open failed-URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		url, _, _ := strings.Cut(line, "\t")
		urls = append(urls, url)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan failed-URL list: %w", err)
	}
	return urls, nil
}
