package entity

// CrawlTarget is a single URL to crawl, with its 1-based position in the
// resolved sitemap order. Ordering is significant: it drives resume
// semantics (START_FROM_INDEX) and duplicate first-occurrence wins.
type CrawlTarget struct {
	URL   string
	Index int
}
