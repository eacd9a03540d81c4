package utils

import (
	"net/url"
	"strings"
)

// DocumentFilename derives the on-disk markdown filename for a page URL,
// following the {domain}_{path}.md convention: the www. prefix is
// stripped, path separators become underscores, and an empty path maps
// to "index".
func DocumentFilename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "index.md"
	}

	domain := strings.TrimPrefix(parsed.Host, "www.")
	path := strings.Trim(parsed.Path, "/")
	path = strings.ReplaceAll(path, "/", "_")
	if path == "" {
		path = "index"
	}

	return domain + "_" + path + ".md"
}

// Domain returns the host of a URL with any www. prefix stripped.
// Returns an empty string for unparseable input.
func Domain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

// TitleSlug converts a page title into a directory-safe slug: lowercase,
// alphanumeric runs joined by single hyphens. Titles that reduce to
// nothing slug as "untitled" so duplicate archive paths stay valid.
func TitleSlug(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}
