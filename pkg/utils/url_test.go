package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentFilename(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "root path maps to index",
			url:  "https://example.com/",
			want: "example.com_index.md",
		},
		{
			name: "www prefix stripped",
			url:  "https://www.example.com/docs/intro",
			want: "example.com_docs_intro.md",
		},
		{
			name: "nested path separators become underscores",
			url:  "https://example.com/a/b/c",
			want: "example.com_a_b_c.md",
		},
		{
			name: "trailing slash ignored",
			url:  "https://example.com/docs/",
			want: "example.com_docs.md",
		},
		{
			name: "unparseable URL falls back to index",
			url:  "://bad",
			want: "index.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentFilename(tt.url))
		})
	}
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", Domain("https://www.example.com/page"))
	assert.Equal(t, "example.com", Domain("https://example.com"))
	assert.Equal(t, "", Domain("://bad"))
}

func TestTitleSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple title", "Getting Started", "getting-started"},
		{"punctuation collapsed", "FAQ: What's New?", "faq-what-s-new"},
		{"surrounding whitespace", "  Hello World  ", "hello-world"},
		{"digits kept", "Release 2.1", "release-2-1"},
		{"empty title", "", "untitled"},
		{"symbols only", "!!!", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleSlug(tt.title))
		})
	}
}
