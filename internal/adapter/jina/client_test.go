package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asterovim/jina-reader-crawler/internal/repository"
)

func readerPayload(title, content, warning string) string {
	resp := map[string]any{
		"warning": warning,
		"data": map[string]string{
			"title":       title,
			"description": "a description",
			"url":         "https://example.com/page",
			"content":     content,
			"lang":        "en",
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestExtractSuccess(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(readerPayload("My Page", "# My Page\n\nBody.", "")))
	}))
	defer srv.Close()

	c := NewClient(Options{
		BaseURL:         srv.URL,
		APIKey:          "jina-key",
		RemoveSelector:  "nav,footer",
		WaitForSelector: "#content",
	})

	doc, err := c.Extract(context.Background(), "https://example.com/page")
	require.NoError(t, err)

	assert.Equal(t, "My Page", doc.Title)
	assert.Equal(t, "https://example.com/page", doc.SourceURL)
	assert.Equal(t, "# My Page\n\nBody.", doc.Markdown)
	assert.Equal(t, "a description", doc.Description)
	assert.Equal(t, "en", doc.Language)
	assert.False(t, doc.FetchedAt.IsZero())

	assert.Equal(t, "https://example.com/page", gotBody["url"])
	assert.Equal(t, "application/json", gotHeaders.Get("Accept"))
	assert.Equal(t, "browser", gotHeaders.Get("X-Engine"))
	assert.Equal(t, "false", gotHeaders.Get("X-Retain-Images"))
	assert.Equal(t, "30", gotHeaders.Get("X-Timeout"))
	assert.Equal(t, "Bearer jina-key", gotHeaders.Get("Authorization"))
	assert.Equal(t, "nav,footer", gotHeaders.Get("X-Remove-Selector"))
	assert.Equal(t, "#content", gotHeaders.Get("X-Wait-For-Selector"))
	assert.Empty(t, gotHeaders.Get("X-No-Cache"))
}

func TestExtractStatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found is terminal", http.StatusNotFound, repository.ErrContentRestricted},
		{"forbidden is terminal", http.StatusForbidden, repository.ErrContentRestricted},
		{"rate limited is retriable", http.StatusTooManyRequests, repository.ErrServerBusy},
		{"server error is retriable", http.StatusServiceUnavailable, repository.ErrServerBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(Options{BaseURL: srv.URL})
			_, err := c.Extract(context.Background(), "https://example.com/page")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtractConnectionError(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Extract(context.Background(), "https://example.com/page")
	require.ErrorIs(t, err, repository.ErrConnection)
}

func TestExtractMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	_, err := c.Extract(context.Background(), "https://example.com/page")
	require.ErrorIs(t, err, repository.ErrBadResponse)
}

func TestExtractEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(readerPayload("Title Only", "", "")))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	_, err := c.Extract(context.Background(), "https://example.com/page")
	require.ErrorIs(t, err, repository.ErrEmptyContent)
}

func TestExtractRefetchesCachedSnapshot(t *testing.T) {
	var requests []http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Header.Clone())
		if len(requests) == 1 {
			w.Write([]byte(readerPayload("My Page", "stale body", "This is a cached snapshot of the original page")))
			return
		}
		w.Write([]byte(readerPayload("My Page", "fresh body", "")))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	doc, err := c.Extract(context.Background(), "https://example.com/page")
	require.NoError(t, err)

	require.Len(t, requests, 2)
	assert.Empty(t, requests[0].Get("X-No-Cache"))
	assert.Equal(t, "true", requests[1].Get("X-No-Cache"))
	assert.Equal(t, "fresh body", doc.Markdown)
}

func TestExtractPersistentCachedSnapshotFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(readerPayload("My Page", "stale body", "cached snapshot")))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	_, err := c.Extract(context.Background(), "https://example.com/page")
	require.ErrorIs(t, err, repository.ErrBadResponse)
}

func TestExtractNoCacheOptionSkipsRefetch(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		assert.Equal(t, "true", r.Header.Get("X-No-Cache"))
		w.Write([]byte(readerPayload("My Page", "body", "cached snapshot")))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, NoCache: true})
	doc, err := c.Extract(context.Background(), "https://example.com/page")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "body", doc.Markdown)
}

func TestExtractFallsBackToRequestURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"title":"T","content":"body","url":""}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	doc, err := c.Extract(context.Background(), "https://example.com/original")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/original", doc.SourceURL)
}
