package dify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asterovim/jina-reader-crawler/internal/entity"
)

func testSettings() DatasetSettings {
	return DatasetSettings{
		Name:                   "Test KB",
		Description:            "test knowledge base",
		EmbeddingModel:         "mistral-embed",
		EmbeddingModelProvider: "mistralai",
		IndexingTechnique:      "high_quality",
		Permission:             "only_me",
		SearchMethod:           "hybrid_search",
		TopK:                   2,
		ScoreThresholdEnabled:  true,
		ScoreThreshold:         0.7,
		Weights:                0.7,
	}
}

func TestCreateDataset(t *testing.T) {
	var createBody, patchBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer dify-key", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/datasets":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
			w.Write([]byte(`{"id":"ds-123"}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/v1/datasets/ds-123":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patchBody))
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "dify-key", "", testSettings())
	id, err := c.CreateDataset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ds-123", id)

	assert.Equal(t, "Test KB", createBody["name"])
	assert.Equal(t, "high_quality", createBody["indexing_technique"])
	assert.Equal(t, "mistral-embed", createBody["embedding_model"])

	model, ok := patchBody["retrieval_model"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hybrid_search", model["search_method"])
	assert.Equal(t, "weighted_score", model["reranking_mode"])
	weights, ok := model["weights"].(map[string]any)
	require.True(t, ok)
	vector, ok := weights["vector_setting"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.7, vector["vector_weight"], 1e-9)
	keyword, ok := weights["keyword_setting"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.3, keyword["keyword_weight"], 1e-9)
}

func TestEnsureMetadataFields(t *testing.T) {
	var createdNames []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/datasets/ds-1/metadata", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"doc_metadata":[{"id":"f-1","name":"source_url","type":"string"}]}`))
		case http.MethodPost:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			createdNames = append(createdNames, body["name"])
			w.Write([]byte(`{"id":"f-` + body["name"] + `"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "ds-1", testSettings())
	ids, err := c.EnsureMetadataFields(context.Background(), []entity.MetadataField{
		{Name: "source_url", Type: "string"},
		{Name: "domain", Type: "string"},
	})
	require.NoError(t, err)

	// Existing field reused, missing one created.
	assert.Equal(t, []string{"domain"}, createdNames)
	assert.Equal(t, "f-1", ids["source_url"])
	assert.Equal(t, "f-domain", ids["domain"])
}

func TestFindDocumentByNamePaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/datasets/ds-1/documents", r.URL.Path)
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(`{"data":[{"id":"d-1","name":"First"}],"has_more":true}`))
		case "2":
			w.Write([]byte(`{"data":[{"id":"d-2","name":"Second"}],"has_more":false}`))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "ds-1", testSettings())

	id, err := c.FindDocumentByName(context.Background(), "Second")
	require.NoError(t, err)
	assert.Equal(t, "d-2", id)

	id, err = c.FindDocumentByName(context.Background(), "Missing")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestCreateDocumentByText(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/datasets/ds-1/document/create-by-text", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"document":{"id":"d-9"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "ds-1", testSettings())
	id, err := c.CreateDocumentByText(context.Background(), "My Page", "# My Page")
	require.NoError(t, err)
	assert.Equal(t, "d-9", id)

	assert.Equal(t, "My Page", body["name"])
	assert.Equal(t, "hierarchical_model", body["doc_form"])
	rule, ok := body["process_rule"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hierarchical", rule["mode"])
	rules, ok := rule["rules"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "full-doc", rules["parent_mode"])
	sub, ok := rules["subchunk_segmentation"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 512, sub["max_tokens"])
	assert.EqualValues(t, 50, sub["chunk_overlap"])
}

func TestAssignMetadata(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/datasets/ds-1/documents/metadata", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "ds-1", testSettings())
	err := c.AssignMetadata(context.Background(), "d-9", []entity.MetadataValue{
		{FieldID: "f-1", Name: "source_url", Value: "https://example.com"},
	})
	require.NoError(t, err)

	ops, ok := body["operation_data"].([]any)
	require.True(t, ok)
	require.Len(t, ops, 1)
	op, ok := ops[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "d-9", op["document_id"])
}

func TestCallRetriesServerErrors(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":[],"has_more":false}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "ds-1", testSettings())
	_, err := c.FindDocumentByName(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestCallDoesNotRetryClientErrors(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid request"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "ds-1", testSettings())
	_, err := c.FindDocumentByName(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, 1, attempts)
}
