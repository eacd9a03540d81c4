// Package dify implements the knowledge-base contract against the Dify
// datasets API.
package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/Asterovim/jina-reader-crawler/internal/entity"
)

// DatasetSettings holds the knowledge-base creation and retrieval
// configuration.
type DatasetSettings struct {
	Name                   string
	Description            string
	EmbeddingModel         string
	EmbeddingModelProvider string
	IndexingTechnique      string
	Permission             string
	SearchMethod           string
	TopK                   int
	ScoreThresholdEnabled  bool
	ScoreThreshold         float64
	RerankingEnabled       bool
	Weights                float64
}

// Client calls the Dify datasets API. It implements
// repository.KnowledgeBaseRepository. All calls go through a retry
// executor that backs off on transport errors, 5xx and rate limits.
type Client struct {
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	baseURL    string
	apiKey     string
	datasetID  string
	settings   DatasetSettings
}

// documentListPageSize matches the API's default page size.
const documentListPageSize = 20

// shouldRetry retries on network errors, server errors and rate limits.
func shouldRetry(resp *http.Response, err error) bool {
	if err != nil || resp == nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// NewClient creates a Dify client for the given dataset (may be empty
// until CreateDataset or UseDataset is called).
func NewClient(baseURL, apiKey, datasetID string, settings DatasetSettings) *Client {
	retry := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(500*time.Millisecond, 8*time.Second).
		WithJitterFactor(0.1).
		WithMaxRetries(3).
		HandleIf(func(resp *http.Response, err error) bool {
			return shouldRetry(resp, err)
		}).
		Build()

	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   failsafe.With(retry),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		datasetID:  datasetID,
		settings:   settings,
	}
}

// UseDataset points subsequent document operations at a dataset.
func (c *Client) UseDataset(datasetID string) {
	c.datasetID = datasetID
}

// retrievalModel builds the retrieval_model payload. Weighted hybrid
// search needs the embedding model spelled out per weight setting.
func (c *Client) retrievalModel(withWeights bool) map[string]any {
	s := c.settings

	model := map[string]any{
		"search_method":           s.SearchMethod,
		"reranking_enable":        s.RerankingEnabled,
		"top_k":                   s.TopK,
		"score_threshold_enabled": s.ScoreThresholdEnabled,
	}
	if s.ScoreThresholdEnabled {
		model["score_threshold"] = s.ScoreThreshold
	} else {
		model["score_threshold"] = nil
	}

	if !withWeights {
		return model
	}

	if s.SearchMethod == "hybrid_search" {
		model["reranking_mode"] = "weighted_score"
		vectorWeight := roundWeight(s.Weights)
		model["weights"] = map[string]any{
			"weight_type": "customized",
			"vector_setting": map[string]any{
				"vector_weight":           vectorWeight,
				"embedding_model_name":    s.EmbeddingModel,
				"embedding_provider_name": s.EmbeddingModelProvider,
			},
			"keyword_setting": map[string]any{
				"keyword_weight": roundWeight(1.0 - s.Weights),
			},
		}
	} else {
		model["reranking_mode"] = "reranking_model"
	}

	return model
}

// roundWeight avoids floating point noise in the weight split.
func roundWeight(w float64) float64 {
	return float64(int(w*100+0.5)) / 100
}

// CreateDataset creates the knowledge base and configures its
// retrieval model, returning the new dataset ID.
func (c *Client) CreateDataset(ctx context.Context) (string, error) {
	body := map[string]any{
		"name":                     c.settings.Name,
		"description":              c.settings.Description,
		"indexing_technique":       c.settings.IndexingTechnique,
		"permission":               c.settings.Permission,
		"provider":                 "vendor",
		"embedding_model":          c.settings.EmbeddingModel,
		"embedding_model_provider": c.settings.EmbeddingModelProvider,
		"retrieval_model":          c.retrievalModel(false),
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "/v1/datasets", body, &result); err != nil {
		return "", fmt.Errorf("create dataset: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("create dataset: response carried no id")
	}
	c.datasetID = result.ID

	// The create endpoint ignores weighted-score settings; patch them in.
	patch := map[string]any{"retrieval_model": c.retrievalModel(true)}
	if err := c.call(ctx, http.MethodPatch, "/v1/datasets/"+result.ID, patch, nil); err != nil {
		return "", fmt.Errorf("update retrieval model: %w", err)
	}

	return result.ID, nil
}

// EnsureMetadataFields creates any missing metadata fields and returns
// the name-to-ID mapping for all requested fields.
func (c *Client) EnsureMetadataFields(ctx context.Context, fields []entity.MetadataField) (map[string]string, error) {
	var existing struct {
		DocMetadata []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"doc_metadata"`
	}
	path := "/v1/datasets/" + c.datasetID + "/metadata"
	if err := c.call(ctx, http.MethodGet, path, nil, &existing); err != nil {
		return nil, fmt.Errorf("list metadata fields: %w", err)
	}

	ids := make(map[string]string, len(fields))
	for _, f := range existing.DocMetadata {
		ids[f.Name] = f.ID
	}

	for _, f := range fields {
		if _, ok := ids[f.Name]; ok {
			continue
		}
		var created struct {
			ID string `json:"id"`
		}
		body := map[string]string{"type": f.Type, "name": f.Name}
		if err := c.call(ctx, http.MethodPost, path, body, &created); err != nil {
			return nil, fmt.Errorf("create metadata field %q: %w", f.Name, err)
		}
		ids[f.Name] = created.ID
	}

	return ids, nil
}

// FindDocumentByName pages through the dataset's documents looking for
// an exact name match. Returns an empty ID when absent.
func (c *Client) FindDocumentByName(ctx context.Context, name string) (string, error) {
	for page := 1; ; page++ {
		var result struct {
			Data []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"data"`
			HasMore bool `json:"has_more"`
		}
		path := "/v1/datasets/" + c.datasetID + "/documents?page=" + strconv.Itoa(page) +
			"&limit=" + strconv.Itoa(documentListPageSize)
		if err := c.call(ctx, http.MethodGet, path, nil, &result); err != nil {
			return "", fmt.Errorf("list documents page %d: %w", page, err)
		}

		for _, doc := range result.Data {
			if doc.Name == name {
				return doc.ID, nil
			}
		}
		if !result.HasMore {
			return "", nil
		}
	}
}

// DeleteDocument removes an existing document.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	path := "/v1/datasets/" + c.datasetID + "/documents/" + documentID
	if err := c.call(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

// CreateDocumentByText uploads a document in parent-child mode with the
// full document as parent context.
func (c *Client) CreateDocumentByText(ctx context.Context, name, text string) (string, error) {
	body := map[string]any{
		"name":               name,
		"text":               text,
		"indexing_technique": c.settings.IndexingTechnique,
		"doc_form":           "hierarchical_model",
		"process_rule": map[string]any{
			"mode": "hierarchical",
			"rules": map[string]any{
				"pre_processing_rules": []map[string]any{
					{"id": "remove_extra_spaces", "enabled": true},
					{"id": "remove_urls_emails", "enabled": false},
				},
				"segmentation": map[string]any{
					"separator":  "\\n",
					"max_tokens": 1024,
				},
				"parent_mode": "full-doc",
				"subchunk_segmentation": map[string]any{
					"separator":     "\\n",
					"max_tokens":    512,
					"chunk_overlap": 50,
				},
			},
		},
	}

	var result struct {
		Document struct {
			ID string `json:"id"`
		} `json:"document"`
	}
	path := "/v1/datasets/" + c.datasetID + "/document/create-by-text"
	if err := c.call(ctx, http.MethodPost, path, body, &result); err != nil {
		return "", fmt.Errorf("create document %q: %w", name, err)
	}
	if result.Document.ID == "" {
		return "", fmt.Errorf("create document %q: response carried no id", name)
	}
	return result.Document.ID, nil
}

// AssignMetadata attaches metadata values to an uploaded document.
func (c *Client) AssignMetadata(ctx context.Context, documentID string, values []entity.MetadataValue) error {
	body := map[string]any{
		"operation_data": []map[string]any{
			{
				"document_id":   documentID,
				"metadata_list": values,
			},
		},
	}
	path := "/v1/datasets/" + c.datasetID + "/documents/metadata"
	if err := c.call(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("assign metadata to %s: %w", documentID, err)
	}
	return nil
}

// call performs one API request through the retry executor and decodes
// the response into out when non-nil.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
