package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	LogLevel   string
	StatusAddr string // empty disables the status/metrics listener

	// Crawl input and output.
	SitemapURL string
	OutputDir  string

	// Jina Reader options.
	JinaAPIKey      string
	CSSSelector     string
	WaitForSelector string
	EUCompliance    bool
	NoCache         bool

	// Pacing and retry policy.
	StartFromIndex int
	MinDelay       time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration
	RetryCount     int
	RetryBaseDelay time.Duration
	CrawlerTimeout time.Duration // 0 = unlimited

	// Dify knowledge-base import.
	DifyAPIKey                 string
	DifyDatasetID              string
	DifyBaseURL                string
	DifyKnowledgeName          string
	DifyKnowledgeDescription   string
	DifyEmbeddingModel         string
	DifyEmbeddingModelProvider string
	DifyIndexingTechnique      string
	DifyPermission             string
	DifySearchMethod           string
	DifyTopK                   int
	DifyScoreThresholdEnabled  bool
	DifyScoreThreshold         float64
	DifyRerankingEnabled       bool
	DifyWeights                float64
	CrawlResultDir             string
	ImportPause                time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	outputDir := getEnv("OUTPUT_DIR", "output")

	return &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		StatusAddr: getEnv("STATUS_ADDR", ""),

		SitemapURL: getEnv("SITEMAP_URL", ""),
		OutputDir:  outputDir,

		JinaAPIKey:      getEnv("JINA_API_KEY", ""),
		CSSSelector:     getEnv("CSS_SELECTOR", ""),
		WaitForSelector: getEnv("WAIT_FOR_SELECTOR", ""),
		EUCompliance:    getEnvAsBool("EU_COMPLIANCE", true),
		NoCache:         getEnvAsBool("NO_CACHE", false),

		StartFromIndex: getEnvAsInt("START_FROM_INDEX", 1),
		MinDelay:       getEnvAsSeconds("MIN_DELAY", 3),
		MaxDelay:       getEnvAsSeconds("MAX_DELAY", 6),
		RequestTimeout: getEnvAsSeconds("REQUEST_TIMEOUT", 120),
		RetryCount:     getEnvAsInt("RETRY_COUNT", 2),
		RetryBaseDelay: getEnvAsSeconds("RETRY_BASE_DELAY", 2),
		CrawlerTimeout: getEnvAsSeconds("CRAWLER_TIMEOUT", 0),

		DifyAPIKey:                 getEnv("DIFY_API_KEY", ""),
		DifyDatasetID:              getEnv("DIFY_DATASET_ID", ""),
		DifyBaseURL:                getEnv("DIFY_BASE_URL", "https://api.dify.ai"),
		DifyKnowledgeName:          getEnv("DIFY_KNOWLEDGE_NAME", "Jina Reader Crawl Results"),
		DifyKnowledgeDescription:   getEnv("DIFY_KNOWLEDGE_DESCRIPTION", "Knowledge base containing crawled content from Jina Reader"),
		DifyEmbeddingModel:         getEnv("DIFY_EMBEDDING_MODEL", "mistral-embed"),
		DifyEmbeddingModelProvider: getEnv("DIFY_EMBEDDING_MODEL_PROVIDER", "mistralai"),
		DifyIndexingTechnique:      getEnv("DIFY_INDEXING_TECHNIQUE", "high_quality"),
		DifyPermission:             getEnv("DIFY_PERMISSION", "only_me"),
		DifySearchMethod:           getEnv("DIFY_SEARCH_METHOD", "hybrid_search"),
		DifyTopK:                   getEnvAsInt("DIFY_TOP_K", 2),
		DifyScoreThresholdEnabled:  getEnvAsBool("DIFY_SCORE_THRESHOLD_ENABLED", true),
		DifyScoreThreshold:         getEnvAsFloat("DIFY_SCORE_THRESHOLD", 0.7),
		DifyRerankingEnabled:       getEnvAsBool("DIFY_RERANKING_ENABLED", false),
		DifyWeights:                getEnvAsFloat("DIFY_WEIGHTS", 0.7),
		CrawlResultDir:             getEnv("CRAWL_RESULT_DIR", "crawl-result/"+outputDir),
		ImportPause:                getEnvAsSeconds("IMPORT_PAUSE", 1),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsSeconds reads a duration expressed in (possibly fractional)
// seconds, matching the original .env conventions like MIN_DELAY=3.5.
func getEnvAsSeconds(key string, fallback float64) time.Duration {
	return time.Duration(getEnvAsFloat(key, fallback) * float64(time.Second))
}
