package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "target-explorer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// RequestsPerSecond caps the request rate toward Europe PMC (default 5).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// RateLimitRetries is the number of retries on HTTP 429. Zero disables
	// retrying; every other failure is never retried.
	RateLimitRetries int `json:"rate_limit_retries" yaml:"rate_limit_retries"`
}

// SearchConfig holds settings for the article search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of articles to fetch (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PageSize is the number of articles per request. Capped at the service
	// maximum of 1000.
	PageSize int `json:"page_size" yaml:"page_size"`

	// Email is sent to Europe PMC as a contact address, if set.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// AnnotationConfig holds settings for the annotation stage.
type AnnotationConfig struct {
	// BatchSize is the number of article tokens per request. The service
	// rejects more than 8; larger values are clamped.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Provider selects the annotation provider (default "Europe PMC").
	Provider string `json:"provider" yaml:"provider"`
}

// TagPolicy selects which tags of an annotation contribute to aggregation.
type TagPolicy string

const (
	// TagPolicyAll counts every tag attached to an annotation.
	TagPolicyAll TagPolicy = "all-tags"

	// TagPolicyFirst counts only the first tag of each annotation.
	TagPolicyFirst TagPolicy = "first-tag-only"
)

// AggregationConfig holds settings for target aggregation.
type AggregationConfig struct {
	// TopK is the number of targets to keep (default 50).
	TopK int `json:"top_k" yaml:"top_k"`

	// TagPolicy selects all-tags or first-tag-only counting.
	TagPolicy TagPolicy `json:"tag_policy" yaml:"tag_policy"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 0).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ScoringConfig holds settings for the LLM scoring stage.
type ScoringConfig struct {
	AIConfig `yaml:",inline"`

	// MaxArticles caps the number of articles sent for per-article analysis (default 10).
	MaxArticles int `json:"max_articles" yaml:"max_articles"`
}

// StoreConfig holds settings for the run history database.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database (contains index/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search      SearchConfig      `json:"search" yaml:"search"`
	Annotation  AnnotationConfig  `json:"annotation" yaml:"annotation"`
	Aggregation AggregationConfig `json:"aggregation" yaml:"aggregation"`
	Scoring     ScoringConfig     `json:"scoring" yaml:"scoring"`
	Store       StoreConfig       `json:"store" yaml:"store"`
}
