package types

import "time"

// Defaults mirror the behaviour of the original one-shot scraper.
const (
	DefaultBaseURL       = "https://rosoncoweb.ru/standarts/RUSSCO/"
	DefaultReferer       = "https://rosoncoweb.ru/"
	DefaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultExtension     = ".pdf"
	DefaultDownloadDir   = "russco_pdfs"
	DefaultOutput        = "russco_chunks.json"
	DefaultProvenance    = "RUSSCO Clinical Recommendations"
	DefaultMaxAttempts   = 2
	DefaultRetryDelay    = 2 * time.Second
	DefaultFetchTimeout  = 30 * time.Second
	DefaultListTimeout   = 15 * time.Second
	DefaultDownloadDelay = 1 * time.Second
	DefaultFetchLimit    = 5
	DefaultSegmentLimit  = 10
	DefaultTextCap       = 2000
	DefaultCategoryCap   = 100
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with every request. The origin rejects obvious
	// non-browser clients, so the default mimics a desktop browser.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// DiscoveryConfig holds settings for the listing-page scrape.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the listing page whose anchors are scanned.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Extension selects which links are kept (default ".pdf").
	Extension string `json:"extension" yaml:"extension" mapstructure:"extension"`

	// MaxAttempts is the number of tries for the listing page (default 2).
	// Timeout bounds all of them together.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// RetryDelay is the pause between listing attempts (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`
}

// FetchConfig holds settings for the resilient fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DownloadDir receives fetched files and is scanned by the inventory.
	DownloadDir string `json:"download_dir" yaml:"download_dir" mapstructure:"download_dir"`

	// Referer is sent with download requests.
	Referer string `json:"referer" yaml:"referer" mapstructure:"referer"`

	// MaxAttempts is the number of sequential attempts per locator (default 2).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// RetryDelay is the fixed pause between attempts (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`

	// DownloadDelay paces consecutive locators in a batch (default 1s, 0 disables).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`
}

// SegmentConfig holds settings for page chunking.
type SegmentConfig struct {
	// TextCap is the maximum chunk text length in characters (default 2000).
	TextCap int `json:"text_cap" yaml:"text_cap" mapstructure:"text_cap"`

	// CategoryCap is the maximum category label length in characters (default 100).
	CategoryCap int `json:"category_cap" yaml:"category_cap" mapstructure:"category_cap"`
}

// RunConfig holds the orchestrator's batch limits and output settings.
type RunConfig struct {
	// FetchLimit caps how many discovered locators are fetched (default 5).
	FetchLimit int `json:"fetch_limit" yaml:"fetch_limit" mapstructure:"fetch_limit"`

	// SegmentLimit caps how many inventory documents are segmented (default 10).
	SegmentLimit int `json:"segment_limit" yaml:"segment_limit" mapstructure:"segment_limit"`

	// Output is the path of the aggregate JSON file.
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// Provenance is written as the aggregate's "source" field.
	Provenance string `json:"provenance" yaml:"provenance" mapstructure:"provenance"`

	// IndexPath, when set, is a SQLite database the aggregate is ingested into.
	IndexPath string `json:"index_path,omitempty" yaml:"index_path,omitempty" mapstructure:"index_path"`
}

// Config groups all stage configurations.
type Config struct {
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery" mapstructure:"discovery"`
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Segment   SegmentConfig   `json:"segment" yaml:"segment" mapstructure:"segment"`
	Run       RunConfig       `json:"run" yaml:"run" mapstructure:"run"`
}

// DefaultConfig returns a Config populated with the documented defaults.
func DefaultConfig() Config {
	return Config{
		Discovery: DiscoveryConfig{
			HTTPConfig:  HTTPConfig{Timeout: DefaultListTimeout, UserAgent: DefaultUserAgent},
			BaseURL:     DefaultBaseURL,
			Extension:   DefaultExtension,
			MaxAttempts: DefaultMaxAttempts,
			RetryDelay:  DefaultRetryDelay,
		},
		Fetch: FetchConfig{
			HTTPConfig:    HTTPConfig{Timeout: DefaultFetchTimeout, UserAgent: DefaultUserAgent},
			DownloadDir:   DefaultDownloadDir,
			Referer:       DefaultReferer,
			MaxAttempts:   DefaultMaxAttempts,
			RetryDelay:    DefaultRetryDelay,
			DownloadDelay: DefaultDownloadDelay,
		},
		Segment: SegmentConfig{
			TextCap:     DefaultTextCap,
			CategoryCap: DefaultCategoryCap,
		},
		Run: RunConfig{
			FetchLimit:   DefaultFetchLimit,
			SegmentLimit: DefaultSegmentLimit,
			Output:       DefaultOutput,
			Provenance:   DefaultProvenance,
		},
	}
}
