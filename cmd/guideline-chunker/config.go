package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/guideline-chunker/internal/report"
	"github.com/pdiddy/guideline-chunker/pkg/types"
)

// flagKeys maps CLI flag names to their config keys. Flags are bound when a
// command runs rather than in init, because several commands declare the
// same flag and viper keeps only one binding per key.
var flagKeys = map[string]string{
	"base-url":      "discovery.base_url",
	"extension":     "discovery.extension",
	"list-timeout":  "discovery.timeout",
	"list-attempts": "discovery.max_attempts",
	"list-retry":    "discovery.retry_delay",
	"download-dir":  "fetch.download_dir",
	"referer":       "fetch.referer",
	"timeout":       "fetch.timeout",
	"max-attempts":  "fetch.max_attempts",
	"retry-delay":   "fetch.retry_delay",
	"delay":         "fetch.download_delay",
	"text-cap":      "segment.text_cap",
	"category-cap":  "segment.category_cap",
	"fetch-limit":   "run.fetch_limit",
	"segment-limit": "run.segment_limit",
	"output":        "run.output",
	"provenance":    "run.provenance",
	"index":         "run.index_path",
}

func addDiscoveryFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-url", types.DefaultBaseURL, "listing page scanned for document links")
	cmd.Flags().String("extension", types.DefaultExtension, "file extension of documents to collect")
	cmd.Flags().Duration("list-timeout", types.DefaultListTimeout, "timeout for fetching the listing page, retries included")
	cmd.Flags().Int("list-attempts", types.DefaultMaxAttempts, "attempts for the listing page")
	cmd.Flags().Duration("list-retry", types.DefaultRetryDelay, "pause between listing page attempts")
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().String("download-dir", types.DefaultDownloadDir, "directory holding downloaded and hand-placed PDFs")
	cmd.Flags().String("referer", types.DefaultReferer, "Referer header sent with downloads")
	cmd.Flags().Duration("timeout", types.DefaultFetchTimeout, "timeout for each download attempt")
	cmd.Flags().Int("max-attempts", types.DefaultMaxAttempts, "download attempts per document")
	cmd.Flags().Duration("retry-delay", types.DefaultRetryDelay, "pause between download attempts")
	cmd.Flags().Duration("delay", types.DefaultDownloadDelay, "pause between consecutive downloads")
	cmd.Flags().Int("fetch-limit", types.DefaultFetchLimit, "maximum discovered documents to download (0 = no limit)")
}

func addSegmentFlags(cmd *cobra.Command) {
	cmd.Flags().Int("text-cap", types.DefaultTextCap, "maximum characters of text per chunk")
	cmd.Flags().Int("category-cap", types.DefaultCategoryCap, "maximum characters of the category label")
	cmd.Flags().Int("segment-limit", types.DefaultSegmentLimit, "maximum documents to chunk (0 = no limit)")
	cmd.Flags().StringP("output", "o", types.DefaultOutput, "path of the JSON result")
	cmd.Flags().String("provenance", types.DefaultProvenance, "value of the result's \"source\" field")
}

// loadConfig merges defaults, config file, environment, and the flags of cmd.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return types.Config{}, fmt.Errorf("binding flag --%s: %w", name, err)
			}
		}
	}

	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("reading configuration: %w", err)
	}
	if ua := viper.GetString("user_agent"); ua != "" {
		cfg.Discovery.UserAgent = ua
		cfg.Fetch.UserAgent = ua
	}
	return cfg, nil
}

func newReporter(cmd *cobra.Command) report.Reporter {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return report.NewNarrator(os.Stdout, verbose)
}

func newClient(cfg types.Config) *http.Client {
	return &http.Client{Timeout: cfg.Fetch.Timeout}
}
