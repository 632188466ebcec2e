package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/guideline-chunker/internal/discover"
	"github.com/pdiddy/guideline-chunker/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [urls...]",
	Short: "Download documents into the download directory",
	Long: `Fetch downloads the given URLs, or the first --fetch-limit links found on the
listing page when no URLs are given. Files already in the download directory
are skipped. A document the origin refuses with HTTP 403 is reported so it can
be saved by hand.`,
	RunE: runFetch,
}

func init() {
	addDiscoveryFlags(fetchCmd)
	addFetchFlags(fetchCmd)

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := newClient(cfg)

	locators := args
	if len(locators) == 0 {
		res, err := discover.Discover(cmd.Context(), client, cfg.Discovery)
		if err != nil {
			return fmt.Errorf("discovering links at %s: %w", cfg.Discovery.BaseURL, err)
		}
		locators = res.Locators
		if n := cfg.Run.FetchLimit; n > 0 && len(locators) > n {
			locators = locators[:n]
		}
	}

	result := fetch.FetchBatch(cmd.Context(), client, locators, cfg.Fetch, newReporter(cmd))
	fmt.Fprintf(cmd.OutOrStdout(), "\nBatch summary: %d downloaded, %d skipped, %d blocked, %d failed (total: %d)\n",
		result.Fetched, result.Skipped, result.Blocked, result.Failed, result.Total())
	if result.Failed > 0 {
		return fmt.Errorf("%d document(s) failed to download", result.Failed)
	}
	return nil
}
