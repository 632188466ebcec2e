package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/guideline-chunker/internal/discover"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List the document links found on the listing page",
	RunE:  runDiscover,
}

func init() {
	addDiscoveryFlags(discoverCmd)

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := discover.Discover(cmd.Context(), newClient(cfg), cfg.Discovery)
	if err != nil {
		return fmt.Errorf("discovering links at %s: %w", cfg.Discovery.BaseURL, err)
	}
	for _, loc := range res.Locators {
		fmt.Fprintln(cmd.OutOrStdout(), loc)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d link(s), %d duplicate(s) dropped\n", len(res.Locators), res.Duplicates)
	return nil
}
