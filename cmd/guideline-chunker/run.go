package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/guideline-chunker/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover, download, and chunk guideline PDFs in one batch",
	Long: `Run scans the listing page for PDF links, tries to download the first few,
then chunks every PDF in the download directory (up to --segment-limit) and
writes the combined result to --output.

Download failures never stop the run. If the download directory holds no PDFs
afterwards, nothing is written.`,
	RunE: runRun,
}

func init() {
	addDiscoveryFlags(runCmd)
	addFetchFlags(runCmd)
	addSegmentFlags(runCmd)
	runCmd.Flags().String("index", "", "SQLite database to index the chunks into")
	runCmd.Flags().Bool("offline", false, "skip discovery and downloads; only chunk local files")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		cfg.Discovery.BaseURL = ""
	}

	sum, err := pipeline.Run(cmd.Context(), cfg, pipeline.Deps{
		Client:   newClient(cfg),
		Reporter: newReporter(cmd),
	})
	if err != nil {
		return err
	}
	if sum.NothingToProcess {
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRun %s: %d discovered, %d downloaded, %d skipped, %d blocked, %d failed downloads\n",
		sum.RunID, sum.Discovered, sum.Fetch.Fetched, sum.Fetch.Skipped, sum.Fetch.Blocked, sum.Fetch.Failed)
	fmt.Fprintf(out, "Chunked %d document(s), %d failed, %d chunk(s) total\n",
		sum.Documents, sum.Failed, sum.Aggregate.TotalChunks)
	return nil
}
