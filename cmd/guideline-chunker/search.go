package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/guideline-chunker/internal/index"
	"github.com/pdiddy/guideline-chunker/internal/segment"
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Query chunks stored by run --index",
	Long: `Search looks up chunks in the SQLite index written by "run --index". The
text argument matches anywhere in the chunk text; --source narrows results to
one document.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("index", "", "SQLite database written by run --index")
	searchCmd.Flags().String("source", "", "only chunks from this document filename")
	searchCmd.Flags().Int("limit", 20, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	path := viper.GetString("run.index_path")
	if path == "" {
		return fmt.Errorf("no index configured: pass --index or set run.index_path")
	}

	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := index.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	chunks, err := store.Search(cmd.Context(), index.Query{
		Text:   strings.Join(args, " "),
		Source: source,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	}
	for _, c := range chunks {
		fmt.Fprintf(out, "%s  %s\n    %s\n", c.Source, c.Heading, segment.Truncate(strings.Join(strings.Fields(c.Text), " "), 160))
	}
	fmt.Fprintf(out, "\n%d result(s)\n", len(chunks))
	return nil
}
