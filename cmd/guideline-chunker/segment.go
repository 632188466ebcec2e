package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/guideline-chunker/internal/inventory"
	"github.com/pdiddy/guideline-chunker/internal/pipeline"
	"github.com/pdiddy/guideline-chunker/internal/report"
	"github.com/pdiddy/guideline-chunker/internal/segment"
	"github.com/pdiddy/guideline-chunker/pkg/types"
)

var segmentCmd = &cobra.Command{
	Use:   "segment [pdfs...]",
	Short: "Chunk PDFs into per-page text records",
	Long: `Segment chunks the given PDF files, or every PDF in the download directory
when none are given, without touching the network. Use --output - to print
the JSON result instead of writing a file.`,
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().String("download-dir", types.DefaultDownloadDir, "directory scanned when no files are given")
	segmentCmd.Flags().String("extension", types.DefaultExtension, "file extension of documents to chunk")
	addSegmentFlags(segmentCmd)

	rootCmd.AddCommand(segmentCmd)
}

func runSegment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		docs, err := inventory.List(cfg.Fetch.DownloadDir, cfg.Discovery.Extension)
		if err != nil {
			return err
		}
		for _, d := range docs {
			paths = append(paths, d.Path)
		}
		if n := cfg.Run.SegmentLimit; n > 0 && len(paths) > n {
			paths = paths[:n]
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents to chunk in %s", cfg.Fetch.DownloadDir)
	}

	toStdout := cfg.Run.Output == "-"
	var rep report.Reporter = newReporter(cmd)
	if toStdout {
		rep = report.NewNarrator(cmd.ErrOrStderr(), false)
	}

	seg := segment.New(nil, cfg.Segment, rep)
	var chunks []types.Chunk
	for _, p := range paths {
		got, err := seg.Segment(p)
		if err != nil {
			rep.Report(report.Event{Kind: report.SegmentFailed, Subject: filepath.Base(p), Err: err})
			continue
		}
		rep.Report(report.Event{Kind: report.Segmented, Subject: filepath.Base(p), Count: len(got)})
		chunks = append(chunks, got...)
	}

	agg := types.NewAggregate(cfg.Run.Provenance, chunks)
	if toStdout {
		return pipeline.EncodeAggregate(cmd.OutOrStdout(), agg)
	}
	if err := pipeline.WriteAggregate(cfg.Run.Output, agg); err != nil {
		return err
	}
	rep.Report(report.Event{Kind: report.OutputWritten, Subject: cfg.Run.Output, Count: agg.TotalChunks})
	return nil
}
