// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-engine/internal/acquire"
)

var downloadCmd = &cobra.Command{
	Use:   "download [identifiers...]",
	Short: "Download paper PDFs or source archives",
	Long: `Download resolves arXiv identifiers (new or old style, with or without the
arXiv: prefix, or abs/pdf URLs) through the search API and downloads the
PDF or source archive of each. Files are named <id>.<title>.pdf (or
.tar.gz) unless --filename is given, and existing files are skipped.`,
	Example: `  arxiv-engine download 2301.07041 hep-th/9901001
  arxiv-engine download https://arxiv.org/abs/1706.03762 --kind source --dir papers/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("kind", "pdf", "artifact to download: pdf or source")
	downloadCmd.Flags().String("dir", "", "output directory (default from config, else .)")
	downloadCmd.Flags().String("filename", "", "output filename (single identifier only)")
	downloadCmd.Flags().Duration("download-delay", 0, "delay between consecutive downloads")
	_ = v.BindPFlag("download.dir", downloadCmd.Flags().Lookup("dir"))
	_ = v.BindPFlag("download.delay", downloadCmd.Flags().Lookup("download-delay"))

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := acquire.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	filename, _ := cmd.Flags().GetString("filename")

	ids := splitIDs(args)
	if filename != "" && len(ids) != 1 {
		return errors.New("--filename requires exactly one identifier")
	}

	ctx := cmd.Context()
	papers, err := acquire.Resolve(ctx, newSearchClient(), ids)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		return fmt.Errorf("no papers found for %s", strings.Join(ids, ", "))
	}

	dl := cfg.Download
	httpClient := &http.Client{Timeout: dl.Timeout}
	out := cmd.OutOrStdout()

	if filename != "" {
		path, err := acquire.Download(ctx, httpClient, papers[0], kind, dl.Dir, filename, dl.HTTPConfig)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "downloaded: %s -> %s\n", papers[0].ID, path)
		return nil
	}

	result := acquire.DownloadBatch(ctx, httpClient, papers, kind, dl, nil, logger.Named("download"))
	for _, p := range result.Paths {
		fmt.Fprintln(out, p)
	}
	fmt.Fprintf(out, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	if missing := len(ids) - len(papers); missing > 0 {
		fmt.Fprintf(out, "%d identifier(s) not found on arXiv\n", missing)
	}
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed to download", result.Failed)
	}
	return nil
}

// splitIDs accepts comma- or whitespace-separated identifiers within one
// argument as well as separate arguments.
func splitIDs(args []string) []string {
	var ids []string
	for _, a := range args {
		ids = append(ids, strings.FieldsFunc(a, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\n' || r == '\t'
		})...)
	}
	return ids
}
