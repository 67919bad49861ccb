// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pdiddy/arxiv-engine/internal/search"
	"github.com/pdiddy/arxiv-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search arXiv for papers",
	Long: `Search runs a query against the arXiv API and prints the results.
Pages are fetched lazily, spaced by the configured delay, and a failed page
is retried at the same offset before the search gives up.

A query is given either raw (--query, using arXiv field prefixes such as
au:, ti:, cat:) or through the shortcuts --author and --daily. --save
writes the search and its results to a YAML file that --from-file can
reload later.`,
	Example: `  arxiv-engine search --query 'ti:transformer AND cat:cs.LG' --max-results 50
  arxiv-engine search --author Bengio --json
  arxiv-engine search --daily cs.AI,cs.LG --save today.yaml
  arxiv-engine search --daily hep-th --window weekly
  arxiv-engine search --from-file today.yaml --offline`,
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.String("query", "", "arXiv search query (e.g. 'au:Hinton AND cat:cs.LG')")
	f.StringSlice("id", nil, "restrict to arXiv identifiers (repeatable or comma-separated)")
	f.String("author", "", "papers by author, newest first")
	f.StringSlice("daily", nil, "papers in these categories updated yesterday (UTC)")
	f.String("window", "", "with --daily, look back over: daily, weekly or monthly")
	f.Int("max-results", 20, "maximum number of results (0 for no limit)")
	f.String("sort-by", "", "relevance, lastUpdatedDate or submittedDate")
	f.String("sort-order", "", "ascending or descending")
	f.Bool("json", false, "output results as JSON")
	f.Bool("yaml", false, "output results as YAML")
	f.String("save", "", "save the search and results to a YAML file")
	f.String("from-file", "", "load the search from a saved YAML file")
	f.Bool("offline", false, "with --from-file, print the saved results without querying arXiv")

	f.Int("page-size", 0, "results per request (max 2000)")
	f.Duration("delay", 0, "minimum delay between requests (at least 3s)")
	f.Int("num-retries", 0, "retries per page before giving up")
	f.Duration("retry-backoff", 0, "base of the exponential wait between retries")
	bindClientFlags(f)

	rootCmd.AddCommand(searchCmd)
}

func bindClientFlags(f *pflag.FlagSet) {
	for flag, key := range map[string]string{
		"page-size":     "client.page_size",
		"delay":         "client.delay",
		"num-retries":   "client.num_retries",
		"retry-backoff": "client.retry_backoff",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
}

// searchFlags are the search-shaping flags of the search command.
type searchFlags struct {
	query      string
	ids        []string
	author     string
	daily      []string
	window     string
	maxResults int
	sortBy     string
	sortOrder  string
}

func readSearchFlags(f *pflag.FlagSet) searchFlags {
	var sf searchFlags
	sf.query, _ = f.GetString("query")
	sf.ids, _ = f.GetStringSlice("id")
	sf.author, _ = f.GetString("author")
	sf.daily, _ = f.GetStringSlice("daily")
	sf.window, _ = f.GetString("window")
	sf.maxResults, _ = f.GetInt("max-results")
	sf.sortBy, _ = f.GetString("sort-by")
	sf.sortOrder, _ = f.GetString("sort-order")
	return sf
}

// buildSearch turns flags into a Search. Explicit sort flags override the
// shortcut defaults; --max-results always applies.
func buildSearch(sf searchFlags, now time.Time) (types.Search, error) {
	modes := 0
	for _, set := range []bool{sf.query != "" || len(sf.ids) > 0, sf.author != "", len(sf.daily) > 0} {
		if set {
			modes++
		}
	}
	if modes == 0 {
		return types.Search{}, errors.New("provide --query, --id, --author, or --daily")
	}
	if modes > 1 {
		return types.Search{}, errors.New("--author and --daily cannot be combined with other queries")
	}
	if sf.window != "" && len(sf.daily) == 0 {
		return types.Search{}, errors.New("--window requires --daily")
	}

	var s types.Search
	switch {
	case sf.author != "":
		s = search.ByAuthor(sf.author)
	case len(sf.daily) > 0:
		window, err := search.ParseWindow(sf.window)
		if err != nil {
			return types.Search{}, err
		}
		s = search.Recent(sf.daily, window, now)
	default:
		s = types.Search{Query: sf.query, IDList: sf.ids}
	}

	s.MaxResults = sf.maxResults
	if sf.sortBy != "" {
		s.SortBy = types.SortCriterion(sf.sortBy)
	}
	if sf.sortOrder != "" {
		s.SortOrder = types.SortOrder(sf.sortOrder)
	}
	return s, s.Validate()
}

func runSearch(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	fromFile, _ := f.GetString("from-file")
	offline, _ := f.GetBool("offline")
	savePath, _ := f.GetString("save")
	out := cmd.OutOrStdout()

	var s types.Search
	if fromFile != "" {
		qf, err := search.ReadQueryFile(fromFile)
		if err != nil {
			return err
		}
		if offline {
			return writePapers(cmd, out, qf.Results)
		}
		s = qf.Search
		if f.Changed("max-results") {
			s.MaxResults, _ = f.GetInt("max-results")
		}
	} else {
		if offline {
			return errors.New("--offline requires --from-file")
		}
		var err error
		if s, err = buildSearch(readSearchFlags(f), time.Now()); err != nil {
			return err
		}
	}

	client := newSearchClient()
	st := client.Stream(s)
	defer st.Close()

	var papers []types.Paper
	for st.Next(cmd.Context()) {
		papers = append(papers, st.Paper())
	}
	runErr := st.Err()

	if err := writePapers(cmd, out, papers); err != nil {
		return err
	}
	if savePath != "" {
		if err := search.WriteQueryFile(savePath, s, papers, st.TotalResults(), runErr, time.Now()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d results to %s\n", len(papers), savePath)
	}
	if runErr != nil {
		return fmt.Errorf("search stopped after %d results: %w", len(papers), runErr)
	}
	return nil
}

func writePapers(cmd *cobra.Command, w io.Writer, papers []types.Paper) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	switch {
	case asJSON && asYAML:
		return errors.New("--json and --yaml are mutually exclusive")
	case asJSON:
		return search.FormatJSON(papers, w)
	case asYAML:
		return search.FormatYAML(papers, w)
	default:
		search.FormatTable(papers, w)
		return nil
	}
}
