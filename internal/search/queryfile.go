// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results.
// A saved search can be reloaded and re-run, or its results re-displayed
// without querying arXiv again.
type QueryFile struct {
	Search  types.Search  `yaml:"search"`
	Results []types.Paper `yaml:"results"`
	Summary QuerySummary  `yaml:"summary"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Returned     int       `yaml:"returned"`
	TotalResults int       `yaml:"total_results"`
	Error        string    `yaml:"error,omitempty"`
	Timestamp    time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a search and its results to a YAML file. total is
// the provider-reported total, or -1 if unknown; runErr records a stream
// that ended early.
func WriteQueryFile(path string, s types.Search, papers []types.Paper, total int, runErr error, now time.Time) error {
	qf := QueryFile{
		Search:  s,
		Results: papers,
		Summary: QuerySummary{
			Returned:     len(papers),
			TotalResults: total,
			Timestamp:    now.UTC(),
		},
	}
	if runErr != nil {
		qf.Summary.Error = runErr.Error()
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	if err := qf.Search.Validate(); err != nil {
		return nil, fmt.Errorf("query file %s: %w", path, err)
	}
	return &qf, nil
}
