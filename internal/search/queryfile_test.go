// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-engine/pkg/types"
)

func TestQueryFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.yaml")
	s := ByAuthor("Bengio")
	papers := samplePapers()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, WriteQueryFile(path, s, papers, 1234, nil, now))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, s, qf.Search)
	require.Len(t, qf.Results, 2)
	assert.Equal(t, papers[0].ID, qf.Results[0].ID)
	assert.Equal(t, 2, qf.Summary.Returned)
	assert.Equal(t, 1234, qf.Summary.TotalResults)
	assert.Empty(t, qf.Summary.Error)
	assert.True(t, now.Equal(qf.Summary.Timestamp))
}

func TestQueryFile_RecordsStreamError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	runErr := &StreamError{Offset: 100, Attempts: 4, Err: errors.New("service unavailable")}

	require.NoError(t, WriteQueryFile(path, types.Search{Query: "cat:cs.AI"}, nil, -1, runErr, time.Now()))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Contains(t, qf.Summary.Error, "offset 100")
	assert.Equal(t, -1, qf.Summary.TotalResults)
}

func TestReadQueryFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadQueryFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("search: [unclosed"), 0o644))
	_, err = ReadQueryFile(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("search:\n  query: x\n  sort_by: citations\n"), 0o644))
	_, err = ReadQueryFile(invalid)
	assert.ErrorContains(t, err, "unknown sort criterion")
}
