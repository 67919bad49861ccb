// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for arxiv-engine.
// It holds the structured searches sent to the arXiv API, the paper
// records decoded from its responses, and the configuration shared by the
// client library, the CLI, and the backend service.
package types

import "fmt"

// SortCriterion selects the field arXiv orders results by.
type SortCriterion string

const (
	SortByRelevance       SortCriterion = "relevance"
	SortByLastUpdatedDate SortCriterion = "lastUpdatedDate"
	SortBySubmittedDate   SortCriterion = "submittedDate"
)

// SortOrder selects the direction of the sort.
type SortOrder string

const (
	SortAscending  SortOrder = "ascending"
	SortDescending SortOrder = "descending"
)

// Search describes one arXiv query. It is created by the caller
// and treated as immutable for the duration of one query.
type Search struct {
	// Query is a field-qualified boolean query (e.g. `au:Bengio AND cat:cs.LG`).
	Query string `json:"query,omitempty" yaml:"query,omitempty"`

	// IDList restricts results to the given arXiv identifiers, in order.
	IDList []string `json:"id_list,omitempty" yaml:"id_list,omitempty"`

	// MaxResults caps the number of records a stream yields. Zero or a
	// negative value means no cap.
	MaxResults int `json:"max_results,omitempty" yaml:"max_results,omitempty"`

	// SortBy is the sort criterion. Empty leaves the provider default.
	SortBy SortCriterion `json:"sort_by,omitempty" yaml:"sort_by,omitempty"`

	// SortOrder is the sort direction. Empty leaves the provider default.
	SortOrder SortOrder `json:"sort_order,omitempty" yaml:"sort_order,omitempty"`
}

// IsEmpty reports whether the search carries neither a query nor an id list.
// An empty search is legal; arXiv returns nothing meaningful for it.
func (s Search) IsEmpty() bool {
	return s.Query == "" && len(s.IDList) == 0
}

// HasCap reports whether MaxResults bounds the stream.
func (s Search) HasCap() bool {
	return s.MaxResults > 0
}

// Validate rejects sort values arXiv does not understand.
func (s Search) Validate() error {
	switch s.SortBy {
	case "", SortByRelevance, SortByLastUpdatedDate, SortBySubmittedDate:
	default:
		return fmt.Errorf("unknown sort criterion %q", s.SortBy)
	}
	switch s.SortOrder {
	case "", SortAscending, SortDescending:
	default:
		return fmt.Errorf("unknown sort order %q", s.SortOrder)
	}
	return nil
}
