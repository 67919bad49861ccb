// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// FacadeMaxResults caps the canned author and daily searches.
const FacadeMaxResults = 50

// ByAuthor returns a search for papers by authorID, newest submissions
// first. A blank author yields an empty search.
func ByAuthor(authorID string) types.Search {
	return types.Search{
		Query:      Term(FieldAuthor, authorID),
		MaxResults: FacadeMaxResults,
		SortBy:     types.SortBySubmittedDate,
		SortOrder:  types.SortDescending,
	}
}

// Window is the look-back period of a Recent search.
type Window string

const (
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
)

// ParseWindow maps "daily", "weekly" or "monthly" to a Window. An empty
// string means daily.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return WindowDaily, nil
	case WindowDaily, WindowWeekly, WindowMonthly:
		return w, nil
	default:
		return "", fmt.Errorf("unknown window %q (want daily, weekly, or monthly)", s)
	}
}

// start returns the beginning of the window that ends at today.
func (w Window) start(today time.Time) time.Time {
	switch w {
	case WindowWeekly:
		return today.AddDate(0, 0, -7)
	case WindowMonthly:
		return today.AddDate(0, -1, 0)
	default:
		return today.AddDate(0, 0, -1)
	}
}

// Daily returns a search for papers in any of categories that were updated
// during the UTC day before now. Blank categories are skipped; with none
// left the search is empty.
func Daily(categories []string, now time.Time) types.Search {
	return Recent(categories, WindowDaily, now)
}

// Recent returns a search for papers in any of categories last updated
// between the start of window and 00:00 UTC today.
func Recent(categories []string, window Window, now time.Time) types.Search {
	s := types.Search{
		MaxResults: FacadeMaxResults,
		SortBy:     types.SortBySubmittedDate,
		SortOrder:  types.SortDescending,
	}

	var terms []string
	for _, c := range categories {
		if t := Term(FieldCategory, strings.TrimSpace(c)); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return s
	}

	today := now.UTC().Truncate(24 * time.Hour)
	s.Query = Or(terms...) + " AND " + DateRange(FieldLastUpdatedDate, window.start(today), today)
	return s
}
