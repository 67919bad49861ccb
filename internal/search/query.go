// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// Field prefixes understood by the arXiv query syntax.
const (
	FieldAll             = "all"
	FieldTitle           = "ti"
	FieldAuthor          = "au"
	FieldAbstract        = "abs"
	FieldComment         = "co"
	FieldJournalRef      = "jr"
	FieldCategory        = "cat"
	FieldReportNumber    = "rn"
	FieldSubmittedDate   = "submittedDate"
	FieldLastUpdatedDate = "lastUpdatedDate"
)

// arxivDateFmt is the timestamp layout arXiv expects in date ranges.
const arxivDateFmt = "200601021504"

// Encode renders a search into arXiv query parameters. Empty fields are
// omitted. Encode is pure: equal searches always yield equal values, which
// keeps retries of the same page byte-identical.
func Encode(s types.Search) url.Values {
	v := url.Values{}
	if s.Query != "" {
		v.Set("search_query", s.Query)
	}
	if len(s.IDList) > 0 {
		v.Set("id_list", strings.Join(s.IDList, ","))
	}
	if s.SortBy != "" {
		v.Set("sortBy", string(s.SortBy))
	}
	if s.SortOrder != "" {
		v.Set("sortOrder", string(s.SortOrder))
	}
	return v
}

// PageValues returns a copy of base with the page window added.
func PageValues(base url.Values, offset, pageSize int) url.Values {
	v := make(url.Values, len(base)+2)
	for k, vals := range base {
		v[k] = append([]string(nil), vals...)
	}
	v.Set("start", strconv.Itoa(offset))
	v.Set("max_results", strconv.Itoa(pageSize))
	return v
}

// Term renders one field-qualified term. Values containing whitespace are
// quoted so arXiv matches them as a phrase. An empty value yields "".
func Term(field, value string) string {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return ""
	}
	if strings.ContainsAny(value, " ") {
		value = `"` + strings.ReplaceAll(value, `"`, "") + `"`
	}
	return field + ":" + value
}

// And joins terms with AND, skipping empty ones. More than one term is
// parenthesised.
func And(terms ...string) string { return join("AND", terms) }

// Or joins terms with OR, skipping empty ones. More than one term is
// parenthesised.
func Or(terms ...string) string { return join("OR", terms) }

func join(op string, terms []string) string {
	var parts []string
	for _, t := range terms {
		if t != "" {
			parts = append(parts, t)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, " "+op+" ") + ")"
	}
}

// DateRange renders a date-range term, e.g.
// submittedDate:[202401010000 TO 202401020000]. Times are converted to UTC.
func DateRange(field string, from, to time.Time) string {
	return field + ":[" + from.UTC().Format(arxivDateFmt) + " TO " + to.UTC().Format(arxivDateFmt) + "]"
}
