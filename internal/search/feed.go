// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// Page is one decoded batch of results fetched at Offset.
type Page struct {
	Papers       []types.Paper
	TotalResults int
	Offset       int
}

// arXiv Atom feed XML structures. encoding/xml matches on local names, so
// the opensearch: and arxiv: prefixed elements need no namespace here.
type atomFeed struct {
	XMLName      xml.Name
	TotalResults *string     `xml:"totalResults"`
	Entries      []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string         `xml:"id"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Published       string         `xml:"published"`
	Updated         string         `xml:"updated"`
	Authors         []atomAuthor   `xml:"author"`
	Links           []atomLink     `xml:"link"`
	PrimaryCategory atomCategory   `xml:"primary_category"`
	Categories      []atomCategory `xml:"category"`
	Comment         string         `xml:"comment"`
	JournalRef      string         `xml:"journal_ref"`
	DOI             string         `xml:"doi"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// apiErrorMarker appears in the id of the entry arXiv returns in place of
// results when a query is rejected.
const apiErrorMarker = "/api/errors"

// decodePage parses a feed body fetched at offset. Malformed feeds are
// classified as transient or fatal according to policy.
func decodePage(body []byte, offset, status int, policy FeedPolicy) (*Page, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &TransientFetchError{Offset: offset, StatusCode: status, Err: ErrEmptyBody}
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, classify(policy.RetryParseErrors, offset, status, fmt.Errorf("parsing arXiv response: %w", err))
	}
	if feed.XMLName.Local != "feed" {
		return nil, classify(policy.RetryBadSchema, offset, status,
			fmt.Errorf("%w: root element %q", ErrBadSchema, feed.XMLName.Local))
	}

	if msg, ok := apiError(feed.Entries); ok {
		return nil, &FatalFetchError{Offset: offset, StatusCode: status, Err: fmt.Errorf("%w: %s", ErrAPI, msg)}
	}

	if feed.TotalResults == nil {
		return nil, classify(policy.RetryBadSchema, offset, status,
			fmt.Errorf("%w: missing totalResults", ErrBadSchema))
	}
	total, err := strconv.Atoi(strings.TrimSpace(*feed.TotalResults))
	if err != nil || total < 0 {
		return nil, classify(policy.RetryBadSchema, offset, status,
			fmt.Errorf("%w: invalid totalResults %q", ErrBadSchema, *feed.TotalResults))
	}

	page := &Page{TotalResults: total, Offset: offset}
	for _, e := range feed.Entries {
		if strings.TrimSpace(e.ID) == "" {
			return nil, classify(policy.RetryBadSchema, offset, status,
				fmt.Errorf("%w: entry without id", ErrBadSchema))
		}
		page.Papers = append(page.Papers, entryToPaper(e))
	}

	if len(page.Papers) == 0 && offset < total {
		return nil, classify(policy.RetryEmptyPage, offset, status,
			fmt.Errorf("%w (offset %d, total %d)", ErrUnexpectedPage, offset, total))
	}
	return page, nil
}

// apiError reports the message of an arXiv error entry, if the feed is one.
func apiError(entries []atomEntry) (string, bool) {
	if len(entries) != 1 || !strings.Contains(entries[0].ID, apiErrorMarker) {
		return "", false
	}
	msg := collapse(entries[0].Summary)
	if msg == "" {
		msg = entries[0].ID
	}
	return msg, true
}

func entryToPaper(e atomEntry) types.Paper {
	p := types.Paper{
		EntryID:         strings.TrimSpace(e.ID),
		ID:              extractArxivID(e.ID),
		Title:           collapse(e.Title),
		Summary:         strings.TrimSpace(e.Summary),
		Comment:         collapse(e.Comment),
		JournalRef:      collapse(e.JournalRef),
		DOI:             strings.TrimSpace(e.DOI),
		PrimaryCategory: e.PrimaryCategory.Term,
	}

	for _, a := range e.Authors {
		if name := collapse(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}

	// Primary category first, then the rest without repeats.
	seen := make(map[string]bool)
	add := func(term string) {
		if term != "" && !seen[term] {
			seen[term] = true
			p.Categories = append(p.Categories, term)
		}
	}
	add(e.PrimaryCategory.Term)
	for _, c := range e.Categories {
		add(c.Term)
	}

	for _, l := range e.Links {
		p.Links = append(p.Links, types.Link{Href: l.Href, Title: l.Title, Rel: l.Rel, Type: l.Type})
	}

	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		p.Published = t
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Updated)); err == nil {
		p.Updated = t
	}
	return p
}

// extractArxivID pulls the versioned arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041v1",
// "http://arxiv.org/abs/hep-th/9901001v2" → "hep-th/9901001v2").
func extractArxivID(idURL string) string {
	idURL = strings.TrimSpace(idURL)
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return idURL
	}
	return idURL[idx+len(prefix):]
}

// collapse trims s and folds internal runs of whitespace to one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
