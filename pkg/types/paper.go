// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Link is a hyperlink attached to an arXiv entry.
type Link struct {
	Href  string `json:"href" yaml:"href"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Rel   string `json:"rel,omitempty" yaml:"rel,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Paper is one arXiv result record decoded from a feed entry. It owns no
// network resource; downloads are actions performed on its links on demand.
type Paper struct {
	// EntryID is the entry's canonical abstract URL
	// (e.g. "http://arxiv.org/abs/2301.07041v2").
	EntryID string `json:"entry_id" yaml:"entry_id"`

	// ID is the versioned arXiv identifier (e.g. "2301.07041v2").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title with whitespace collapsed.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in feed order.
	Authors []string `json:"authors" yaml:"authors"`

	// Summary is the paper abstract.
	Summary string `json:"abstract" yaml:"abstract"`

	// Comment is the author comment (page counts, venue), if any.
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`

	// JournalRef is the journal reference, if any.
	JournalRef string `json:"journal_ref,omitempty" yaml:"journal_ref,omitempty"`

	// DOI is the publisher DOI, if any.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PrimaryCategory is the arXiv primary category (e.g. "cs.LG").
	PrimaryCategory string `json:"primary_category" yaml:"primary_category"`

	// Categories lists all categories, primary first, without duplicates.
	Categories []string `json:"categories" yaml:"categories"`

	// Links holds the abstract, PDF, and DOI links of the entry.
	Links []Link `json:"links" yaml:"links"`

	// Published is the time version 1 was submitted.
	Published time.Time `json:"published" yaml:"published"`

	// Updated is the time the current version was submitted.
	Updated time.Time `json:"updated" yaml:"updated"`
}

// ShortID returns the identifier without its version suffix
// ("2301.07041v2" → "2301.07041").
func (p Paper) ShortID() string {
	return StripVersion(p.ID)
}

// AbstractURL returns the abstract page link. The feed marks it as the
// link without a title; EntryID is used when no such link exists.
func (p Paper) AbstractURL() string {
	for _, l := range p.Links {
		if l.Title == "" && l.Rel == "alternate" {
			return l.Href
		}
	}
	return p.EntryID
}

// PDFURL returns the link titled "pdf", or "" if the entry has none.
func (p Paper) PDFURL() string {
	for _, l := range p.Links {
		if l.Title == "pdf" {
			return l.Href
		}
	}
	return ""
}

// SourceURL returns the source archive link, derived from the PDF link by
// swapping the /pdf/ path segment for /src/.
func (p Paper) SourceURL() string {
	pdf := p.PDFURL()
	if pdf == "" {
		return ""
	}
	return strings.Replace(pdf, "/pdf/", "/src/", 1)
}

// StripVersion removes a trailing "vN" version suffix from an arXiv id.
func StripVersion(id string) string {
	i := strings.LastIndex(id, "v")
	if i <= 0 || i == len(id)-1 {
		return id
	}
	for _, r := range id[i+1:] {
		if r < '0' || r > '9' {
			return id
		}
	}
	return id[:i]
}
