// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// IdentifierType classifies an input identifier.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	// TypeArxiv is a post-2007 identifier such as "2301.07041v2".
	TypeArxiv
	// TypeArxivLegacy is a pre-2007 identifier such as "hep-th/9901001".
	TypeArxivLegacy
)

func (t IdentifierType) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeArxivLegacy:
		return "arxiv-legacy"
	default:
		return "unknown"
	}
}

// arxivPattern matches new-style IDs: "2301.07041", "0704.0001v2".
var arxivPattern = regexp.MustCompile(`^(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// legacyPattern matches old-style IDs: "hep-th/9901001", "math.GT/0309136v1".
var legacyPattern = regexp.MustCompile(`^([a-z]+(?:-[a-z]+)*(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?)$`)

// Classify determines the identifier type and returns the bare arXiv ID.
// It accepts an optional "arXiv:" prefix and arxiv.org abs, pdf and src
// URLs.
func Classify(identifier string) (IdentifierType, string) {
	id := strings.TrimSpace(identifier)

	if u, err := url.Parse(id); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if !strings.HasSuffix(u.Hostname(), "arxiv.org") {
			return TypeUnknown, id
		}
		path := strings.TrimPrefix(u.Path, "/")
		for _, prefix := range []string{"abs/", "pdf/", "src/"} {
			if strings.HasPrefix(path, prefix) {
				id = strings.TrimSuffix(strings.TrimPrefix(path, prefix), ".pdf")
				break
			}
		}
	}

	if len(id) > 6 && strings.EqualFold(id[:6], "arxiv:") {
		id = id[6:]
	}

	if m := arxivPattern.FindStringSubmatch(id); m != nil {
		return TypeArxiv, m[1]
	}
	if m := legacyPattern.FindStringSubmatch(id); m != nil {
		return TypeArxivLegacy, m[1]
	}
	return TypeUnknown, strings.TrimSpace(identifier)
}

// Collector runs a search to completion.
type Collector interface {
	Collect(ctx context.Context, s types.Search) ([]types.Paper, error)
}

// Resolve looks up the papers behind identifiers with one id_list search.
// Unrecognised identifiers fail the whole call before any request is made.
func Resolve(ctx context.Context, c Collector, identifiers []string) ([]types.Paper, error) {
	ids := make([]string, 0, len(identifiers))
	for _, raw := range identifiers {
		idType, id := Classify(raw)
		if idType == TypeUnknown {
			return nil, fmt.Errorf("unrecognized arXiv identifier: %q", raw)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	papers, err := c.Collect(ctx, types.Search{IDList: ids, MaxResults: len(ids)})
	if err != nil {
		return papers, fmt.Errorf("resolving %d identifier(s): %w", len(ids), err)
	}
	return papers, nil
}
