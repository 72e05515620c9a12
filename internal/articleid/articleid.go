// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package articleid builds the SOURCE:external_id tokens that join article
// metadata from the search service with annotation results.
//
// Token is the only place the priority rules live. The annotation request and
// the later rejoin of annotations to articles both call it, so a record always
// resolves to the same token on both sides of the join.
package articleid

import (
	"strings"

	"github.com/pdiddy/target-explorer/pkg/types"
)

const (
	sourcePubMed = "MED"
	sourcePMC    = "PMC"
)

// Token returns the article's canonical token, or "" when the record carries
// no usable identifier. Priority: PMID, then PMCID, then (source, id).
func Token(a types.Article) string {
	pmid := strings.TrimSpace(a.PMID)
	pmcid := strings.TrimSpace(a.PMCID)
	source := strings.TrimSpace(a.Source)
	id := strings.TrimSpace(a.ID)

	if pmid != "" {
		return sourcePubMed + ":" + pmid
	}
	if pmcid != "" {
		return sourcePMC + ":" + StripPMC(pmcid)
	}
	if source != "" && id != "" {
		return source + ":" + id
	}
	return ""
}

// FromEntry builds the token for an annotation response entry from its
// reported source and external id, falling back to whichever is present.
// PMC entries drop the PMC prefix from the id, matching Token.
func FromEntry(source, extID string) string {
	source = strings.TrimSpace(source)
	extID = strings.TrimSpace(extID)
	if strings.EqualFold(source, sourcePMC) && extID != "" {
		return sourcePMC + ":" + StripPMC(extID)
	}
	if source != "" && extID != "" {
		return source + ":" + extID
	}
	if extID != "" {
		return extID
	}
	return source
}

// StripPMC removes a leading "PMC" (any case) from a PMCID.
func StripPMC(pmcid string) string {
	if len(pmcid) >= 3 && strings.EqualFold(pmcid[:3], sourcePMC) {
		return pmcid[3:]
	}
	return pmcid
}

// Tokens returns the non-empty tokens of articles in input order, dropping
// duplicates. The second return value counts records without a usable token.
func Tokens(articles []types.Article) ([]string, int) {
	seen := make(map[string]bool, len(articles))
	tokens := make([]string, 0, len(articles))
	missing := 0
	for _, a := range articles {
		t := Token(a)
		if t == "" {
			missing++
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		tokens = append(tokens, t)
	}
	return tokens, missing
}

// URLIndex maps each article token to the article's canonical URL. When two
// records share a token the first one wins.
func URLIndex(articles []types.Article) map[string]string {
	idx := make(map[string]string, len(articles))
	for _, a := range articles {
		t := Token(a)
		if t == "" {
			continue
		}
		if _, ok := idx[t]; !ok {
			idx[t] = a.URL
		}
	}
	return idx
}
