// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the target-explorer pipeline:
// articles returned by the literature search, gene/protein annotations, the
// aggregated target records, and LLM evidence assessments.
package types

import "strings"

// Article is one normalized search result from the literature search service.
// Records are created once by the fetcher and never mutated afterwards.
type Article struct {
	// ID is the service's internal identifier (e.g. "41366037", "PPR123456").
	ID string `json:"id" yaml:"id"`

	// Source is the service's source code: MED, PMC, PPR, AGR, ...
	Source string `json:"source" yaml:"source"`

	// PMID is the PubMed identifier, if any.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// PMCID is the PubMed Central identifier including its "PMC" prefix, if any.
	PMCID string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`

	// DOI is the bare DOI, if any.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`

	// PubYear is the publication year, 0 when the service did not report one.
	PubYear int `json:"pub_year" yaml:"pub_year"`

	// URL is the canonical link to the article (full text when available).
	URL string `json:"url" yaml:"url"`
}

// Usable reports whether the record carries at least one identifying field.
// Records that are not usable are listed but never sent for annotation.
func (a Article) Usable() bool {
	for _, v := range []string{a.ID, a.PMID, a.PMCID, a.DOI} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
