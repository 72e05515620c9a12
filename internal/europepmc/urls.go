// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package europepmc

import (
	"github.com/pdiddy/target-explorer/internal/articleid"
	"github.com/pdiddy/target-explorer/pkg/types"
)

// Canonical link prefixes.
const (
	pmcArticlePrefix  = "https://europepmc.org/article/PMC/"
	medAbstractPrefix = "https://europepmc.org/abstract/MED/"
	doiPrefix         = "https://doi.org/"
)

// firstFullTextURL returns the url of the first full-text link, or "" when
// the list is missing or its first entry carries no url.
func firstFullTextURL(list *fullTextURLList) string {
	if list == nil || len(list.FullTextURL) == 0 {
		return ""
	}
	return list.FullTextURL[0].URL
}

// CanonicalURL picks the article link in priority order: the supplied
// full-text URL, the Europe PMC article page for a PMC id, the abstract page
// for a PubMed id, the DOI resolver. Returns "" when none apply.
func CanonicalURL(a types.Article, fullText string) string {
	switch {
	case fullText != "":
		return fullText
	case a.PMCID != "":
		return pmcArticlePrefix + articleid.StripPMC(a.PMCID)
	case a.PMID != "":
		return medAbstractPrefix + a.PMID
	case a.DOI != "":
		return doiPrefix + a.DOI
	}
	return ""
}
