// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RankedTarget is one entry of the top-K list.
type RankedTarget struct {
	Key       string `json:"key" yaml:"key"`
	Frequency int    `json:"frequency" yaml:"frequency"`
}

// ArticleLink pairs a supporting article token with its canonical URL.
type ArticleLink struct {
	Token string `json:"token" yaml:"token"`
	URL   string `json:"url" yaml:"url"`
}

// TargetRecord aggregates every mention of one target key across the corpus.
type TargetRecord struct {
	// Key is the dedup key: lower-cased accession, or lower-cased name when
	// the tag carried no usable URI.
	Key string `json:"key" yaml:"key"`

	// Name is the display name of the first occurrence.
	Name string `json:"name" yaml:"name"`

	// Accession is the accession of the first occurrence, possibly empty.
	Accession string `json:"accession,omitempty" yaml:"accession,omitempty"`

	// ReferenceURL is the tag URI of the first occurrence.
	ReferenceURL string `json:"reference_url,omitempty" yaml:"reference_url,omitempty"`

	// Frequency counts annotation occurrences, not distinct articles.
	Frequency int `json:"frequency" yaml:"frequency"`

	// Articles lists the distinct supporting article tokens, sorted.
	Articles []string `json:"articles" yaml:"articles"`

	// ArticleLinks lists (token, URL) pairs in the same order as Articles.
	ArticleLinks []ArticleLink `json:"article_links" yaml:"article_links"`
}

// NArticles returns the number of distinct supporting articles.
func (r TargetRecord) NArticles() int { return len(r.Articles) }

// MergeEvent reports a key that collected tags from both an accession-bearing
// URI and a name-only tag. The two were folded into a single record.
type MergeEvent struct {
	Key           string `json:"key" yaml:"key"`
	AccessionTags int    `json:"accession_tags" yaml:"accession_tags"`
	NameOnlyTags  int    `json:"name_only_tags" yaml:"name_only_tags"`
}
