// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package europepmc

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Search API JSON structures (resultType=core).
type searchResponse struct {
	HitCount   int              `json:"hitCount"`
	ResultList searchResultList `json:"resultList"`
}

type searchResultList struct {
	Result []searchResult `json:"result"`
}

type searchResult struct {
	ID              string           `json:"id"`
	Source          string           `json:"source"`
	PMID            string           `json:"pmid"`
	PMCID           string           `json:"pmcid"`
	DOI             string           `json:"doi"`
	Title           string           `json:"title"`
	AbstractText    string           `json:"abstractText"`
	Abstract        string           `json:"abstract"`
	PubYear         pubYear          `json:"pubYear"`
	FullTextURLList *fullTextURLList `json:"fullTextUrlList"`
}

type fullTextURLList struct {
	FullTextURL []fullTextURL `json:"fullTextUrl"`
}

type fullTextURL struct {
	Availability  string `json:"availability"`
	DocumentStyle string `json:"documentStyle"`
	Site          string `json:"site"`
	URL           string `json:"url"`
}

// pubYear accepts the year as a JSON string ("2025") or number (2025).
// Anything unparseable decodes to 0.
type pubYear int

func (y *pubYear) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*y = 0
		return nil
	}
	*y = pubYear(n)
	return nil
}

// Annotations API JSON structures.
type annotationsWrapper struct {
	AnnotationsByArticle []annotationEntry `json:"annotationsByArticle"`
}

type annotationEntry struct {
	Source      string           `json:"source"`
	ExtID       string           `json:"extId"`
	PMCID       string           `json:"pmcid"`
	Annotations []annotationWire `json:"annotations"`
}

type annotationWire struct {
	Exact    string    `json:"exact"`
	Section  string    `json:"section"`
	Provider string    `json:"provider"`
	Type     string    `json:"type"`
	Tags     []tagWire `json:"tags"`
}

type tagWire struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// decodeAnnotationEntries accepts either a bare list of entries or an object
// wrapping the list under "annotationsByArticle".
func decodeAnnotationEntries(data []byte) ([]annotationEntry, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var w annotationsWrapper
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return w.AnnotationsByArticle, nil
	}
	var entries []annotationEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
