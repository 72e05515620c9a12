// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Tag is one normalized entity reference attached to an annotation.
type Tag struct {
	// Name is the normalized display name (e.g. "GLP1R").
	Name string `json:"name" yaml:"name"`

	// URI points to the reference record, typically a UniProt entry
	// (e.g. "https://www.uniprot.org/uniprotkb/P43220/entry").
	URI string `json:"uri" yaml:"uri"`
}

// Annotation is one gene/protein mention recognized in an article's text.
type Annotation struct {
	Exact    string `json:"exact,omitempty" yaml:"exact,omitempty"`
	Section  string `json:"section,omitempty" yaml:"section,omitempty"`
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Type     string `json:"type" yaml:"type"`
	Tags     []Tag  `json:"tags" yaml:"tags"`
}

// ArticleAnnotations holds the type-filtered annotations for one article token.
type ArticleAnnotations struct {
	Token       string       `json:"token" yaml:"token"`
	Annotations []Annotation `json:"annotations" yaml:"annotations"`
}

// AnnotationSet maps article tokens to annotations while preserving the order
// in which the annotation service returned them. Aggregation walks Entries in
// this order, which makes the top-K tie-break deterministic.
type AnnotationSet struct {
	Entries []ArticleAnnotations `json:"entries" yaml:"entries"`

	index map[string]int
}

// NewAnnotationSet returns an empty set.
func NewAnnotationSet() *AnnotationSet {
	return &AnnotationSet{index: make(map[string]int)}
}

// Put stores anns under token. A token seen before keeps its original
// position and has its list replaced.
func (s *AnnotationSet) Put(token string, anns []Annotation) {
	if s.index == nil {
		s.reindex()
	}
	if i, ok := s.index[token]; ok {
		s.Entries[i].Annotations = anns
		return
	}
	s.index[token] = len(s.Entries)
	s.Entries = append(s.Entries, ArticleAnnotations{Token: token, Annotations: anns})
}

// Get returns the annotations stored under token.
func (s *AnnotationSet) Get(token string) ([]Annotation, bool) {
	if s.index == nil {
		s.reindex()
	}
	i, ok := s.index[token]
	if !ok {
		return nil, false
	}
	return s.Entries[i].Annotations, true
}

// Len returns the number of tokens in the set.
func (s *AnnotationSet) Len() int { return len(s.Entries) }

// Count returns the total number of annotations across all tokens.
func (s *AnnotationSet) Count() int {
	n := 0
	for _, e := range s.Entries {
		n += len(e.Annotations)
	}
	return n
}

func (s *AnnotationSet) reindex() {
	s.index = make(map[string]int, len(s.Entries))
	for i, e := range s.Entries {
		s.index[e.Token] = i
	}
}
