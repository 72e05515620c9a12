// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestAnnotationSet_PreservesInsertionOrder(t *testing.T) {
	s := NewAnnotationSet()
	s.Put("MED:2", []Annotation{{Type: "Gene_Proteins"}})
	s.Put("MED:1", nil)
	s.Put("MED:2", []Annotation{{Type: "Gene_Proteins"}, {Type: "Gene_Proteins"}})

	require.Equal(t, 2, s.Len())
	assert.Equal(t, "MED:2", s.Entries[0].Token)
	assert.Equal(t, "MED:1", s.Entries[1].Token)
	assert.Equal(t, 2, s.Count())

	anns, ok := s.Get("MED:2")
	assert.True(t, ok)
	assert.Len(t, anns, 2)
	_, ok = s.Get("MED:3")
	assert.False(t, ok)
}

func TestAnnotationSet_ZeroValueAndDecoded(t *testing.T) {
	var s AnnotationSet
	s.Put("PMC:1", nil)
	assert.Equal(t, 1, s.Len())

	var decoded AnnotationSet
	require.NoError(t, yaml.Unmarshal([]byte(`
entries:
  - token: MED:5
    annotations:
      - type: Gene_Proteins
        tags: [{name: INS, uri: ""}]
`), &decoded))
	anns, ok := decoded.Get("MED:5")
	require.True(t, ok)
	assert.Equal(t, "INS", anns[0].Tags[0].Name)
}

func TestTargetRecord_NArticles(t *testing.T) {
	assert.Zero(t, TargetRecord{}.NArticles())
	assert.Equal(t, 2, TargetRecord{Articles: []string{"MED:1", "MED:2"}}.NArticles())
}

func TestAssessment_Category(t *testing.T) {
	a := Assessment{
		DiseaseLinkage:        &CategoryAnswer{Answer: "Yes"},
		NoveltyPrioritization: &CategoryAnswer{Answer: "Partial"},
	}
	assert.Equal(t, "Yes", a.Category(CategoryDiseaseLinkage).Answer)
	assert.Nil(t, a.Category(CategoryValidationStrength))
	assert.Equal(t, "Partial", a.Category(CategoryNoveltyPrioritization).Answer)
	assert.Nil(t, a.Category("unknown"))
	assert.False(t, a.Failed())
	assert.True(t, Assessment{Error: "boom"}.Failed())
}

func TestCategory_Label(t *testing.T) {
	require.Len(t, Categories, 4)
	assert.Equal(t, "Druggability & safety", CategoryDruggabilitySafety.Label())
	assert.Equal(t, "custom", Category("custom").Label())
}

func TestArticle_Usable(t *testing.T) {
	assert.True(t, Article{PMID: "1"}.Usable())
	assert.True(t, Article{DOI: "10.1/x"}.Usable())
	assert.True(t, Article{ID: "PPR1", Source: "PPR"}.Usable())
	assert.False(t, Article{Title: "no ids", Source: "MED"}.Usable())
	assert.False(t, Article{PMID: "  "}.Usable())
}
