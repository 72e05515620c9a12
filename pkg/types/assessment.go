// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Category names one of the four evidence dimensions scored by the LLM.
type Category string

const (
	CategoryDiseaseLinkage        Category = "disease_linkage"
	CategoryValidationStrength    Category = "validation_strength"
	CategoryDruggabilitySafety    Category = "druggability_safety"
	CategoryNoveltyPrioritization Category = "novelty_prioritization"
)

// Categories lists the evidence dimensions in presentation order.
var Categories = []Category{
	CategoryDiseaseLinkage,
	CategoryValidationStrength,
	CategoryDruggabilitySafety,
	CategoryNoveltyPrioritization,
}

// Label returns the human-readable name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryDiseaseLinkage:
		return "Disease linkage"
	case CategoryValidationStrength:
		return "Validation strength"
	case CategoryDruggabilitySafety:
		return "Druggability & safety"
	case CategoryNoveltyPrioritization:
		return "Novelty & prioritization"
	}
	return string(c)
}

// CategoryAnswer is the model's answer for one category.
type CategoryAnswer struct {
	Answer     string   `json:"answer" yaml:"answer"`
	Evidence   []string `json:"evidence" yaml:"evidence"`
	Confidence string   `json:"confidence" yaml:"confidence"`
}

// Assessment is the parsed model response for one article or for the whole
// corpus. When the response contained no parseable JSON object, Error is set
// and Raw carries the model text; all other fields are empty.
type Assessment struct {
	Target                string          `json:"target,omitempty" yaml:"target,omitempty"`
	ArticleID             string          `json:"article_id,omitempty" yaml:"article_id,omitempty"`
	Title                 string          `json:"title,omitempty" yaml:"title,omitempty"`
	OverallTargets        []string        `json:"overall_targets,omitempty" yaml:"overall_targets,omitempty"`
	DiseaseLinkage        *CategoryAnswer `json:"disease_linkage,omitempty" yaml:"disease_linkage,omitempty"`
	ValidationStrength    *CategoryAnswer `json:"validation_strength,omitempty" yaml:"validation_strength,omitempty"`
	DruggabilitySafety    *CategoryAnswer `json:"druggability_safety,omitempty" yaml:"druggability_safety,omitempty"`
	NoveltyPrioritization *CategoryAnswer `json:"novelty_prioritization,omitempty" yaml:"novelty_prioritization,omitempty"`
	SummaryScore          string          `json:"summary_score,omitempty" yaml:"summary_score,omitempty"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	Raw   string `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// Failed reports whether the assessment is error-tagged.
func (a Assessment) Failed() bool { return a.Error != "" }

// Category returns the answer block for c, or nil when absent.
func (a Assessment) Category(c Category) *CategoryAnswer {
	switch c {
	case CategoryDiseaseLinkage:
		return a.DiseaseLinkage
	case CategoryValidationStrength:
		return a.ValidationStrength
	case CategoryDruggabilitySafety:
		return a.DruggabilitySafety
	case CategoryNoveltyPrioritization:
		return a.NoveltyPrioritization
	}
	return nil
}
