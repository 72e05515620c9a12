// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pdiddy/target-explorer/pkg/types"
)

// ArticleRow is one (article, category) line of the per-article export.
type ArticleRow struct {
	ArticleID  string `json:"article_id" yaml:"article_id"`
	Category   string `json:"category" yaml:"category"`
	Answer     string `json:"answer" yaml:"answer"`
	Confidence string `json:"confidence" yaml:"confidence"`
	Evidence   string `json:"evidence" yaml:"evidence"`
}

// CorpusRow is one (section, question) line of the corpus export. Every
// question of a section shares the section's answer.
type CorpusRow struct {
	Section    string `json:"section" yaml:"section"`
	Question   string `json:"question" yaml:"question"`
	Answer     string `json:"answer" yaml:"answer"`
	Evidence   string `json:"evidence" yaml:"evidence"`
	Confidence string `json:"confidence" yaml:"confidence"`
}

// PerArticleRows flattens assessments to one row per present category.
// Error-tagged assessments contribute no rows.
func PerArticleRows(assessments []types.Assessment) []ArticleRow {
	var rows []ArticleRow
	for _, as := range assessments {
		for _, c := range types.Categories {
			block := as.Category(c)
			if block == nil {
				continue
			}
			rows = append(rows, ArticleRow{
				ArticleID:  as.ArticleID,
				Category:   c.Label(),
				Answer:     block.Answer,
				Confidence: block.Confidence,
				Evidence:   strings.Join(block.Evidence, "\n"),
			})
		}
	}
	return rows
}

// CorpusRows flattens a corpus assessment to one row per question of each
// present category, followed by a summary_score row when a summary exists.
func CorpusRows(corpus types.Assessment) []CorpusRow {
	var rows []CorpusRow
	for _, c := range types.Categories {
		block := corpus.Category(c)
		if block == nil {
			continue
		}
		evidence := strings.Join(block.Evidence, "\n")
		for _, q := range Questions[c] {
			rows = append(rows, CorpusRow{
				Section:    string(c),
				Question:   q,
				Answer:     block.Answer,
				Evidence:   evidence,
				Confidence: block.Confidence,
			})
		}
	}
	if corpus.SummaryScore != "" {
		rows = append(rows, CorpusRow{
			Section:  "summary_score",
			Question: SummaryQuestion,
			Answer:   corpus.SummaryScore,
		})
	}
	return rows
}

// WriteArticleRowsCSV writes rows with a header line.
func WriteArticleRowsCSV(w io.Writer, rows []ArticleRow) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"article_id", "category", "answer", "confidence", "evidence"})
	for _, r := range rows {
		cw.Write([]string{r.ArticleID, r.Category, r.Answer, r.Confidence, r.Evidence})
	}
	cw.Flush()
	return cw.Error()
}

// WriteCorpusRowsCSV writes rows with a header line.
func WriteCorpusRowsCSV(w io.Writer, rows []CorpusRow) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"section", "question", "answer", "evidence", "confidence"})
	for _, r := range rows {
		cw.Write([]string{r.Section, r.Question, r.Answer, r.Evidence, r.Confidence})
	}
	cw.Flush()
	return cw.Error()
}
