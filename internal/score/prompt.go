// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/target-explorer/pkg/types"
)

var promptFuncs = template.FuncMap{
	"heading": heading,
	"json": func(s string) (string, error) {
		b, err := json.Marshal(s)
		return string(b), err
	},
}

// heading turns a category name into a title ("disease_linkage" becomes
// "Disease Linkage").
func heading(c types.Category) string {
	words := strings.Fields(strings.ReplaceAll(string(c), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// articlePromptTmpl asks for a structured assessment of one article.
var articlePromptTmpl = template.Must(template.New("article").Funcs(promptFuncs).Parse(`You are an expert drug discovery researcher evaluating a single therapeutic target.

Target of interest: {{.Target}}

Analyze this biomedical article ONLY for information relevant to this target.

Article:
Article ID: {{.ArticleID}}
Title: {{.Title}}
Abstract: {{.Abstract}}

Answer the questions below only if the article provides evidence relevant to the target; otherwise answer "Not addressed in this article". Include the article ID in every evidence string so scientists can trace it back.

For each category provide:
- answer: Yes/No/Partial/Not addressed with a brief explanation (1-2 sentences)
- evidence: key quotes or data supporting the answer
- confidence: Low/Medium/High

Also list every gene/protein target mentioned that is a synonym of, or closely related to, the target of interest.

Questions:
{{range .Sections}}
## {{heading .Category}}
{{range .Questions}}- {{.}}
{{end}}{{end}}
Respond with a JSON object in exactly this schema. Do not include any text outside the JSON object.
{"target": {{json .Target}}, "article_id": {{json .ArticleID}}, "overall_targets": ["gene1", "gene2"],
 "disease_linkage": {"answer": "...", "evidence": ["..."], "confidence": "High"},
 "validation_strength": {"answer": "...", "evidence": ["..."], "confidence": "Medium"},
 "druggability_safety": {"answer": "...", "evidence": ["..."], "confidence": "Low"},
 "novelty_prioritization": {"answer": "...", "evidence": ["..."], "confidence": "Medium"},
 "summary_score": "High/Medium/Low priority target"}
`))

// corpusPromptTmpl asks for one assessment integrating all per-article results.
var corpusPromptTmpl = template.Must(template.New("corpus").Funcs(promptFuncs).Parse(`You are an expert drug discovery researcher assessing the completeness of evidence for a single target.

Target of interest: {{.Target}}

You are given structured per-article summaries as a JSON list. Each entry has the article_id, title, category-level answers with evidence, and a summary_score for that article.

Per-article summaries:
{{.Corpus}}

Using ALL articles together, answer at the corpus level. For each category (disease_linkage, validation_strength, druggability_safety, novelty_prioritization) provide:
- answer: Yes/No/Partial with a concise explanation (2-3 sentences) integrating all relevant articles
- evidence: a list of strings, each naming the article_id and a short quote or data point
- confidence: Low/Medium/High, based on the number of independent studies, their consistency and quality

Then give an overall summary_score (High/Medium/Low priority) with a brief justification.

Respond with a JSON object in exactly this schema. Do not include any text outside the JSON object.
{"target": {{json .Target}},
 "disease_linkage": {"answer": "...", "evidence": ["..."], "confidence": "High"},
 "validation_strength": {"answer": "...", "evidence": ["..."], "confidence": "Medium"},
 "druggability_safety": {"answer": "...", "evidence": ["..."], "confidence": "Low"},
 "novelty_prioritization": {"answer": "...", "evidence": ["..."], "confidence": "Medium"},
 "summary_score": "High/Medium/Low priority target"}
`))

type promptSection struct {
	Category  types.Category
	Questions []string
}

func questionSections() []promptSection {
	out := make([]promptSection, 0, len(types.Categories))
	for _, c := range types.Categories {
		out = append(out, promptSection{Category: c, Questions: Questions[c]})
	}
	return out
}

// renderArticlePrompt builds the prompt for one article.
func renderArticlePrompt(target, articleID, title, abstract string) (string, error) {
	var buf bytes.Buffer
	err := articlePromptTmpl.Execute(&buf, struct {
		Target, ArticleID, Title, Abstract string
		Sections                           []promptSection
	}{target, articleID, title, abstract, questionSections()})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderCorpusPrompt builds the corpus-level prompt from per-article results.
func renderCorpusPrompt(target string, perArticle []types.Assessment) (string, error) {
	if perArticle == nil {
		perArticle = []types.Assessment{}
	}
	corpus, err := json.MarshalIndent(perArticle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding per-article results: %w", err)
	}
	var buf bytes.Buffer
	err = corpusPromptTmpl.Execute(&buf, struct {
		Target, Corpus string
	}{target, string(corpus)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const defaultMaxTokens = 4096

// ClaudeBackend sends prompts to the Claude Messages API.
type ClaudeBackend struct {
	APIKey    string
	Model     string
	MaxTokens int
	Client    *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends prompt as a single user message and returns the text of the
// reply.
func (c *ClaudeBackend) Complete(ctx context.Context, prompt string) (string, error) {
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	var text strings.Builder
	for _, block := range cResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text content in Claude API response")
	}
	return text.String(), nil
}
