// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/pdiddy/target-explorer/pkg/types"
)

// ErrMalformedCell is returned when a CSV cell does not hold the value its
// column requires.
var ErrMalformedCell = errors.New("malformed cell")

// TargetColumns is the header of the target CSV export. The list columns
// hold JSON text.
var TargetColumns = []string{
	"name", "accession", "frequency", "reference_url", "n_articles", "articles", "article_links",
}

// WriteTargetsCSV writes one row per record in the given order.
func WriteTargetsCSV(w io.Writer, records []types.TargetRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TargetColumns); err != nil {
		return err
	}
	for _, rec := range records {
		articles := rec.Articles
		if articles == nil {
			articles = []string{}
		}
		links := rec.ArticleLinks
		if links == nil {
			links = []types.ArticleLink{}
		}
		articlesJSON, err := json.Marshal(articles)
		if err != nil {
			return err
		}
		linksJSON, err := json.Marshal(links)
		if err != nil {
			return err
		}
		row := []string{
			rec.Name,
			rec.Accession,
			strconv.Itoa(rec.Frequency),
			rec.ReferenceURL,
			strconv.Itoa(rec.NArticles()),
			string(articlesJSON),
			string(linksJSON),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTargetsCSV parses a target export written by WriteTargetsCSV. List
// cells are decoded as JSON against their fixed schema; unknown fields,
// trailing data and inconsistent counts are rejected with ErrMalformedCell.
// Keys are re-derived from accession or name.
func ReadTargetsCSV(r io.Reader) ([]types.TargetRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV: %w", ErrMalformedCell)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if !slices.Equal(header, TargetColumns) {
		return nil, fmt.Errorf("unexpected header %q: %w", header, ErrMalformedCell)
	}

	var records []types.TargetRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}
		if len(row) != len(TargetColumns) {
			return nil, fmt.Errorf("row %d: %d fields, want %d: %w", line, len(row), len(TargetColumns), ErrMalformedCell)
		}
		rec, err := parseTargetRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseTargetRow(row []string) (types.TargetRecord, error) {
	rec := types.TargetRecord{
		Name:         row[0],
		Accession:    row[1],
		ReferenceURL: row[3],
	}
	key := strings.ToLower(rec.Accession)
	if key == "" {
		key = strings.ToLower(rec.Name)
	}
	if key == "" {
		return rec, cellError("name", "name and accession both empty")
	}
	rec.Key = key

	freq, err := strconv.Atoi(row[2])
	if err != nil || freq < 0 {
		return rec, cellError("frequency", "not a non-negative integer: "+row[2])
	}
	rec.Frequency = freq

	n, err := strconv.Atoi(row[4])
	if err != nil || n < 0 {
		return rec, cellError("n_articles", "not a non-negative integer: "+row[4])
	}

	if err := decodeStrict(row[5], &rec.Articles); err != nil {
		return rec, cellError("articles", err.Error())
	}
	if err := decodeStrict(row[6], &rec.ArticleLinks); err != nil {
		return rec, cellError("article_links", err.Error())
	}
	if len(rec.Articles) != n {
		return rec, cellError("n_articles", fmt.Sprintf("%d does not match %d articles", n, len(rec.Articles)))
	}
	if len(rec.ArticleLinks) != len(rec.Articles) {
		return rec, cellError("article_links", "length does not match articles")
	}
	for i, link := range rec.ArticleLinks {
		if link.Token != rec.Articles[i] {
			return rec, cellError("article_links", fmt.Sprintf("token %q at %d does not match articles", link.Token, i))
		}
	}
	return rec, nil
}

// decodeStrict decodes exactly one JSON value from s into v.
func decodeStrict(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data")
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data")
	}
	return nil
}

func cellError(column, msg string) error {
	return fmt.Errorf("column %s: %s: %w", column, msg, ErrMalformedCell)
}
