// Package catalog turns classroom input supplied by the host into sentence templates.
package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

const (
	PlaceholderText    = "(no text)"
	PlaceholderConcept = "(unassigned)"
	// DefaultOrderLabel is the concept given to ORDER_MATCH lines without one.
	DefaultOrderLabel = "0"
)

const bom = "\ufeff"

// ParseLines reads one "text / concept" template per line. Blank lines are
// skipped and anything after a second '/' is ignored.
func ParseLines(raw string, mode models.RoomMode) []models.SentenceTemplate {
	var templates []models.SentenceTemplate
	for _, line := range strings.Split(strings.TrimPrefix(raw, bom), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "/")
		text := strings.TrimSpace(parts[0])
		concept := ""
		if len(parts) > 1 {
			concept = strings.TrimSpace(parts[1])
		}
		templates = append(templates, newTemplate(text, concept, mode))
	}
	return templates
}

// ReadCSV reads templates from a header-less CSV: first column text, second
// column concept or order label. Rows without text are skipped.
func ReadCSV(r io.Reader, mode models.RoomMode) ([]models.SentenceTemplate, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && string(head) == bom {
		_, _ = br.Discard(len(bom))
	}
	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var templates []models.SentenceTemplate
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		text := strings.TrimSpace(record[0])
		if text == "" {
			continue
		}
		concept := ""
		if len(record) > 1 {
			concept = strings.TrimSpace(record[1])
		}
		templates = append(templates, newTemplate(text, concept, mode))
	}
	return templates, nil
}

// Normalize trims templates and fills in placeholders for missing fields.
func Normalize(templates []models.SentenceTemplate, mode models.RoomMode) []models.SentenceTemplate {
	out := make([]models.SentenceTemplate, 0, len(templates))
	for _, t := range templates {
		out = append(out, newTemplate(strings.TrimSpace(t.Text), strings.TrimSpace(t.Concept), mode))
	}
	return out
}

func newTemplate(text, concept string, mode models.RoomMode) models.SentenceTemplate {
	if text == "" {
		text = PlaceholderText
	}
	if concept == "" {
		if mode == models.RoomModeOrderMatch {
			concept = DefaultOrderLabel
		} else {
			concept = PlaceholderConcept
		}
	}
	return models.SentenceTemplate{Text: text, Concept: concept}
}
