package services

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

type docxParserService struct{}

func NewDOCXParserService() TextExtractor {
	return &docxParserService{}
}

func (d *docxParserService) Name() string { return "docx" }

func (d *docxParserService) Extract(_ context.Context, doc Document) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %v: %w", err, ErrExtractionFailed)
	}
	defer r.Close()

	return docxXMLToText(r.Editable().GetContent()), nil
}

// docxXMLToText flattens WordprocessingML into lines, one per paragraph.
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}
