package services

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// wordGapRatio is the horizontal gap, as a share of the font size, above
// which two glyphs on a row are treated as separate words.
const wordGapRatio = 0.2

type pdfParserService struct{}

func NewPDFParserService() TextExtractor {
	return &pdfParserService{}
}

func (p *pdfParserService) Name() string { return "pdf" }

// Extract walks the text layer page by page. Rows are rebuilt from glyph
// positions so that line-oriented heuristics (name, sections) still work.
func (p *pdfParserService) Extract(ctx context.Context, doc Document) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parser panicked: %v: %w", r, ErrExtractionFailed)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %v: %w", err, ErrExtractionFailed)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText := pageRowsText(page)
		if strings.TrimSpace(pageText) == "" {
			plain, err := page.GetPlainText(nil)
			if err != nil {
				continue
			}
			pageText = plain
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	return textBuilder.String(), nil
}

// pageRowsText rebuilds lines from glyph positions. Glyphs sharing a
// baseline form one row; rows run top to bottom and glyphs left to right.
// Fonts without a Widths array report zero-width glyphs, so the sort is
// stable to keep stream order for glyphs at the same X.
func pageRowsText(page pdf.Page) string {
	rows := make(map[float64][]pdf.Text)
	for _, t := range page.Content().Text {
		if strings.TrimFunc(t.S, unicode.IsControl) == "" {
			continue
		}
		y := math.Round(t.Y)
		rows[y] = append(rows[y], t)
	}

	ys := make([]float64, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	var b strings.Builder
	for _, y := range ys {
		row := rows[y]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var line strings.Builder
		for i, t := range row {
			if i > 0 {
				prev := row[i-1]
				gap := t.X - (prev.X + prev.W)
				if gap > t.FontSize*wordGapRatio && prev.S != " " && t.S != " " {
					line.WriteByte(' ')
				}
			}
			line.WriteString(t.S)
		}
		if s := strings.TrimSpace(line.String()); s != "" {
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}

	return b.String()
}
