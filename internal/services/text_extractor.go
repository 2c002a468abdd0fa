package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MIMEPDF      = "application/pdf"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEDOC      = "application/msword"
	MIMEText     = "text/plain"
	MIMEMarkdown = "text/markdown"
)

// Document is an uploaded file as handed to the extractors.
type Document struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Kind resolves the effective MIME type, preferring the declared one and
// falling back to the file extension.
func (d Document) Kind() string {
	mime := strings.ToLower(strings.TrimSpace(d.MIMEType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch mime {
	case MIMEPDF, MIMEDOCX, MIMEDOC, MIMEText, MIMEMarkdown:
		return mime
	}

	switch strings.ToLower(filepath.Ext(d.Filename)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDOCX
	case ".doc":
		return MIMEDOC
	case ".txt":
		return MIMEText
	case ".md":
		return MIMEMarkdown
	}

	return mime
}

// TextExtractor turns document bytes into plain text.
type TextExtractor interface {
	Name() string
	Extract(ctx context.Context, doc Document) (string, error)
}

type ReadabilityOptions struct {
	MinTextLength int
	MinAlnumRatio float64
}

func DefaultReadabilityOptions() ReadabilityOptions {
	return ReadabilityOptions{MinTextLength: 50, MinAlnumRatio: 0.3}
}

// CheckReadable rejects text that is too short or mostly non-alphanumeric.
func CheckReadable(text string, opts ReadabilityOptions) error {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < opts.MinTextLength {
		return fmt.Errorf("only %d characters recovered: %w", utf8.RuneCountInString(trimmed), ErrExtractionFailed)
	}

	if ratio := alnumRatio(trimmed); ratio < opts.MinAlnumRatio {
		return fmt.Errorf("text looks unreadable (%.0f%% alphanumeric): %w", ratio*100, ErrExtractionFailed)
	}

	return nil
}

func alnumRatio(text string) float64 {
	var total, alnum int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alnum) / float64(total)
}

type documentTextExtractor struct {
	byKind map[string]TextExtractor
	opts   ReadabilityOptions
}

// NewDocumentTextExtractor dispatches on document kind and applies the readability gate.
func NewDocumentTextExtractor(opts ReadabilityOptions) TextExtractor {
	plain := &plainTextExtractor{}
	return &documentTextExtractor{
		byKind: map[string]TextExtractor{
			MIMEPDF:      NewPDFParserService(),
			MIMEDOCX:     NewDOCXParserService(),
			MIMEDOC:      &legacyDocExtractor{},
			MIMEText:     plain,
			MIMEMarkdown: plain,
		},
		opts: opts,
	}
}

func (e *documentTextExtractor) Name() string {
	return "text_layer"
}

func (e *documentTextExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	kind := doc.Kind()
	extractor, ok := e.byKind[kind]
	if !ok {
		return "", fmt.Errorf("%q (%s): %w", doc.Filename, kind, ErrUnsupportedType)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := extractor.Extract(ctx, doc)
	if err != nil {
		return "", err
	}

	text = CleanText(text)
	if err := CheckReadable(text, e.opts); err != nil {
		return "", fmt.Errorf("%s extractor: %w", extractor.Name(), err)
	}

	return text, nil
}

type plainTextExtractor struct{}

func (p *plainTextExtractor) Name() string { return "plain" }

func (p *plainTextExtractor) Extract(_ context.Context, doc Document) (string, error) {
	if !utf8.Valid(doc.Data) {
		return strings.ToValidUTF8(string(doc.Data), " "), nil
	}
	return string(doc.Data), nil
}

// legacyDocExtractor salvages printable runs from binary .doc files.
type legacyDocExtractor struct{}

func (l *legacyDocExtractor) Name() string { return "doc" }

func (l *legacyDocExtractor) Extract(_ context.Context, doc Document) (string, error) {
	const minRun = 4

	var out, run strings.Builder
	runLen := 0
	flush := func() {
		if runLen >= minRun {
			out.WriteString(run.String())
			out.WriteByte('\n')
		}
		run.Reset()
		runLen = 0
	}

	for _, b := range doc.Data {
		if b >= 0x20 && b < 0x7f || b == '\t' {
			run.WriteByte(b)
			runLen++
			continue
		}
		flush()
	}
	flush()

	return out.String(), nil
}

// CleanText normalizes line endings, strips control characters and trailing
// spaces, and collapses runs of blank lines to a single blank line.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == utf8.RuneError, unicode.IsControl(r):
			return ' '
		}
		return r
	}, text)

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if strings.TrimSpace(line) == "" {
			if !blank && len(cleaned) > 0 {
				cleaned = append(cleaned, "")
			}
			blank = true
			continue
		}
		blank = false
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
