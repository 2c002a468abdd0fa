package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCV = `Alex Johnson
Software Engineer
alex.johnson@mailbox.org

Experience
Built data pipelines in Python and Go for five years.`

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}

	files := map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// buildPDF writes a single-page Helvetica PDF around the given content
// stream, with a correct xref table.
func buildPDF(t *testing.T, content string) []byte {
	t.Helper()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	require.Greater(t, buf.Len(), 100)
	return buf.Bytes()
}

// textLayerCV moves between lines with Td, puts two fragments on the
// "Experience" row and ends with a TJ line positioned by Tm.
const textLayerCV = `BT
/F1 12 Tf
72 720 Td
(Jane Doe) Tj
0 -14 Td
(jane.doe@mailbox.org) Tj
0 -14 Td
(+44 20 7946 0958) Tj
0 -14 Td
(Experience) Tj
120 0 Td
(2019 - 2024) Tj
-120 -14 Td
(Skills: Python, Docker, Kubernetes) Tj
0 -14 Td
(Built data pipelines in Python and Go for five years.) Tj
ET
BT
/F1 10 Tf
1 0 0 1 72 600 Tm
[(Go) -400 (Developer)] TJ
ET`

func TestDocumentKind(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{name: "declared pdf", doc: Document{Filename: "cv.bin", MIMEType: "application/pdf"}, want: MIMEPDF},
		{name: "declared with params", doc: Document{MIMEType: "text/plain; charset=utf-8"}, want: MIMEText},
		{name: "generic mime uses extension", doc: Document{Filename: "CV.DOCX", MIMEType: "application/octet-stream"}, want: MIMEDOCX},
		{name: "extension only", doc: Document{Filename: "notes.md"}, want: MIMEMarkdown},
		{name: "legacy word", doc: Document{Filename: "old.doc"}, want: MIMEDOC},
		{name: "unknown", doc: Document{Filename: "photo.png", MIMEType: "image/png"}, want: "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.doc.Kind())
		})
	}
}

func TestCheckReadable(t *testing.T) {
	opts := DefaultReadabilityOptions()

	assert.NoError(t, CheckReadable(sampleCV, opts))

	err := CheckReadable("too short", opts)
	assert.ErrorIs(t, err, ErrExtractionFailed)

	err = CheckReadable(strings.Repeat("#$%& ", 30)+"abc", opts)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.ErrorContains(t, err, "alphanumeric")
}

func TestExtractPlainText(t *testing.T) {
	ex := NewDocumentTextExtractor(DefaultReadabilityOptions())

	text, err := ex.Extract(context.Background(), Document{
		Filename: "cv.txt",
		Data:     []byte(strings.ReplaceAll(sampleCV, "\n", "\r\n")),
	})

	require.NoError(t, err)
	assert.Equal(t, sampleCV, text)
}

func TestExtractDocx(t *testing.T) {
	ex := NewDocumentTextExtractor(DefaultReadabilityOptions())

	text, err := ex.Extract(context.Background(), Document{
		Filename: "cv.docx",
		Data:     buildDocx(t, "Alex Johnson", "Software Engineer &amp; Mentor", "Built data pipelines in Python and Go for five years."),
	})

	require.NoError(t, err)
	assert.Equal(t, "Alex Johnson\nSoftware Engineer & Mentor\nBuilt data pipelines in Python and Go for five years.", text)
}

func TestExtractCorruptDocx(t *testing.T) {
	ex := NewDocumentTextExtractor(DefaultReadabilityOptions())

	_, err := ex.Extract(context.Background(), Document{Filename: "cv.docx", Data: []byte("PK not really a zip")})

	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractGarbagePDF(t *testing.T) {
	ex := NewDocumentTextExtractor(DefaultReadabilityOptions())

	inputs := map[string][]byte{
		"not a pdf":  []byte("this is plainly not a PDF file"),
		"bad header": []byte("%PDF-1.4\n\x00\x01\x02 broken xref"),
		"empty":      {},
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = ex.Extract(context.Background(), Document{Filename: "cv.pdf", Data: data})
			})
			assert.ErrorIs(t, err, ErrExtractionFailed)
		})
	}
}

func TestExtractPDFTextLayer(t *testing.T) {
	ex := NewDocumentTextExtractor(DefaultReadabilityOptions())

	text, err := ex.Extract(context.Background(), Document{
		Filename: "jane.pdf",
		MIMEType: MIMEPDF,
		Data:     buildPDF(t, textLayerCV),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{
		"Jane Doe",
		"jane.doe@mailbox.org",
		"+44 20 7946 0958",
		"Experience 2019 - 2024",
		"Skills: Python, Docker, Kubernetes",
		"Built data pipelines in Python and Go for five years.",
		"Go Developer",
	}, strings.Split(text, "\n"))
}

func TestExtractLegacyDocSalvagesText(t *testing.T) {
	ex := NewDocumentTextExtractor(DefaultReadabilityOptions())

	data := []byte{0xd0, 0xcf, 0x11, 0xe0, 0x00, 0x01}
	data = append(data, []byte("Alex Johnson, Software Engineer")...)
	data = append(data, 0x00, 0x02, 'x', 'y', 0x00)
	data = append(data, []byte("Skills: Python, Go, PostgreSQL, Docker and Kubernetes")...)
	data = append(data, 0xff, 0xfe)

	text, err := ex.Extract(context.Background(), Document{Filename: "cv.doc", Data: data})

	require.NoError(t, err)
	assert.Equal(t, "Alex Johnson, Software Engineer\nSkills: Python, Go, PostgreSQL, Docker and Kubernetes", text)
}

func TestExtractUnsupportedType(t *testing.T) {
	ex := NewDocumentTextExtractor(DefaultReadabilityOptions())

	_, err := ex.Extract(context.Background(), Document{Filename: "cv.xyz", Data: []byte(sampleCV)})

	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractHonoursCancellation(t *testing.T) {
	ex := NewDocumentTextExtractor(DefaultReadabilityOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.Extract(ctx, Document{Filename: "cv.txt", Data: []byte(sampleCV)})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanText(t *testing.T) {
	in := "  Name\x00Here  \r\n\r\n\r\n\n Line\ttwo   \n\x07\n"

	assert.Equal(t, "Name Here\n\n Line\ttwo", CleanText(in))
	assert.Equal(t, "", CleanText(" \n\n\t "))
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:p><w:r><w:t>A</w:t><w:tab/><w:t>B</w:t></w:r></w:p><w:p><w:r><w:t>C</w:t><w:br/><w:t>D &lt;x&gt;</w:t></w:r></w:p>`

	assert.Equal(t, "A\tB\nC\nD <x>", docxXMLToText(xml))
}
