package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Summary</w:t></w:r></w:p>
<w:p><w:r><w:t>Go developer</w:t><w:tab/><w:t>Berlin</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Skills </w:t></w:r><w:r><w:br/><w:t>Go, gRPC</w:t></w:r></w:p>
</w:body>
</w:document>`

func buildDOCX(t *testing.T, parts map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// buildPDF writes a minimal PDF with one page per entry. An empty entry
// produces a page without a content stream.
func buildPDF(pages []string) []byte {
	var objects []string
	kids := make([]string, len(pages))
	fontObj := 3 + len(pages)
	nextStream := fontObj + 1

	var streams []string
	var pageObjects []string
	for i, text := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
		page := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >>", fontObj)
		if text != "" {
			content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
			streams = append(streams, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
			page += fmt.Sprintf(" /Contents %d 0 R", nextStream)
			nextStream++
		}
		pageObjects = append(pageObjects, page+" >>")
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
	)
	objects = append(objects, pageObjects...)
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	objects = append(objects, streams...)

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

	return buf.Bytes()
}

func TestExtractTextPDFKeepsPageOrderAndSkipsEmptyPages(t *testing.T) {
	e := NewTextExtractor(nil)

	content := buildPDF([]string{"Summary", "", "Go developer"})

	assert.Equal(t, "\nSummary\n\nGo developer\n", e.ExtractText(content, "resume.pdf"))
}

func TestExtractTextPDFWithoutText(t *testing.T) {
	e := NewTextExtractor(nil)

	assert.Empty(t, e.ExtractText(buildPDF([]string{"", ""}), "blank.pdf"))
}

func TestExtractTextPlain(t *testing.T) {
	e := NewTextExtractor(nil)

	assert.Equal(t, "Summary\nGo developer", e.ExtractText([]byte("Summary\nGo developer"), "resume.txt"))
	assert.Equal(t, "with bom", e.ExtractText([]byte("\xef\xbb\xbfwith bom"), "resume.txt"))
	assert.Equal(t, "bad � byte", e.ExtractText([]byte("bad \xff byte"), "resume.txt"))
}

func TestExtractTextDispatchIgnoresCase(t *testing.T) {
	e := NewTextExtractor(nil)
	content := []byte("Experience\nAcme")

	assert.Equal(t, e.ExtractText(content, "a.txt"), e.ExtractText(content, "a.TXT"))

	corrupt := []byte("%PDF-1.4 definitely not a real pdf")
	assert.Equal(t, e.ExtractText(corrupt, "a.pdf"), e.ExtractText(corrupt, "a.PDF"))
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	e := NewTextExtractor(nil)

	assert.Empty(t, e.ExtractText([]byte("binary image data"), "resume.jpg"))
	assert.Empty(t, e.ExtractText([]byte("plain"), "resume"))
}

func TestExtractTextCorruptDocumentsYieldEmpty(t *testing.T) {
	e := NewTextExtractor(nil)

	assert.Empty(t, e.ExtractText([]byte("not a pdf at all"), "resume.pdf"))
	assert.Empty(t, e.ExtractText(nil, "resume.pdf"))
	assert.Empty(t, e.ExtractText([]byte("not a zip"), "resume.docx"))
	assert.Empty(t, e.ExtractText(buildDOCX(t, map[string]string{"word/other.xml": "<x/>"}), "resume.docx"))
	assert.Empty(t, e.ExtractText(buildDOCX(t, map[string]string{"word/document.xml": "<w:document><w:body>"}), "resume.docx"))
}

func TestExtractTextDOCX(t *testing.T) {
	e := NewTextExtractor(nil)
	content := buildDOCX(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   documentXML,
	})

	text := e.ExtractText(content, "Resume.DOCX")

	assert.Equal(t, "Summary\nGo developer\tBerlin\nSkills \nGo, gRPC\n", text)
}

func TestExtractTextIsIdempotent(t *testing.T) {
	e := NewTextExtractor(nil)
	content := buildDOCX(t, map[string]string{"word/document.xml": documentXML})

	first := e.ExtractText(content, "resume.docx")
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, e.ExtractText(content, "resume.docx"))
	}
}
