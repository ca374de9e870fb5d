package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
)

// TextExtractor turns raw document bytes into plain text. Extraction failures
// and unsupported formats yield an empty string, never an error.
type TextExtractor interface {
	ExtractText(content []byte, filename string) string
}

type textExtractor struct {
	logger *zap.Logger
}

func NewTextExtractor(l *zap.Logger) TextExtractor {
	return &textExtractor{logger: logger.OrNop(l)}
}

// ExtractText implements TextExtractor.
func (e *textExtractor) ExtractText(content []byte, filename string) string {
	format := models.DetectFormat(filename)

	var (
		text string
		err  error
	)

	switch format {
	case models.FormatPDF:
		text, err = extractPDFText(content)
	case models.FormatDOCX:
		text, err = extractDOCXText(content)
	case models.FormatPlainText:
		text = decodePlainText(content)
	default:
		e.logger.Debug("unsupported document format", zap.String("filename", filename))
		return ""
	}

	if err != nil {
		e.logger.Warn("text extraction failed",
			zap.String("filename", filename),
			zap.String("format", string(format)),
			zap.Error(err),
		)
		return ""
	}

	return text
}

func extractPDFText(content []byte) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil || pageText == "" {
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

func extractDOCXText(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX archive: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document part: %w", err)
		}
		defer rc.Close()

		return wordprocessingText(rc)
	}

	return "", fmt.Errorf("word/document.xml not found")
}

// wordprocessingText walks a WordprocessingML body and keeps run text,
// turning paragraphs and breaks into newlines and tabs into tabs.
func wordprocessingText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		sb     strings.Builder
		inText bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode document XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}

func decodePlainText(content []byte) string {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if utf8.Valid(content) {
		return string(content)
	}
	return strings.ToValidUTF8(string(content), "\uFFFD")
}
