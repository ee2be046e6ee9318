// Package extract turns uploaded statement files into plain text for the
// bank parsers. PDF uploads go through the pdf library; anything else (OFX
// exports, plain text) passes through as UTF-8.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF")

// Text extracts statement text from uploaded file bytes.
func Text(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file")
	}
	if bytes.HasPrefix(data, pdfMagic) {
		return pdfText(data)
	}
	return string(data), nil
}

// pdfText extracts text page by page, preserving row order. The pdf library
// panics on some malformed documents, so the recover turns that into an
// error.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf extraction crashed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		if content := pageText(page); content != "" {
			pages = append(pages, content)
		}
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("no text could be extracted; the pdf may be image-based or use undecodable fonts")
	}
	return strings.Join(pages, "\n"), nil
}

// pageText reads one page row by row, falling back to plain text extraction
// when row structure is unavailable.
func pageText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		return strings.Join(lines, "\n")
	}

	fontNames := page.Fonts()
	fonts := make(map[string]*pdf.Font, len(fontNames))
	for _, name := range fontNames {
		f := page.Font(name)
		fonts[name] = &f
	}
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
