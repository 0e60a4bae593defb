// Package document turns uploaded profile documents and remote profile
// pages into plain text suitable for AI context.
package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// File is an uploaded document: raw bytes plus the metadata the client had.
type File struct {
	Name     string
	Data     []byte
	MIMEType string
}

// IsPDF reports whether the file should be treated as a PDF.
func (f File) IsPDF() bool {
	return f.MIMEType == "application/pdf" || strings.HasSuffix(strings.ToLower(f.Name), ".pdf")
}

// ExtractText returns the plain-text content of f. PDFs are parsed locally;
// anything else is treated as UTF-8 text.
func ExtractText(f File) (string, error) {
	if len(f.Data) == 0 {
		return "", fmt.Errorf("document %q is empty", f.Name)
	}

	if f.IsPDF() {
		return extractPDF(f)
	}

	if !utf8.Valid(f.Data) {
		return "", fmt.Errorf("document %q is neither a PDF nor valid text", f.Name)
	}
	return string(f.Data), nil
}

func extractPDF(f File) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return "", fmt.Errorf("parsing PDF %q: %w", f.Name, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text from PDF %q: %w", f.Name, err)
	}

	text, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("reading PDF text %q: %w", f.Name, err)
	}

	out := strings.TrimSpace(string(text))
	if out == "" {
		return "", fmt.Errorf("PDF %q contains no extractable text", f.Name)
	}
	return out, nil
}
