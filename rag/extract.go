package rag

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// ExtractText returns the plain text of a document.
// PDFs go through the pdf reader; .txt/.md files and other valid UTF-8 are taken as-is.
func ExtractText(doc Document) (string, error) {
	if len(doc.Content) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrParse, doc.Name)
	}

	var (
		text string
		err  error
	)
	ext := strings.ToLower(filepath.Ext(doc.Name))
	switch {
	case bytes.HasPrefix(doc.Content, pdfMagic) || ext == ".pdf":
		text, err = pdfText(doc.Content)
	case ext == ".txt" || ext == ".md" || ext == ".markdown":
		if !utf8.Valid(doc.Content) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrParse, doc.Name)
		}
		text = string(doc.Content)
	case utf8.Valid(doc.Content) && bytes.IndexByte(doc.Content, 0) < 0:
		text = string(doc.Content)
	default:
		return "", fmt.Errorf("%w: %s has an unsupported format", ErrParse, doc.Name)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrParse, doc.Name, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text extracted from %s", ErrParse, doc.Name)
	}
	return text, nil
}

// pdfText reads a PDF from memory. The pdf package panics on some
// malformed inputs, so panics are turned into errors.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("read pdf buffer: %w", err)
	}
	return buf.String(), nil
}
