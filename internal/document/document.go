// Package document turns uploaded résumés into plain text.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// MaxSize is the largest accepted upload, in bytes.
const MaxSize = 10 * 1024 * 1024

const pdfMIME = "application/pdf"

// ErrNoExtractableText is returned for documents without a text layer,
// typically scanned or protected PDFs.
var ErrNoExtractableText = errors.New("impossible d'extraire du texte (PDF scanné ou protégé)")

type UnsupportedDocumentError struct {
	Filename string
	MIME     string
}

func (e *UnsupportedDocumentError) Error() string {
	if e.MIME != "" {
		return fmt.Sprintf("le fichier doit être un PDF (%s détecté)", e.MIME)
	}
	return "le fichier doit être un PDF"
}

type DocumentTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *DocumentTooLargeError) Error() string {
	return fmt.Sprintf("fichier trop volumineux (max %d MB)", e.Limit/(1024*1024))
}

// Text is the plain-text content of a document.
type Text struct {
	Text  string `json:"text"`
	Chars int    `json:"chars"`
	Pages int    `json:"-"`
}

func newText(text string, pages int) *Text {
	return &Text{Text: text, Chars: utf8.RuneCountInString(text), Pages: pages}
}

// Extract validates a PDF upload and returns its text, pages joined by newlines.
func Extract(filename string, data []byte) (*Text, error) {
	if int64(len(data)) > MaxSize {
		return nil, &DocumentTooLargeError{Size: int64(len(data)), Limit: MaxSize}
	}

	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, &UnsupportedDocumentError{Filename: filename}
	}
	if detected := mimetype.Detect(data); !detected.Is(pdfMIME) {
		return nil, &UnsupportedDocumentError{Filename: filename, MIME: detected.String()}
	}

	text, pages, err := pdfText(data)
	if err != nil {
		return nil, fmt.Errorf("erreur parsing PDF : %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoExtractableText
	}

	return newText(text, pages), nil
}

// ExtractFile reads a résumé from disk. Text files are returned as is.
func ExtractFile(path string) (*Text, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxSize {
		return nil, &DocumentTooLargeError{Size: info.Size(), Limit: MaxSize}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return Extract(filepath.Base(path), data)
	}

	if !mimetype.Detect(data).Is("text/plain") {
		return nil, &UnsupportedDocumentError{Filename: filepath.Base(path), MIME: mimetype.Detect(data).String()}
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, ErrNoExtractableText
	}
	return newText(text, 1), nil
}

func pdfText(data []byte) (text string, pages int, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, pages, err = "", 0, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}

	fonts := make(map[string]*pdf.Font)
	parts := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}

		content, err := page.GetPlainText(fonts)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i, err)
		}
		parts = append(parts, strings.TrimSpace(content))
		pages++
	}

	return strings.Join(parts, "\n"), pages, nil
}
