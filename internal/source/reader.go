// Package source converts document files to plain text.
package source

import (
	"fmt"
	"os"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/docx"
	"github.com/tsawler/tabula/format"
	"github.com/tsawler/tabula/htmldoc"
	"github.com/tsawler/tabula/odt"
	"github.com/tsawler/tabula/pptx"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/xlsx"

	"omniparse/internal/domain"
)

var _ domain.TextSource = (*FileReader)(nil)

// FileReader reads PDF, DOCX, ODT, XLSX, PPTX and HTML files through tabula
// and anything else as plain text.
type FileReader struct{}

func NewFileReader() *FileReader { return &FileReader{} }

// textReader is the common shape of tabula's per-format readers.
type textReader interface {
	Text() (string, error)
	Close() error
}

// Read returns the text content of the file at path. A missing file yields
// an error wrapping fs.ErrNotExist.
func (FileReader) Read(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	switch format.Detect(path) {
	case format.PDF:
		return readPDF(path)
	case format.DOCX:
		return readWith(path, func(p string) (textReader, error) { return docx.Open(p) })
	case format.ODT:
		return readWith(path, func(p string) (textReader, error) { return odt.Open(p) })
	case format.XLSX:
		return readWith(path, func(p string) (textReader, error) { return xlsx.Open(p) })
	case format.PPTX:
		return readWith(path, func(p string) (textReader, error) { return pptx.Open(p) })
	case format.HTML:
		return readWith(path, func(p string) (textReader, error) { return htmldoc.Open(p) })
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func readPDF(path string) (string, error) {
	r, err := reader.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer r.Close()
	text, _, err := tabula.FromReader(r).JoinParagraphs().Text()
	if err != nil {
		return "", fmt.Errorf("extract pdf %s: %w", path, err)
	}
	return text, nil
}

func readWith(path string, open func(string) (textReader, error)) (string, error) {
	r, err := open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()
	text, err := r.Text()
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return text, nil
}
