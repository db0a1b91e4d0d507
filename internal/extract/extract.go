// Package extract turns source files into plain text for chunking.
package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a file parses but holds no readable text.
var ErrNoText = errors.New("extract: no readable text")

// Kind selects the extractor for a source.
type Kind string

const (
	KindPDF Kind = "pdf"
	KindCSV Kind = "csv"
)

// Ext is the file extension sources of this kind carry.
func (k Kind) Ext() string { return "." + string(k) }

// Text dispatches on kind. Output is trimmed and never empty on success.
func Text(kind Kind, name string, data []byte) (string, error) {
	var (
		s   string
		err error
	)
	switch kind {
	case KindPDF:
		s, err = PDFText(data)
	case KindCSV:
		s, err = CSVText(data)
	default:
		return "", fmt.Errorf("extract: unsupported kind %q for %s", kind, filepath.Base(name))
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", name, err)
	}
	if s == "" {
		return "", fmt.Errorf("extract %s: %w", name, ErrNoText)
	}
	return s, nil
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

// PDFText returns the plain text of every page in order.
func PDFText(data []byte) (string, error) {
	if !isPDF(data) {
		return "", errors.New("missing %PDF header")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// CSVText joins the values of each data row with a space and rows with a
// newline. The header row names columns and is not emitted.
func CSVText(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("csv: %w", err)
	}
	if len(records) <= 1 {
		return "", nil
	}

	rows := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, strings.Join(rec, " "))
	}
	return strings.TrimSpace(strings.Join(rows, "\n")), nil
}
