// Package tabular writes in-memory table snapshots in the formats the report
// renderers need: HTML for documents, bordered text and Markdown for chat
// code blocks, and CSV/TSV for file attachments.
package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// Sentinel errors for programmatic error handling.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Format represents an output format.
type Format string

const (
	HTML     Format = "html"
	CSV      Format = "csv"
	TSV      Format = "tsv"
	Text     Format = "text"
	Markdown Format = "markdown"
)

var formats = []Format{HTML, CSV, TSV, Text, Markdown}

// String returns the format name.
func (f Format) String() string { return string(f) }

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Source is a read-only table: column names plus rows of cells, one cell per
// column. A nil cell is a null.
type Source interface {
	Columns() []string
	Len() int
	Row(i int) []any
}

// Options tunes the Text format. The zero value renders rounded borders with
// no width limit.
type Options struct {
	Border BorderStyle
	// MaxWidth caps every column's display width. Longer cells are
	// truncated with "...". Zero means no limit.
	MaxWidth int
}

// BorderStyle controls table border characters.
type BorderStyle int

const (
	BorderRounded BorderStyle = iota // ╭─╮╰╯│┬┴├┤┼
	BorderNone                       // No borders, space-separated columns
	BorderASCII                      // +-+|
)

// Write formats src and writes to w.
func Write(w io.Writer, f Format, src Source, opts Options) error {
	switch f {
	case HTML:
		return writeHTML(w, src)
	case CSV:
		return writeCSV(w, src, ',')
	case TSV:
		return writeCSV(w, src, '\t')
	case Text:
		return writeText(w, src, opts)
	case Markdown:
		return writeMarkdown(w, src)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// Marshal formats src and returns the bytes.
func Marshal(f Format, src Source, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, src, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Cell returns the display string for one cell value. Nulls render empty and
// times render in RFC 3339.
func Cell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case time.Time:
		return c.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return c.String()
	default:
		return fmt.Sprint(c)
	}
}

func rowStrings(src Source, i int) []string {
	cells := src.Row(i)
	out := make([]string, len(cells))
	for j, c := range cells {
		out[j] = Cell(c)
	}
	return out
}

func allRows(src Source) [][]string {
	rows := make([][]string, src.Len())
	for i := range rows {
		rows[i] = rowStrings(src, i)
	}
	return rows
}
