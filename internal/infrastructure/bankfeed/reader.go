// Package bankfeed turns bank statement exports into statement lines.
package bankfeed

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	// ErrEmptyFile is returned when the export has no content
	ErrEmptyFile = errors.New("statement file is empty")

	// ErrMissingHeader is returned when the export has no header row
	ErrMissingHeader = errors.New("statement file missing header row")
)

// Reader reads a CSV export row by row, keyed by lower-cased header names.
// UTF-8 input may start with a BOM; anything that is not valid UTF-8 is
// decoded as Windows-1252, which is what most online banking exports use.
type Reader struct {
	delimiter  rune
	headers    []string
	headerMap  map[string]int
	currentRow int
	reader     *csv.Reader
}

// Option configures a Reader
type Option func(*Reader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) Option {
	return func(r *Reader) {
		r.delimiter = d
	}
}

// NewReader wraps r and reads the header row
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	reader := &Reader{delimiter: ',', headerMap: make(map[string]int)}
	for _, opt := range opts {
		opt(reader)
	}

	buf := bufio.NewReader(r)
	content, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	src, err := decode(buf)
	if err != nil {
		return nil, err
	}
	reader.reader = csv.NewReader(src)
	reader.reader.Comma = reader.delimiter
	reader.reader.LazyQuotes = true
	reader.reader.TrimLeadingSpace = true
	reader.reader.FieldsPerRecord = -1

	if err := reader.readHeader(); err != nil {
		return nil, err
	}
	return reader, nil
}

// decode peeks at the start of the stream and falls back to Windows-1252
// when it is not UTF-8.
func decode(buf *bufio.Reader) (io.Reader, error) {
	const checkSize = 4096
	content, err := buf.Peek(checkSize)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file for encoding detection: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	if validPrefix(content) {
		return buf, nil
	}
	return transform.NewReader(buf, charmap.Windows1252.NewDecoder()), nil
}

// validPrefix allows a multi-byte rune cut off at the end of the peek window.
func validPrefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	for i := 1; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) && !utf8.FullRune(b[len(b)-i:]) {
			return true
		}
	}
	return false
}

func (r *Reader) readHeader() error {
	record, err := r.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	r.headers = make([]string, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		r.headers[i] = name
		if _, dup := r.headerMap[name]; !dup && name != "" {
			r.headerMap[name] = i
		}
	}
	if len(r.headerMap) == 0 {
		return ErrMissingHeader
	}
	r.currentRow = 1
	return nil
}

// Has reports whether the header row contains name (case-insensitive)
func (r *Reader) Has(name string) bool {
	_, ok := r.headerMap[strings.ToLower(name)]
	return ok
}

// First returns the first of names present in the header row
func (r *Reader) First(names ...string) (string, bool) {
	for _, n := range names {
		if r.Has(n) {
			return strings.ToLower(n), true
		}
	}
	return "", false
}

// Row is one data row with its line number in the file
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the trimmed value of a column
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row; io.EOF ends the file
func (r *Reader) ReadRow() (*Row, error) {
	record, err := r.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	r.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", r.currentRow, err)
	}
	row := &Row{LineNumber: r.currentRow, Data: make(map[string]string, len(r.headerMap))}
	for name, i := range r.headerMap {
		if i < len(record) {
			row.Data[name] = strings.TrimSpace(record[i])
		} else {
			row.Data[name] = ""
		}
	}
	return row, nil
}

// ReadAllRows reads the remaining rows, skipping blank ones
func (r *Reader) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}

// FromBytes creates a Reader over data
func FromBytes(data []byte, opts ...Option) (*Reader, error) {
	return NewReader(bytes.NewReader(data), opts...)
}
