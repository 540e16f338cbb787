package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
)

const utf8BOM = "\ufeff"

// Reader parses a comma separated stream whose first line is the header.
// Rows are produced lazily, one per non-empty line.
type Reader struct {
	csv    *csv.Reader
	header []string
	err    error
	read   bool
	done   bool
}

func NewReader(r io.Reader) *Reader {
	csvReader := csv.NewReader(r)
	csvReader.Comma = ','
	return &Reader{csv: csvReader}
}

// Header returns the column names. An empty stream has no header and no rows.
func (r *Reader) Header() ([]string, error) {
	if r.read {
		return r.header, r.err
	}
	r.read = true

	record, err := r.csv.Read()
	if err == io.EOF {
		r.done = true
		return nil, nil
	}
	if err != nil {
		r.done = true
		r.err = malformed(err)
		return nil, r.err
	}

	if len(record) > 0 {
		record[0] = strings.TrimPrefix(record[0], utf8BOM)
	}

	// every data line must have exactly as many fields as the header
	r.csv.FieldsPerRecord = len(record)
	r.header = record
	return r.header, nil
}

// Next returns the next row or io.EOF when the stream is exhausted.
func (r *Reader) Next() (domain.Row, error) {
	if _, err := r.Header(); err != nil {
		return domain.Row{}, err
	}
	if r.done {
		return domain.Row{}, io.EOF
	}

	record, err := r.csv.Read()
	if err == io.EOF {
		r.done = true
		return domain.Row{}, io.EOF
	}
	if err != nil {
		r.done = true
		return domain.Row{}, malformed(err)
	}

	line, _ := r.csv.FieldPos(0)
	return domain.Row{
		Line:    line,
		Columns: r.header,
		Values:  record,
	}, nil
}

func (r *Reader) ReadAll() ([]domain.Row, error) {
	rows := make([]domain.Row, 0)
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func malformed(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		if errors.Is(parseErr.Err, csv.ErrFieldCount) {
			return fmt.Errorf("%w: linha %d: número de campos diferente do cabeçalho", domain.ErrMalformedInput, parseErr.Line)
		}
		return fmt.Errorf("%w: linha %d: %v", domain.ErrMalformedInput, parseErr.Line, parseErr.Err)
	}
	return fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
}
