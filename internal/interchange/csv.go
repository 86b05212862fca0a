package interchange

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

const utf8BOM = "\ufeff"

// ToCSV writes the header row followed by one row per record in ascending
// number order.
func ToCSV(records []model.EmailRecord) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, rec := range record.Sorted(records) {
		rows = append(rows, []string{
			strconv.Itoa(rec.Number),
			rec.Title,
			rec.Subject,
			rec.Body,
		})
	}
	return EncodeCSV(model.RequiredColumns, rows)
}

// EncodeCSV writes header and rows with standard CSV quoting.
func EncodeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("writing csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

// FromCSV parses CSV text into normalized records. Rows whose number cannot
// be used are reported in the result's diagnostics, as are rows with more
// cells than the header; short rows leave the trailing columns empty. Input
// that is not CSV, is empty, or has no Email_Number column yields a
// *MalformedError.
func FromCSV(r io.Reader) (record.Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return record.Result{}, &MalformedError{Format: "csv", Line: 1, Err: errors.New("no header row")}
	}
	if err != nil {
		return record.Result{}, csvError(err)
	}

	columns := make([]string, len(header))
	hasNumber := false
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		columns[i] = strings.TrimSpace(name)
		if columns[i] == model.ColNumber {
			hasNumber = true
		}
	}
	if !hasNumber {
		return record.Result{}, &MalformedError{
			Format: "csv",
			Line:   1,
			Field:  model.ColNumber,
			Err:    errors.New("required column missing from header"),
		}
	}

	var (
		rows      []model.Row
		lines     []int
		oversized []error
	)
	for line := 1; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return record.Result{}, csvError(err)
		}
		if len(fields) > len(columns) {
			oversized = append(oversized, &record.FieldCountError{Line: line, Fields: len(fields), Want: len(columns)})
			continue
		}
		row := make(model.Row, len(columns))
		for i, v := range fields {
			row[columns[i]] = v
		}
		rows = append(rows, row)
		lines = append(lines, line)
	}

	res := record.NormalizeNumbered(rows, lines)
	res.Diagnostics = append(oversized, res.Diagnostics...)
	return res, nil
}

func csvError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &MalformedError{Format: "csv", Line: parseErr.Line, Err: parseErr.Err}
	}
	return &MalformedError{Format: "csv", Err: err}
}
