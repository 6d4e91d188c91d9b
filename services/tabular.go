package services

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one tabular record keyed by canonical column name
type Row map[string]string

// ReadRows decodes a CSV or XLSX upload, choosing the format by file name
func ReadRows(filename string, r io.Reader, columns ColumnSet) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(r, columns)
	case ".xlsx":
		return ReadXLSX(r, columns)
	default:
		return nil, newError(ErrBadRequest, "Only CSV or XLSX files are allowed")
	}
}

// ReadCSV decodes comma-separated rows; the first record is the header
func ReadCSV(r io.Reader, columns ColumnSet) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, newError(ErrBadRequest, "Invalid CSV format: %v", err)
	}
	return toRows(records, columns)
}

// ReadXLSX decodes the first sheet of a workbook; the first row is the header
func ReadXLSX(r io.Reader, columns ColumnSet) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, newError(ErrBadRequest, "Invalid XLSX format: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, newError(ErrBadRequest, "Workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, newError(ErrBadRequest, "Invalid XLSX format: %v", err)
	}
	return toRows(records, columns)
}

func toRows(records [][]string, columns ColumnSet) ([]Row, error) {
	if len(records) == 0 {
		return nil, newError(ErrBadRequest, "File is empty")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		if name, ok := columns.Canonical(h); ok {
			header[i] = name
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			row[name] = strings.TrimSpace(record[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes header and rows as CSV
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	return writer.WriteAll(rows)
}
