package fileparse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
)

// Row maps a header cell to the raw value in that column.
type Row map[string]string

// Table is the parsed upload: the header row in sheet order plus one Row per
// data line. Importers resolve columns themselves, so header casing and
// spacing are preserved exactly as uploaded.
type Table struct {
	Headers []string
	Rows    []Row
}

// Parse reads a CSV or Excel upload. The format is picked from the file
// extension; anything that is not .xlsx/.xls is treated as CSV.
func Parse(filename string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return parseExcel(r)
	default:
		return parseCSV(r)
	}
}

func parseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to parse CSV")
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	return fromGrid(records), nil
}

func parseExcel(r io.Reader) (*Table, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	book, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to parse spreadsheet")
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}

	// first sheet only, matching the upload templates
	grid, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to read sheet")
	}
	if len(grid) == 0 {
		return &Table{}, nil
	}

	return fromGrid(grid), nil
}

func fromGrid(grid [][]string) *Table {
	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for _, line := range grid[1:] {
		if isEmptyLine(line) {
			continue
		}
		row := make(Row, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(line) {
				row[header] = line[i]
			} else {
				row[header] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func isEmptyLine(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
