package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"doorstroom/pkg/contracts/domain"
)

// xlsxMagic is the ZIP local-file-header signature xlsx workbooks start with.
var xlsxMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// utf8BOM is stripped before delimiter detection.
var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// ParseFile parses one uploaded file into a raw table. Delimited text gets
// per-file delimiter detection (comma or semicolon); xlsx workbooks are
// read from their first sheet. The returned table carries the original
// column headers; cell coercion happens later in Combine.
func ParseFile(name string, data []byte) (*domain.Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	if strings.HasSuffix(strings.ToLower(name), ".xlsx") || bytes.HasPrefix(data, xlsxMagic) {
		return parseWorkbook(data)
	}

	return parseDelimited(data)
}

// parseDelimited parses comma- or semicolon-separated text.
func parseDelimited(data []byte) (*domain.Table, error) {
	if bytes.IndexByte(data, 0x00) >= 0 {
		return nil, fmt.Errorf("file is not delimited text")
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	table := &domain.Table{Columns: columns}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(table.Records)+2, err)
		}
		table.Records = append(table.Records, rowToRecord(columns, row))
	}

	return table, nil
}

// parseWorkbook parses the first sheet of an xlsx workbook.
func parseWorkbook(data []byte) (*domain.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	columns := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		columns[i] = strings.TrimSpace(h)
	}

	table := &domain.Table{Columns: columns}
	for _, row := range rows[1:] {
		table.Records = append(table.Records, rowToRecord(columns, row))
	}

	return table, nil
}

// rowToRecord maps one raw row onto the header. Short rows are padded with
// absent cells; cells beyond the header are dropped.
func rowToRecord(columns []string, row []string) domain.Record {
	cells := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(row) {
			cells[col] = strings.TrimSpace(row[i])
		} else {
			cells[col] = domain.AbsentCell
		}
	}
	return domain.Record{Cells: cells}
}

// sniffDelimiter picks the delimiter from the header line: semicolon when
// it outnumbers commas, comma otherwise. DUO publishes both variants.
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
