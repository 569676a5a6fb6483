package dataprocessing

import (
	"errors"
	"strconv"
	"strings"

	"doorstroom/pkg/contracts/domain"
)

// ErrNoData signals that no table could be built: either no files were
// supplied or every file failed to parse. Downstream the dashboard shows
// its waiting-for-data state instead of an error.
var ErrNoData = errors.New("no data")

// Combine concatenates the successfully parsed tables row-wise, preserving
// input order, and coerces the Jaar and Aantal columns. Columns are the
// first-seen union across files; rows from files missing a column get an
// absent cell there. Rows are never deduplicated across files: the same
// (year, source, destination, program) tuple appearing in two files stays
// as two rows and sums double in every aggregate.
func Combine(tables []*domain.Table) (*domain.Table, error) {
	if len(tables) == 0 {
		return nil, ErrNoData
	}

	var columns []string
	seen := make(map[string]bool)
	total := 0
	for _, t := range tables {
		for _, col := range t.Columns {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		total += len(t.Records)
	}

	combined := &domain.Table{
		Columns: columns,
		Records: make([]domain.Record, 0, total),
	}
	for _, t := range tables {
		for _, rec := range t.Records {
			cells := make(map[string]string, len(columns))
			for _, col := range columns {
				if v, ok := rec.Cells[col]; ok {
					cells[col] = v
				} else {
					cells[col] = domain.AbsentCell
				}
			}
			combined.Records = append(combined.Records, domain.Record{Cells: cells})
		}
	}

	Normalize(combined)
	return combined, nil
}

// Normalize coerces the typed Year and Count fields from the raw cells.
// Unparsable cells map to zero, never to an error, so one bad cell cannot
// fail a whole upload batch. Normalizing twice yields the same values.
func Normalize(t *domain.Table) {
	for i := range t.Records {
		t.Records[i].Year = parseYear(t.Records[i].Cells[domain.ColYear])
		t.Records[i].Count = parseCount(t.Records[i].Cells[domain.ColCount])
	}
}

// parseCount coerces an Aantal cell. Dutch exports sometimes use a decimal
// comma, so that is retried before giving up.
func parseCount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if strings.Contains(s, ",") {
		if v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
			return v
		}
	}
	return 0
}

// parseYear coerces a Jaar cell to an integer year.
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	// Some exports carry years as floats ("2023.0").
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int(v)
	}
	return 0
}
