package dataprocessing

import (
	"sort"
	"strings"

	"doorstroom/pkg/contracts/domain"
)

// SourceOptions returns the sorted distinct non-missing source
// institutions present in the table.
func SourceOptions(t *domain.Table) []string {
	return distinctValues(t, domain.ColSource)
}

// DestinationOptions returns the sorted distinct non-missing destination
// institutions present in the table.
func DestinationOptions(t *domain.Table) []string {
	return distinctValues(t, domain.ColDestination)
}

func distinctValues(t *domain.Table, column string) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var values []string
	for _, rec := range t.Records {
		v := rec.Cells[column]
		if v == domain.AbsentCell || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// DefaultSource picks the default source selection: the first option whose
// name contains the pattern (case-sensitive substring), else the first
// option alphabetically. Empty options yield an empty selection.
func DefaultSource(options []string, pattern string) string {
	if len(options) == 0 {
		return ""
	}
	if pattern != "" {
		for _, opt := range options {
			if strings.Contains(opt, pattern) {
				return opt
			}
		}
	}
	return options[0]
}

// DefaultDestinations picks the default destination multi-selection: every
// option whose name contains the pattern. No match means no default.
func DefaultDestinations(options []string, pattern string) []string {
	if pattern == "" {
		return nil
	}
	var matched []string
	for _, opt := range options {
		if strings.Contains(opt, pattern) {
			matched = append(matched, opt)
		}
	}
	return matched
}

// FilterBySource narrows the table to rows from one source institution.
func FilterBySource(t *domain.Table, source string) *domain.Table {
	return filterRows(t, func(rec domain.Record) bool {
		return rec.Source() == source
	})
}

// FilterByDestinations narrows the table to rows whose destination is in
// the selection. An empty selection yields an empty view; every
// downstream aggregate degrades to zero rather than failing.
func FilterByDestinations(t *domain.Table, destinations []string) *domain.Table {
	selected := make(map[string]bool, len(destinations))
	for _, d := range destinations {
		selected[d] = true
	}
	return filterRows(t, func(rec domain.Record) bool {
		return selected[rec.Destination()]
	})
}

func filterRows(t *domain.Table, keep func(domain.Record) bool) *domain.Table {
	if t == nil {
		return &domain.Table{}
	}
	out := &domain.Table{Columns: t.Columns}
	for _, rec := range t.Records {
		if keep(rec) {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}
