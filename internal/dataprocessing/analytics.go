package dataprocessing

import (
	"sort"

	"doorstroom/pkg/contracts/domain"
)

// CurrentYear returns the most recent year present in the table, or the
// fallback year when the table has no rows.
func CurrentYear(t *domain.Table, fallback int) int {
	if t.Len() == 0 {
		return fallback
	}
	year := t.Records[0].Year
	for _, rec := range t.Records[1:] {
		if rec.Year > year {
			year = rec.Year
		}
	}
	return year
}

// InflowKPI computes the current-versus-prior-year inflow totals over the
// doubly-filtered view. Delta is only reported when the prior-year total
// is positive.
func InflowKPI(t *domain.Table, fallbackYear int) domain.YearKPI {
	kpi := domain.YearKPI{
		CurrentYear: CurrentYear(t, fallbackYear),
	}
	kpi.PriorYear = kpi.CurrentYear - 1

	for _, rec := range t.Records {
		switch rec.Year {
		case kpi.CurrentYear:
			kpi.TotalCurrent += rec.Count
		case kpi.PriorYear:
			kpi.TotalPrior += rec.Count
		}
	}

	if kpi.TotalPrior > 0 {
		delta := kpi.TotalCurrent - kpi.TotalPrior
		kpi.Delta = &delta
	}
	return kpi
}

// DistinctDestinations counts the distinct destination institutions in
// the view. A missing value counts as its own group.
func DistinctDestinations(t *domain.Table) int {
	return distinctCount(t, domain.ColDestination)
}

// DistinctPrograms counts the distinct destination programs in the view.
func DistinctPrograms(t *domain.Table) int {
	return distinctCount(t, domain.ColProgram)
}

func distinctCount(t *domain.Table, column string) int {
	seen := make(map[string]bool)
	for _, rec := range t.Records {
		seen[rec.Cells[column]] = true
	}
	return len(seen)
}

// Trend groups the doubly-filtered view by (year, destination) and sums
// counts: one chart series per destination institution over time.
func Trend(t *domain.Table) []domain.TrendPoint {
	type key struct {
		year        int
		destination string
	}
	totals := make(map[key]float64)
	for _, rec := range t.Records {
		totals[key{rec.Year, rec.Destination()}] += rec.Count
	}

	points := make([]domain.TrendPoint, 0, len(totals))
	for k, total := range totals {
		points = append(points, domain.TrendPoint{Year: k.year, Destination: k.destination, Total: total})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Destination < points[j].Destination
	})
	return points
}

// MarketShare groups the source-filtered view (all destinations from the
// selected source, ignoring the destination multi-selection) restricted
// to the given year, by destination institution.
func MarketShare(t *domain.Table, year int) []domain.SharePoint {
	totals := make(map[string]float64)
	var order []string
	for _, rec := range t.Records {
		if rec.Year != year {
			continue
		}
		d := rec.Destination()
		if _, ok := totals[d]; !ok {
			order = append(order, d)
		}
		totals[d] += rec.Count
	}

	points := make([]domain.SharePoint, 0, len(order))
	for _, d := range order {
		points = append(points, domain.SharePoint{Destination: d, Total: totals[d]})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Total > points[j].Total
	})
	return points
}

// TopPrograms groups the doubly-filtered view restricted to the given
// year by destination program, sums counts, and keeps the n largest.
// Ties keep input order (stable sort), so the result never depends on
// map iteration.
func TopPrograms(t *domain.Table, year, n int) []domain.ProgramTotal {
	totals := make(map[string]float64)
	var order []string
	for _, rec := range t.Records {
		if rec.Year != year {
			continue
		}
		p := rec.Program()
		if _, ok := totals[p]; !ok {
			order = append(order, p)
		}
		totals[p] += rec.Count
	}

	programs := make([]domain.ProgramTotal, 0, len(order))
	for _, p := range order {
		programs = append(programs, domain.ProgramTotal{Program: p, Total: totals[p]})
	}
	sort.SliceStable(programs, func(i, j int) bool {
		return programs[i].Total > programs[j].Total
	})
	if len(programs) > n {
		programs = programs[:n]
	}
	return programs
}

// PathwayTrend groups the doubly-filtered view by (year, pathway type)
// for the direct-versus-indirect inflow area chart.
func PathwayTrend(t *domain.Table) []domain.PathwayPoint {
	type key struct {
		year    int
		pathway string
	}
	totals := make(map[key]float64)
	for _, rec := range t.Records {
		totals[key{rec.Year, rec.SourceType()}] += rec.Count
	}

	points := make([]domain.PathwayPoint, 0, len(totals))
	for k, total := range totals {
		points = append(points, domain.PathwayPoint{Year: k.year, Pathway: k.pathway, Total: total})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Pathway < points[j].Pathway
	})
	return points
}

// RawRows shapes a view for tabular display, preserving row order and the
// original column order.
func RawRows(t *domain.Table) domain.RawTable {
	raw := domain.RawTable{
		Columns: t.Columns,
		Rows:    make([][]string, 0, t.Len()),
	}
	for _, rec := range t.Records {
		row := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			row[i] = rec.Cells[col]
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw
}
