// Package domain contains the shared domain types for the doorstroom
// monitor: enrollment-flow records, filter selections, and the aggregate
// tables the dashboard frontend charts. Types here are transport-neutral
// and carry both JSON tags for the API and the DUO column names they map to.
package domain

// DUO enrollment-flow column headers (Dutch source schema, exact strings).
const (
	ColYear        = "Jaar"
	ColCount       = "Aantal"
	ColSource      = "Herkomst naam instelling"
	ColSourceType  = "Herkomst onderwijssoort"
	ColDestination = "HO naam instelling"
	ColProgram     = "HO naam opleiding"
)

// AbsentCell marks a cell for a column a source file did not carry.
// Empty cells and absent cells are both treated as missing values.
const AbsentCell = ""

// Record is one row of the combined enrollment table. Year and Count are
// the coerced typed views of the Jaar/Aantal cells (invalid input maps to
// zero, never to an error); Cells preserves every original cell by header.
type Record struct {
	Year  int               `json:"year"`
	Count float64           `json:"count"`
	Cells map[string]string `json:"cells"`
}

// Source returns the vocational institution the student came from.
func (r Record) Source() string { return r.Cells[ColSource] }

// SourceType returns the direct/indirect pathway classification.
func (r Record) SourceType() string { return r.Cells[ColSourceType] }

// Destination returns the higher-education institution enrolled into.
func (r Record) Destination() string { return r.Cells[ColDestination] }

// Program returns the destination program of study.
func (r Record) Program() string { return r.Cells[ColProgram] }

// Table is a row-oriented table with its original column headers.
// The combined table is the ordered row-wise union of all successfully
// parsed input files; no deduplication happens across files.
type Table struct {
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// UploadedFile is one uploaded file handle: name plus raw byte content.
type UploadedFile struct {
	Name string
	Data []byte
}

// FileReport describes the outcome of parsing one uploaded file.
type FileReport struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

// UploadResult summarises an ingested upload batch.
type UploadResult struct {
	Files     []FileReport `json:"files"`
	TotalRows int          `json:"total_rows"`
	HasData   bool         `json:"has_data"`
}

// FilterSelection is the analyst's two filter choices: exactly one source
// institution and zero or more destination institutions.
type FilterSelection struct {
	Source       string   `json:"source" validate:"required"`
	Destinations []string `json:"destinations"`
}

// FilterState is the full filter surface for a session: the selectable
// option lists plus the current selection. HasData is false while the
// session is still waiting for an upload.
type FilterState struct {
	HasData      bool            `json:"has_data"`
	Sources      []string        `json:"sources"`
	Destinations []string        `json:"destinations"`
	Selected     FilterSelection `json:"selected"`
}

// YearKPI is the current-versus-prior-year inflow KPI. Delta is only set
// when the prior-year total is positive.
type YearKPI struct {
	CurrentYear  int      `json:"current_year"`
	PriorYear    int      `json:"prior_year"`
	TotalCurrent float64  `json:"total_current"`
	TotalPrior   float64  `json:"total_prior"`
	Delta        *float64 `json:"delta,omitempty"`
}

// Summary holds the three headline KPIs.
type Summary struct {
	Inflow           YearKPI `json:"inflow"`
	DestinationCount int     `json:"destination_count"`
	ProgramCount     int     `json:"program_count"`
}

// TrendPoint is one (year, destination institution) summed-count point of
// the multi-year trend chart.
type TrendPoint struct {
	Year        int     `json:"year"`
	Destination string  `json:"destination"`
	Total       float64 `json:"total"`
}

// SharePoint is one slice of the market-share snapshot: total inflow into
// a destination institution in the current year, across all destinations
// reachable from the selected source.
type SharePoint struct {
	Destination string  `json:"destination"`
	Total       float64 `json:"total"`
}

// ProgramTotal is one bar of the top-programs chart.
type ProgramTotal struct {
	Program string  `json:"program"`
	Total   float64 `json:"total"`
}

// PathwayPoint is one (year, pathway type) point of the direct-versus-
// indirect inflow area chart.
type PathwayPoint struct {
	Year    int     `json:"year"`
	Pathway string  `json:"pathway"`
	Total   float64 `json:"total"`
}

// RawTable is the doubly-filtered raw rows, shaped for tabular display.
type RawTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Dashboard is the complete dashboard payload: filter state, KPIs, the
// four chart tables, and the raw filtered rows. When HasData is false the
// frontend renders the waiting-for-upload state and every aggregate is
// empty or zero.
type Dashboard struct {
	HasData     bool           `json:"has_data"`
	Filters     FilterState    `json:"filters"`
	Summary     Summary        `json:"summary"`
	Trend       []TrendPoint   `json:"trend"`
	MarketShare []SharePoint   `json:"market_share"`
	TopPrograms []ProgramTotal `json:"top_programs"`
	Pathways    []PathwayPoint `json:"pathways"`
	Rows        RawTable       `json:"rows"`
}
