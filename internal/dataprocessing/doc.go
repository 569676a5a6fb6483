// Package dataprocessing implements the enrollment-flow pipeline: parsing
// uploaded DUO files (delimited text with per-file delimiter detection, or
// xlsx workbooks), combining parsed tables row-wise with count/year
// coercion, narrowing by source and destination institution, and the
// grouped-sum aggregates behind the dashboard KPIs and charts.
package dataprocessing
