// Package report holds the format-agnostic report table, its display
// formatter and the encoders that turn a table into CSV, XLSX or PDF bytes.
package report

// Table is a titled grid of display-ready cells.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Records returns the header followed by the data rows.
func (t Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Columns)
	out = append(out, t.Rows...)
	return out
}
