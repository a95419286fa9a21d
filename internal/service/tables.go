package service

import (
	"strconv"
	"strings"

	"registry-report/internal/report"
)

const borrowerSeparator = "; "

// Tabular is implemented by every aggregation result that can be exported.
type Tabular interface {
	Table(f report.Formatter) report.Table
}

func (r SummaryReport) Table(f report.Formatter) report.Table {
	t := report.Table{
		Title:   "Registry Summary Report",
		Columns: []string{"Status", "Agreements", "Total Amount", "Share"},
		Rows:    make([][]string, 0, len(r.StatusBreakdown)+1),
	}
	for _, sb := range r.StatusBreakdown {
		t.Rows = append(t.Rows, []string{
			f.Label(string(sb.Status)),
			f.Count(sb.Count),
			f.Money(sb.TotalAmount.Decimal),
			f.Percent(sb.Percentage),
		})
	}
	t.Rows = append(t.Rows, []string{
		"Total",
		f.Count(r.TotalEntries),
		f.Money(r.TotalAmount.Decimal),
		"100%",
	})
	return t
}

func (r DetailedReport) Table(f report.Formatter) report.Table {
	t := report.Table{
		Title:   "Detailed Registry Report",
		Columns: []string{"Registry No", "Agreement", "Borrowers", "Island", "Branch", "Status", "Loan Amount", "Date"},
		Rows:    make([][]string, 0, len(r)),
	}
	for _, e := range r {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(e.SequenceNumber, 10),
			f.Text(e.AgreementNumber),
			f.Text(strings.Join(e.Borrowers, borrowerSeparator)),
			f.Text(e.Island),
			f.Text(e.Branch),
			f.Label(string(e.Status)),
			f.Money(e.LoanAmount.Decimal),
			f.Date(e.AgreementDate),
		})
	}
	return t
}

func (r BranchReport) Table(f report.Formatter) report.Table {
	t := report.Table{
		Title:   "Branch Performance Report",
		Columns: []string{"Branch", "Agreements", "Total Amount", "Average Amount"},
		Rows:    make([][]string, 0, len(r)),
	}
	for _, b := range r {
		t.Rows = append(t.Rows, []string{
			f.Text(b.Branch),
			f.Count(b.Count),
			f.Money(b.TotalAmount.Decimal),
			f.Money(b.AverageAmount.Decimal),
		})
	}
	return t
}
