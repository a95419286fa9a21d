package service

import (
	"testing"

	"registry-report/internal/domain"
	"registry-report/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryReport_Table(t *testing.T) {
	summary := Summarize([]domain.Entry{
		entry(1, "A", "B", domain.StatusActive, 30000, "2024-01-01"),
		entry(2, "A", "B", domain.StatusActive, 10000, "2024-01-02"),
		entry(3, "A", "B", domain.StatusCancelled, 1234567, "2024-01-03"),
		entry(4, "A", "B", domain.StatusCompleted, 500, "2024-01-04"),
	})

	tbl := summary.Table(report.NewFormatter(""))

	assert.Equal(t, "Registry Summary Report", tbl.Title)
	assert.Equal(t, []string{"Status", "Agreements", "Total Amount", "Share"}, tbl.Columns)
	assert.Equal(t, [][]string{
		{"Active", "2", "$40,000.00", "50.0%"},
		{"Cancelled", "1", "$1,234,567.00", "25.0%"},
		{"Completed", "1", "$500.00", "25.0%"},
		{"Total", "4", "$1,275,067.00", "100%"},
	}, tbl.Rows)
}

func TestSummaryReport_TableWhenEmpty(t *testing.T) {
	tbl := Summarize(nil).Table(report.NewFormatter("FJ$"))
	assert.Equal(t, [][]string{{"Total", "0", "FJ$0.00", "100%"}}, tbl.Rows)
}

func TestDetailedReport_Table(t *testing.T) {
	e := entry(7, "", "Levuka", domain.StatusCompleted, 2500, "2024-03-05")
	e.SequenceNumber = 42
	e.Borrowers = []domain.Borrower{{FullName: "Mere Tuilau"}, {FullName: "Sefo Naivalu"}}

	tbl := Detail([]domain.Entry{e}).Table(report.NewFormatter(""))

	assert.Equal(t, "Detailed Registry Report", tbl.Title)
	assert.Equal(t, []string{"Registry No", "Agreement", "Borrowers", "Island", "Branch", "Status", "Loan Amount", "Date"}, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"42", "AG-007", "Mere Tuilau; Sefo Naivalu", "-", "Levuka", "Completed", "$2,500.00", "05 Mar 2024"}, tbl.Rows[0])
}

func TestBranchReport_Table(t *testing.T) {
	tbl := BranchPerformanceOf([]domain.Entry{
		entry(1, "A", "Branch A", domain.StatusActive, 10000, "2024-01-01"),
		entry(2, "A", "Branch A", domain.StatusActive, 30000, "2024-01-02"),
		entry(3, "A", "", domain.StatusActive, 5, "2024-01-02"),
	}).Table(report.NewFormatter(""))

	assert.Equal(t, "Branch Performance Report", tbl.Title)
	assert.Equal(t, []string{"Branch", "Agreements", "Total Amount", "Average Amount"}, tbl.Columns)
	assert.Equal(t, [][]string{
		{"Branch A", "2", "$40,000.00", "$20,000.00"},
		{"-", "1", "$5.00", "$5.00"},
	}, tbl.Rows)
}
