package service

import (
	"sort"
	"strings"
	"time"

	"registry-report/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	topIslandsLimit    = 5
	recentEntriesLimit = 5
)

// Amount is an exact money value that encodes to JSON as a bare number.
type Amount struct {
	decimal.Decimal
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func amountOf(d decimal.Decimal) Amount { return Amount{Decimal: d} }

type StatusBreakdown struct {
	Status      domain.Status `json:"status"`
	Count       int64         `json:"count"`
	TotalAmount Amount        `json:"totalAmount"`
	Percentage  float64       `json:"percentage"`
}

type IslandTotal struct {
	Island      string `json:"island"`
	Count       int64  `json:"count"`
	TotalAmount Amount `json:"totalAmount"`
}

type EntryRow struct {
	ID               int64         `json:"id"`
	SequenceNumber   int64         `json:"sequenceNumber"`
	AgreementNumber  string        `json:"agreementNumber"`
	Address          string        `json:"address"`
	Island           string        `json:"island"`
	Branch           string        `json:"branch"`
	Status           domain.Status `json:"status"`
	LoanAmount       Amount        `json:"loanAmount"`
	AgreementDate    time.Time     `json:"agreementDate"`
	CancellationDate *time.Time    `json:"cancellationDate"`
	CompletionDate   *time.Time    `json:"completionDate"`
	Borrowers        []string      `json:"borrowers"`
}

// SummaryReport holds totals, the per-status breakdown, top islands and the
// most recent entries. StatusBreakdown only lists statuses that matched at
// least one entry; callers that need all three must fill the gaps.
type SummaryReport struct {
	TotalEntries    int64             `json:"totalEntries"`
	TotalAmount     Amount            `json:"totalAmount"`
	AverageAmount   Amount            `json:"averageAmount"`
	StatusBreakdown []StatusBreakdown `json:"statusBreakdown"`
	TopIslands      []IslandTotal     `json:"topIslands"`
	RecentEntries   []EntryRow        `json:"recentEntries"`
}

// DetailedReport is the full filtered listing, newest agreement first.
type DetailedReport []EntryRow

type BranchPerformance struct {
	Branch        string `json:"branch"`
	Count         int64  `json:"count"`
	TotalAmount   Amount `json:"totalAmount"`
	AverageAmount Amount `json:"averageAmount"`
}

// BranchReport is the per-branch grouping, largest total first.
type BranchReport []BranchPerformance

// Summarize computes the summary aggregation over already filtered entries.
func Summarize(entries []domain.Entry) SummaryReport {
	total := decimal.Zero
	byStatus := map[domain.Status]*StatusBreakdown{}
	byIsland := map[string]*IslandTotal{}

	for _, e := range entries {
		total = total.Add(e.LoanAmount)

		sb, ok := byStatus[e.Status]
		if !ok {
			sb = &StatusBreakdown{Status: e.Status, TotalAmount: amountOf(decimal.Zero)}
			byStatus[e.Status] = sb
		}
		sb.Count++
		sb.TotalAmount = amountOf(sb.TotalAmount.Add(e.LoanAmount))

		island := strings.TrimSpace(e.Island)
		if island == "" {
			continue
		}
		it, ok := byIsland[island]
		if !ok {
			it = &IslandTotal{Island: island, TotalAmount: amountOf(decimal.Zero)}
			byIsland[island] = it
		}
		it.Count++
		it.TotalAmount = amountOf(it.TotalAmount.Add(e.LoanAmount))
	}

	count := int64(len(entries))
	out := SummaryReport{
		TotalEntries:    count,
		TotalAmount:     amountOf(total),
		AverageAmount:   amountOf(average(total, count)),
		StatusBreakdown: make([]StatusBreakdown, 0, len(byStatus)),
		TopIslands:      make([]IslandTotal, 0, topIslandsLimit),
		RecentEntries:   make([]EntryRow, 0, recentEntriesLimit),
	}

	for _, sb := range byStatus {
		sb.Percentage = percentage(sb.Count, count)
		out.StatusBreakdown = append(out.StatusBreakdown, *sb)
	}
	sort.Slice(out.StatusBreakdown, func(i, j int) bool {
		a, b := out.StatusBreakdown[i], out.StatusBreakdown[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Status < b.Status
	})

	islands := make([]IslandTotal, 0, len(byIsland))
	for _, it := range byIsland {
		islands = append(islands, *it)
	}
	sort.Slice(islands, func(i, j int) bool {
		if islands[i].Count != islands[j].Count {
			return islands[i].Count > islands[j].Count
		}
		return islands[i].Island < islands[j].Island
	})
	if len(islands) > topIslandsLimit {
		islands = islands[:topIslandsLimit]
	}
	out.TopIslands = append(out.TopIslands, islands...)

	for i, e := range sortedByRecency(entries) {
		if i == recentEntriesLimit {
			break
		}
		out.RecentEntries = append(out.RecentEntries, toEntryRow(e))
	}

	return out
}

// Detail lists every filtered entry, newest agreement first and sequence
// number ascending within a day. Nothing is truncated here.
func Detail(entries []domain.Entry) DetailedReport {
	sorted := sortedByRecency(entries)
	out := make(DetailedReport, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, toEntryRow(e))
	}
	return out
}

// BranchPerformanceOf groups entries by branch, sorted by total amount descending.
func BranchPerformanceOf(entries []domain.Entry) BranchReport {
	type acc struct {
		count int64
		total decimal.Decimal
	}
	groups := map[string]*acc{}
	var order []string
	for _, e := range entries {
		g, ok := groups[e.Branch]
		if !ok {
			g = &acc{total: decimal.Zero}
			groups[e.Branch] = g
			order = append(order, e.Branch)
		}
		g.count++
		g.total = g.total.Add(e.LoanAmount)
	}

	out := make(BranchReport, 0, len(groups))
	for _, branch := range order {
		g := groups[branch]
		out = append(out, BranchPerformance{
			Branch:        branch,
			Count:         g.count,
			TotalAmount:   amountOf(g.total),
			AverageAmount: amountOf(average(g.total, g.count)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].TotalAmount.Cmp(out[j].TotalAmount.Decimal); c != 0 {
			return c > 0
		}
		return out[i].Branch < out[j].Branch
	})
	return out
}

func average(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(count))
}

func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

func sortedByRecency(entries []domain.Entry) []domain.Entry {
	sorted := make([]domain.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.AgreementDate.Equal(b.AgreementDate) {
			return a.AgreementDate.After(b.AgreementDate)
		}
		return a.SequenceNumber < b.SequenceNumber
	})
	return sorted
}

func toEntryRow(e domain.Entry) EntryRow {
	return EntryRow{
		ID:               e.ID,
		SequenceNumber:   e.SequenceNumber,
		AgreementNumber:  e.AgreementNumber,
		Address:          e.Address,
		Island:           e.Island,
		Branch:           e.Branch,
		Status:           e.Status,
		LoanAmount:       amountOf(e.LoanAmount),
		AgreementDate:    e.AgreementDate,
		CancellationDate: e.CancellationDate,
		CompletionDate:   e.CompletionDate,
		Borrowers:        e.BorrowerNames(),
	}
}
