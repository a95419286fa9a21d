package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"registry-report/internal/domain"
	"registry-report/internal/repository"

	"github.com/shopspring/decimal"
)

// allSentinel is what filter chips send for "no constraint".
const allSentinel = "ALL"

// RawFilters is the loosely typed filter bag decoded from a request body.
// Values are nil, strings or float64 (JSON numbers).
type RawFilters struct {
	Status    any `json:"status"`
	Island    any `json:"island"`
	Branch    any `json:"branch"`
	StartDate any `json:"startDate"`
	EndDate   any `json:"endDate"`
	MinAmount any `json:"minAmount"`
	MaxAmount any `json:"maxAmount"`
}

var filterDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// NormalizeFilters turns raw filters into a repository filter.
//
// It never fails: a fragment that cannot be interpreted (unknown status, bad
// date, non-numeric amount) is dropped, which widens the result set instead
// of rejecting the report. Keep it that way.
func NormalizeFilters(raw RawFilters) repository.EntriesFilter {
	var f repository.EntriesFilter

	if s, ok := raw.Status.(string); ok && !isAll(s) {
		if st, ok := domain.ParseStatus(s); ok {
			f.Status = &st
		}
	}
	f.Island = normalizeName(raw.Island)
	f.Branch = normalizeName(raw.Branch)
	f.StartDate = normalizeDate(raw.StartDate)
	f.EndDate = normalizeDate(raw.EndDate)
	f.MinAmount = normalizeAmount(raw.MinAmount)
	f.MaxAmount = normalizeAmount(raw.MaxAmount)

	return f
}

func isAll(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), allSentinel)
}

func normalizeName(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || isAll(s) {
		return nil
	}
	return &s
}

func normalizeDate(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range filterDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

func normalizeAmount(v any) *decimal.Decimal {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		d := decimal.NewFromFloat(t)
		return &d
	case int:
		d := decimal.NewFromInt(int64(t))
		return &d
	case int64:
		d := decimal.NewFromInt(t)
		return &d
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		// must also be finite as a float64
		if f, err := strconv.ParseFloat(s, 64); err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil
		}
		return &d
	default:
		return nil
	}
}
