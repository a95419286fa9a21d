package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

var Statuses = []Status{StatusActive, StatusCancelled, StatusCompleted}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, bool) {
	up := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if st == up {
			return st, true
		}
	}
	return "", false
}

type Borrower struct {
	FullName   string
	NationalID string
}

// Entry is a registry entry (loan agreement) as read by the reporting core.
// Deleted entries are never loaded.
type Entry struct {
	ID              int64
	SequenceNumber  int64
	Address         string
	Island          string
	Branch          string
	AgreementNumber string
	Status          Status
	LoanAmount      decimal.Decimal
	AgreementDate   time.Time

	CancellationDate *time.Time
	CompletionDate   *time.Time

	Borrowers []Borrower
}

func (e Entry) BorrowerNames() []string {
	names := make([]string, 0, len(e.Borrowers))
	for _, b := range e.Borrowers {
		names = append(names, b.FullName)
	}
	return names
}
