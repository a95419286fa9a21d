package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"registry-report/internal/domain"

	"github.com/shopspring/decimal"
)

// EntriesFilter is the normalized report filter. Nil fields mean "no constraint".
type EntriesFilter struct {
	Status    *domain.Status
	Island    *string
	Branch    *string
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

type Dialect string

const (
	DialectPostgres Dialect = "pgx"
	DialectSQLite   Dialect = "sqlite"
)

const borrowerChunkSize = 500

type EntryRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewEntryRepository(db *sql.DB, dialect Dialect) *EntryRepository {
	if dialect == "" {
		dialect = DialectPostgres
	}
	return &EntryRepository{db: db, dialect: dialect}
}

func (r *EntryRepository) bind(i int) string {
	if r.dialect == DialectSQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", i)
}

// List returns the non-deleted entries matching f, ordered by agreement date
// descending then sequence number ascending, with borrowers attached.
func (r *EntryRepository) List(ctx context.Context, f EntriesFilter) ([]domain.Entry, error) {
	base := `
		SELECT
			e.id,
			e.sequence_number,
			e.address,
			e.island,
			e.branch,
			e.agreement_number,
			e.status,
			e.loan_amount,
			e.agreement_date,
			e.cancellation_date,
			e.completion_date
		FROM registry_entries e
	`

	where := []string{"e.is_deleted = FALSE"}
	args := []any{}
	i := 1

	if f.Status != nil {
		where = append(where, "e.status = "+r.bind(i))
		args = append(args, string(*f.Status))
		i++
	}
	if f.Island != nil {
		where = append(where, "e.island = "+r.bind(i))
		args = append(args, *f.Island)
		i++
	}
	if f.Branch != nil {
		where = append(where, "e.branch = "+r.bind(i))
		args = append(args, *f.Branch)
		i++
	}
	if f.StartDate != nil {
		where = append(where, "e.agreement_date >= "+r.bind(i))
		args = append(args, f.StartDate.Format(dateLayout))
		i++
	}
	if f.EndDate != nil {
		// exclusive next-day bound keeps the end day whole when dates carry a time part
		where = append(where, "e.agreement_date < "+r.bind(i))
		args = append(args, f.EndDate.AddDate(0, 0, 1).Format(dateLayout))
		i++
	}
	if f.MinAmount != nil {
		where = append(where, "e.loan_amount >= "+r.bind(i))
		args = append(args, f.MinAmount.String())
		i++
	}
	if f.MaxAmount != nil {
		where = append(where, "e.loan_amount <= "+r.bind(i))
		args = append(args, f.MaxAmount.String())
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ") +
		" ORDER BY e.agreement_date DESC, e.sequence_number ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []domain.Entry
	index := map[int64]int{}
	for rows.Next() {
		var (
			e           domain.Entry
			status      string
			amount      decimal.Decimal
			agreedOn    sqlDate
			cancelledOn sqlDate
			completedOn sqlDate
		)
		if err := rows.Scan(
			&e.ID,
			&e.SequenceNumber,
			&e.Address,
			&e.Island,
			&e.Branch,
			&e.AgreementNumber,
			&status,
			&amount,
			&agreedOn,
			&cancelledOn,
			&completedOn,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		e.Status = domain.Status(status)
		e.LoanAmount = amount
		e.AgreementDate = agreedOn.Time
		e.CancellationDate = cancelledOn.Ptr()
		e.CompletionDate = completedOn.Ptr()

		index[e.ID] = len(out)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachBorrowers(ctx, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EntryRepository) attachBorrowers(ctx context.Context, entries []domain.Entry, index map[int64]int) error {
	for start := 0; start < len(entries); start += borrowerChunkSize {
		end := start + borrowerChunkSize
		if end > len(entries) {
			end = len(entries)
		}

		placeholders := make([]string, 0, end-start)
		args := make([]any, 0, end-start)
		for i, e := range entries[start:end] {
			placeholders = append(placeholders, r.bind(i+1))
			args = append(args, e.ID)
		}

		query := `
			SELECT b.entry_id, b.full_name, b.national_id
			FROM borrowers b
			WHERE b.entry_id IN (` + strings.Join(placeholders, ", ") + `)
			ORDER BY b.entry_id, b.id
		`

		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query borrowers: %w", err)
		}

		for rows.Next() {
			var (
				entryID    int64
				b          domain.Borrower
				nationalID sql.NullString
			)
			if err := rows.Scan(&entryID, &b.FullName, &nationalID); err != nil {
				rows.Close()
				return fmt.Errorf("scan borrower: %w", err)
			}
			b.NationalID = nationalID.String
			if pos, ok := index[entryID]; ok {
				entries[pos].Borrowers = append(entries[pos].Borrowers, b)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
