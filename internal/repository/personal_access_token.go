package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"registry-report/internal/domain"
)

const userTokenableType = "User"

var ErrTokenNotFound = errors.New("token not found")

type PersonalAccessTokenRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewPersonalAccessTokenRepository(db *sql.DB, dialect Dialect) *PersonalAccessTokenRepository {
	if dialect == "" {
		dialect = DialectPostgres
	}
	return &PersonalAccessTokenRepository{db: db, dialect: dialect}
}

func (r *PersonalAccessTokenRepository) bind(i int) string {
	if r.dialect == DialectSQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", i)
}

// splitPlainToken splits "<id>|<secret>" tokens. A token without a usable id
// prefix is returned whole as the secret.
func splitPlainToken(plain string) (*int64, string) {
	idx := strings.Index(plain, "|")
	if idx <= 0 {
		return nil, plain
	}
	id, err := strconv.ParseInt(plain[:idx], 10, 64)
	if err != nil {
		return nil, plain[idx+1:]
	}
	return &id, plain[idx+1:]
}

func hashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("%x", sum)
}

// FindTokenByPlainToken resolves a bearer token to its owner and role.
// Expired tokens are not returned.
func (r *PersonalAccessTokenRepository) FindTokenByPlainToken(ctx context.Context, plainToken string) (*domain.PersonalAccessToken, error) {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" {
		return nil, errors.New("empty token")
	}

	tokenID, secret := splitPlainToken(plainToken)
	hashStr := hashToken(secret)
	now := time.Now().UTC()

	selectCols := `
		SELECT t.id, t.token, t.tokenable_id, COALESCE(u.role, ''), COALESCE(t.abilities, ''), t.expires_at
		FROM personal_access_tokens t
		JOIN users u ON u.id = t.tokenable_id
	`

	if tokenID != nil {
		query := selectCols + `
			WHERE t.id = ` + r.bind(1) + `
			  AND t.tokenable_type = ` + r.bind(2) + `
			  AND (t.expires_at IS NULL OR t.expires_at > ` + r.bind(3) + `)
		`
		pat, err := r.scanOne(r.db.QueryRowContext(ctx, query, *tokenID, userTokenableType, now))
		if err == nil && pat.TokenHash == hashStr {
			return pat, nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lookup token by id: %w", err)
		}
	}

	query := selectCols + `
		WHERE t.tokenable_type = ` + r.bind(1) + `
		  AND t.token = ` + r.bind(2) + `
		  AND (t.expires_at IS NULL OR t.expires_at > ` + r.bind(3) + `)
		ORDER BY t.id DESC
		LIMIT 1
	`
	pat, err := r.scanOne(r.db.QueryRowContext(ctx, query, userTokenableType, hashStr, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	return pat, nil
}

func (r *PersonalAccessTokenRepository) scanOne(row *sql.Row) (*domain.PersonalAccessToken, error) {
	var (
		pat       domain.PersonalAccessToken
		expiresAt sqlDate
	)
	if err := row.Scan(
		&pat.ID,
		&pat.TokenHash,
		&pat.UserID,
		&pat.Role,
		&pat.Abilities,
		&expiresAt,
	); err != nil {
		return nil, err
	}
	pat.ExpiresAt = expiresAt.Ptr()
	return &pat, nil
}
