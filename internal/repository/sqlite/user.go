package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/repository"
)

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

const accountColumns = `id, email, name, kind, password_hash, is_active, created_at, updated_at`

// CreateAccount inserts a new account. Emails are stored lower-cased; the
// UNIQUE constraint on email turns a second registration into a Conflict.
func (db *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	now := time.Now()
	account.ID = xid.New().String()
	account.Email = strings.ToLower(account.Email)
	account.IsActive = true
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		account.ID,
		account.Email,
		account.Name,
		string(account.Kind),
		account.PasswordHash,
		toMillis(account.CreatedAt),
		toMillis(account.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("an account with this email already exists")
		}
		return fmt.Errorf("sqlite: inserting account %s: %w", account.Email, err)
	}
	return nil
}

// GetAccountByID retrieves an account by its internal ID.
// Returns apperror.ErrNotFound if no account exists with that ID.
func (db *DB) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row, id)
}

func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, strings.ToLower(email))
	return scanAccount(row, email)
}

// SetAccountActive enables or disables an account. Disabled owners keep
// their data, but RequireOwner rejects their tokens and Login answers
// Forbidden.
func (db *DB) SetAccountActive(ctx context.Context, id string, active bool) error {
	flag := 0
	if active {
		flag = 1
	}
	result, err := db.conn.ExecContext(ctx,
		`UPDATE accounts SET is_active = ?, updated_at = ? WHERE id = ?`,
		flag, toMillis(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating account %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("account", id)
	}
	return nil
}

func scanAccount(row *sql.Row, key string) (*model.Account, error) {
	var (
		a                    model.Account
		kind                 string
		active               int
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&a.ID, &a.Email, &a.Name, &kind, &a.PasswordHash,
		&active, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account", key)
		}
		return nil, fmt.Errorf("sqlite: getting account %s: %w", key, err)
	}
	a.Kind = model.OwnerKind(kind)
	a.IsActive = active == 1
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return &a, nil
}
