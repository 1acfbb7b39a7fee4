package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	coredatabase "walletbot/core/database"
	"walletbot/internal/domain"
)

const pqUniqueViolation = "23505"

// Accounts is the typed gateway to user account records. All operations
// are single-document against the identity key; the live connection is
// resolved through the supervisor on every call so a reconnect swaps in
// transparently.
type Accounts struct {
	sup *coredatabase.Supervisor
}

// NewAccounts builds the account gateway on top of the supervisor.
func NewAccounts(sup *coredatabase.Supervisor) *Accounts {
	return &Accounts{sup: sup}
}

func (r *Accounts) db() (*sqlx.DB, error) {
	db, err := r.sup.DB()
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	return db, nil
}

const accountColumns = `telegram_id, name, balance, language, address_binance, address_trx, address_ton, created_at`

// FindByIdentity returns the account for the identity or ErrNotFound.
func (r *Accounts) FindByIdentity(ctx context.Context, id int64) (*domain.Account, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	var acct domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE telegram_id = $1`
	if err := db.GetContext(ctx, &acct, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account %d: %w", id, err)
	}
	return &acct, nil
}

// CreateDefault inserts a fresh account with zero balance and unset
// language. A unique-constraint race maps to ErrDuplicateIdentity.
func (r *Accounts) CreateDefault(ctx context.Context, id int64, name string) (*domain.Account, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	var acct domain.Account
	query := `
		INSERT INTO accounts (telegram_id, name)
		VALUES ($1, $2)
		RETURNING ` + accountColumns
	if err := db.GetContext(ctx, &acct, query, id, name); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("create account %d: %w", id, err)
	}
	return &acct, nil
}

// SetLanguage updates the account language. ErrNotFound when no account exists.
func (r *Accounts) SetLanguage(ctx context.Context, id int64, lang domain.Language) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `UPDATE accounts SET language = $1 WHERE telegram_id = $2`, lang, id)
	if err != nil {
		return fmt.Errorf("set language for %d: %w", id, err)
	}
	return requireRow(res, id)
}

// SetAddress stores the payout address for a method. The address must
// already be trimmed and non-empty. ErrNotFound when no account exists.
func (r *Accounts) SetAddress(ctx context.Context, id int64, method domain.Method, address string) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	var query string
	switch method {
	case domain.MethodBinance:
		query = `UPDATE accounts SET address_binance = $1 WHERE telegram_id = $2`
	case domain.MethodTRX:
		query = `UPDATE accounts SET address_trx = $1 WHERE telegram_id = $2`
	case domain.MethodTON:
		query = `UPDATE accounts SET address_ton = $1 WHERE telegram_id = $2`
	default:
		return fmt.Errorf("set address for %d: unknown method %q", id, method)
	}
	res, err := db.ExecContext(ctx, query, address, id)
	if err != nil {
		return fmt.Errorf("set %s address for %d: %w", method, id, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
