package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	coredatabase "walletbot/core/database"
	"walletbot/internal/domain"
)

// Withdrawals records withdrawal requests. Settlement is out of scope:
// rows are written once and never update the account balance here.
type Withdrawals struct {
	sup *coredatabase.Supervisor
}

// NewWithdrawals builds the withdrawal request gateway.
func NewWithdrawals(sup *coredatabase.Supervisor) *Withdrawals {
	return &Withdrawals{sup: sup}
}

// Record inserts a withdrawal request and returns it with its generated id.
func (r *Withdrawals) Record(ctx context.Context, accountID int64, method domain.Method, address string, amount decimal.Decimal) (*domain.WithdrawalRequest, error) {
	db, err := r.sup.DB()
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	var req domain.WithdrawalRequest
	query := `
		INSERT INTO withdrawal_requests (id, telegram_id, method, address, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, telegram_id, method, address, amount, created_at`
	if err := db.GetContext(ctx, &req, query, uuid.NewString(), accountID, method, address, amount); err != nil {
		return nil, fmt.Errorf("record withdrawal for %d: %w", accountID, err)
	}
	return &req, nil
}
