package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"walletbot/core/logger"
	"walletbot/internal/domain"
)

// WithdrawalStore is the repository surface the withdrawal service needs.
type WithdrawalStore interface {
	Record(ctx context.Context, accountID int64, method domain.Method, address string, amount decimal.Decimal) (*domain.WithdrawalRequest, error)
}

// Withdrawals records validated withdrawal requests for operator review.
type Withdrawals struct {
	store WithdrawalStore
}

// NewWithdrawals builds the withdrawal service.
func NewWithdrawals(store WithdrawalStore) *Withdrawals {
	return &Withdrawals{store: store}
}

// Record persists a withdrawal request. Validation (positive amount,
// within balance) happens upstream in the conversation flow.
func (s *Withdrawals) Record(ctx context.Context, acct *domain.Account, method domain.Method, amount decimal.Decimal) (*domain.WithdrawalRequest, error) {
	req, err := s.store.Record(ctx, acct.ID, method, acct.Address(method), amount)
	if err != nil {
		return nil, fmt.Errorf("record withdrawal: %w", err)
	}
	logger.SVCWithdrawals.Info("withdrawal recorded",
		slog.Int64("user_id", acct.ID),
		slog.String("method", string(method)),
		slog.String("amount", amount.String()),
	)
	return req, nil
}
