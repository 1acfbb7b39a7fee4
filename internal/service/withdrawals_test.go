package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletbot/internal/domain"
)

type fakeWithdrawalStore struct {
	lastAccountID int64
	lastMethod    domain.Method
	lastAddress   string
	lastAmount    decimal.Decimal
	err           error
}

func (f *fakeWithdrawalStore) Record(_ context.Context, accountID int64, method domain.Method, address string, amount decimal.Decimal) (*domain.WithdrawalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastAccountID = accountID
	f.lastMethod = method
	f.lastAddress = address
	f.lastAmount = amount
	return &domain.WithdrawalRequest{
		ID:        "req-1",
		AccountID: accountID,
		Method:    method,
		Address:   address,
		Amount:    amount,
	}, nil
}

func TestRecordUsesStoredAddressForMethod(t *testing.T) {
	store := &fakeWithdrawalStore{}
	svc := NewWithdrawals(store)

	acct := &domain.Account{ID: 101, AddressTRX: "TAbc123", Balance: decimal.RequireFromString("50")}
	req, err := svc.Record(context.Background(), acct, domain.MethodTRX, decimal.RequireFromString("7.5"))
	require.NoError(t, err)

	assert.Equal(t, "req-1", req.ID)
	assert.Equal(t, int64(101), store.lastAccountID)
	assert.Equal(t, domain.MethodTRX, store.lastMethod)
	assert.Equal(t, "TAbc123", store.lastAddress)
	assert.True(t, store.lastAmount.Equal(decimal.RequireFromString("7.5")))
}

func TestRecordPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("insert failed")
	svc := NewWithdrawals(&fakeWithdrawalStore{err: storeErr})

	_, err := svc.Record(context.Background(), &domain.Account{ID: 101}, domain.MethodTON, decimal.New(1, 0))
	assert.ErrorIs(t, err, storeErr)
}
