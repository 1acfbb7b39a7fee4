// Package service implements the account and withdrawal use cases on
// top of the repository gateways. Handlers talk to services only.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"walletbot/core/logger"
	"walletbot/internal/domain"
	"walletbot/internal/repository"
)

// AccountStore is the repository surface the account service needs.
type AccountStore interface {
	FindByIdentity(ctx context.Context, id int64) (*domain.Account, error)
	CreateDefault(ctx context.Context, id int64, name string) (*domain.Account, error)
	SetLanguage(ctx context.Context, id int64, lang domain.Language) error
	SetAddress(ctx context.Context, id int64, method domain.Method, address string) error
}

// Accounts covers the account lifecycle: find-or-create on contact,
// language selection and payout address updates.
type Accounts struct {
	store AccountStore
}

// NewAccounts builds the account service.
func NewAccounts(store AccountStore) *Accounts {
	return &Accounts{store: store}
}

// Ensure returns the account for the identity, creating a default one
// on first contact. A create lost to a concurrent first contact falls
// back to re-reading the winner's record.
func (s *Accounts) Ensure(ctx context.Context, id int64, name string) (*domain.Account, error) {
	acct, err := s.store.FindByIdentity(ctx, id)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	acct, err = s.store.CreateDefault(ctx, id, name)
	if err == nil {
		logger.SVCAccounts.Info("account created",
			slog.Int64("user_id", id),
		)
		return acct, nil
	}
	if !errors.Is(err, repository.ErrDuplicateIdentity) {
		return nil, err
	}
	logger.SVCAccounts.Debug("account create raced, re-reading",
		slog.Int64("user_id", id),
	)
	return s.store.FindByIdentity(ctx, id)
}

// Lookup returns the existing account or nil when none was created yet.
// Unlike Ensure it never writes, so callers can peek at a user before
// deciding whether they get an account at all.
func (s *Accounts) Lookup(ctx context.Context, id int64) (*domain.Account, error) {
	acct, err := s.store.FindByIdentity(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// SetLanguage persists the language choice. A missing account is logged
// and swallowed: the user simply re-enters through /start.
func (s *Accounts) SetLanguage(ctx context.Context, id int64, lang domain.Language) error {
	err := s.store.SetLanguage(ctx, id, lang)
	if errors.Is(err, repository.ErrNotFound) {
		logger.SVCAccounts.Warn("language update for unknown account",
			slog.Int64("user_id", id),
			slog.String("language", string(lang)),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	return nil
}

// SaveAddress persists a payout address for a method.
func (s *Accounts) SaveAddress(ctx context.Context, id int64, method domain.Method, address string) error {
	err := s.store.SetAddress(ctx, id, method, address)
	if errors.Is(err, repository.ErrNotFound) {
		logger.SVCAccounts.Warn("address update for unknown account",
			slog.Int64("user_id", id),
			slog.String("method", string(method)),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	logger.SVCAccounts.Info("payout address saved",
		slog.Int64("user_id", id),
		slog.String("method", string(method)),
	)
	return nil
}
