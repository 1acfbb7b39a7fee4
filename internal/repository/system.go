package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	coredatabase "walletbot/core/database"
	"walletbot/internal/domain"
)

// System reads the singleton system configuration record.
type System struct {
	sup *coredatabase.Supervisor
}

// NewSystem builds the system configuration gateway.
func NewSystem(sup *coredatabase.Supervisor) *System {
	return &System{sup: sup}
}

// LoadConfig returns the singleton configuration record (broadcast
// channel and admin contacts) or ErrNotFound when it was never seeded.
// Callers treat an absent record at startup as fatal.
func (r *System) LoadConfig(ctx context.Context) (*domain.SystemConfig, error) {
	db, err := r.sup.DB()
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	return LoadSystemConfig(ctx, db)
}

// LoadSystemConfig reads the singleton record from an explicit handle.
// The store supervisor's post-connect hook uses this before the
// supervisor-bound gateways are in play.
func LoadSystemConfig(ctx context.Context, db sqlx.QueryerContext) (*domain.SystemConfig, error) {
	var cfg domain.SystemConfig
	query := `SELECT channel, admins FROM system_config WHERE admin = TRUE LIMIT 1`
	if err := sqlx.GetContext(ctx, db, &cfg, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load system config: %w", err)
	}
	return &cfg, nil
}
