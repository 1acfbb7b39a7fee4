// Package app assembles the bot: configuration, store supervisor,
// services, handlers, and the liveness endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	"walletbot/core/bootstrap"
	corecmd "walletbot/core/cmd"
	coredatabase "walletbot/core/database"
	"walletbot/core/logger"
	coretelegram "walletbot/core/telegram"
	tgsender "walletbot/core/telegram/sender"
	"walletbot/core/telegram/state"
	"walletbot/internal/bot"
	"walletbot/internal/health"
	"walletbot/internal/repository"
	"walletbot/internal/service"
	"walletbot/internal/sysconfig"
)

// App holds the assembled runtime.
type App struct {
	cfg      *Config
	sup      *coredatabase.Supervisor
	registry *coretelegram.Registry
	states   state.Manager
	health   *health.Server
}

// Bootstrap initializes logging, connects the store (blocking until the
// first connection, migrations, and the system configuration load have
// completed), and wires the bot.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	sysCfg := sysconfig.New()
	var (
		migrateOnce sync.Once
		migrateErr  error
		firstLoad   atomic.Bool
	)
	firstLoad.Store(true)

	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
		Supervisor: coredatabase.SupervisorOptions{
			OnConnect: func(ctx context.Context, db *sqlx.DB) error {
				migrateOnce.Do(func() {
					migrateErr = coredatabase.RunMigrations(cfg.Database)
				})
				if migrateErr != nil {
					return fmt.Errorf("migrations: %w", migrateErr)
				}
				return reloadSystemConfig(ctx, db, sysCfg, &firstLoad)
			},
		},
	})
	if err != nil {
		return nil, err
	}
	sup := res.Supervisor

	accounts := service.NewAccounts(repository.NewAccounts(sup))
	withdrawals := service.NewWithdrawals(repository.NewWithdrawals(sup))

	states := state.NewMemoryManager()
	handlers := bot.NewHandlers(sup, accounts, withdrawals, sysCfg, states)
	registry := bot.BuildRegistry(handlers)

	app := &App{
		cfg:      cfg,
		sup:      sup,
		registry: registry,
		states:   states,
	}
	if cfg.Core.Health.Port > 0 {
		app.health = health.New(cfg.Core.Health.Port)
	}
	return app, nil
}

// reloadSystemConfig refreshes the cached system configuration. A record
// missing at startup is fatal; on reconnect a failed reload keeps the
// previous snapshot.
func reloadSystemConfig(ctx context.Context, db *sqlx.DB, cache *sysconfig.Cache, firstLoad *atomic.Bool) error {
	loaded, err := repository.LoadSystemConfig(ctx, db)
	if err != nil {
		if firstLoad.Load() {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("system configuration record missing, seed it before starting: %w", err)
			}
			return fmt.Errorf("system configuration load: %w", err)
		}
		logger.SUP.Warn("system config reload failed, keeping previous snapshot",
			slog.String("err", err.Error()),
		)
		return nil
	}
	cache.Store(*loaded)
	firstLoad.Store(false)
	logger.SUP.Info("system config loaded",
		slog.String("channel", loaded.Channel),
	)
	return nil
}

// TelegramRunOptions builds the bot runtime options.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	opts := coretelegram.RunOptions{
		Config:   &a.cfg.Core,
		Registry: a.registry,
		DispatcherOptions: tgsender.Options{
			QueueSize: a.cfg.Core.Sender.QueueSize,
			Interval:  time.Duration(a.cfg.Core.Sender.IntervalMS) * time.Millisecond,
			Workers:   a.cfg.Core.Sender.Workers,
		},
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      bot.BuildRoutes(a.registry, a.states),
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			if a.health != nil {
				a.health.Start(ctx)
			}
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			return a.sup.Close()
		},
	}
	return opts, nil
}
