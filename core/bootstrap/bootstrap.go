package bootstrap

import (
	"context"
	"fmt"

	coreconfig "walletbot/core/config"
	coredatabase "walletbot/core/database"
	"walletbot/core/logger"
)

// Options control the generic bootstrap pipeline.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error

	// Supervisor options: OnConnect runs after every successful store
	// connection (migrations + configuration reload live here). A failing
	// hook on the first connection aborts startup.
	Supervisor coredatabase.SupervisorOptions
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Supervisor *coredatabase.Supervisor
}

// Run initializes the logger, starts the store connection supervisor, and
// blocks until the first connection (including its post-connect hook) has
// completed. The supervisor keeps retrying with a fixed delay until then.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	sup := coredatabase.NewSupervisor(opts.Database, opts.Supervisor)
	sup.Trigger()
	if err := sup.WaitFirst(ctx); err != nil {
		_ = sup.Close()
		return nil, fmt.Errorf("bootstrap: store initialization failed: %w", err)
	}
	sup.StartKeepalive()

	return &Result{Supervisor: sup}, nil
}
