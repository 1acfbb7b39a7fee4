package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"walletbot/core/logger"

	"log/slog"
)

// ErrNotReady is returned by DB while no live store connection exists.
var ErrNotReady = errors.New("database: connection not ready")

const (
	defaultRetryDelay   = 2000 * time.Millisecond
	defaultPingInterval = 30 * time.Second
)

// SupervisorOptions configure a Supervisor beyond the store settings.
type SupervisorOptions struct {
	// Connect overrides the connection function (tests).
	Connect func(Config) (*sqlx.DB, error)
	// OnConnect runs after every successful connection, before the
	// supervisor reports ready to first-connect waiters. An error on the
	// first connection is surfaced by WaitFirst and halts startup; on
	// later reconnects it is logged and the previous state is kept.
	OnConnect func(ctx context.Context, db *sqlx.DB) error
}

// Supervisor owns the store connection lifecycle: it establishes a single
// connection, retries with a fixed delay on failure, guards against
// concurrent attempts, and re-triggers after an observed disconnect.
type Supervisor struct {
	cfg        Config
	connect    func(Config) (*sqlx.DB, error)
	onConnect  func(ctx context.Context, db *sqlx.DB) error
	retryDelay time.Duration

	mu sync.RWMutex
	db *sqlx.DB

	// connecting is the in-flight guard; ready reports a live connection.
	// They are distinct: a supervisor can be neither (idle after a
	// disconnect, before Trigger) or both in a brief handover window.
	connecting atomic.Bool
	ready      atomic.Bool

	attempts atomic.Uint64

	firstOnce sync.Once
	firstCh   chan struct{}
	firstErr  error

	stopOnce sync.Once
	stopCh   chan struct{}

	cron *cron.Cron
}

// NewSupervisor builds a stopped supervisor; call Trigger to start connecting.
func NewSupervisor(cfg Config, opts SupervisorOptions) *Supervisor {
	s := &Supervisor{
		cfg:        cfg,
		connect:    opts.Connect,
		onConnect:  opts.OnConnect,
		retryDelay: defaultRetryDelay,
		firstCh:    make(chan struct{}),
		stopCh:     make(chan struct{}),
	}
	if s.connect == nil {
		s.connect = Connect
	}
	if cfg.RetryDelayMS > 0 {
		s.retryDelay = time.Duration(cfg.RetryDelayMS) * time.Millisecond
	}
	return s
}

// Trigger starts a connection attempt unless one is already in flight.
// It is safe to call concurrently and while connected; redundant calls
// are no-ops.
func (s *Supervisor) Trigger() {
	if !s.connecting.CompareAndSwap(false, true) {
		return
	}
	if s.ready.Load() {
		// Already connected; nothing to re-establish. A disconnect
		// landing between the CAS above and this load would have seen
		// its own Trigger refused, so re-check after releasing the
		// flag and pick that wakeup up ourselves.
		s.connecting.Store(false)
		if !s.ready.Load() {
			s.Trigger()
		}
		return
	}
	go s.run()
}

func (s *Supervisor) run() {
	defer s.connecting.Store(false)

	for attempt := 1; ; attempt++ {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.attempts.Add(1)
		db, err := s.connect(s.cfg)
		if err != nil {
			logger.SUP.Warn("store connect attempt failed",
				slog.String("event", "supervisor.retry"),
				slog.Int("attempt", attempt),
				slog.Duration("backoff_ms", logger.RoundMS(s.retryDelay)),
				slog.String("err", err.Error()),
			)
			select {
			case <-s.stopCh:
				return
			case <-time.After(s.retryDelay):
			}
			continue
		}

		s.mu.Lock()
		s.db = db
		s.mu.Unlock()
		s.ready.Store(true)

		logger.SUP.Info("store connection established",
			slog.String("event", "supervisor.connected"),
			slog.Int("attempt", attempt),
		)

		if s.onConnect != nil {
			if hookErr := s.onConnect(context.Background(), db); hookErr != nil {
				logger.SUP.Error("post-connect hook failed",
					slog.String("event", "supervisor.hook"),
					slog.String("err", hookErr.Error()),
				)
				s.firstOnce.Do(func() {
					s.firstErr = hookErr
					close(s.firstCh)
				})
				return
			}
		}

		s.firstOnce.Do(func() { close(s.firstCh) })
		return
	}
}

// WaitFirst blocks until the first connection (and its post-connect hook)
// completed, the context is cancelled, or the configured connect timeout
// elapsed. Zero timeout waits indefinitely.
func (s *Supervisor) WaitFirst(ctx context.Context) error {
	var timeoutCh <-chan time.Time
	if s.cfg.ConnectTimeoutSeconds > 0 {
		t := time.NewTimer(time.Duration(s.cfg.ConnectTimeoutSeconds) * time.Second)
		defer t.Stop()
		timeoutCh = t.C
	}
	select {
	case <-s.firstCh:
		return s.firstErr
	case <-timeoutCh:
		return fmt.Errorf("database: first connection not established within %ds", s.cfg.ConnectTimeoutSeconds)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether a live connection is available.
func (s *Supervisor) Ready() bool {
	return s.ready.Load()
}

// DB returns the live connection pool or ErrNotReady.
func (s *Supervisor) DB() (*sqlx.DB, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrNotReady
	}
	return s.db, nil
}

// Attempts reports the total number of connection attempts made.
func (s *Supervisor) Attempts() uint64 {
	return s.attempts.Load()
}

// NotifyDisconnect marks the connection lost and schedules a reconnect.
// It is the entry point for externally observed disconnect signals and
// is subject to the same in-flight guard as Trigger.
func (s *Supervisor) NotifyDisconnect(cause error) {
	if !s.ready.CompareAndSwap(true, false) {
		// Already disconnected; a reconnect is pending or in flight.
		s.Trigger()
		return
	}
	attrs := []slog.Attr{slog.String("event", "supervisor.disconnected")}
	if cause != nil {
		attrs = append(attrs, slog.String("err", cause.Error()))
	}
	logger.SUP.LogAttrs(context.Background(), slog.LevelWarn, "store disconnected, reconnecting", attrs...)
	s.Trigger()
}

// StartKeepalive schedules a periodic ping of the live connection; a
// failed ping is treated as an observed disconnect. A negative interval
// disables the probe.
func (s *Supervisor) StartKeepalive() {
	if s.cfg.PingIntervalSeconds < 0 || s.cron != nil {
		return
	}
	interval := defaultPingInterval
	if s.cfg.PingIntervalSeconds > 0 {
		interval = time.Duration(s.cfg.PingIntervalSeconds) * time.Second
	}
	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.probe)
	if err != nil {
		logger.SUP.Error("keepalive schedule failed",
			slog.String("event", "supervisor.keepalive"),
			slog.String("err", err.Error()),
		)
		return
	}
	s.cron.Start()
}

func (s *Supervisor) probe() {
	if !s.ready.Load() || s.connecting.Load() {
		return
	}
	db, err := s.DB()
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		s.NotifyDisconnect(err)
	}
}

// Close stops the keepalive schedule and releases the connection pool.
func (s *Supervisor) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.cron != nil {
		s.cron.Stop()
	}
	s.ready.Store(false)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
