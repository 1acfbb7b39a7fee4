package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
)

func fakePool(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 sslmode=disable")
	if err != nil {
		t.Fatalf("open fake pool: %v", err)
	}
	return sqlx.NewDb(db, "postgres")
}

func waitFirstOK(t *testing.T, s *Supervisor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.WaitFirst(ctx); err != nil {
		t.Fatalf("wait first: %v", err)
	}
}

func TestSupervisorRetriesUntilConnected(t *testing.T) {
	var calls atomic.Int32
	s := NewSupervisor(Config{RetryDelayMS: 1}, SupervisorOptions{
		Connect: func(Config) (*sqlx.DB, error) {
			if calls.Add(1) <= 3 {
				return nil, errors.New("dial refused")
			}
			return fakePool(t), nil
		},
	})
	defer s.Close()

	s.Trigger()
	waitFirstOK(t, s)

	if !s.Ready() {
		t.Fatal("supervisor not ready after successful connect")
	}
	if got := s.Attempts(); got != 4 {
		t.Fatalf("expected 4 attempts, got %d", got)
	}
	if _, err := s.DB(); err != nil {
		t.Fatalf("DB after connect: %v", err)
	}
}

func TestSupervisorSingleAttemptInFlight(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	s := NewSupervisor(Config{RetryDelayMS: 1}, SupervisorOptions{
		Connect: func(Config) (*sqlx.DB, error) {
			calls.Add(1)
			<-release
			return fakePool(t), nil
		},
	})
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Trigger()
		}()
	}
	wg.Wait()
	close(release)
	waitFirstOK(t, s)

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single connect attempt, got %d", got)
	}

	// Redundant triggers while connected stay no-ops.
	s.Trigger()
	s.Trigger()
	if got := calls.Load(); got != 1 {
		t.Fatalf("trigger while ready started an attempt, calls=%d", got)
	}
}

func TestSupervisorDBBeforeConnect(t *testing.T) {
	s := NewSupervisor(Config{RetryDelayMS: 1}, SupervisorOptions{
		Connect: func(Config) (*sqlx.DB, error) {
			return nil, errors.New("unreachable")
		},
	})
	defer s.Close()

	if _, err := s.DB(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if s.Ready() {
		t.Fatal("supervisor ready without a connection")
	}
}

func TestSupervisorFirstHookFailureIsFatal(t *testing.T) {
	hookErr := errors.New("seed record missing")
	s := NewSupervisor(Config{RetryDelayMS: 1}, SupervisorOptions{
		Connect: func(Config) (*sqlx.DB, error) {
			return fakePool(t), nil
		},
		OnConnect: func(context.Context, *sqlx.DB) error {
			return hookErr
		},
	})
	defer s.Close()

	s.Trigger()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.WaitFirst(ctx); !errors.Is(err, hookErr) {
		t.Fatalf("expected hook error from WaitFirst, got %v", err)
	}
}

func TestSupervisorHookRunsOnEveryConnect(t *testing.T) {
	var hookCalls atomic.Int32
	s := NewSupervisor(Config{RetryDelayMS: 1}, SupervisorOptions{
		Connect: func(Config) (*sqlx.DB, error) {
			return fakePool(t), nil
		},
		OnConnect: func(context.Context, *sqlx.DB) error {
			hookCalls.Add(1)
			return nil
		},
	})
	defer s.Close()

	s.Trigger()
	waitFirstOK(t, s)

	s.NotifyDisconnect(errors.New("connection reset"))

	deadline := time.Now().Add(5 * time.Second)
	for !s.Ready() || hookCalls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("reconnect hook never ran, calls=%d", hookCalls.Load())
		}
		time.Sleep(time.Millisecond)
	}
	if got := s.Attempts(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestWaitFirstHonorsContext(t *testing.T) {
	s := NewSupervisor(Config{RetryDelayMS: 1}, SupervisorOptions{
		Connect: func(Config) (*sqlx.DB, error) {
			return nil, errors.New("unreachable")
		},
	})
	defer s.Close()

	s.Trigger()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.WaitFirst(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestWaitFirstHonorsConnectTimeout(t *testing.T) {
	s := NewSupervisor(Config{RetryDelayMS: 1, ConnectTimeoutSeconds: 1}, SupervisorOptions{
		Connect: func(Config) (*sqlx.DB, error) {
			return nil, errors.New("unreachable")
		},
	})
	defer s.Close()

	s.Trigger()
	if err := s.WaitFirst(context.Background()); err == nil {
		t.Fatal("expected timeout error from WaitFirst")
	}
}

func TestTriggerRacingDisconnectReconnects(t *testing.T) {
	s := NewSupervisor(Config{RetryDelayMS: 1}, SupervisorOptions{
		Connect: func(Config) (*sqlx.DB, error) {
			return fakePool(t), nil
		},
	})
	defer s.Close()

	s.Trigger()
	waitFirstOK(t, s)

	// A disconnect landing while a redundant Trigger is mid-flight must
	// never be swallowed: one of the two has to start a reconnect.
	for round := 0; round < 200; round++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Trigger()
		}()
		go func() {
			defer wg.Done()
			s.NotifyDisconnect(errors.New("connection reset"))
		}()
		wg.Wait()

		deadline := time.Now().Add(2 * time.Second)
		for !s.Ready() {
			if time.Now().After(deadline) {
				t.Fatalf("round %d: supervisor stuck disconnected with no attempt in flight", round)
			}
			time.Sleep(time.Millisecond)
		}
	}
}
