package state

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryManagerDefaultsToIdle(t *testing.T) {
	m := NewMemoryManager()

	s := m.Get(7)
	if !s.Idle() {
		t.Fatalf("expected idle default session, got %+v", s)
	}
	if m.InProgress(7) {
		t.Fatal("unknown user reported in progress")
	}
}

func TestMemoryManagerSetGetClear(t *testing.T) {
	m := NewMemoryManager()

	m.Set(7, Session{Mode: ModeAwaitingAddress, Param: "trx"})
	s := m.Get(7)
	if s.Mode != ModeAwaitingAddress || s.Param != "trx" {
		t.Fatalf("unexpected session %+v", s)
	}
	if !m.InProgress(7) {
		t.Fatal("active mode not reported in progress")
	}

	// Another user's session is independent.
	if m.InProgress(8) {
		t.Fatal("unrelated user reported in progress")
	}

	m.Clear(7)
	if m.InProgress(7) {
		t.Fatal("cleared session still in progress")
	}
}

func TestMemoryManagerSetEmptyModeMeansIdle(t *testing.T) {
	m := NewMemoryManager()

	m.Set(7, Session{})
	if m.InProgress(7) {
		t.Fatal("empty mode should be idle")
	}
}

func TestDoSerializesPerUser(t *testing.T) {
	m := NewMemoryManager()

	const iterations = 200
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Do(7, func() {
				counter++
			})
		}()
	}
	wg.Wait()

	if counter != iterations {
		t.Fatalf("lost updates under the user lock: %d != %d", counter, iterations)
	}
}

func TestDoAllowsDistinctUsersConcurrently(t *testing.T) {
	m := NewMemoryManager()

	inFirst := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go m.Do(1, func() {
		close(inFirst)
		<-release
	})
	<-inFirst

	go func() {
		m.Do(2, func() {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second user's Do blocked behind the first user's lock")
	}
	close(release)
}
