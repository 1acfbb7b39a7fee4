package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"walletbot/core/telegram/state"
	"walletbot/internal/domain"
	"walletbot/internal/repository"
	"walletbot/internal/service"
	"walletbot/internal/sysconfig"
)

type memAccountStore struct {
	mu       sync.Mutex
	accounts map[int64]*domain.Account
	creates  int
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{accounts: make(map[int64]*domain.Account)}
}

func (s *memAccountStore) FindByIdentity(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memAccountStore) CreateDefault(_ context.Context, id int64, name string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	a := &domain.Account{ID: id, Name: name}
	s.accounts[id] = a
	cp := *a
	return &cp, nil
}

func (s *memAccountStore) SetLanguage(_ context.Context, id int64, lang domain.Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Language = lang
	return nil
}

func (s *memAccountStore) SetAddress(_ context.Context, id int64, method domain.Method, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.SetAddress(method, address)
	return nil
}

func (s *memAccountStore) createCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

type stubWithdrawalStore struct{}

func (stubWithdrawalStore) Record(_ context.Context, accountID int64, method domain.Method, address string, amount decimal.Decimal) (*domain.WithdrawalRequest, error) {
	return &domain.WithdrawalRequest{AccountID: accountID, Method: method, Address: address, Amount: amount}, nil
}

type stubStoreStatus struct {
	ready    bool
	triggers atomic.Int32
}

func (s *stubStoreStatus) Ready() bool { return s.ready }
func (s *stubStoreStatus) Trigger()    { s.triggers.Add(1) }

// testContext fakes the subset of tele.Context the handlers touch.
// Anything else panics through the embedded nil interface.
type testContext struct {
	tele.Context
	sender *tele.User
	text   string

	mu    sync.Mutex
	store map[string]interface{}
	sent  []string
}

func newTestContext(userID int64) *testContext {
	return &testContext{
		sender: &tele.User{ID: userID, Username: "tester"},
		store:  make(map[string]interface{}),
	}
}

func (c *testContext) Sender() *tele.User  { return c.sender }
func (c *testContext) Chat() *tele.Chat    { return &tele.Chat{ID: c.sender.ID} }
func (c *testContext) Update() tele.Update { return tele.Update{} }
func (c *testContext) Text() string        { return c.text }

func (c *testContext) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *testContext) Set(key string, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = val
}

func (c *testContext) Send(what interface{}, _ ...interface{}) error {
	text, _ := what.(string)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

func (c *testContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return c.Send(what, opts...)
}

func (c *testContext) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	copy(out, c.sent)
	return out
}

func newTestHandlers(store *memAccountStore, cache *sysconfig.Cache) (*Handlers, state.Manager) {
	states := state.NewMemoryManager()
	h := NewHandlers(
		&stubStoreStatus{ready: true},
		service.NewAccounts(store),
		service.NewWithdrawals(stubWithdrawalStore{}),
		cache,
		states,
	)
	return h, states
}

func TestStartNonMemberLeavesNoAccount(t *testing.T) {
	store := newMemAccountStore()
	cache := sysconfig.New()
	cache.Store(domain.SystemConfig{Channel: "@gatechan"})

	h, _ := newTestHandlers(store, cache)
	h.member = func(tele.Context, string, int64) (bool, error) { return false, nil }

	c := newTestContext(101)
	require.NoError(t, h.Start(c))

	assert.Equal(t, 0, store.createCount(), "gate refusal must not create an account")
	msgs := c.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "@gatechan")
}

func TestStartMembershipLookupFailureLeavesNoAccount(t *testing.T) {
	store := newMemAccountStore()
	cache := sysconfig.New()
	cache.Store(domain.SystemConfig{Channel: "@gatechan"})

	h, _ := newTestHandlers(store, cache)
	h.member = func(tele.Context, string, int64) (bool, error) {
		return false, assert.AnError
	}

	c := newTestContext(101)
	require.NoError(t, h.Start(c))

	assert.Equal(t, 0, store.createCount())
	assert.Len(t, c.messages(), 1)
}

func TestStartCreatesAccountOnceGatePasses(t *testing.T) {
	store := newMemAccountStore()
	cache := sysconfig.New()
	cache.Store(domain.SystemConfig{Channel: "@gatechan"})

	h, _ := newTestHandlers(store, cache)
	h.member = func(tele.Context, string, int64) (bool, error) { return true, nil }

	c := newTestContext(101)
	require.NoError(t, h.Start(c))

	assert.Equal(t, 1, store.createCount())
	assert.NotEmpty(t, c.messages())
}

// Commands must take the same per-user lock as callbacks and free text,
// so a /start arriving mid amount-capture cannot interleave with it.
func TestCommandsWaitForUserLock(t *testing.T) {
	cases := []struct {
		name   string
		invoke func(h *Handlers, c tele.Context) error
	}{
		{"start", func(h *Handlers, c tele.Context) error { return h.Start(c) }},
		{"language", func(h *Handlers, c tele.Context) error { return h.LanguageCmd(c) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemAccountStore()
			store.accounts[101] = &domain.Account{ID: 101, Language: domain.LanguageEnglish}
			h, states := newTestHandlers(store, sysconfig.New())

			entered := make(chan struct{})
			release := make(chan struct{})
			go states.Do(101, func() {
				close(entered)
				<-release
			})
			<-entered

			done := make(chan error, 1)
			go func() {
				done <- tc.invoke(h, newTestContext(101))
			}()

			select {
			case <-done:
				t.Fatal("command ran while another event held the user lock")
			case <-time.After(100 * time.Millisecond):
			}

			close(release)
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("command never acquired the user lock")
			}
		})
	}
}

// A locked /start must observe the state written by the event holding
// the lock, not a stale snapshot taken before acquiring it.
func TestStartSeesStateWrittenUnderLock(t *testing.T) {
	store := newMemAccountStore()
	store.accounts[101] = &domain.Account{ID: 101, Language: domain.LanguageEnglish, Balance: decimal.NewFromInt(10)}
	h, states := newTestHandlers(store, sysconfig.New())

	entered := make(chan struct{})
	release := make(chan struct{})
	go states.Do(101, func() {
		close(entered)
		<-release
		states.Set(101, state.Session{Mode: state.ModeAwaitingAmount, Param: string(domain.MethodTRX)})
	})
	<-entered

	done := make(chan error, 1)
	go func() {
		done <- h.Start(newTestContext(101))
	}()
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("start never completed")
	}

	// Start resets the conversation, and it did so after the pending
	// write, not concurrently with it.
	assert.True(t, states.Get(101).Idle())
}

func TestUpdatesDroppedWhileStoreDown(t *testing.T) {
	store := newMemAccountStore()
	states := state.NewMemoryManager()
	status := &stubStoreStatus{ready: false}
	h := NewHandlers(status, service.NewAccounts(store), service.NewWithdrawals(stubWithdrawalStore{}), sysconfig.New(), states)

	c := newTestContext(101)
	require.NoError(t, h.Start(c))

	assert.Empty(t, c.messages())
	assert.Equal(t, 0, store.createCount())
	assert.Equal(t, int32(1), status.triggers.Load())
}
