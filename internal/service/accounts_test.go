package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletbot/internal/domain"
	"walletbot/internal/repository"
)

type fakeAccountStore struct {
	accounts map[int64]*domain.Account

	findErr   error
	createErr error
	updateErr error

	createCalls int
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: map[int64]*domain.Account{}}
}

func (f *fakeAccountStore) FindByIdentity(_ context.Context, id int64) (*domain.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	acct, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *acct
	return &clone, nil
}

func (f *fakeAccountStore) CreateDefault(_ context.Context, id int64, name string) (*domain.Account, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.accounts[id]; ok {
		return nil, repository.ErrDuplicateIdentity
	}
	acct := &domain.Account{ID: id, Name: name, Balance: decimal.Zero}
	f.accounts[id] = acct
	clone := *acct
	return &clone, nil
}

func (f *fakeAccountStore) SetLanguage(_ context.Context, id int64, lang domain.Language) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	acct, ok := f.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	acct.Language = lang
	return nil
}

func (f *fakeAccountStore) SetAddress(_ context.Context, id int64, method domain.Method, address string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	acct, ok := f.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	acct.SetAddress(method, address)
	return nil
}

func TestEnsureCreatesOnFirstContact(t *testing.T) {
	store := newFakeAccountStore()
	svc := NewAccounts(store)

	acct, err := svc.Ensure(context.Background(), 101, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(101), acct.ID)
	assert.Equal(t, "alice", acct.Name)
	assert.True(t, acct.Balance.IsZero())
	assert.Equal(t, domain.LanguageUnset, acct.Language)
	assert.Equal(t, 1, store.createCalls)
}

func TestEnsureReturnsExistingAccount(t *testing.T) {
	store := newFakeAccountStore()
	store.accounts[101] = &domain.Account{ID: 101, Name: "alice", Language: domain.LanguagePersian}
	svc := NewAccounts(store)

	acct, err := svc.Ensure(context.Background(), 101, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "alice", acct.Name)
	assert.Equal(t, domain.LanguagePersian, acct.Language)
	assert.Zero(t, store.createCalls)
}

func TestEnsureLosingCreateRaceReReads(t *testing.T) {
	store := newFakeAccountStore()
	store.createErr = repository.ErrDuplicateIdentity

	// The winner's row appears between the missed find and the re-read.
	racing := &racingStore{inner: store, onMiss: func() {
		store.accounts[101] = &domain.Account{ID: 101, Name: "winner"}
	}}

	acct, err := NewAccounts(racing).Ensure(context.Background(), 101, "loser")
	require.NoError(t, err)
	assert.Equal(t, "winner", acct.Name)
	assert.Equal(t, 1, store.createCalls)
}

type racingStore struct {
	inner  *fakeAccountStore
	onMiss func()
}

func (r *racingStore) FindByIdentity(ctx context.Context, id int64) (*domain.Account, error) {
	acct, err := r.inner.FindByIdentity(ctx, id)
	if errors.Is(err, repository.ErrNotFound) && r.onMiss != nil {
		r.onMiss()
	}
	return acct, err
}

func (r *racingStore) CreateDefault(ctx context.Context, id int64, name string) (*domain.Account, error) {
	return r.inner.CreateDefault(ctx, id, name)
}

func (r *racingStore) SetLanguage(ctx context.Context, id int64, lang domain.Language) error {
	return r.inner.SetLanguage(ctx, id, lang)
}

func (r *racingStore) SetAddress(ctx context.Context, id int64, method domain.Method, address string) error {
	return r.inner.SetAddress(ctx, id, method, address)
}

func TestSetLanguageSwallowsMissingAccount(t *testing.T) {
	store := newFakeAccountStore()
	svc := NewAccounts(store)

	err := svc.SetLanguage(context.Background(), 999, domain.LanguageEnglish)
	assert.NoError(t, err)
}

func TestSetLanguagePropagatesStoreErrors(t *testing.T) {
	store := newFakeAccountStore()
	store.accounts[101] = &domain.Account{ID: 101}
	store.updateErr = repository.ErrStoreUnavailable
	svc := NewAccounts(store)

	err := svc.SetLanguage(context.Background(), 101, domain.LanguageEnglish)
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestSaveAddressPersists(t *testing.T) {
	store := newFakeAccountStore()
	store.accounts[101] = &domain.Account{ID: 101}
	svc := NewAccounts(store)

	err := svc.SaveAddress(context.Background(), 101, domain.MethodTON, "ton-addr")
	require.NoError(t, err)
	assert.Equal(t, "ton-addr", store.accounts[101].AddressTON)
}

func TestLookupReturnsNilForUnknownIdentity(t *testing.T) {
	store := newFakeAccountStore()
	svc := NewAccounts(store)

	acct, err := svc.Lookup(context.Background(), 101)
	require.NoError(t, err)
	assert.Nil(t, acct)
	assert.Zero(t, store.createCalls, "lookup must never create")
}

func TestLookupReturnsExistingAccount(t *testing.T) {
	store := newFakeAccountStore()
	store.accounts[101] = &domain.Account{ID: 101, Language: domain.LanguagePersian}
	svc := NewAccounts(store)

	acct, err := svc.Lookup(context.Background(), 101)
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.Equal(t, domain.LanguagePersian, acct.Language)
}

func TestLookupPropagatesStoreErrors(t *testing.T) {
	store := newFakeAccountStore()
	store.findErr = errors.New("store down")

	_, err := NewAccounts(store).Lookup(context.Background(), 101)
	assert.Error(t, err)
}
