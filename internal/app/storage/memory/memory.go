// Package memory provides an in-memory ledger store for tests and local
// development. It reproduces the same serialization and atomicity semantics
// as the PostgreSQL store.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/walletworks/balance-service/internal/app/domain/ledger"
	"github.com/walletworks/balance-service/internal/app/storage"
)

type accountState struct {
	acct    ledger.Account
	entries []ledger.Entry
}

// Store is an in-memory implementation of storage.LedgerStore. A per-account
// mutex serializes all access to an account's state, mirroring the row lock
// the PostgreSQL store takes; writers on distinct accounts do not contend.
// The store mutex guards only the account map itself.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]*accountState

	lockMu sync.Mutex
	locks  map[int64]*sync.Mutex
}

var _ storage.LedgerStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:   1,
		accounts: make(map[int64]*accountState),
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (s *Store) accountLock(userID int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	if _, ok := s.locks[userID]; !ok {
		s.locks[userID] = &sync.Mutex{}
	}
	return s.locks[userID]
}

func (s *Store) getState(userID int64) *accountState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[userID]
}

func (s *Store) CreateAccount(_ context.Context, acct ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct.ID == 0 {
		acct.ID = s.nextID
		s.nextID++
	} else if _, exists := s.accounts[acct.ID]; exists {
		return ledger.Account{}, fmt.Errorf("account %d already exists", acct.ID)
	} else if acct.ID >= s.nextID {
		s.nextID = acct.ID + 1
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}

	state := &accountState{acct: acct}
	if acct.Balance > 0 {
		// Seeded balances get a synthetic opening deposit so the ledger
		// invariant holds from the first entry.
		state.entries = append(state.entries, ledger.Entry{
			ID:        uuid.NewString(),
			UserID:    acct.ID,
			Action:    ledger.ActionDeposit,
			Amount:    acct.Balance,
			CreatedAt: acct.CreatedAt,
		})
	}
	s.accounts[acct.ID] = state
	return acct, nil
}

func (s *Store) GetBalance(_ context.Context, userID int64) (int64, error) {
	lock := s.accountLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state := s.getState(userID)
	if state == nil {
		return 0, ledger.ErrAccountNotFound
	}
	return state.acct.Balance, nil
}

func (s *Store) ApplyEntry(_ context.Context, userID int64, action ledger.Action, amount int64) (ledger.Applied, error) {
	lock := s.accountLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state := s.getState(userID)
	if state == nil {
		return ledger.Applied{}, ledger.ErrAccountNotFound
	}
	before := state.acct.Balance

	if !action.Valid() {
		return ledger.Applied{}, fmt.Errorf("%w: %q", ledger.ErrUnknownAction, action)
	}

	entry := ledger.Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	after := action.Delta(amount)
	for _, e := range state.entries {
		after += e.Action.Delta(e.Amount)
	}
	if after < 0 {
		return ledger.Applied{}, ledger.ErrInsufficientFunds
	}

	state.entries = append(state.entries, entry)
	state.acct.Balance = after
	return ledger.Applied{Before: before, After: after}, nil
}

func (s *Store) ListEntries(_ context.Context, userID int64) ([]ledger.Entry, error) {
	lock := s.accountLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state := s.getState(userID)
	if state == nil {
		return nil, ledger.ErrAccountNotFound
	}
	result := make([]ledger.Entry, len(state.entries))
	copy(result, state.entries)
	return result, nil
}
