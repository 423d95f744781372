package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/walletworks/balance-service/internal/app/domain/ledger"
)

func TestApplyEntryMaintainsLedgerInvariant(t *testing.T) {
	store := New()
	ctx := context.Background()

	acct, err := store.CreateAccount(ctx, ledger.Account{})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	if _, err := store.ApplyEntry(ctx, acct.ID, ledger.ActionDeposit, 10000); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	applied, err := store.ApplyEntry(ctx, acct.ID, ledger.ActionPayment, 2500)
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if applied.Before != 10000 || applied.After != 7500 {
		t.Fatalf("unexpected balances: %+v", applied)
	}

	entries, err := store.ListEntries(ctx, acct.ID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	var sum int64
	for _, e := range entries {
		sum += e.Action.Delta(e.Amount)
	}
	balance, err := store.GetBalance(ctx, acct.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if sum != balance {
		t.Fatalf("balance %d diverged from ledger sum %d", balance, sum)
	}
	if balance < 0 {
		t.Fatalf("negative balance committed: %d", balance)
	}
}

func TestApplyEntryRejectionLeavesNoTrace(t *testing.T) {
	store := New()
	ctx := context.Background()

	acct, err := store.CreateAccount(ctx, ledger.Account{Balance: 5000})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	_, err = store.ApplyEntry(ctx, acct.ID, ledger.ActionPayment, 10000)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	_, err = store.ApplyEntry(ctx, acct.ID, ledger.Action("TRANSFER"), 100)
	if !errors.Is(err, ledger.ErrUnknownAction) {
		t.Fatalf("expected unknown action, got %v", err)
	}

	entries, err := store.ListEntries(ctx, acct.ID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 { // only the seed deposit
		t.Fatalf("rejected writes left entries behind: %d", len(entries))
	}
	balance, err := store.GetBalance(ctx, acct.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 5000 {
		t.Fatalf("balance changed after rejected writes: %d", balance)
	}
}

func TestApplyEntryUnknownAccount(t *testing.T) {
	store := New()
	_, err := store.ApplyEntry(context.Background(), 99, ledger.ActionDeposit, 100)
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestConcurrentWritersSerialize(t *testing.T) {
	store := New()
	ctx := context.Background()

	acct, err := store.CreateAccount(ctx, ledger.Account{Balance: 10000})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	// Two concurrent payments of the full balance: exactly one may succeed.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ApplyEntry(ctx, acct.ID, ledger.ActionPayment, 10000)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		if err == nil {
			succeeded++
		} else if errors.Is(err, ledger.ErrInsufficientFunds) {
			rejected++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected exactly one winner, got %d succeeded / %d rejected", succeeded, rejected)
	}

	balance, err := store.GetBalance(ctx, acct.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero balance, got %d", balance)
	}
}

func TestConcurrentWritersAcrossAccounts(t *testing.T) {
	store := New()
	ctx := context.Background()

	const accounts = 8
	const depositsPerAccount = 25

	ids := make([]int64, 0, accounts)
	for i := 0; i < accounts; i++ {
		acct, err := store.CreateAccount(ctx, ledger.Account{})
		if err != nil {
			t.Fatalf("create account: %v", err)
		}
		ids = append(ids, acct.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < depositsPerAccount; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				if _, err := store.ApplyEntry(ctx, id, ledger.ActionDeposit, 100); err != nil {
					t.Errorf("deposit on %d: %v", id, err)
				}
			}(id)
		}
	}
	wg.Wait()

	for _, id := range ids {
		balance, err := store.GetBalance(ctx, id)
		if err != nil {
			t.Fatalf("get balance %d: %v", id, err)
		}
		if balance != depositsPerAccount*100 {
			t.Fatalf("account %d: expected %d, got %d", id, depositsPerAccount*100, balance)
		}
	}
}

func TestConcurrentDepositsCompose(t *testing.T) {
	store := New()
	ctx := context.Background()

	acct, err := store.CreateAccount(ctx, ledger.Account{})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ApplyEntry(ctx, acct.ID, ledger.ActionDeposit, 100); err != nil {
				t.Errorf("deposit: %v", err)
			}
		}()
	}
	wg.Wait()

	balance, err := store.GetBalance(ctx, acct.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != writers*100 {
		t.Fatalf("expected %d, got %d", writers*100, balance)
	}
}
