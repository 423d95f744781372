// Package balance orchestrates the cache-accelerated read path and the
// transactional write path over the ledger store.
package balance

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletworks/balance-service/internal/app/cache"
	"github.com/walletworks/balance-service/internal/app/domain/ledger"
	"github.com/walletworks/balance-service/internal/app/metrics"
	"github.com/walletworks/balance-service/internal/app/storage"
	"github.com/walletworks/balance-service/pkg/logger"
)

const (
	cacheKeyPrefix = "balance:"
	cacheTTL       = 60 * time.Second
)

// EventPublisher receives a notification after a write commits. Delivery is
// best-effort; failures never affect the response.
type EventPublisher interface {
	Publish(ctx context.Context, event TransactionCompleted) error
}

// TransactionCompleted describes a committed ledger write.
type TransactionCompleted struct {
	UserID       int64         `json:"user_id"`
	Action       ledger.Action `json:"action"`
	Amount       int64         `json:"amount"`
	BalanceAfter int64         `json:"balance_after"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

// Service exposes balance reads and ledger writes. The store is the single
// authority; the cache is a time-bounded mirror that is refreshed after
// commits and backfilled on read misses, and whose failures are only ever
// logged.
type Service struct {
	store  storage.LedgerStore
	cache  cache.Cache
	events EventPublisher
	log    *logger.Logger
}

// New constructs the service. A nil cache disables caching.
func New(store storage.LedgerStore, c cache.Cache, log *logger.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = logger.NewDefault("balance")
	}
	return &Service{store: store, cache: c, log: log}
}

// AttachPublisher wires an optional post-commit event publisher.
func (s *Service) AttachPublisher(p EventPublisher) {
	s.events = p
}

func cacheKey(userID int64) string {
	return cacheKeyPrefix + strconv.FormatInt(userID, 10)
}

// GetBalance returns the current balance for a user, served from the cache
// when possible and from the store otherwise. A store hit backfills the
// cache with the raw minor-unit value.
func (s *Service) GetBalance(ctx context.Context, userID int64) (ledger.Balance, error) {
	key := cacheKey(userID)

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cache get failed; falling back to store")
		metrics.RecordCacheError("get")
	} else if ok {
		minor, parseErr := strconv.ParseInt(cached, 10, 64)
		if parseErr == nil {
			metrics.RecordBalanceRead(string(ledger.SourceCache))
			return ledger.Balance{Amount: ledger.FormatMinorUnits(minor), Source: ledger.SourceCache}, nil
		}
		s.log.WithField("user_id", userID).WithField("value", cached).Warn("ignoring malformed cache entry")
	}

	minor, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return ledger.Balance{}, err
	}

	if err := s.cache.Set(ctx, key, strconv.FormatInt(minor, 10), cacheTTL); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cache backfill failed")
		metrics.RecordCacheError("set")
	}

	metrics.RecordBalanceRead(string(ledger.SourceDB))
	return ledger.Balance{Amount: ledger.FormatMinorUnits(minor), Source: ledger.SourceDB}, nil
}

// Apply converts the amount to minor units, applies the entry atomically
// through the store, then refreshes the cache and publishes an event, both
// best-effort.
func (s *Service) Apply(ctx context.Context, userID int64, amount decimal.Decimal, action ledger.Action) (ledger.Receipt, error) {
	minor, err := ledger.ToMinorUnits(amount)
	if err != nil {
		metrics.RecordTransaction(string(action), "invalid")
		return ledger.Receipt{}, err
	}

	applied, err := s.store.ApplyEntry(ctx, userID, action, minor)
	if err != nil {
		metrics.RecordTransaction(string(action), "rejected")
		return ledger.Receipt{}, err
	}
	metrics.RecordTransaction(string(action), "committed")

	if err := s.cache.Set(ctx, cacheKey(userID), strconv.FormatInt(applied.After, 10), cacheTTL); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cache refresh after commit failed")
		metrics.RecordCacheError("set")
	}

	if s.events != nil {
		event := TransactionCompleted{
			UserID:       userID,
			Action:       action,
			Amount:       minor,
			BalanceAfter: applied.After,
			OccurredAt:   time.Now().UTC(),
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("event publish failed")
		}
	}

	s.log.WithField("user_id", userID).
		WithField("action", action).
		WithField("amount", minor).
		WithField("balance_after", applied.After).
		Info("transaction applied")

	return ledger.Receipt{
		BalanceBefore: ledger.FormatMinorUnits(applied.Before),
		BalanceAfter:  ledger.FormatMinorUnits(applied.After),
	}, nil
}

// History lists the ledger entries recorded for a user.
func (s *Service) History(ctx context.Context, userID int64) ([]ledger.Entry, error) {
	return s.store.ListEntries(ctx, userID)
}
