// Package app composes the balance service into a running application.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/ledger/      # Domain models, error taxonomy, money arithmetic
//	├── storage/            # LedgerStore interface and implementations
//	│   ├── memory/         # In-memory implementation for tests/local dev
//	│   └── postgres/       # PostgreSQL implementation for production
//	├── cache/              # Best-effort balance cache (redis / nop)
//	├── services/balance/   # Read and write path orchestration
//	├── events/kafka/       # Best-effort post-commit event publishing
//	├── httpapi/            # HTTP handlers, routing, middleware
//	└── metrics/            # Prometheus collectors
//
// The ledger history in storage is the single source of truth for balances;
// the users.balance column and the cache are projections of it. The write
// path serializes same-account mutations with a row lock and recomputes the
// balance from the full history before committing.
package app
