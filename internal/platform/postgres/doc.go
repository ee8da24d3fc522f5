// Package postgres provides PostgreSQL implementations of the task queue,
// idempotency and user stores declared in internal/store, plus the embedded
// goose migrations that create their tables.
//
// Stores accept a store.DBTX. TaskQueueStore.FindByOwner issues its page and
// count queries concurrently, so it should be given a *sql.DB rather than a
// transaction.
package postgres
