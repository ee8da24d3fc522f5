// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic: the task queue and idempotency records
// live in PostgreSQL, sessions in Redis and audit entries in MongoDB,
// but services and middleware depend only on what is declared here.
package store
