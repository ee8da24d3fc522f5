// Package domain contains the core business entities of the scheduler API:
// scheduled tasks, cached idempotent responses, users and audit entries.
// It is independent of any storage or transport mechanism.
package domain
