// Package service contains the application use cases. TaskService is the
// dispatch orchestrator: it gates every engine interaction on a health
// check, deduplicates submissions per owner and idempotency key, registers
// tasks with the engine and records them in the task queue store.
//
// The package depends on store interfaces and the TaskEngine port only;
// concrete adapters are wired in cmd/server.
package service
