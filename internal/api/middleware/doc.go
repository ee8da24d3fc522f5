// Package middleware holds the HTTP guards of the API: tracing, auditing,
// the session guard, the idempotency guard and login rate limiting.
package middleware
