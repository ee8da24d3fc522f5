// Package mocks provides hand-written fakes of the store, engine and auth
// interfaces for unit tests. Each fake has an optional Fn field per method;
// when it is nil the fake falls back to its default fields. Calls are
// counted so tests can assert on side effects.
package mocks
