package domain

import "time"

// AnonymousOwner is recorded when a mutating request has no authenticated subject.
const AnonymousOwner = "anonymous"

// IdempotencyRecord is a cached result of a previously seen mutating request.
// Records are created once and never mutated.
type IdempotencyRecord struct {
	RequestID    string
	OwnerID      string
	Method       string
	Path         string
	RequestBody  []byte
	ResponseBody []byte
	StatusCode   int
	CreatedAt    time.Time
}
