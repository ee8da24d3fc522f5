package domain

import (
	"encoding/json"
	"time"
)

// APILog is one audited request/response exchange.
type APILog struct {
	OwnerID    string          `json:"ownerId"    bson:"ssuuid"`
	Method     string          `json:"method"     bson:"method"`
	Path       string          `json:"path"       bson:"path"`
	StatusCode int             `json:"statusCode" bson:"statusCode"`
	IP         string          `json:"ip"         bson:"ip,omitempty"`
	TraceID    string          `json:"traceId"    bson:"traceId,omitempty"`
	Request    json.RawMessage `json:"request"    bson:"-"`
	Response   json.RawMessage `json:"response"   bson:"-"`
	DurationMS int64           `json:"durationMs" bson:"durationMs"`
	CreatedAt  time.Time       `json:"createdAt"  bson:"createdAt"`
}
