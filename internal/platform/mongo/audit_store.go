// Package mongo implements store.APILogStore on a MongoDB collection.
// The collection is append-only from this service.
package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// CollectionAPILogs is the audit collection name.
const CollectionAPILogs = "api_logs"

// inserter is the subset of *mongo.Collection the store needs.
type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...options.Lister[options.InsertOneOptions]) (*mongod.InsertOneResult, error)
}

// AuditStore implements store.APILogStore.
type AuditStore struct {
	col    inserter
	logger *slog.Logger
}

var _ store.APILogStore = (*AuditStore)(nil)

// apiLogDocument is the stored shape. Request and response bodies are
// embedded as sub-documents when they are JSON objects, else as strings.
type apiLogDocument struct {
	domain.APILog `bson:",inline"`
	Request       interface{} `bson:"request,omitempty"`
	Response      interface{} `bson:"response,omitempty"`
}

// NewAuditStore creates an audit store over db.api_logs.
func NewAuditStore(db *mongod.Database, logger *slog.Logger) *AuditStore {
	return newAuditStore(db.Collection(CollectionAPILogs), logger)
}

func newAuditStore(col inserter, logger *slog.Logger) *AuditStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditStore{
		col:    col,
		logger: logger.With(slog.String("component", "audit_store")),
	}
}

// Log implements store.APILogStore.Log.
func (s *AuditStore) Log(ctx context.Context, entry *domain.APILog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	doc := apiLogDocument{
		APILog:   *entry,
		Request:  toBSONValue(entry.Request),
		Response: toBSONValue(entry.Response),
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert api log: %w", err)
	}
	return nil
}

func toBSONValue(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err == nil {
		return doc
	}
	return string(raw)
}

// Connect opens a client, verifies it with a ping and returns the database
// handle. Callers must Disconnect the returned client.
func Connect(ctx context.Context, uri, database string) (*mongod.Client, *mongod.Database, error) {
	client, err := mongod.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, client.Database(database), nil
}
