package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/api/shared"
	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// ReplayHeader marks a response served from a stored idempotency record.
const ReplayHeader = "Idempotent-Replay"

// IdempotencyMiddleware replays the stored response of a mutating request
// whose top-level "requestId" was already answered successfully.
//
// The lookup happens before the handler runs and the record is written only
// after a 2xx response, so concurrent first attempts with the same requestId
// may both execute; the unique request_id column keeps one record. Storage
// failures never fail the request.
type IdempotencyMiddleware struct {
	records store.IdempotencyStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(records store.IdempotencyStore, logger *slog.Logger) *IdempotencyMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyMiddleware{
		records: records,
		logger:  logger.With(slog.String("component", "idempotency_guard")),
		now:     time.Now,
	}
}

// Handle wraps next with request deduplication.
func (m *IdempotencyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		log := logger.FromContextOrDefault(ctx, m.logger)

		body, complete, err := bufferBody(r)
		if err != nil || !complete {
			// Unreadable or oversized: let the handler deal with it.
			next.ServeHTTP(w, r)
			return
		}

		requestID, ok := extractRequestID(body)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		log = log.With(slog.String("request_id", requestID))

		owner, ok := shared.GetSubject(ctx)
		if !ok {
			owner = domain.AnonymousOwner
		}

		record, err := m.records.FindByRequestID(ctx, requestID)
		if err != nil {
			log.Warn("idempotency lookup failed, continuing without replay", slog.Any("error", err))
			record = nil
		}
		if record != nil && record.OwnerID != owner {
			// Never hand one owner's stored response to another.
			log.Warn("request id belongs to another owner, not replaying")
			record = nil
		}
		if record != nil {
			log.Debug("replaying stored response", slog.Int("status_code", record.StatusCode))
			replay(w, record)
			return
		}

		rec := newResponseRecorder(w)
		next.ServeHTTP(rec, r)

		if !rec.succeeded() {
			return
		}

		newRecord := &domain.IdempotencyRecord{
			RequestID:    requestID,
			OwnerID:      owner,
			Method:       r.Method,
			Path:         r.URL.Path,
			RequestBody:  body,
			ResponseBody: append([]byte(nil), rec.body.Bytes()...),
			StatusCode:   rec.status,
			CreatedAt:    m.now().UTC(),
		}

		if err := m.records.Create(context.WithoutCancel(ctx), newRecord); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				log.Debug("idempotency record already stored by a concurrent request")
				return
			}
			log.Warn("failed to store idempotency record", slog.Any("error", err))
		}
	})
}

func replay(w http.ResponseWriter, record *domain.IdempotencyRecord) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(ReplayHeader, "true")
	w.Header().Set("Content-Length", strconv.Itoa(len(record.ResponseBody)))
	w.WriteHeader(record.StatusCode)
	_, _ = w.Write(record.ResponseBody)
}

// bufferBody reads up to MaxRequestBodyBytes and restores r.Body so the
// handler sees the full original stream. complete is false when the body was
// larger than the buffer.
func bufferBody(r *http.Request) ([]byte, bool, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, true, nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, shared.MaxRequestBodyBytes+1))
	if err != nil {
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(buf), r.Body))
		return nil, false, err
	}

	if len(buf) > shared.MaxRequestBodyBytes {
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(buf), r.Body))
		return nil, false, nil
	}

	r.Body = io.NopCloser(bytes.NewReader(buf))
	return buf, true, nil
}

// extractRequestID reads a non-empty string "requestId" from a top-level JSON object.
func extractRequestID(body []byte) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}
	raw, ok := fields["requestId"]
	if !ok {
		return "", false
	}
	var requestID string
	if err := json.Unmarshal(raw, &requestID); err != nil || requestID == "" {
		return "", false
	}
	return requestID, true
}
