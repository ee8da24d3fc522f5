package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/api/shared"
	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/redact"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// DefaultAuditTimeout bounds a single audit write.
const DefaultAuditTimeout = 2 * time.Second

// AuditMiddleware records every exchange in the API log with sensitive
// fields masked. Logging is best-effort: failures are logged and the
// response is unaffected.
type AuditMiddleware struct {
	logs    store.APILogStore
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewAuditMiddleware creates an AuditMiddleware writing to logs.
func NewAuditMiddleware(logs store.APILogStore, logger *slog.Logger) *AuditMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditMiddleware{
		logs:    logs,
		logger:  logger.With(slog.String("component", "audit")),
		timeout: DefaultAuditTimeout,
		now:     time.Now,
	}
}

// Handle wraps next with API logging. It must run outside the session guard
// so that rejected requests are audited too.
func (m *AuditMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()
		ctx := shared.WithPrincipalSlot(r.Context())
		r = r.WithContext(ctx)

		body, complete, _ := bufferBody(r)
		var decoded interface{}
		if complete && len(body) > 0 {
			if err := json.Unmarshal(body, &decoded); err != nil {
				decoded = string(body)
			}
		}
		request := redact.Value(map[string]interface{}{
			"headers": map[string][]string(r.Header.Clone()),
			"query":   map[string][]string(r.URL.Query()),
			"body":    decoded,
		})

		rec := newResponseRecorder(w)
		next.ServeHTTP(rec, r)

		owner := shared.PrincipalFromSlot(ctx)
		if owner == "" {
			owner = domain.AnonymousOwner
		}

		entry := &domain.APILog{
			OwnerID:    owner,
			Method:     r.Method,
			Path:       r.URL.RequestURI(),
			StatusCode: rec.status,
			IP:         ClientIP(r),
			TraceID:    shared.GetTraceID(ctx),
			Request:    request,
			Response:   redact.JSON(rec.body.Bytes()),
			DurationMS: m.now().Sub(start).Milliseconds(),
			CreatedAt:  start.UTC(),
		}

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		defer cancel()
		if err := m.logs.Log(writeCtx, entry); err != nil {
			logger.FromContextOrDefault(ctx, m.logger).Warn("failed to write API log",
				slog.String("error", redact.Error(err)))
		}
	})
}

// ClientIP returns the first X-Forwarded-For hop, or the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
