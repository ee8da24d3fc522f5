package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/scheduler-platform/scheduler-api/internal/config"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
)

// DefaultService is the fully qualified engine service name.
const DefaultService = "scheduler.v1.TaskEngine"

// Client calls the task engine. It is safe for concurrent use.
type Client struct {
	conn        grpc.ClientConnInterface
	closer      func() error
	service     string
	pingTimeout time.Duration
	callTimeout time.Duration
	logger      *slog.Logger
}

// Dial creates a client for cfg.Addr. The connection is established lazily
// on the first call.
func Dial(cfg config.EngineConfig, logger *slog.Logger, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine client for %s: %w", cfg.Addr, err)
	}

	c := NewClient(conn, cfg, logger)
	c.closer = conn.Close
	return c, nil
}

// NewClient wraps an existing connection. Close on the returned client
// does not close conn.
func NewClient(conn grpc.ClientConnInterface, cfg config.EngineConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	service := cfg.Service
	if service == "" {
		service = DefaultService
	}
	return &Client{
		conn:        conn,
		closer:      func() error { return nil },
		service:     service,
		pingTimeout: cfg.PingTimeout,
		callTimeout: cfg.CallTimeout,
		logger:      logger.With(slog.String("component", "engine_client")),
	}
}

// Close releases the connection if the client owns it.
func (c *Client) Close() error {
	return c.closer()
}

// Ping returns the engine's status string.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var resp PingResponse
	if err := c.invoke(ctx, "Ping", c.pingTimeout, &PingRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// RegisterTask schedules a task on the engine and returns the engine id,
// which may be empty.
func (c *Client) RegisterTask(ctx context.Context, ownerID, message string, idempotencyKey *string) (string, error) {
	req := &RegisterTaskRequest{SSUUID: ownerID, Message: message, IdempotencyKey: idempotencyKey}
	var resp RegisterTaskResponse
	if err := c.invoke(ctx, "RegisterTask", c.callTimeout, req, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

// DeleteTask asks the engine to drop a task. deleted=false means the
// engine did not know it.
func (c *Client) DeleteTask(ctx context.Context, taskID string) (bool, error) {
	var resp DeleteTaskResponse
	if err := c.invoke(ctx, "DeleteTask", c.callTimeout, &DeleteTaskRequest{TaskID: taskID}, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

func (c *Client) invoke(ctx context.Context, method string, timeout time.Duration, req, resp Message) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	fullMethod := "/" + c.service + "/" + method
	err := c.conn.Invoke(ctx, fullMethod, req, resp, grpc.ForceCodec(Codec{}))

	log := logger.FromContextOrDefault(ctx, c.logger)
	if err != nil {
		log.Warn("engine call failed",
			slog.String("method", method),
			slog.String("code", status.Code(err).String()),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return fmt.Errorf("engine %s: %w", method, err)
	}

	log.Debug("engine call succeeded",
		slog.String("method", method),
		slog.Duration("duration", time.Since(start)))
	return nil
}
