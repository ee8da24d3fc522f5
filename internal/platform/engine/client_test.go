package engine_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/scheduler-platform/scheduler-api/internal/config"
	"github.com/scheduler-platform/scheduler-api/internal/platform/engine"
)

// taskEngineServer is the server-side contract the fake implements.
type taskEngineServer interface {
	Ping(context.Context, *engine.PingRequest) (*engine.PingResponse, error)
	RegisterTask(context.Context, *engine.RegisterTaskRequest) (*engine.RegisterTaskResponse, error)
	DeleteTask(context.Context, *engine.DeleteTaskRequest) (*engine.DeleteTaskResponse, error)
}

type fakeEngine struct {
	mu         sync.Mutex
	pingErr    error
	pingDelay  time.Duration
	registered []engine.RegisterTaskRequest
	tasks      map[string]bool
}

func (f *fakeEngine) Ping(ctx context.Context, _ *engine.PingRequest) (*engine.PingResponse, error) {
	if f.pingDelay > 0 {
		select {
		case <-time.After(f.pingDelay):
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}
	if f.pingErr != nil {
		return nil, f.pingErr
	}
	return &engine.PingResponse{Status: "pong"}, nil
}

func (f *fakeEngine) RegisterTask(_ context.Context, req *engine.RegisterTaskRequest) (*engine.RegisterTaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, *req)
	f.tasks["grpc-1"] = true
	return &engine.RegisterTaskResponse{TaskID: "grpc-1"}, nil
}

func (f *fakeEngine) DeleteTask(_ context.Context, req *engine.DeleteTaskRequest) (*engine.DeleteTaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ok := f.tasks[req.TaskID]
	delete(f.tasks, req.TaskID)
	return &engine.DeleteTaskResponse{Deleted: ok}, nil
}

func unary[Req, Resp any](call func(taskEngineServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		return call(srv.(taskEngineServer), ctx, req)
	}
}

func serviceDesc(name string) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*taskEngineServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Ping", Handler: unary(taskEngineServer.Ping)},
			{MethodName: "RegisterTask", Handler: unary(taskEngineServer.RegisterTask)},
			{MethodName: "DeleteTask", Handler: unary(taskEngineServer.DeleteTask)},
		},
	}
}

func startEngine(t *testing.T, fake *fakeEngine, cfg config.EngineConfig) *engine.Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ForceServerCodec(engine.Codec{}))
	srv.RegisterService(serviceDesc(engine.DefaultService), fake)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cfg.Addr = "passthrough:///bufnet"
	client, err := engine.Dial(cfg, nil,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func defaultEngineConfig() config.EngineConfig {
	return config.EngineConfig{PingTimeout: time.Second, CallTimeout: 2 * time.Second}
}

func TestClient_RoundTrip(t *testing.T) {
	fake := &fakeEngine{tasks: map[string]bool{}}
	client := startEngine(t, fake, defaultEngineConfig())
	ctx := context.Background()

	pong, err := client.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", pong)

	key := "k1"
	id, err := client.RegisterTask(ctx, "u1", "hello", &key)
	require.NoError(t, err)
	assert.Equal(t, "grpc-1", id)

	require.Len(t, fake.registered, 1)
	assert.Equal(t, "u1", fake.registered[0].SSUUID)
	assert.Equal(t, "hello", fake.registered[0].Message)
	require.NotNil(t, fake.registered[0].IdempotencyKey)
	assert.Equal(t, "k1", *fake.registered[0].IdempotencyKey)

	_, err = client.RegisterTask(ctx, "u1", "no key", nil)
	require.NoError(t, err)
	assert.Nil(t, fake.registered[1].IdempotencyKey)

	deleted, err := client.DeleteTask(ctx, "grpc-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = client.DeleteTask(ctx, "grpc-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestClient_PropagatesStatus(t *testing.T) {
	fake := &fakeEngine{tasks: map[string]bool{}, pingErr: status.Error(codes.Unavailable, "draining")}
	client := startEngine(t, fake, defaultEngineConfig())

	_, err := client.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestClient_PingTimeout(t *testing.T) {
	fake := &fakeEngine{tasks: map[string]bool{}, pingDelay: time.Second}
	cfg := defaultEngineConfig()
	cfg.PingTimeout = 50 * time.Millisecond
	client := startEngine(t, fake, cfg)

	start := time.Now()
	_, err := client.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestClient_UnknownService(t *testing.T) {
	fake := &fakeEngine{tasks: map[string]bool{}}
	cfg := defaultEngineConfig()
	cfg.Service = "other.v1.Engine"
	client := startEngine(t, fake, cfg)

	_, err := client.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
