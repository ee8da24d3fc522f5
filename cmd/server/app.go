package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/scheduler-platform/scheduler-api/internal/api"
	"github.com/scheduler-platform/scheduler-api/internal/api/middleware"
	"github.com/scheduler-platform/scheduler-api/internal/config"
	"github.com/scheduler-platform/scheduler-api/internal/platform/engine"
	"github.com/scheduler-platform/scheduler-api/internal/platform/mongo"
	"github.com/scheduler-platform/scheduler-api/internal/platform/postgres"
	"github.com/scheduler-platform/scheduler-api/internal/platform/redis"
	"github.com/scheduler-platform/scheduler-api/internal/service"
	"github.com/scheduler-platform/scheduler-api/internal/service/auth"
	"github.com/scheduler-platform/scheduler-api/internal/store"
	"github.com/scheduler-platform/scheduler-api/internal/task"
)

// application owns every long-lived dependency of the server process.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client
	mongo  *mongod.Client
	engine *engine.Client
	runner *task.TaskRunner
	router http.Handler
}

// newApplication connects the external systems and wires stores, services
// and the router. On error everything opened so far is closed except db,
// which the caller owns until newApplication succeeds.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{config: cfg, logger: logger, db: db}

	ok := false
	defer func() {
		if !ok {
			app.db = nil
			app.cleanup()
		}
	}()

	app.redis = goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := app.redis.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Redis connection established", "addr", cfg.Redis.Addr)

	var apiLogs store.APILogStore
	if cfg.Mongo.Enabled {
		client, database, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		app.mongo = client
		apiLogs = mongo.NewAuditStore(database, logger)
		logger.Info("Audit log sink enabled", "database", cfg.Mongo.Database)
	}

	app.engine, err = engine.Dial(cfg.Engine, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to dial task engine: %w", err)
	}

	taskQueue := postgres.NewPostgresTaskQueueStore(db, logger)
	idempotency := postgres.NewPostgresIdempotencyStore(db, logger)
	users := postgres.NewPostgresUserStore(db, logger)
	sessions := redis.NewSessionStore(app.redis, cfg.Session.TTL, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create jwt service: %w", err)
	}
	authService := auth.NewService(users, sessions, jwtService, auth.NewBcryptVerifier(), logger)

	factory := task.NewDispatchConfirmTaskFactory(taskQueue, logger)
	sweeper := task.NewSweeper(idempotency, cfg.Idempotency.Retention, cfg.Idempotency.SweepInterval, logger)
	app.runner = task.NewTaskRunner(taskQueue, factory, sweeper, task.TaskRunnerConfig{
		WorkerCount:  cfg.Task.WorkerCount,
		QueueSize:    cfg.Task.QueueSize,
		RecoverLimit: cfg.Task.RecoverLimit,
	}, logger)
	if err := app.runner.Start(); err != nil {
		app.runner = nil
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}
	logger.Info("Task runner started", "workers", cfg.Task.WorkerCount)

	taskService, err := service.NewTaskService(taskQueue, app.engine, app.runner, factory, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.router = newRouter(routerDeps{
		tasks:        api.NewTaskHandler(taskService),
		auth:         api.NewAuthHandler(authService),
		health:       api.NewHealthHandler(),
		session:      middleware.NewSessionMiddleware(jwtService, sessions, logger),
		idempotency:  middleware.NewIdempotencyMiddleware(idempotency, logger),
		audit:        auditMiddleware(apiLogs, logger),
		loginLimiter: middleware.NewIPRateLimiter(cfg.Auth.LoginRPS, cfg.Auth.LoginBurst),
	})

	ok = true
	return app, nil
}

func auditMiddleware(logs store.APILogStore, logger *slog.Logger) *middleware.AuditMiddleware {
	if logs == nil {
		return nil
	}
	return middleware.NewAuditMiddleware(logs, logger)
}

// Run serves HTTP until ctx is cancelled, then shuts down and releases
// every dependency.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()
	return startHTTPServer(ctx, app.router, app.config.Server, app.logger)
}

// cleanup stops background work first so no confirmation touches a closed
// pool, then closes the clients.
func (app *application) cleanup() {
	if app.runner != nil {
		app.logger.Info("Stopping task runner")
		app.runner.Stop()
	}
	if app.engine != nil {
		if err := app.engine.Close(); err != nil {
			app.logger.Error("Error closing engine connection", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis client", "error", err)
		}
	}
	if app.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.mongo.Disconnect(ctx); err != nil {
			app.logger.Error("Error disconnecting mongo client", "error", err)
		}
		cancel()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
}
