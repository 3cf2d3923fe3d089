package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ayush/inventory-api/backend/internal/audit"
	"github.com/ayush/inventory-api/backend/internal/auth"
	"github.com/ayush/inventory-api/backend/internal/config"
	"github.com/ayush/inventory-api/backend/internal/inventory"
	"github.com/ayush/inventory-api/backend/internal/logger"
	"github.com/ayush/inventory-api/backend/internal/ratelimit"
	"github.com/ayush/inventory-api/backend/internal/router"
	"github.com/ayush/inventory-api/backend/internal/store"
)

const serviceName = "inventory-api"

var (
	_ inventory.ImageStore = (*store.MinioStore)(nil)
	_ audit.Log            = (*store.MongoEventLog)(nil)
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		panic("logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	// ── Database ─────────────────────────────────────────────
	db, err := store.Open(ctx, store.Dialect(cfg.DBDriver), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database open", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()
	repo := store.NewSQLStore(db, store.Dialect(cfg.DBDriver))

	deps := router.Deps{
		Logger:      log,
		Repo:        repo,
		AuthEnabled: cfg.AuthEnabled,
		CORSOrigins: cfg.CORSOrigins,
	}

	// ── Auth (tokens, Redis revocation list, login limiter) ──
	if cfg.AuthEnabled {
		deps.Tokens, err = auth.NewTokenService(cfg.TokenSecret, cfg.TokenTTL)
		if err != nil {
			log.Fatal("token service", zap.Error(err))
		}

		if cfg.RedisAddr != "" {
			rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
			if err != nil {
				log.Fatal("redis connect", zap.Error(err))
			}
			defer rdb.Close()
			deps.Revoked = auth.NewRedisRevocationList(rdb)
		} else {
			log.Warn("REDIS_ADDR not set, token revocation is kept in memory")
			deps.Revoked = auth.NewMemoryRevocationList()
		}

		limiter := ratelimit.New(cfg.LoginRatePerSec, cfg.LoginBurst)
		defer limiter.Stop()
		deps.LoginLimiter = limiter
	}

	// ── MongoDB (audit log) ──────────────────────────────────
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("mongo connect", zap.Error(err))
		}
		defer mongoClient.Disconnect(context.Background())

		eventLog := store.NewMongoEventLog(mongoClient.Database(cfg.MongoDB))
		if err := eventLog.EnsureIndexes(ctx); err != nil {
			log.Fatal("mongo indexes", zap.Error(err))
		}
		deps.AuditLog = eventLog
	} else {
		log.Info("MONGO_URI not set, audit log disabled")
	}

	// ── MinIO (item images) ──────────────────────────────────
	if cfg.MinioEndpoint != "" {
		minioStore, err := store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			log.Fatal("minio connect", zap.Error(err))
		}
		deps.Images = minioStore
	} else {
		log.Info("MINIO_ENDPOINT not set, item images disabled")
	}

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.Bool("auth", cfg.AuthEnabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
