package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aslanbek/fieldlog/internal/auth"
	"github.com/aslanbek/fieldlog/internal/compress"
	"github.com/aslanbek/fieldlog/internal/config"
	"github.com/aslanbek/fieldlog/internal/logger"
	"github.com/aslanbek/fieldlog/internal/metrics"
	"github.com/aslanbek/fieldlog/internal/objectstore"
	"github.com/aslanbek/fieldlog/internal/pipeline"
	"github.com/aslanbek/fieldlog/internal/records"
	"github.com/aslanbek/fieldlog/internal/server"
	"github.com/aslanbek/fieldlog/internal/storage"
	"github.com/aslanbek/fieldlog/internal/thumbnail"
)

func main() {
	_ = godotenv.Load()

	zlog, err := logger.Init()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		zlog.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.RunMigrations(ctx, cfg.Postgres.DSN()); err != nil {
		zlog.Fatal("run migrations", zap.Error(err))
	}

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		zlog.Fatal("connect minio", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		zlog.Fatal("ensure bucket", zap.Error(err))
	}

	metrics.InitMetrics()

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, cfg.Auth)

	store := objectstore.New(minioClient, cfg.MinIO.Bucket, cfg.Media.URLExpiry)
	compressor := compress.New(cfg.Media)
	thumbs := thumbnail.New(cfg.Media.FFmpegBinary)

	orchestrator := pipeline.New(compressor, thumbs, store, pipeline.Options{
		Workers: cfg.Media.Workers,
		Logger:  zlog,
	})

	recordsRepo := records.NewRepository(dbPool)
	recordsService := records.NewService(recordsRepo, orchestrator, store, zlog)

	router := server.NewRouter(server.Dependencies{
		Config:         cfg,
		Logger:         zlog,
		DB:             dbPool,
		ObjectStore:    minioClient,
		AuthService:    authService,
		RecordsService: recordsService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zlog.Info("FieldLog API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zlog.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("shutdown error", zap.Error(err))
	}
}
