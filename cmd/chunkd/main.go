package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sir_venger/chunkd/internal/app/uploadhttp"
	"github.com/sir_venger/chunkd/internal/chunkstore"
	"github.com/sir_venger/chunkd/internal/config"
	"github.com/sir_venger/chunkd/internal/logging"
	"github.com/sir_venger/chunkd/internal/metrics"
	"github.com/sir_venger/chunkd/internal/mirror"
	"github.com/sir_venger/chunkd/internal/repo/meta"
	"github.com/sir_venger/chunkd/internal/usecase/uploadsvc"
)

// main поднимает сервер загрузок и корректно завершает его по сигналу.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg, logger); err != nil {
		logger.Error("chunkd stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	chunks, err := chunkstore.New(cfg.ChunkDir)
	if err != nil {
		return err
	}
	artifacts, err := chunkstore.NewArtifactDir(cfg.UploadDir)
	if err != nil {
		return err
	}

	registry, err := meta.Open(ctx, cfg.MetaDSN)
	if err != nil {
		return err
	}
	defer registry.Close()

	m := metrics.New()
	deps := uploadsvc.Deps{
		Chunks:        chunks,
		Artifacts:     artifacts,
		Registry:      registry,
		Metrics:       m,
		Logger:        logger,
		PublicBaseURL: cfg.PublicBaseURL,
		MaxChunkBytes: cfg.MaxBodyBytes,
		MaxChunks:     cfg.MaxChunks,
	}

	mir, err := mirror.Open(ctx, cfg.MirrorURL)
	if err != nil {
		return err
	}
	if mir != nil {
		defer mir.Close()
		// nil *Mirror в интерфейсе не равен nil
		deps.Mirror = mir
		logger.Info("artifact mirror enabled", "url", mir.URL())
	}

	handler := uploadhttp.New(uploadhttp.Options{
		Uploads:        uploadsvc.New(deps),
		Chunks:         chunks,
		Artifacts:      artifacts,
		Metrics:        m,
		Logger:         logger,
		Token:          cfg.Token,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Heartbeat:      cfg.Heartbeat,
		KeepMismatched: cfg.KeepMismatched(),
		ServeFiles:     cfg.ServeFiles,
		CORSOrigins:    cfg.CORSOrigins,
		GCTTL:          cfg.GCTTL,
	})

	// Фоновый GC брошенных частей.
	stopGC := uploadhttp.StartGC(chunks, cfg.GCTTL, cfg.GCInterval, m, logger)
	defer stopGC()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("chunkd listening", "addr", cfg.ListenAddr, "chunk_dir", cfg.ChunkDir, "upload_dir", cfg.UploadDir,
			"gc_ttl", cfg.GCTTL, "gc_every", cfg.GCInterval)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}
