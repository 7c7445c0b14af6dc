package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sir_venger/chunkmerge/internal/app/uploadhttp"
	"github.com/sir_venger/chunkmerge/internal/config"
	"github.com/sir_venger/chunkmerge/internal/logger"
	"github.com/sir_venger/chunkmerge/internal/metrics"
	meta "github.com/sir_venger/chunkmerge/internal/repo"
	"github.com/sir_venger/chunkmerge/internal/upload"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New("chunkmerge", logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err = run(cfg, log); err != nil {
		log.Fatalw("startup", "error", err)
	}
}

// run поднимает HTTP-сервер, фоновый GC и обеспечивает корректное завершение по сигналу.
func run(cfg *config.Config, log *zap.SugaredLogger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := upload.Deps{
		Root:            cfg.UploadDir,
		Metrics:         m,
		Log:             log,
		MergeWorkers:    cfg.MergeWorkers,
		MaxChunkBytes:   cfg.MaxChunkBytes,
		StrictChunkSize: cfg.StrictChunkSize,
	}
	if cfg.JournalPath != "" {
		journal, err := meta.OpenLevel(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer journal.Close()
		deps.Journal = journal
	}

	uploads, err := upload.New(deps)
	if err != nil {
		return err
	}

	stopGC := uploads.StartGC(cfg.GCTTL, cfg.GCInterval)
	defer stopGC()

	handler := uploadhttp.New(uploads, uploadhttp.Options{
		MaxChunkBytes: cfg.MaxChunkBytes,
		GCTTL:         cfg.GCTTL,
		Metrics:       m,
		Gatherer:      reg,
		Log:           log,
	})
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnw("shutdown", "error", err)
		}
	}()

	log.Infow("startup", "status", "listening", "address", cfg.ListenAddr, "upload_dir", cfg.UploadDir,
		"journal", cfg.JournalPath, "gc_ttl", cfg.GCTTL, "gc_interval", cfg.GCInterval)
	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Infow("shutdown", "status", "stopped")

	return nil
}
