// ytparser/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ytparser/api"
	"ytparser/config"
	"ytparser/logger"
	"ytparser/pot"
	"ytparser/task"
	"ytparser/translator"
	"ytparser/worker"
	"ytparser/ytdlp"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// 2. Initialize the task store and runner
	store, backend := task.NewStore(cfg, zlog)
	zlog.Info("task store ready", zap.String("backend", backend))

	runner := task.NewRunner(store, zlog)
	limiter := task.NewLimiter(cfg.MaxConcurrency)

	// 3. Initialize the job collaborators
	extractor, err := ytdlp.NewCLI(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize extractor", zap.Error(err))
	}
	tokens := pot.NewClient(cfg, zlog)
	llm := translator.New(cfg, zlog)

	analyzer := worker.NewAnalyzer(cfg, extractor, tokens, limiter, zlog)
	subWorker := worker.NewTranslator(cfg, llm, zlog)
	janitor := worker.NewJanitor(cfg.DownloadDir, cfg.OutputLocalLifetime, zlog)

	// 4. Set up router and server
	h := api.NewHandler(cfg, store, runner, analyzer, subWorker, zlog)
	router := api.SetupRouter(h, cfg, zlog)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// 5. Start background services and HTTP server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner.Start(ctx)
	janitor.Start(ctx)

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 6. Wait for interrupt signal for graceful shutdown
	<-ctx.Done()
	stop()
	zlog.Info("shutting down gracefully, press Ctrl+C again to force")

	// In-flight requests get 5 seconds to finish; background jobs already
	// observed ctx cancellation through the runner.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exiting")
}
