// Command ingest loads lecture subtitles into the engine. With -dir it scans
// a dataset directory and processes every subtitle file; with -worker it
// consumes ingest jobs from NATS until interrupted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/vidquest/engine/engine/catalog"
	"github.com/vidquest/engine/engine/ingest"
	"github.com/vidquest/engine/engine/semantic"
	"github.com/vidquest/engine/pkg/ollama"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	dir := flag.String("dir", "", "dataset directory to scan for subtitle files")
	worker := flag.Bool("worker", false, "consume ingest jobs from NATS")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if *dir == "" && !*worker {
		logger.Error("nothing to do: pass -dir or -worker")
		os.Exit(2)
	}

	vectors, err := semantic.New(envOr("QDRANT_ADDR", "localhost:6334"), envOr("QDRANT_COLLECTION", "video_segments"))
	if err != nil {
		logger.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer vectors.Close()

	driver, err := neo4j.NewDriverWithContext(
		envOr("NEO4J_URI", "bolt://localhost:7687"),
		neo4j.BasicAuth(envOr("NEO4J_USER", "neo4j"), envOr("NEO4J_PASSWORD", "password"), ""),
	)
	if err != nil {
		logger.Error("neo4j connect failed", "error", err)
		os.Exit(1)
	}
	defer driver.Close(context.Background())
	videos := catalog.NewStore(driver)

	embedder := ollama.NewEmbedClient(envOr("OLLAMA_URL", "http://localhost:11434"), envOr("EMBED_MODEL", "nomic-embed-text"), 60*time.Second)

	ctx := context.Background()

	// Probe the model once to learn the vector size before creating the
	// collection.
	probe, err := embedder.Embed(ctx, "dimension probe")
	if err != nil {
		logger.Error("embedding model unreachable", "error", err)
		os.Exit(1)
	}
	if err := vectors.EnsureCollection(ctx, len(probe.Vector)); err != nil {
		logger.Error("ensure collection failed", "error", err)
		os.Exit(1)
	}

	if *dir != "" {
		runScan(ctx, *dir, embedder, vectors, videos, logger)
	}

	if *worker {
		runWorker(embedder, vectors, videos, logger)
	}
}

func runScan(ctx context.Context, dir string, embedder ingest.BatchEmbedder, vectors ingest.VectorUpserter, videos ingest.CatalogUpserter, logger *slog.Logger) {
	jobs := ingest.ScanDirectory(dir, logger)
	if len(jobs) == 0 {
		logger.Warn("no subtitle files found", "dir", dir)
		return
	}
	logger.Info("scan complete", "dir", dir, "jobs", len(jobs))

	stage := ingest.Pipeline(embedder, vectors, videos)
	failed := 0
	for _, job := range jobs {
		start := time.Now()
		key, err := stage(ctx, job).Unwrap()
		if err != nil {
			failed++
			logger.Error("ingest failed", "video_key", job.VideoKey, "error", err)
			continue
		}
		logger.Info("ingested", "video_key", key, "duration", time.Since(start))
	}
	logger.Info("ingest run done", "total", len(jobs), "failed", failed)
}

func runWorker(embedder ingest.BatchEmbedder, vectors ingest.VectorUpserter, videos ingest.CatalogUpserter, logger *slog.Logger) {
	nc, err := nats.Connect(envOr("NATS_URL", nats.DefaultURL))
	if err != nil {
		logger.Error("nats connect failed", "error", err)
		os.Exit(1)
	}
	defer nc.Drain()

	w := ingest.NewWorker(nc, embedder, vectors, videos, logger)
	if err := w.Start(); err != nil {
		logger.Error("worker start failed", "error", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("stopping worker")
	if err := w.Stop(); err != nil {
		logger.Error("drain failed", "error", err)
	}
}
