// Command chat is a terminal REPL over the question-answering pipeline,
// useful for poking at a local deployment without the HTTP server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vidquest/engine/engine/content"
	"github.com/vidquest/engine/engine/generate"
	"github.com/vidquest/engine/engine/rag"
	"github.com/vidquest/engine/engine/search"
	"github.com/vidquest/engine/engine/semantic"
	"github.com/vidquest/engine/engine/video"
	"github.com/vidquest/engine/pkg/ollama"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	vectors, err := semantic.New(envOr("QDRANT_ADDR", "localhost:6334"), envOr("QDRANT_COLLECTION", "video_segments"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "qdrant connect failed:", err)
		os.Exit(1)
	}
	defer vectors.Close()

	embedder := ollama.NewEmbedClient(envOr("OLLAMA_URL", "http://localhost:11434"), envOr("EMBED_MODEL", "nomic-embed-text"), 30*time.Second)
	chat := ollama.NewChatClient(envOr("OLLAMA_URL", "http://localhost:11434"), envOr("CHAT_MODEL", "llama3.1"), 120*time.Second)

	clips := content.NewClipResolver(
		video.NewLocator(envOr("VIDEO_DIR", "./videos")),
		video.NewClipper(2*time.Minute),
		envOr("CLIP_DIR", "./clips"),
		2,
		logger,
	)

	engine := rag.New(
		search.New(embedder, vectors, search.DefaultOptions(), logger),
		generate.New(chat, generate.DefaultOptions(), logger),
		clips,
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Println("Ask about your lectures. Empty line or Ctrl-D exits.")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			break
		}
		query := strings.TrimSpace(sc.Text())
		if query == "" {
			break
		}

		resp, err := engine.ProcessQuery(ctx, query, rag.DefaultQueryOptions())
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}

		fmt.Println()
		fmt.Println(resp.Summary)
		if len(resp.Results) > 0 {
			fmt.Println()
			for i, r := range resp.Results {
				fmt.Printf("  %d. %s (%s, %s-%s, score %.3f)\n", i+1, truncate(r.Text, 80), r.VideoKey, r.Start, r.End, r.Score)
			}
		}
		if resp.ClipPath != "" {
			fmt.Println("\nclip:", resp.ClipPath)
		}
		fmt.Printf("\n(%.2fs)\n\n", resp.ProcessingTime)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
