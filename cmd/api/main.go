// Command api runs the HTTP API for the lecture video question-answering
// engine: semantic search over ingested transcripts, LLM answer synthesis,
// and on-demand clip extraction.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/vidquest/engine/engine/catalog"
	"github.com/vidquest/engine/engine/content"
	"github.com/vidquest/engine/engine/domain"
	"github.com/vidquest/engine/engine/generate"
	"github.com/vidquest/engine/engine/rag"
	"github.com/vidquest/engine/engine/search"
	"github.com/vidquest/engine/engine/semantic"
	"github.com/vidquest/engine/engine/video"
	"github.com/vidquest/engine/pkg/mid"
	"github.com/vidquest/engine/pkg/natsutil"
	"github.com/vidquest/engine/pkg/ollama"
)

// SubjectAnswered carries answered-query events for downstream consumers.
const SubjectAnswered = "engine.query.answered"

type config struct {
	httpAddr string

	ollamaURL  string
	embedModel string
	chatModel  string

	qdrantAddr string
	collection string

	neo4jURI  string
	neo4jUser string
	neo4jPass string

	videoDir string
	clipDir  string
	maxClips int

	natsURL string
}

func loadConfig() config {
	_ = godotenv.Load()
	maxClips, err := strconv.Atoi(envOr("MAX_CONCURRENT_CLIPS", "2"))
	if err != nil || maxClips < 1 {
		maxClips = 2
	}
	return config{
		httpAddr:   envOr("HTTP_ADDR", ":8080"),
		ollamaURL:  envOr("OLLAMA_URL", "http://localhost:11434"),
		embedModel: envOr("EMBED_MODEL", "nomic-embed-text"),
		chatModel:  envOr("CHAT_MODEL", "llama3.1"),
		qdrantAddr: envOr("QDRANT_ADDR", "localhost:6334"),
		collection: envOr("QDRANT_COLLECTION", "video_segments"),
		neo4jURI:   envOr("NEO4J_URI", "bolt://localhost:7687"),
		neo4jUser:  envOr("NEO4J_USER", "neo4j"),
		neo4jPass:  envOr("NEO4J_PASSWORD", "password"),
		videoDir:   envOr("VIDEO_DIR", "./videos"),
		clipDir:    envOr("CLIP_DIR", "./clips"),
		maxClips:   maxClips,
		natsURL:    os.Getenv("NATS_URL"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := loadConfig()

	vectors, err := semantic.New(cfg.qdrantAddr, cfg.collection)
	if err != nil {
		logger.Error("qdrant connect failed", "addr", cfg.qdrantAddr, "error", err)
		os.Exit(1)
	}
	defer vectors.Close()

	driver, err := neo4j.NewDriverWithContext(cfg.neo4jURI, neo4j.BasicAuth(cfg.neo4jUser, cfg.neo4jPass, ""))
	if err != nil {
		logger.Error("neo4j connect failed", "uri", cfg.neo4jURI, "error", err)
		os.Exit(1)
	}
	defer driver.Close(context.Background())
	videos := catalog.NewStore(driver)

	embedder := ollama.NewEmbedClient(cfg.ollamaURL, cfg.embedModel, 30*time.Second)
	chat := ollama.NewChatClient(cfg.ollamaURL, cfg.chatModel, 120*time.Second)

	searchSvc := search.New(embedder, vectors, search.DefaultOptions(), logger.With("service", "search"))
	genSvc := generate.New(chat, generate.DefaultOptions(), logger.With("service", "generate"))
	clips := content.NewClipResolver(
		video.NewLocator(cfg.videoDir),
		video.NewClipper(2*time.Minute),
		cfg.clipDir,
		cfg.maxClips,
		logger.With("service", "clips"),
	)
	engine := rag.New(searchSvc, genSvc, clips, logger.With("service", "rag"))

	var nc *nats.Conn
	if cfg.natsURL != "" {
		nc, err = nats.Connect(cfg.natsURL)
		if err != nil {
			logger.Warn("nats connect failed, events disabled", "url", cfg.natsURL, "error", err)
			nc = nil
		} else {
			defer nc.Drain()
		}
	}

	api := &apiServer{engine: engine, videos: videos, nc: nc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", api.handleQuery)
	mux.HandleFunc("GET /api/health", api.handleHealth)
	mux.HandleFunc("GET /api/videos/{key}", api.handleVideo)

	srv := &http.Server{
		Addr: cfg.httpAddr,
		Handler: mid.Chain(mux,
			mid.Recover(logger),
			mid.Logger(logger),
			mid.CORS("*"),
			mid.OTel("vidquest-api"),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api listening", "addr", cfg.httpAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

type apiServer struct {
	engine *rag.Service
	videos *catalog.Store
	nc     *nats.Conn
	logger *slog.Logger
}

type queryRequest struct {
	Query             string   `json:"query"`
	MaxResults        *int     `json:"max_results,omitempty"`
	MinScore          *float32 `json:"min_score,omitempty"`
	IncludeClip       *bool    `json:"include_clip,omitempty"`
	AdditionalContext string   `json:"additional_context,omitempty"`
}

// answeredEvent is the NATS payload published after a successful query.
type answeredEvent struct {
	Query          string  `json:"query"`
	Summary        string  `json:"summary"`
	ResultCount    int     `json:"result_count"`
	ClipPath       string  `json:"clip_path,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
}

func (s *apiServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	opts := rag.DefaultQueryOptions()
	if req.MaxResults != nil {
		opts.MaxResults = *req.MaxResults
	}
	if req.MinScore != nil {
		opts.MinScore = *req.MinScore
	}
	if req.IncludeClip != nil {
		opts.IncludeClip = *req.IncludeClip
	}
	opts.Additional = req.AdditionalContext

	resp, err := s.engine.ProcessQuery(r.Context(), req.Query, opts)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if s.nc != nil {
		if err := natsutil.Publish(r.Context(), s.nc, SubjectAnswered, answeredEvent{
			Query:          resp.Query,
			Summary:        resp.Summary,
			ResultCount:    len(resp.Results),
			ClipPath:       resp.ClipPath,
			ProcessingTime: resp.ProcessingTime,
		}); err != nil {
			s.logger.Warn("answered event publish failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.engine.Health(r.Context())
	status := http.StatusOK
	if report.Status == rag.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *apiServer) handleVideo(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	v, found, err := s.videos.FindByKey(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog lookup failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// statusFor maps error kinds to HTTP statuses: caller mistakes are 400,
// backend failures are 502, anything else is 500.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindEmbedding, domain.KindVectorIndex, domain.KindExternalService, domain.KindDocumentStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
