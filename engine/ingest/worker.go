package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vidquest/engine/pkg/fn"
	"github.com/vidquest/engine/pkg/natsutil"
	"github.com/vidquest/engine/pkg/resilience"
)

const (
	// SubjectJobs receives ingest jobs.
	SubjectJobs = "engine.ingest"
	// SubjectDLQ receives jobs that exhausted their retries.
	SubjectDLQ = "engine.ingest.dlq"
)

// DeadLetter is a job that failed all retry attempts.
type DeadLetter struct {
	Job      Job    `json:"job"`
	Error    string `json:"error"`
	Attempts int    `json:"attempts"`
	FailedAt string `json:"failed_at"`
}

// Worker consumes ingest jobs from NATS and runs them through the pipeline.
// Failed jobs are retried with backoff; jobs that still fail go to the DLQ.
type Worker struct {
	nc     *nats.Conn
	stage  fn.Stage[Job, string]
	logger *slog.Logger
	sub    *nats.Subscription
}

// NewWorker builds a worker around the given backends. The embedding stage is
// rate limited and circuit broken so a struggling model server sheds load
// instead of piling up requests.
func NewWorker(nc *nats.Conn, embedder BatchEmbedder, vectors VectorUpserter, videos CatalogUpserter, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := resilience.NewBreaker(resilience.DefaultBreakerOpts)
	limiter := resilience.NewLimiter(resilience.LimiterOpts{Rate: 4, Burst: 8})

	embed := resilience.BreakerStage(breaker,
		resilience.LimiterStageWait(limiter, NewEmbed(embedder)))

	stage := fn.Then(
		fn.TracedStage("ingest.parse", Parse),
		fn.Then(
			fn.TracedStage("ingest.embed", embed),
			fn.TracedStage("ingest.store", NewStore(vectors, videos)),
		),
	)

	return &Worker{
		nc:     nc,
		stage:  fn.RetryStage(fn.RetryOpts{MaxAttempts: MaxRetries, InitialWait: 2 * time.Second, MaxWait: 30 * time.Second, Jitter: true}, stage),
		logger: logger,
	}
}

// Start subscribes to the jobs subject. Processing is sequential per message
// delivery; NATS fans out across worker processes.
func (w *Worker) Start() error {
	sub, err := natsutil.Subscribe(w.nc, SubjectJobs, func(ctx context.Context, job Job) {
		w.Process(ctx, job)
	})
	if err != nil {
		return err
	}
	w.sub = sub
	w.logger.Info("ingest worker started", "subject", SubjectJobs)
	return nil
}

// Process runs one job, routing terminal failures to the DLQ.
func (w *Worker) Process(ctx context.Context, job Job) {
	start := time.Now()
	key, err := w.stage(ctx, job).Unwrap()
	if err != nil {
		w.logger.Error("ingest job failed",
			"video_key", job.VideoKey,
			"subtitle", job.SubtitlePath,
			"error", err,
		)
		w.deadLetter(ctx, job, err)
		return
	}
	w.logger.Info("ingest job done",
		"video_key", key,
		"duration", time.Since(start),
	)
}

func (w *Worker) deadLetter(ctx context.Context, job Job, cause error) {
	dl := DeadLetter{
		Job:      job,
		Error:    cause.Error(),
		Attempts: MaxRetries,
		FailedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := natsutil.Publish(ctx, w.nc, SubjectDLQ, dl); err != nil {
		w.logger.Error("dead letter publish failed", "video_key", job.VideoKey, "error", err)
	}
}

// Stop drains the subscription.
func (w *Worker) Stop() error {
	if w.sub == nil {
		return nil
	}
	return w.sub.Drain()
}
