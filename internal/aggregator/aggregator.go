package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"collator/internal/config"
	"collator/internal/jobs"
	"collator/internal/logging"
	"collator/internal/objectstore"
	"collator/internal/prompt"
	"collator/internal/request"
	"collator/internal/services"
	"collator/internal/stage"
	"collator/internal/textutil"
)

// Aggregator is the collation stage handler. It reads the chunk summaries a
// job references, assembles the cross-chunk analysis prompt, and writes the
// prompt back to the job's bucket.
type Aggregator struct {
	store   *jobs.Store
	cfg     *config.Config
	objects objectstore.Store
	logger  *slog.Logger
}

// New constructs the aggregation handler backed by the filesystem object
// store rooted at paths.store_root.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger) (*Aggregator, error) {
	objects, err := objectstore.NewFS(cfg.Paths.StoreRoot)
	if err != nil {
		return nil, err
	}
	return NewWithObjectStore(cfg, store, objects, logger), nil
}

// NewWithObjectStore allows injecting a custom object store (used for tests).
func NewWithObjectStore(cfg *config.Config, store *jobs.Store, objects objectstore.Store, logger *slog.Logger) *Aggregator {
	agg := &Aggregator{
		store:   store,
		cfg:     cfg,
		objects: objects,
	}
	agg.SetLogger(logger)
	return agg
}

// SetLogger updates the handler's logging destination while preserving
// component labeling.
func (a *Aggregator) SetLogger(logger *slog.Logger) {
	a.logger = logging.NewComponentLogger(logger, "aggregator")
}

// Prepare parses the persisted request and stamps the job with the collation
// progress message before execution begins.
func (a *Aggregator) Prepare(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, a.logger)
	env, err := stage.ParseRequest(job.RequestJSON)
	if err != nil {
		return err
	}
	job.ChunksTotal = len(env.ChunkResults)
	job.SetAggregating(collatingMessage(len(env.ChunkResults)))
	logger.Debug("starting aggregation preparation", logging.Int("chunks_total", job.ChunksTotal))
	return nil
}

// Execute collects every usable chunk summary, builds the cross-chunk
// analysis prompt, and stores it alongside the summaries in the job's bucket.
// A chunk that cannot contribute degrades the prompt instead of failing the
// job; only a failed prompt write is fatal.
func (a *Aggregator) Execute(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, a.logger)
	stageStart := time.Now()

	env, err := stage.ParseRequest(job.RequestJSON)
	if err != nil {
		return err
	}

	logger.Info("starting summary collation",
		logging.String(logging.FieldBucket, env.Bucket),
		logging.Int("chunks_total", len(env.ChunkResults)))

	sections, err := a.collectSections(ctx, env, logger)
	if err != nil {
		return err
	}
	if skipped := len(env.ChunkResults) - len(sections); skipped > 0 {
		logger.Warn("collation proceeding with missing summaries",
			logging.Int("chunks_skipped", skipped),
			logging.Int("chunks_usable", len(sections)))
	}

	a.updateProgress(ctx, job, fmt.Sprintf("Building cross-chunk analysis prompt from %d summaries", len(sections)))

	body := prompt.Build(prompt.Combine(sections))
	key := prompt.Key(env.OutputPath, env.JobID)
	if err := a.objects.Put(ctx, env.Bucket, key, []byte(body), objectstore.PutOptions{ContentType: prompt.ContentType}); err != nil {
		return services.Wrap(
			services.ErrStorage,
			"aggregation",
			"store analysis prompt",
			fmt.Sprintf("Failed to store the analysis prompt at %s; check the object store", key),
			err,
		)
	}

	logger.Info("stored cross-chunk analysis prompt",
		logging.String(logging.FieldObjectKey, key),
		logging.Int("chunks_aggregated", len(sections)),
		logging.Int("prompt_bytes", len(body)),
		logging.Duration("elapsed", time.Since(stageStart)))

	job.SetAggregated(key, len(sections), aggregatedMessage(len(env.ChunkResults)))
	return nil
}

// HealthCheck reports whether the handler can reach its object store root.
func (a *Aggregator) HealthCheck(ctx context.Context) stage.Health {
	const name = "aggregator"
	if a.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if a.objects == nil {
		return stage.Unhealthy(name, "object store unavailable")
	}
	root := strings.TrimSpace(a.cfg.Paths.StoreRoot)
	if root == "" {
		return stage.Unhealthy(name, "object store root not configured")
	}
	info, err := os.Stat(root)
	if err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("object store root %q not reachable", root))
	}
	if !info.IsDir() {
		return stage.Unhealthy(name, fmt.Sprintf("object store root %q is not a directory", root))
	}
	return stage.Healthy(name)
}

// collectSections retrieves all usable chunk summaries concurrently, bounded
// by workflow.fetch_concurrency, and returns the rendered prompt sections in
// the order the request listed the chunks. Chunks whose upstream analysis
// failed, whose summary key is missing, or whose summary cannot be read are
// skipped with a warning.
func (a *Aggregator) collectSections(ctx context.Context, env request.Envelope, logger *slog.Logger) ([]string, error) {
	rendered := make([]string, len(env.ChunkResults))
	usable := make([]bool, len(env.ChunkResults))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.fetchLimit())
	for i, chunk := range env.ChunkResults {
		i, chunk := i, chunk
		if chunk.Failed() {
			logger.Warn("skipping chunk with failed analysis",
				logging.Int(logging.FieldChunkIndex, chunk.ChunkIndex),
				logging.String("chunk_status", chunk.Status))
			continue
		}
		if chunk.SummaryKey == "" {
			logger.Warn("skipping chunk without summary key",
				logging.Int(logging.FieldChunkIndex, chunk.ChunkIndex))
			continue
		}
		g.Go(func() error {
			raw, err := a.objects.Get(gctx, env.Bucket, chunk.SummaryKey)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("skipping unreadable chunk summary",
					logging.Int(logging.FieldChunkIndex, chunk.ChunkIndex),
					logging.String(logging.FieldObjectKey, chunk.SummaryKey),
					logging.Error(err))
				return nil
			}
			text, err := textutil.DecodeText(raw)
			if err != nil {
				logger.Warn("skipping undecodable chunk summary",
					logging.Int(logging.FieldChunkIndex, chunk.ChunkIndex),
					logging.String(logging.FieldObjectKey, chunk.SummaryKey),
					logging.Error(err))
				return nil
			}
			rendered[i] = prompt.Section(chunk.ChunkIndex, text)
			usable[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, services.Wrap(
			services.ErrTransient,
			"aggregation",
			"collect chunk summaries",
			"Summary collection interrupted before completion",
			err,
		)
	}

	sections := make([]string, 0, len(rendered))
	for i, section := range rendered {
		if usable[i] {
			sections = append(sections, section)
		}
	}
	return sections, nil
}

func (a *Aggregator) fetchLimit() int {
	if a.cfg != nil && a.cfg.Workflow.FetchConcurrency > 0 {
		return a.cfg.Workflow.FetchConcurrency
	}
	return 1
}

// updateProgress persists a mid-stage status message. Failures are logged and
// swallowed; progress text is advisory.
func (a *Aggregator) updateProgress(ctx context.Context, job *jobs.Job, message string) {
	if a.store == nil || job.ID == 0 {
		return
	}
	logger := logging.WithContext(ctx, a.logger)
	if err := a.store.UpdateStatus(ctx, job.ID, job.Status, message); err != nil {
		logger.Warn("failed to persist collation progress", logging.Error(err))
		return
	}
	job.StatusMessage = message
}

func collatingMessage(chunks int) string {
	return fmt.Sprintf("Collating summaries from %d chunks and performing cross-chunk analysis", chunks)
}

func aggregatedMessage(chunks int) string {
	return fmt.Sprintf("Aggregated %d chunk summaries and prepared cross-chunk analysis prompt", chunks)
}
