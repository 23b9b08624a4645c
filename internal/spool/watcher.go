package spool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"

	"collator/internal/fileutil"
	"collator/internal/jobs"
	"collator/internal/logging"
)

const (
	// debounceWindow is how long a spool file must sit quiet before
	// ingestion; editors and transfer tools write in bursts.
	debounceWindow = 500 * time.Millisecond
	settleInterval = 100 * time.Millisecond

	processedDirName = "processed"
	failedDirName    = "failed"

	archiveTimeFormat = "20060102T150405.000"
)

// Submitter accepts raw aggregation request payloads. *daemon.Daemon
// satisfies it.
type Submitter interface {
	Submit(ctx context.Context, raw []byte) (*jobs.Job, bool, error)
}

// Watcher feeds request files from the spool directory into the daemon.
type Watcher struct {
	dir       string
	submitter Submitter
	logger    *slog.Logger
	notify    *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher prepares a watcher over dir. The processed/ and failed/
// subdirectories are created up front so archive moves never race intake.
func NewWatcher(ctx context.Context, dir string, submitter Submitter, logger *slog.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("spool watcher requires a directory")
	}
	if submitter == nil {
		return nil, errors.New("spool watcher requires a submitter")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "spool")

	for _, sub := range []string{dir, filepath.Join(dir, processedDirName), filepath.Join(dir, failedDirName)} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return nil, fmt.Errorf("create spool directory: %w", err)
		}
	}

	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create spool watcher: %w", err)
	}
	if err := notify.Add(dir); err != nil {
		notify.Close()
		return nil, fmt.Errorf("watch spool directory: %w", err)
	}

	watcherCtx, cancel := context.WithCancel(ctx)
	return &Watcher{
		dir:       dir,
		submitter: submitter,
		logger:    logger,
		notify:    notify,
		pending:   make(map[string]time.Time),
		ctx:       watcherCtx,
		cancel:    cancel,
	}, nil
}

// Start ingests files already present, then watches for new ones.
func (w *Watcher) Start() {
	w.sweepExisting()
	w.logger.Info("spool watcher started", logging.String("directory", w.dir))
	w.wg.Add(1)
	go w.run()
}

// Close stops the watcher and waits for in-flight ingestion to finish.
func (w *Watcher) Close() {
	w.cancel()
	if w.notify != nil {
		_ = w.notify.Close()
	}
	w.wg.Wait()
}

func (w *Watcher) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(settleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.notify.Events:
			if !ok {
				return
			}
			w.recordEvent(event)
		case err, ok := <-w.notify.Errors:
			if !ok {
				return
			}
			w.logger.Warn("spool watch error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "spool_watch_failed"))
		case <-ticker.C:
			w.ingestSettled()
		}
	}
}

// recordEvent notes write activity on request files. Files moved into the
// directory arrive as Create events, so Create|Write covers every intake path.
func (w *Watcher) recordEvent(event fsnotify.Event) {
	if !isRequestFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) ingestSettled() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= debounceWindow {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(ready)
	for _, path := range ready {
		w.ingest(path)
	}
}

func (w *Watcher) sweepExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("spool sweep failed", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isRequestFile(entry.Name()) {
			continue
		}
		w.ingest(filepath.Join(w.dir, entry.Name()))
	}
}

func (w *Watcher) ingest(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		// The file may have been removed or renamed before it settled.
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		w.logger.Warn("failed to read spool file",
			logging.String("file", path),
			logging.Error(err))
		w.archive(path, failedDirName)
		return
	}

	job, accepted, err := w.submitter.Submit(w.ctx, raw)
	if err != nil {
		w.logger.Warn("spool submission failed",
			logging.String("file", path),
			logging.Error(err))
		w.archive(path, failedDirName)
		return
	}
	if !accepted {
		w.logger.Warn("spool file rejected",
			logging.String("file", path),
			logging.String(logging.FieldJobID, job.JobID),
			logging.String("reason", job.ErrorMessage))
		w.archive(path, failedDirName)
		return
	}
	w.logger.Info("spool file queued",
		logging.String("file", path),
		logging.Int64(logging.FieldJobRef, job.ID),
		logging.String(logging.FieldJobID, job.JobID))
	w.archive(path, processedDirName)
}

func (w *Watcher) archive(path, subdir string) {
	name := time.Now().UTC().Format(archiveTimeFormat) + "-" + filepath.Base(path)
	dest := filepath.Join(w.dir, subdir, name)
	if err := fileutil.MoveFile(path, dest); err != nil {
		w.logger.Warn("failed to archive spool file",
			logging.String("file", path),
			logging.String("destination", dest),
			logging.Error(err))
	}
}

func isRequestFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
