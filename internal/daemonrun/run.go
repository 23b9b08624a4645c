package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"collator/internal/aggregator"
	"collator/internal/config"
	"collator/internal/daemon"
	"collator/internal/ipc"
	"collator/internal/jobs"
	"collator/internal/logging"
	"collator/internal/notifications"
	"collator/internal/spool"
	"collator/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the collator daemon runtime loop. It blocks until the context is
// canceled or a SIGINT/SIGTERM arrives, then shuts components down in reverse
// boot order.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("collatord-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", config.DaemonLogFileName, err)
	}
	logBootSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, "collatord.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	handler, err := aggregator.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create aggregation stage: %w", err)
	}
	manager.ConfigureStage(handler)

	d, err := daemon.New(cfg, store, logger, manager, notifier)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and job database access"),
			logging.String("impact", "daemon may not process aggregation jobs"),
		)
	}

	if cfg.SpoolEnabled() {
		watcher, spoolErr := spool.NewWatcher(signalCtx, cfg.Paths.SpoolDir, d, logger)
		if spoolErr != nil {
			logger.Warn("spool watcher unavailable",
				logging.Error(spoolErr),
				logging.String(logging.FieldEventType, "spool_start_failed"),
				logging.String(logging.FieldErrorHint, "check spool directory permissions"),
			)
		} else {
			defer watcher.Close()
			watcher.Start()
		}
	}

	<-signalCtx.Done()
	logger.Info("collator daemon shutting down")
	return nil
}

// ensureCurrentLogPointer keeps LogDir/collatord.log pointing at the current
// run's log file. Symlinks are preferred; hard links cover filesystems that
// forbid them.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, config.DaemonLogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logBootSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("boot snapshot",
		logging.String(logging.FieldEventType, "boot_snapshot"),
		logging.String("data_dir", cfg.Paths.DataDir),
		logging.String("job_db", cfg.DatabasePath()),
		logging.String("store_root", cfg.Paths.StoreRoot),
		logging.Bool("spool_enabled", cfg.SpoolEnabled()),
		logging.String("api_bind", cfg.API.Bind),
		logging.Bool("api_token_present", strings.TrimSpace(cfg.API.Token) != ""),
		logging.String("ipc_socket", cfg.SocketPath()),
		logging.Bool("ntfy_topic_present", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}
