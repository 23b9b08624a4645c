// Command collatord runs the collator daemon: job store, workflow manager,
// aggregation stage, IPC control socket, HTTP status API, and the optional
// spool watcher. The collator CLI launches it on demand; it can also run
// under a process supervisor directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"collator/internal/config"
	"collator/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "collatord: load config: %v\n", err)
		os.Exit(1)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "collatord: %v\n", err)
		os.Exit(1)
	}
}
