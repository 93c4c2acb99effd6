package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/liveui/internal/config"
	"github.com/vango-dev/liveui/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "liveui",
		Short: "Incremental list rendering on a single-threaded executor",
		Long: `liveui renders reactive lists into element trees incrementally.

Edits to a list are recorded as change records; a reconciler applies
them to a render backend one element at a time and runs a task per
item that borrows from the reconciler's scope.

Commands:
  • demo   scripted edits on an in-memory document
  • bench  timings of reconcile passes
  • serve  patch frames over WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to liveui.json (default ./liveui.json if present)")

	load := func() (*config.Config, error) {
		return loadConfig(configPath)
	}

	rootCmd.AddCommand(
		demoCmd(load),
		benchCmd(load),
		serveCmd(load),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads path, or ./liveui.json when path is empty. A missing
// default file is not an error.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.Load(".")
	if err == nil {
		return cfg, nil
	}
	var e *errors.Error
	if stderrors.As(err, &e) && e.Code == "C003" {
		cfg = config.New()
		cfg.ApplyEnv()
		return cfg, cfg.Validate()
	}
	return nil, err
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
