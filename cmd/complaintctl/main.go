package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kalambet/complaintctl/internal/config"
	"github.com/kalambet/complaintctl/internal/console"
	"github.com/kalambet/complaintctl/internal/feedback"
)

var version = "dev"

var (
	noColor  bool
	appCfg   config.Config
	logger   = zerolog.Nop()
	logLevel string
	filePath string
)

var rootCmd = &cobra.Command{
	Use:   "complaintctl",
	Short: "Record and view reviews, rankings and complaints",
	Long: `Record and view customer feedback for a company and product.

Run without a subcommand to open the interactive menu.

Examples:
  complaintctl
  complaintctl add review --company johnson --product toys --message "great!"
  complaintctl list --kind Ranking
  complaintctl export --output ./feedback.db`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		h := console.NewHandler(store, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		return h.Run(cmd.Context())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&filePath, "file", "", "feedback file (default: <data dir>/complaints.json)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode reports err and maps it to a process status. An interrupt
// exits quietly with the conventional 128+SIGINT status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		printError("%v", err)
		return 1
	}
}

// setup loads config, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("file") {
		abs, err := filepath.Abs(filePath)
		if err != nil {
			return fmt.Errorf("resolving --file: %w", err)
		}
		cfg.Storage.File = abs
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cfg.Output.NoColor || os.Getenv("NO_COLOR") != "" {
		noColor = true
	}

	l, err := newLogger(cfg.Log.Level, os.Stderr)
	if err != nil {
		return err
	}

	appCfg = cfg
	logger = l
	return nil
}

func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: noColor}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// openStore opens the configured feedback file, creating its directory.
func openStore() (*feedback.Store, error) {
	path := appCfg.FeedbackPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	store, err := feedback.Open(path, feedback.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("opening feedback store: %w", err)
	}
	return store, nil
}
