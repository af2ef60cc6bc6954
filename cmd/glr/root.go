package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/glr-generator/internal/app"
	"github.com/joseph-ayodele/glr-generator/internal/common"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "glr",
	Short: "Fill USAA, Wayne and GuideOne GLR templates from inspection photo reports",
	Long: `glr reads a PDF photo report, detects which insurer GLR template it was
given, asks a language model (via OpenRouter) for the template's fields and
writes the filled .docx.

Configuration comes from the environment (or a .env file):
OPENROUTER_API_KEY, OPENROUTER_MODEL, PDF_EXTRACTOR, RUN_DB_URL, LOG_LEVEL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// Execute runs the root command. An interrupt cancels the in-flight model call.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// newApp loads configuration and wires the pipeline. Logs go to stderr.
func newApp(ctx context.Context) (*app.App, error) {
	cfg := common.LoadConfig()
	if verbose {
		cfg.Log.Level = slog.LevelDebug
	}
	logger := common.NewLoggerTo(os.Stderr, cfg.Log)
	return app.New(ctx, cfg, logger)
}

func readUpload(path string) (common.Upload, error) {
	if path == "" {
		return common.Upload{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return common.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return common.Upload{Name: filepath.Base(path), Data: data}, nil
}
