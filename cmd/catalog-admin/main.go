package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/catalog-admin/internal/app"
	"github.com/xenking/catalog-admin/internal/catalog"
)

// cli holds the state shared by every subcommand.
type cli struct {
	logLevel    string
	upstreamURL string
	updateMode  string

	out io.Writer
	err io.Writer

	lg      *zap.Logger
	catalog *catalog.Service
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := &cli{out: os.Stdout, err: os.Stderr}
	if err := c.root().ExecuteContext(ctx); err != nil {
		c.printError(err)
		os.Exit(1)
	}
}

func (c *cli) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog-admin",
		Short: "Manage the product catalog from a terminal",
		Long: `catalog-admin lists, creates, edits and deletes catalog products through
the same cached catalog service the admin gateway uses.

Configuration is read from .env, CATALOG_* environment variables and
config.yaml; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.lg != nil {
				_ = c.lg.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&c.upstreamURL, "upstream-url", "", "catalog service base URL (overrides CATALOG_UPSTREAM_BASE_URL)")
	flags.StringVar(&c.updateMode, "update-mode", "", "how edits are confirmed: remote or local")

	cmd.AddCommand(c.productsCmd(), c.categoriesCmd(), c.seedCmd())
	return cmd
}

// setup loads configuration and builds the catalog service.
func (c *cli) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}

	level, err := zapcore.ParseLevel(c.logLevel)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	if c.lg, err = zcfg.Build(); err != nil {
		return errors.Wrap(err, "build logger")
	}

	cfg, err := app.LoadClientConfig()
	if err != nil {
		return err
	}
	if c.upstreamURL != "" {
		cfg.Upstream.BaseURL = c.upstreamURL
	}
	if c.updateMode != "" {
		cfg.Catalog.UpdateMode = c.updateMode
	}

	deps, err := app.NewDeps(cfg, c.lg, tracenoop.NewTracerProvider(), noop.NewMeterProvider())
	if err != nil {
		return err
	}
	c.catalog = deps.Catalog

	cmd.SetContext(zctx.Base(cmd.Context(), c.lg))
	return nil
}

func (c *cli) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

