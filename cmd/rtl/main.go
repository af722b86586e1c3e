// Command rtl inspects, converts, merges and repairs range tombstone dumps.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/INLOpen/tombstones/config"
	"github.com/INLOpen/tombstones/core"
	"github.com/INLOpen/tombstones/partition"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

// app carries what every subcommand needs once the configuration is loaded.
type app struct {
	configPath string

	cfg     *config.Config
	logger  *slog.Logger
	tp      trace.TracerProvider
	metrics *partition.Metrics
	cmp     core.Comparator

	closers []func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes the CLI with args and releases everything the command set up.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{cmp: core.BytesComparator}
	defer a.close()

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "rtl",
		Short:         "Range tombstone ledger tools",
		Long:          "rtl reads and writes range tombstone dumps: inspection, validation, purging, merging, diffing, repair and re-encoding.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "rtl.yaml", "path to the YAML configuration file")

	root.AddCommand(newInspectCommand(a))
	root.AddCommand(newCheckCommand(a))
	root.AddCommand(newPurgeCommand(a))
	root.AddCommand(newMergeCommand(a))
	root.AddCommand(newDiffCommand(a))
	root.AddCommand(newRepairCommand(a))
	root.AddCommand(newConvertCommand(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := createLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if closer != nil {
		a.closers = append(a.closers, func() { closer.Close() })
	}
	a.logger = logger.With("command", cmd.Name())

	tp, cleanup, err := initTracerProvider(cfg.Tracing, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tp = tp
	a.closers = append(a.closers, cleanup)

	a.metrics = partition.NewMetrics(cfg.Metrics.Publish, cfg.Metrics.Prefix)
	return nil
}

// close runs the registered cleanups in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) newDeletions() *partition.Deletions {
	return partition.New(a.cmp, partition.Options{
		Logger:          a.logger,
		TracerProvider:  a.tp,
		Metrics:         a.metrics,
		InitialCapacity: a.cfg.Ledger.InitialCapacity,
	})
}
