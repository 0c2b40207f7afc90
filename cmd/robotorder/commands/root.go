package commands

import (
	"context"
	"log/slog"
	"os"

	"robotorder/internal/browser"
	"robotorder/internal/components/failure"
	"robotorder/internal/components/telemetry"
	"robotorder/internal/config"
	"robotorder/internal/fetch"
	"robotorder/internal/workflow"
	"robotorder/lib/util/serviceutil"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read, a <name>.local.json5 next to it overrides it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug information.")
}

var rootCmd = &cobra.Command{
	Use:   "robotorder",
	Short: "robotorder places every order of the orders file on the RobotSpareBin site and archives the receipts.",
	Args:  cobra.NoArgs,
	// errors are logged by ExecuteContext
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := uuid.NewString()
		initSlog(verbose)

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		ctx, cancel := serviceutil.SignalContext(cmd.Context())
		defer cancel()

		shutdown := initTelemetry(ctx, runID)
		defer shutdown()

		tel := telemetry.NewSlogAPI("run_id", runID)
		slog.Info("starting run", "run_id", runID, "site", cfg.SiteURL, "output", cfg.OutputDir)

		page, err := browser.Launch(ctx, browser.Options{
			Headful:       cfg.Browser.Headful,
			SlowMotion:    cfg.Browser.SlowMotion(),
			ActionTimeout: cfg.Browser.ActionTimeout(),
			ExecPath:      cfg.Browser.ExecPath,
		}, tel)
		if err != nil {
			return err
		}
		defer page.Close()

		fetcher := fetch.NewFetcher(fetch.Options{
			Timeout:           cfg.Http.Timeout(),
			CloudflareBypass:  cfg.Http.CloudflareBypass,
			RequestsPerSecond: cfg.Http.RequestsPerSecond,
			DumpDir:           cfg.Http.DumpDir,
		}, tel)

		summary, err := workflow.New(cfg, page, fetcher, tel).Run(ctx)
		if len(summary.Orders) > 0 {
			workflow.WriteReport(os.Stdout, summary)
		}
		if err != nil {
			return err
		}

		slog.Info("run finished", "run_id", runID, "orders", len(summary.Orders), "archive", summary.ArchivePath)
		return nil
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		kind := failure.Kind(err)
		if kind != nil {
			slog.Error("run aborted", "kind", kind.Error())
		}
		serviceutil.Fatal("robotorder failed", err)
	}
}
