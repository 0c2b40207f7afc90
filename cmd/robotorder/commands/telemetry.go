package commands

import (
	"context"
	"log/slog"
	"time"

	"robotorder/lib/telemetry"
	"robotorder/lib/util/serviceutil"
)

func initSlog(verbose bool) {
	telemetry.InitSlog(verbose)
}

// initTelemetry exports traces and metrics when a telemetry.json5 is found,
// the returned function flushes them.
func initTelemetry(ctx context.Context, runID string) func() {
	t, err := telemetry.SetupFromEnv(ctx, "robotorder", runID)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	if !t.Enabled() {
		return func() {}
	}

	perfCtx, stopPerf := context.WithCancel(ctx)
	telemetry.InstrumentPerfStats(perfCtx, telemetry.Meter("robotorder/perf_stats"), 15*time.Second)

	return func() {
		stopPerf()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := t.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}
}
