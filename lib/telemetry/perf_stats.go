package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentPerfStats records host and process resource usage every interval
// until ctx is done. The browser runs as child processes of this one, so their
// count is recorded as well.
func InstrumentPerfStats(ctx context.Context, meter metric.Meter, interval time.Duration) {
	cpuGauge, _ := meter.Float64Gauge("cpu_usage")
	memoryGauge, _ := meter.Int64Gauge("allocated_mb")
	goroutineGauge, _ := meter.Int64Gauge("goroutine_count")
	childrenGauge, _ := meter.Int64Gauge("child_processes")

	self, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.Warn("failed to inspect own process", "err", err)
	}

	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				cpuUsage, err := cpu.PercentWithContext(ctx, 0, false)
				if err == nil && len(cpuUsage) > 0 {
					cpuGauge.Record(ctx, cpuUsage[0])
				} else if err != nil {
					slog.Debug("failed to read cpu usage", "err", err)
				}

				if self != nil {
					children, err := self.ChildrenWithContext(ctx)
					if err == nil {
						childrenGauge.Record(ctx, int64(len(children)))
					}
				}

				memoryGauge.Record(ctx, int64(memStats.Alloc/1_000_000))
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
			case <-ctx.Done():
				return
			}
		}
	}()
}
