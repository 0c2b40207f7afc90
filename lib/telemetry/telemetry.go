package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"robotorder/lib/configutil"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry holds the providers created by Setup, either may be nil when its
// exporter was not configured.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// Enabled reports whether anything is being exported.
func (t Telemetry) Enabled() bool {
	return t.TracerProvider != nil || t.MeterProvider != nil
}

func (t Telemetry) Shutdown(ctx context.Context) error {
	errlist := []error{}
	if t.TracerProvider != nil {
		err := t.TracerProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	if t.MeterProvider != nil {
		err := t.MeterProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// InitSlog replaces the default slog logger with a tint handler writing to stderr.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

var setupTestEnvironments = map[string]bool{}

// sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once
func SetupForTesting(t testing.TB, serviceName string) func() {
	_, setupAlready := setupTestEnvironments[serviceName]
	if setupAlready {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	tel, err := SetupFromEnv(context.Background(), serviceName, "test")
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}
}

// searches up the filesystem from the cwd to find a file
// called telemetry.json5, once found it will then use it
// as a config to setup telemetry.
//
// when no such file exists, the global no-op providers are left in place.
func SetupFromEnv(ctx context.Context, serviceName, instanceId string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no telemetry.json5 found, telemetry export disabled")
		return Telemetry{}, nil
	}
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, serviceName, instanceId, config)
}

func Setup(ctx context.Context, serviceName, instanceId string, config Config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName, instanceId)
	if err != nil {
		return Telemetry{}, err
	}

	var out Telemetry
	if config.Otlp.Traces.enabled() {
		out.TracerProvider, err = newTraceProvider(ctx, r, config.Otlp.Traces)
		if err != nil {
			return Telemetry{}, err
		}
		otel.SetTracerProvider(out.TracerProvider)
	}

	if config.Otlp.Metrics.enabled() {
		interval := time.Second * 5
		if config.MetricInterval > 0 {
			interval = time.Second * time.Duration(config.MetricInterval)
		}
		out.MeterProvider, err = newMetricProvider(ctx, r, config.Otlp.Metrics, interval)
		if err != nil {
			return out, errors.Join(err, out.Shutdown(context.Background()))
		}
		otel.SetMeterProvider(out.MeterProvider)
	}

	return out, nil
}
