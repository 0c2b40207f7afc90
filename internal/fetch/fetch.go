package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"robotorder/internal/assert"
	"robotorder/internal/components/failure"
	"robotorder/internal/components/telemetry"
	"robotorder/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

const (
	report_fetch_download = "download"
	report_fetch_cleanup  = "cleanup-temp"
	report_fetch_dump     = "dump-dir"
)

var tracer = otel.Tracer("robotorder/internal/fetch")

type Options struct {
	Timeout time.Duration
	// wraps the transport so that sites behind cloudflare's bot check still
	// serve the file
	CloudflareBypass bool
	// 0 disables rate limiting
	RequestsPerSecond float64
	// when set, every request and response is written to a file in DumpDir
	DumpDir string
}

// Fetcher downloads remote files to local paths.
type Fetcher struct {
	http *resty.Client
	tel  telemetry.API
}

func NewFetcher(opts Options, tel telemetry.API) *Fetcher {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("fetch", tel)

	httpClient := resty.New()
	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	if opts.RequestsPerSecond > 0 {
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, tracer)

	if opts.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(opts.DumpDir)
		if err != nil {
			tel.ReportWarning(report_fetch_dump, opts.DumpDir, err)
		} else {
			restyutil.DumpExchanges(httpClient, output)
		}
	}

	return &Fetcher{
		http: httpClient,
		tel:  tel,
	}
}

// Download fetches url and stores the body at dest, replacing whatever was
// there. The body is written to a temporary file beside dest first, so dest
// never holds a partial download.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	ctx, span := tracer.Start(ctx, "Download")
	defer span.End()

	res, err := f.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		span.RecordError(err)
		return failure.Wrap(failure.ErrNetwork, fmt.Sprintf("GET %s", url), err)
	}

	if res.IsError() {
		err := failure.New(failure.ErrNetwork, "GET %s: unexpected status %s", url, res.Status())
		span.RecordError(err)
		return err
	}

	dir := filepath.Dir(dest)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return failure.Wrap(failure.ErrFilesystem, "create download directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return failure.Wrap(failure.ErrFilesystem, "create temporary file", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		err := os.Remove(tmpPath)
		if err != nil && !os.IsNotExist(err) {
			f.tel.ReportWarning(report_fetch_cleanup, err)
		}
	}()

	written, err := tmp.Write(res.Body())
	if err != nil {
		tmp.Close()
		return failure.Wrap(failure.ErrFilesystem, "write temporary file", err)
	}
	err = tmp.Close()
	if err != nil {
		return failure.Wrap(failure.ErrFilesystem, "write temporary file", err)
	}

	err = os.Rename(tmpPath, dest)
	if err != nil {
		return failure.Wrap(failure.ErrFilesystem, fmt.Sprintf("replace %s", dest), err)
	}

	f.tel.ReportDebug(report_fetch_download, url, dest, written)
	return nil
}
