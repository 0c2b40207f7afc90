package workflow

import (
	"context"
	"fmt"

	"robotorder/internal/archive"
	"robotorder/internal/artifact"
	"robotorder/internal/assert"
	"robotorder/internal/browser"
	"robotorder/internal/components/telemetry"
	"robotorder/internal/config"
	"robotorder/internal/order"
	"robotorder/internal/receipt"
	"robotorder/internal/robotsite"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_workflow_prepare  = "prepare"
	report_workflow_download = "download"
	report_workflow_batch    = "batch"
	report_workflow_order    = "order"
	report_workflow_archive  = "archive"
	report_workflow_cleanup  = "cleanup"
	report_workflow_orders   = "orders_completed"
)

var (
	tracer = otel.Tracer("robotorder/internal/workflow")
	meter  = otel.Meter("robotorder/internal/workflow")

	ordersCompleted, _ = meter.Int64Counter(
		"orders_completed",
		metric.WithDescription("Orders confirmed by the site and turned into a receipt."),
	)
	submitAttempts, _ = meter.Int64Histogram(
		"submit_attempts",
		metric.WithDescription("Clicks on the order button it took to get an order confirmed."),
	)
)

// Downloader fetches the orders file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// OrderResult is a processed order.
type OrderResult struct {
	receipt.Result
	Attempts int
}

type Summary struct {
	Orders      []OrderResult
	ArchivePath string
	Archived    int
}

// Workflow places every order of the orders file on the robot order site and
// bundles the receipts.
type Workflow struct {
	cfg        config.Config
	layout     artifact.Layout
	page       browser.Page
	downloader Downloader
	tel        telemetry.API
}

func New(cfg config.Config, page browser.Page, downloader Downloader, tel telemetry.API) Workflow {
	assert.NotNil(page)
	assert.NotNil(downloader)
	assert.NotNil(tel)
	assert.NotEmptyStr("site_url", cfg.SiteURL)
	assert.NotEmptyStr("orders_url", cfg.OrdersURL)
	assert.NotEmptyStr("orders_path", cfg.OrdersPath)
	assert.NotEmptyStr("output_dir", cfg.OutputDir)

	return Workflow{
		cfg:        cfg,
		layout:     artifact.NewLayout(cfg.OutputDir),
		page:       page,
		downloader: downloader,
		tel:        telemetry.NewScopedAPI("workflow", tel),
	}
}

// Run executes the whole workflow. Intermediate output of an earlier run is
// discarded first. Any error aborts it, the output written until then is left
// in place.
func (w Workflow) Run(ctx context.Context) (summary Summary, err error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	err = w.stage(ctx, "prepare_output", func(ctx context.Context) error {
		dirs := w.layout.IntermediateDirs()
		w.tel.ReportDebug(report_workflow_prepare, dirs)
		return archive.Prepare(dirs...)
	})
	if err != nil {
		return summary, err
	}

	site := robotsite.NewSite(w.page, w.cfg.SiteURL, w.tel)
	err = w.stage(ctx, "open_site", site.Open)
	if err != nil {
		return summary, err
	}

	var batch order.Batch
	err = w.stage(ctx, "download_orders", func(ctx context.Context) error {
		err := w.downloader.Download(ctx, w.cfg.OrdersURL, w.cfg.OrdersPath)
		if err != nil {
			return err
		}
		w.tel.ReportDebug(report_workflow_download, w.cfg.OrdersURL, w.cfg.OrdersPath)

		batch, err = order.ReadFile(w.cfg.OrdersPath)
		return err
	})
	if err != nil {
		return summary, err
	}
	w.tel.ReportCount(report_workflow_batch, int64(len(batch)))

	pipeline := receipt.NewPipeline(
		receipt.NewGenerator(w.page, w.layout, w.tel),
		receipt.NewCapturer(w.page, w.layout, w.tel),
		receipt.NewComposer(w.tel),
		w.tel,
	)
	submitter := robotsite.NewSubmitter(site, w.page, w.cfg.Submit.MaxAttempts, w.tel)

	for i, o := range batch {
		result, err := w.placeOrder(ctx, submitter, pipeline, o)
		if err != nil {
			return summary, fmt.Errorf("order %d of %d: %w", i+1, len(batch), err)
		}
		summary.Orders = append(summary.Orders, result)
	}
	w.tel.ReportCount(report_workflow_orders, int64(len(summary.Orders)))

	err = w.stage(ctx, "archive", func(ctx context.Context) error {
		count, err := archive.ZipDir(ctx, w.layout.ReceiptsDir(), w.layout.ArchivePath())
		if err != nil {
			return err
		}
		summary.ArchivePath = w.layout.ArchivePath()
		summary.Archived = count
		w.tel.ReportDebug(report_workflow_archive, summary.ArchivePath, count)
		return nil
	})
	if err != nil {
		return summary, err
	}

	err = w.stage(ctx, "cleanup", func(ctx context.Context) error {
		dirs := w.layout.IntermediateDirs()
		w.tel.ReportDebug(report_workflow_cleanup, dirs)
		return archive.Cleanup(dirs...)
	})
	if err != nil {
		return summary, err
	}

	return summary, nil
}

func (w Workflow) placeOrder(ctx context.Context, submitter robotsite.Submitter, pipeline receipt.Pipeline, o order.Order) (OrderResult, error) {
	ctx, span := tracer.Start(ctx, "Order", trace.WithAttributes(
		attribute.String("order", o.Number),
	))
	defer span.End()

	var result receipt.Result
	attempts, err := submitter.Submit(ctx, o, func(ctx context.Context, o order.Order) error {
		var err error
		result, err = pipeline.Process(ctx, o)
		return err
	})
	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return OrderResult{}, err
	}

	submitAttempts.Record(ctx, int64(attempts))
	ordersCompleted.Add(ctx, 1)
	w.tel.ReportDebug(report_workflow_order, o.Number, attempts, result.Receipt.Info.OrderID)

	return OrderResult{Result: result, Attempts: attempts}, nil
}

// stage runs fn in its own span.
func (w Workflow) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
