package receipt

import (
	"context"

	"robotorder/internal/assert"
	"robotorder/internal/components/telemetry"
	"robotorder/internal/order"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const report_pipeline_done = "done"

var tracer = otel.Tracer("robotorder/internal/receipt")

type ReceiptGenerator interface {
	Generate(ctx context.Context, o order.Order) (Receipt, error)
}

type ScreenshotCapturer interface {
	Capture(ctx context.Context, o order.Order) (string, error)
}

type ReceiptComposer interface {
	Compose(ctx context.Context, receiptPath, screenshotPath string) (int, error)
}

type Result struct {
	Order          order.Order
	Receipt        Receipt
	ScreenshotPath string
	Pages          int
}

// Pipeline produces the final receipt of a confirmed order: the receipt is
// printed, the robot is captured and only then are the two combined.
type Pipeline struct {
	generator ReceiptGenerator
	capturer  ScreenshotCapturer
	composer  ReceiptComposer
	tel       telemetry.API
}

func NewPipeline(generator ReceiptGenerator, capturer ScreenshotCapturer, composer ReceiptComposer, tel telemetry.API) Pipeline {
	assert.NotNil(generator)
	assert.NotNil(capturer)
	assert.NotNil(composer)
	assert.NotNil(tel)

	return Pipeline{
		generator: generator,
		capturer:  capturer,
		composer:  composer,
		tel:       telemetry.NewScopedAPI("receipt", tel),
	}
}

// Process must be called while the order confirmation is on screen.
func (p Pipeline) Process(ctx context.Context, o order.Order) (Result, error) {
	ctx, span := tracer.Start(ctx, "Process", trace.WithAttributes(
		attribute.String("order", o.Number),
	))
	defer span.End()

	receipt, err := p.generator.Generate(ctx, o)
	if err != nil {
		return Result{}, err
	}
	screenshot, err := p.capturer.Capture(ctx, o)
	if err != nil {
		return Result{}, err
	}
	pages, err := p.composer.Compose(ctx, receipt.Path, screenshot)
	if err != nil {
		return Result{}, err
	}

	span.SetAttributes(attribute.Int("pages", pages))
	p.tel.ReportDebug(report_pipeline_done, o.Number, receipt.Path, pages)
	return Result{
		Order:          o,
		Receipt:        receipt,
		ScreenshotPath: screenshot,
		Pages:          pages,
	}, nil
}
