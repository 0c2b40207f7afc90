package receipt

import (
	"context"
	"fmt"

	"robotorder/internal/artifact"
	"robotorder/internal/assert"
	"robotorder/internal/browser"
	"robotorder/internal/components/failure"
	"robotorder/internal/components/telemetry"
	"robotorder/internal/order"
	"robotorder/internal/robotsite"
)

const report_capturer_capture = "capture"

// Capturer saves a picture of the ordered robot.
type Capturer struct {
	page   browser.Page
	layout artifact.Layout
	tel    telemetry.API
}

func NewCapturer(page browser.Page, layout artifact.Layout, tel telemetry.API) Capturer {
	assert.NotNil(page)
	assert.NotNil(tel)
	return Capturer{
		page:   page,
		layout: layout,
		tel:    telemetry.NewScopedAPI("capturer", tel),
	}
}

func (c Capturer) Capture(ctx context.Context, o order.Order) (string, error) {
	ctx, span := tracer.Start(ctx, "Capture")
	defer span.End()

	img, err := c.page.Screenshot(ctx, robotsite.SelectorPreview)
	if err != nil {
		span.RecordError(err)
		return "", failure.Wrap(failure.ErrRender, fmt.Sprintf("order %s: screenshot robot preview", o.Number), err)
	}

	path := c.layout.ScreenshotPath(o.Number)
	err = writeFile(path, img)
	if err != nil {
		return "", failure.Wrap(failure.ErrRender, fmt.Sprintf("order %s: save screenshot", o.Number), err)
	}

	c.tel.ReportDebug(report_capturer_capture, o.Number, path, len(img))
	return path, nil
}
