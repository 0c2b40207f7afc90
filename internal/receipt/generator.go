package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"robotorder/internal/artifact"
	"robotorder/internal/assert"
	"robotorder/internal/browser"
	"robotorder/internal/components/failure"
	"robotorder/internal/components/telemetry"
	"robotorder/internal/order"
	"robotorder/internal/robotsite"
)

const (
	report_generator_render = "render"
	report_generator_info   = "parse-info"
)

// Receipt is a rendered receipt of one order.
type Receipt struct {
	Path string
	// Info is zero when the receipt markup could not be parsed.
	Info Info
}

// Generator prints the receipt shown on the page to a PDF.
type Generator struct {
	page   browser.Page
	layout artifact.Layout
	tel    telemetry.API
}

func NewGenerator(page browser.Page, layout artifact.Layout, tel telemetry.API) Generator {
	assert.NotNil(page)
	assert.NotNil(tel)
	return Generator{
		page:   page,
		layout: layout,
		tel:    telemetry.NewScopedAPI("generator", tel),
	}
}

func (g Generator) Generate(ctx context.Context, o order.Order) (Receipt, error) {
	ctx, span := tracer.Start(ctx, "Generate")
	defer span.End()

	markup, err := g.page.InnerHTML(ctx, robotsite.SelectorReceipt)
	if err != nil {
		return Receipt{}, failure.Wrap(failure.ErrRender, fmt.Sprintf("order %s: read receipt", o.Number), err)
	}

	info, err := ParseInfo(markup)
	if err != nil {
		g.tel.ReportWarning(report_generator_info, o.Number, err)
	}

	doc, err := Document(fmt.Sprintf("Receipt for order %s", o.Number), markup)
	if err != nil {
		return Receipt{}, failure.Wrap(failure.ErrRender, fmt.Sprintf("order %s: build receipt document", o.Number), err)
	}

	pdf, err := g.page.RenderPDF(ctx, doc)
	if err != nil {
		span.RecordError(err)
		return Receipt{}, failure.Wrap(failure.ErrRender, fmt.Sprintf("order %s: print receipt", o.Number), err)
	}

	path := g.layout.ReceiptPath(o.Number)
	err = writeFile(path, pdf)
	if err != nil {
		return Receipt{}, failure.Wrap(failure.ErrRender, fmt.Sprintf("order %s: save receipt", o.Number), err)
	}

	g.tel.ReportDebug(report_generator_render, o.Number, path, info.OrderID)
	return Receipt{Path: path, Info: info}, nil
}

func writeFile(path string, data []byte) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
