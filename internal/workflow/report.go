package workflow

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteReport prints a table of the processed orders to out.
func WriteReport(out io.Writer, summary Summary) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)

	t.AppendHeader(table.Row{"Order", "Receipt ID", "Attempts", "Pages", "Receipt"})
	totalAttempts := 0
	for _, o := range summary.Orders {
		t.AppendRow(table.Row{
			o.Order.Number,
			o.Receipt.Info.OrderID,
			o.Attempts,
			o.Pages,
			o.Receipt.Path,
		})
		totalAttempts += o.Attempts
	}
	t.AppendFooter(table.Row{len(summary.Orders), "", totalAttempts, "", summary.ArchivePath})
	t.Render()
}
