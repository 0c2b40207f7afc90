// Package artifact names every file the workflow writes, so the stages that
// produce a file and the stages that consume it agree on where it lives.
package artifact

import (
	"fmt"
	"path/filepath"
)

type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) ReceiptsDir() string {
	return filepath.Join(l.Root, "receipts")
}

func (l Layout) ScreenshotsDir() string {
	return filepath.Join(l.Root, "screenshots")
}

func (l Layout) ReceiptPath(orderNumber string) string {
	return filepath.Join(l.ReceiptsDir(), fmt.Sprintf("order_%s_receipt.pdf", orderNumber))
}

func (l Layout) ScreenshotPath(orderNumber string) string {
	return filepath.Join(l.ScreenshotsDir(), fmt.Sprintf("order_%s_screenshot.png", orderNumber))
}

// ArchivePath sits beside the intermediate directories so that removing them
// leaves it in place.
func (l Layout) ArchivePath() string {
	return filepath.Join(l.Root, "receipts.zip")
}

// IntermediateDirs are the directories removed once the archive exists.
func (l Layout) IntermediateDirs() []string {
	return []string{l.ReceiptsDir(), l.ScreenshotsDir()}
}
