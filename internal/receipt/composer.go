package receipt

import (
	"context"
	"fmt"
	"os"

	"robotorder/internal/assert"
	"robotorder/internal/components/failure"
	"robotorder/internal/components/telemetry"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const report_composer_compose = "compose"

func init() {
	// keep pdfcpu from creating a config directory under the user's home
	api.DisableConfigDir()
}

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Composer appends the robot screenshot to its receipt.
type Composer struct {
	tel telemetry.API
}

func NewComposer(tel telemetry.API) Composer {
	assert.NotNil(tel)
	return Composer{tel: telemetry.NewScopedAPI("composer", tel)}
}

// Compose adds the image at screenshotPath as a new last page of the PDF at
// receiptPath, centered on the page. The receipt is rewritten in place. It
// returns the page count of the result.
func (c Composer) Compose(ctx context.Context, receiptPath, screenshotPath string) (int, error) {
	_, span := tracer.Start(ctx, "Compose")
	defer span.End()

	for _, path := range []string{receiptPath, screenshotPath} {
		_, err := os.Stat(path)
		if err != nil {
			return 0, failure.Wrap(failure.ErrRender, "compose receipt", err)
		}
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Center

	err := api.ImportImagesFile([]string{screenshotPath}, receiptPath, imp, pdfConfig())
	if err != nil {
		span.RecordError(err)
		return 0, failure.Wrap(failure.ErrRender, fmt.Sprintf("append %s to %s", screenshotPath, receiptPath), err)
	}

	pages, err := api.PageCountFile(receiptPath)
	if err != nil {
		return 0, failure.Wrap(failure.ErrRender, fmt.Sprintf("count pages of %s", receiptPath), err)
	}

	c.tel.ReportDebug(report_composer_compose, receiptPath, pages)
	return pages, nil
}
