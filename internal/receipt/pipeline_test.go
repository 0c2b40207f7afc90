package receipt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"robotorder/internal/artifact"
	"robotorder/internal/components/failure"
	"robotorder/internal/components/telemetry/telemetrytest"
	"robotorder/internal/order"
	"robotorder/internal/robotsite"
	"robotorder/internal/robotsite/robotsitetest"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/require"
)

type step struct {
	stage string
	order string
}

type recorder struct {
	steps []step
	fail  string
}

type recordingGenerator struct{ r *recorder }

func (g recordingGenerator) Generate(ctx context.Context, o order.Order) (Receipt, error) {
	g.r.steps = append(g.r.steps, step{"generate", o.Number})
	if g.r.fail == "generate" {
		return Receipt{}, failure.New(failure.ErrRender, "generate failed")
	}
	return Receipt{Path: "receipt_" + o.Number}, nil
}

type recordingCapturer struct{ r *recorder }

func (c recordingCapturer) Capture(ctx context.Context, o order.Order) (string, error) {
	c.r.steps = append(c.r.steps, step{"capture", o.Number})
	if c.r.fail == "capture" {
		return "", failure.New(failure.ErrRender, "capture failed")
	}
	return "screenshot_" + o.Number, nil
}

type recordingComposer struct{ r *recorder }

func (c recordingComposer) Compose(ctx context.Context, receiptPath, screenshotPath string) (int, error) {
	c.r.steps = append(c.r.steps, step{"compose " + receiptPath + " " + screenshotPath, ""})
	return 2, nil
}

func newRecordingPipeline(r *recorder) Pipeline {
	return NewPipeline(
		recordingGenerator{r},
		recordingCapturer{r},
		recordingComposer{r},
		telemetrytest.NewRecorder(),
	)
}

func TestPipelineOrder(t *testing.T) {
	r := &recorder{}
	pipeline := newRecordingPipeline(r)

	for _, number := range []string{"1", "2"} {
		result, err := pipeline.Process(context.Background(), order.Order{Number: number})
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, 2, result.Pages)
		require.Equal(t, "receipt_"+number, result.Receipt.Path)
	}

	require.Equal(t, []step{
		{"generate", "1"},
		{"capture", "1"},
		{"compose receipt_1 screenshot_1", ""},
		{"generate", "2"},
		{"capture", "2"},
		{"compose receipt_2 screenshot_2", ""},
	}, r.steps)
}

func TestPipelineStopsOnFailure(t *testing.T) {
	table := []struct {
		fail     string
		expected []step
	}{
		{
			fail:     "generate",
			expected: []step{{"generate", "1"}},
		},
		{
			fail:     "capture",
			expected: []step{{"generate", "1"}, {"capture", "1"}},
		},
	}

	for _, test := range table {
		r := &recorder{fail: test.fail}
		_, err := newRecordingPipeline(r).Process(context.Background(), order.Order{Number: "1"})
		require.ErrorIs(t, err, failure.ErrRender)
		require.Equal(t, test.expected, r.steps)
	}
}

func confirmedSite(t *testing.T, o order.Order) *robotsitetest.Site {
	site := robotsitetest.NewSite()
	ctx := context.Background()
	steps := []func() error{
		func() error { return site.Navigate(ctx, "https://example.com") },
		func() error { return site.Click(ctx, robotsite.SelectorConsentOK) },
		func() error { return site.SelectOption(ctx, robotsite.SelectorHead, o.Head) },
		func() error { return site.Click(ctx, robotsite.SelectorBody(o.Body)) },
		func() error { return site.Fill(ctx, robotsite.SelectorLegs, o.Legs) },
		func() error { return site.Fill(ctx, robotsite.SelectorAddress, o.Address) },
		func() error { return site.Click(ctx, robotsite.SelectorOrder) },
	}
	for _, step := range steps {
		err := step()
		if err != nil {
			t.Fatal(err)
		}
	}
	return site
}

func TestPipelineProducesTwoPageReceipt(t *testing.T) {
	o := order.Order{Number: "order1", Head: "1", Body: "2", Legs: "3", Address: "A"}
	site := confirmedSite(t, o)
	layout := artifact.NewLayout(filepath.Join(t.TempDir(), "output"))
	rec := telemetrytest.NewRecorder()

	pipeline := NewPipeline(
		NewGenerator(site, layout, rec),
		NewCapturer(site, layout, rec),
		NewComposer(rec),
		rec,
	)
	result, err := pipeline.Process(context.Background(), o)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, layout.ReceiptPath("order1"), result.Receipt.Path)
	require.Equal(t, layout.ScreenshotPath("order1"), result.ScreenshotPath)
	require.FileExists(t, result.ScreenshotPath)
	require.Equal(t, 2, result.Pages)

	pages, err := api.PageCountFile(result.Receipt.Path)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, pages)

	require.Equal(t, "A", result.Receipt.Info.Address)
	require.Equal(t, []string{"Head: 1", "Body: 2", "Legs: 3"}, result.Receipt.Info.Parts)
	require.Len(t, site.Rendered, 1)
	require.NotContains(t, site.Rendered[0], "<script>")
}

func TestComposerRequiresBothFiles(t *testing.T) {
	dir := t.TempDir()
	receiptPath := filepath.Join(dir, "receipt.pdf")
	err := os.WriteFile(receiptPath, []byte("%PDF-1.4"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewComposer(telemetrytest.NewRecorder()).
		Compose(context.Background(), receiptPath, filepath.Join(dir, "missing.png"))
	require.ErrorIs(t, err, failure.ErrRender)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestGeneratorMissingReceipt(t *testing.T) {
	site := robotsitetest.NewSite()
	err := site.Navigate(context.Background(), "https://example.com")
	if err != nil {
		t.Fatal(err)
	}

	layout := artifact.NewLayout(t.TempDir())
	_, err = NewGenerator(site, layout, telemetrytest.NewRecorder()).
		Generate(context.Background(), order.Order{Number: "1"})
	require.ErrorIs(t, err, failure.ErrRender)
	require.NoFileExists(t, layout.ReceiptPath("1"))
}
