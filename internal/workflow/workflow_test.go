package workflow

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"robotorder/internal/artifact"
	"robotorder/internal/components/failure"
	"robotorder/internal/components/telemetry/telemetrytest"
	"robotorder/internal/config"
	"robotorder/internal/fetch"
	"robotorder/internal/robotsite"
	"robotorder/internal/robotsite/robotsitetest"
	"robotorder/lib/telemetry"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/require"
)

const ordersCSV = "Order number,Head,Body,Legs,Address\n" +
	"order1,1,2,3,A\n" +
	"order2,2,3,5,B\n"

func ordersServer(t *testing.T, body string, status int) string {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server.URL + "/orders.csv"
}

func testConfig(t *testing.T, ordersURL string) config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.OrdersURL = ordersURL
	cfg.OrdersPath = filepath.Join(dir, "orders.csv")
	cfg.OutputDir = filepath.Join(dir, "output")
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:workflow")
	defer cleanup()

	cfg := testConfig(t, ordersServer(t, ordersCSV, http.StatusOK))
	layout := artifact.NewLayout(cfg.OutputDir)
	rec := telemetrytest.NewRecorder()
	site := robotsitetest.NewSite(2, 0)

	w := New(cfg, site, fetch.NewFetcher(fetch.Options{}, rec), rec)
	summary, err := w.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, summary.Orders, 2)
	require.Equal(t, 3, summary.Orders[0].Attempts)
	require.Equal(t, 1, summary.Orders[1].Attempts)
	require.Equal(t, 3+1, site.Count("click", robotsite.SelectorOrder))
	for _, o := range summary.Orders {
		require.Equal(t, 2, o.Pages)
	}
	require.Equal(t, "RSB-ROBO-ORDER-0001", summary.Orders[0].Receipt.Info.OrderID)
	require.Equal(t, "B", summary.Orders[1].Receipt.Info.Address)

	require.Equal(t, layout.ArchivePath(), summary.ArchivePath)
	require.Equal(t, 2, summary.Archived)

	r, err := zip.OpenReader(layout.ArchivePath())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	names := []string{}
	for _, f := range r.File {
		names = append(names, f.Name)

		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		pages, err := api.PageCount(bytes.NewReader(buf.Bytes()), model.NewDefaultConfiguration())
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, 2, pages, f.Name)
	}
	sort.Strings(names)
	require.Equal(t, []string{"order_order1_receipt.pdf", "order_order2_receipt.pdf"}, names)

	require.NoDirExists(t, layout.ReceiptsDir())
	require.NoDirExists(t, layout.ScreenshotsDir())
	require.FileExists(t, cfg.OrdersPath)

	counts := rec.Reports(telemetrytest.KIND_COUNT, report_workflow_orders)
	require.Len(t, counts, 1)
	require.EqualValues(t, 2, counts[0].Count)
}

func TestRunOpensSiteBeforeDownloading(t *testing.T) {
	cfg := testConfig(t, ordersServer(t, ordersCSV, http.StatusOK))
	site := robotsitetest.NewSite()
	// the page never loads, so there is no consent dialog to dismiss
	site.OnNavigate = nil

	rec := telemetrytest.NewRecorder()
	_, err := New(cfg, site, fetch.NewFetcher(fetch.Options{}, rec), rec).Run(context.Background())
	require.ErrorIs(t, err, failure.ErrUIInteraction)
	require.NoFileExists(t, cfg.OrdersPath)
}

func TestRunDownloadFailure(t *testing.T) {
	cfg := testConfig(t, ordersServer(t, "nope", http.StatusInternalServerError))
	rec := telemetrytest.NewRecorder()

	_, err := New(cfg, robotsitetest.NewSite(), fetch.NewFetcher(fetch.Options{}, rec), rec).
		Run(context.Background())
	require.ErrorIs(t, err, failure.ErrNetwork)
}

func TestRunKeepsOutputOnFailure(t *testing.T) {
	cfg := testConfig(t, ordersServer(t, ordersCSV, http.StatusOK))
	cfg.Submit.MaxAttempts = 2
	layout := artifact.NewLayout(cfg.OutputDir)
	// the second order is rejected more often than allowed
	site := robotsitetest.NewSite(0, 5)

	rec := telemetrytest.NewRecorder()
	_, err := New(cfg, site, fetch.NewFetcher(fetch.Options{}, rec), rec).Run(context.Background())
	require.ErrorIs(t, err, failure.ErrUIInteraction)
	require.Equal(t, 3, site.Count("click", robotsite.SelectorOrder))

	require.FileExists(t, layout.ReceiptPath("order1"))
	require.FileExists(t, layout.ScreenshotPath("order1"))
	require.NoFileExists(t, layout.ReceiptPath("order2"))
	require.NoFileExists(t, layout.ArchivePath())
}

func archiveNames(t *testing.T, path string) []string {
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	names := []string{}
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestRunEmptyBatch(t *testing.T) {
	cfg := testConfig(t, ordersServer(t, "Order number,Head,Body,Legs,Address\n", http.StatusOK))
	layout := artifact.NewLayout(cfg.OutputDir)
	site := robotsitetest.NewSite()

	rec := telemetrytest.NewRecorder()
	summary, err := New(cfg, site, fetch.NewFetcher(fetch.Options{}, rec), rec).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	require.Empty(t, summary.Orders)
	require.Equal(t, 0, summary.Archived)
	require.Empty(t, archiveNames(t, layout.ArchivePath()))
	require.Equal(t, 0, site.Count("click", robotsite.SelectorOrder))
	require.NoDirExists(t, layout.ReceiptsDir())
}

func TestRunDiscardsStaleReceipts(t *testing.T) {
	cfg := testConfig(t, ordersServer(t, ordersCSV, http.StatusOK))
	layout := artifact.NewLayout(cfg.OutputDir)

	// receipts left behind by a run that failed half way
	for _, path := range []string{layout.ReceiptPath("old9"), layout.ScreenshotPath("old9")} {
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(path, []byte("stale"), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}

	rec := telemetrytest.NewRecorder()
	summary, err := New(cfg, robotsitetest.NewSite(), fetch.NewFetcher(fetch.Options{}, rec), rec).
		Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, summary.Orders, 2)
	require.Equal(t, 2, summary.Archived)
	require.Equal(
		t,
		[]string{"order_order1_receipt.pdf", "order_order2_receipt.pdf"},
		archiveNames(t, layout.ArchivePath()),
	)
}
