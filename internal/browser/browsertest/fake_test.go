package browsertest

import (
	"bytes"
	"context"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/require"
)

func TestPDF(t *testing.T) {
	data, err := PDF()
	if err != nil {
		t.Fatal(err)
	}
	pages, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 1, pages)
}

func TestFakePage(t *testing.T) {
	ctx := context.Background()
	page := NewFakePage()
	page.Present["#button"] = true

	clicked := 0
	page.OnClick["#button"] = func(p *FakePage) error {
		clicked++
		p.Present["#result"] = true
		return nil
	}

	exists, err := page.Exists(ctx, "#result")
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, exists)

	err = page.Click(ctx, "#button")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 1, clicked)

	exists, err = page.Exists(ctx, "#result")
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, exists)

	err = page.Click(ctx, "#missing")
	require.ErrorAs(t, err, &ErrNotFound{})

	require.Equal(t, 1, page.Count("click", "#button"))
	require.Len(t, page.Calls(), 3)
}
