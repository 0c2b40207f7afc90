// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"robotorder/internal/browser"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

type Call struct {
	Method   string
	Selector string
	Value    string
}

func (c Call) String() string {
	if c.Value == "" {
		return fmt.Sprintf("%s %s", c.Method, c.Selector)
	}
	return fmt.Sprintf("%s %s=%s", c.Method, c.Selector, c.Value)
}

type ErrNotFound struct {
	Selector string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("no element matches %q", e.Selector)
}

// FakePage is a scripted DOM. Elements exist when Present says so, clicks run
// the handler registered in OnClick, and every call is recorded in order.
type FakePage struct {
	Present map[string]bool
	// Values holds what was last selected or typed into each element.
	Values map[string]string
	Inner  map[string]string
	// Images overrides the generated screenshot for an element.
	Images     map[string][]byte
	OnClick    map[string]func(p *FakePage) error
	OnNavigate func(p *FakePage, url string) error
	// RenderErr makes RenderPDF fail.
	RenderErr error

	calls []Call
	// Rendered holds every document passed to RenderPDF.
	Rendered []string
}

var _ browser.Page = (*FakePage)(nil)

func init() {
	api.DisableConfigDir()
}

func NewFakePage() *FakePage {
	return &FakePage{
		Present: map[string]bool{},
		Values:  map[string]string{},
		Inner:   map[string]string{},
		Images:  map[string][]byte{},
		OnClick: map[string]func(p *FakePage) error{},
	}
}

func (p *FakePage) record(method, selector, value string) {
	p.calls = append(p.calls, Call{Method: method, Selector: selector, Value: value})
}

func (p *FakePage) require(ctx context.Context, selector string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !p.Present[selector] {
		return ErrNotFound{Selector: selector}
	}
	return nil
}

// Calls returns every call made so far.
func (p *FakePage) Calls() []Call {
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// Count returns how many times method was called on selector.
func (p *FakePage) Count(method, selector string) int {
	n := 0
	for _, c := range p.calls {
		if c.Method == method && c.Selector == selector {
			n++
		}
	}
	return n
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.record("navigate", url, "")
	if p.OnNavigate != nil {
		return p.OnNavigate(p, url)
	}
	return nil
}

func (p *FakePage) Click(ctx context.Context, selector string) error {
	err := p.require(ctx, selector)
	if err != nil {
		return err
	}
	p.record("click", selector, "")
	handler, ok := p.OnClick[selector]
	if ok {
		return handler(p)
	}
	return nil
}

func (p *FakePage) SelectOption(ctx context.Context, selector, value string) error {
	err := p.require(ctx, selector)
	if err != nil {
		return err
	}
	p.record("select", selector, value)
	p.Values[selector] = value
	return nil
}

func (p *FakePage) Fill(ctx context.Context, selector, text string) error {
	err := p.require(ctx, selector)
	if err != nil {
		return err
	}
	p.record("fill", selector, text)
	p.Values[selector] = text
	return nil
}

func (p *FakePage) Exists(ctx context.Context, selector string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	p.record("exists", selector, "")
	return p.Present[selector], nil
}

func (p *FakePage) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	err := p.require(ctx, selector)
	if err != nil {
		return nil, err
	}
	p.record("screenshot", selector, "")
	img, ok := p.Images[selector]
	if ok {
		return img, nil
	}
	return PNG(64, 48)
}

func (p *FakePage) InnerHTML(ctx context.Context, selector string) (string, error) {
	err := p.require(ctx, selector)
	if err != nil {
		return "", err
	}
	p.record("inner_html", selector, "")
	return p.Inner[selector], nil
}

// RenderPDF returns a real single page PDF, its content does not depend on
// html.
func (p *FakePage) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	p.record("render_pdf", "", "")
	if p.RenderErr != nil {
		return nil, p.RenderErr
	}
	p.Rendered = append(p.Rendered, html)
	return PDF()
}

// PNG encodes a solid image of the given size.
func PNG(width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := color.RGBA{R: 0x2f, G: 0x6f, B: 0xb0, A: 0xff}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PDF builds a one page PDF holding a small image.
func PDF() ([]byte, error) {
	img, err := PNG(32, 32)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = api.ImportImages(
		nil,
		&buf,
		[]io.Reader{bytes.NewReader(img)},
		pdfcpu.DefaultImportConfig(),
		model.NewDefaultConfiguration(),
	)
	if err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	return buf.Bytes(), nil
}
