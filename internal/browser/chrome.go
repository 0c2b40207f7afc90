package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"robotorder/internal/assert"
	"robotorder/internal/components/telemetry"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	report_chrome_launch = "launch"
	report_chrome_action = "action"
	report_chrome_cdp    = "cdp"
	report_chrome_close  = "close"
)

var tracer = otel.Tracer("robotorder/internal/browser")

type Options struct {
	// Headful shows the browser window. Printing to PDF only works headless,
	// so RenderPDF fails in this mode.
	Headful bool
	// SlowMotion is the minimum delay between two page actions.
	SlowMotion time.Duration
	// ActionTimeout bounds every single page action, including waiting for the
	// element it targets to appear. 0 means no bound.
	ActionTimeout time.Duration
	// ExecPath overrides the chrome binary lookup.
	ExecPath string
}

// Chrome is a Page backed by a chrome tab driven over the devtools protocol.
type Chrome struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    Options
	limiter *rate.Limiter
	tel     telemetry.API
}

var _ Page = (*Chrome)(nil)

// Launch starts a browser and opens its first tab. The browser lives until
// Close is called, ctx only bounds the launch itself.
func Launch(ctx context.Context, opts Options, tel telemetry.API) (*Chrome, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("chrome", tel)

	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	if opts.Headful {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	allocOpts = append(allocOpts, chromedp.WindowSize(1280, 1024))

	// the browser must outlive ctx, only the launch is bound to it
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(
		allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			tel.ReportDebug(report_chrome_cdp, fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			tel.ReportDebug(report_chrome_cdp, fmt.Sprintf(format, args...))
		}),
	)
	cancel := func() {
		cancelTab()
		cancelAlloc()
	}

	// the first Run allocates the browser, it must not be given a context
	// that is cancelled before the browser should close
	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(tabCtx)
	}()
	select {
	case err := <-started:
		if err != nil {
			cancel()
			tel.ReportBroken(report_chrome_launch, err)
			return nil, fmt.Errorf("launch browser: %w", err)
		}
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}

	c := &Chrome{
		ctx:    tabCtx,
		cancel: cancel,
		opts:   opts,
		tel:    tel,
	}
	if opts.SlowMotion > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.SlowMotion), 1)
	}
	tel.ReportDebug(report_chrome_launch, "headful", opts.Headful, "slow_motion", opts.SlowMotion.String())
	return c, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		c.tel.ReportWarning(report_chrome_close, err)
		return err
	}
	return nil
}

// run executes actions in the tab. The actions are aborted when ctx is done or
// the action timeout runs out, whichever comes first.
func (c *Chrome) run(ctx context.Context, name, selector string, actions ...chromedp.Action) error {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("selector", selector),
	))
	defer span.End()

	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return err
		}
	}

	var actionCtx context.Context
	var cancel context.CancelFunc
	if c.opts.ActionTimeout > 0 {
		actionCtx, cancel = context.WithTimeout(c.ctx, c.opts.ActionTimeout)
	} else {
		actionCtx, cancel = context.WithCancel(c.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	c.tel.ReportDebug(report_chrome_action, name, selector)
	err := chromedp.Run(actionCtx, actions...)
	if err != nil {
		span.RecordError(err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s %q: timed out after %s", name, selector, c.opts.ActionTimeout)
		}
		return fmt.Errorf("%s %q: %w", name, selector, err)
	}
	return nil
}

func by(selector string) chromedp.QueryOption {
	if IsXPath(selector) {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, "navigate", url,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	return c.run(ctx, "click", selector, chromedp.Click(selector, by(selector)))
}

// React tracks the value of controlled inputs itself, setting the property
// directly does not notify it. Going through the prototype's setter and
// dispatching a bubbling change event does.
const selectOptionScript = `(function(sel, value) {
	const el = document.querySelector(sel);
	if (!el) return "element not found";
	if (!Array.from(el.options).some((o) => o.value === value)) return "no option with value " + value;
	const setter = Object.getOwnPropertyDescriptor(HTMLSelectElement.prototype, "value").set;
	setter.call(el, value);
	el.dispatchEvent(new Event("change", { bubbles: true }));
	return "";
})(%s, %s)`

func (c *Chrome) SelectOption(ctx context.Context, selector, value string) error {
	if IsXPath(selector) {
		return fmt.Errorf("select %q: xpath selectors are not supported", selector)
	}
	selJSON, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var problem string
	err = c.run(ctx, "select", selector,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(selectOptionScript, selJSON, valueJSON), &problem),
	)
	if err != nil {
		return err
	}
	if problem != "" {
		return fmt.Errorf("select %q: %s", selector, problem)
	}
	return nil
}

func (c *Chrome) Fill(ctx context.Context, selector, text string) error {
	return c.run(ctx, "fill", selector,
		chromedp.Clear(selector, by(selector)),
		chromedp.SendKeys(selector, text, by(selector)),
	)
}

func (c *Chrome) Exists(ctx context.Context, selector string) (bool, error) {
	var nodes []*cdp.Node
	err := c.run(ctx, "exists", selector,
		chromedp.Nodes(selector, &nodes, by(selector), chromedp.AtLeast(0)),
	)
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (c *Chrome) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	var buf []byte
	err := c.run(ctx, "screenshot", selector,
		chromedp.ScrollIntoView(selector, by(selector)),
		chromedp.Screenshot(selector, &buf, by(selector)),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Chrome) InnerHTML(ctx context.Context, selector string) (string, error) {
	var html string
	err := c.run(ctx, "inner_html", selector,
		chromedp.InnerHTML(selector, &html, by(selector)),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

// RenderPDF loads html into a scratch tab and prints it.
func (c *Chrome) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if c.opts.Headful {
		return nil, fmt.Errorf("render pdf: printing is only supported by a headless browser")
	}

	tabCtx, closeTab := chromedp.NewContext(c.ctx)
	defer closeTab()
	scratch := &Chrome{ctx: tabCtx, opts: c.opts, tel: c.tel}

	var buf []byte
	err := scratch.run(ctx, "render_pdf", "",
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			err = page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
			if err != nil {
				return err
			}
			buf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
